// Package assistant is the application-scoped entry point used by every frontend.
// The heavy collaborators (vector store connection, embedder, corpus index) are
// built lazily on first use and shared afterwards.
package assistant

import (
	"context"
	"fmt"

	"github.com/futig/traffic-law-assistant/internal/entity"
	"github.com/futig/traffic-law-assistant/internal/pkg/lazy"
	"github.com/futig/traffic-law-assistant/internal/usecase/index"
	"github.com/futig/traffic-law-assistant/internal/usecase/rag"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const healthStatusOK = "ok"

// Core holds the long-lived collaborators
type Core struct {
	Index    *index.Index
	Pipeline *rag.Service
	Provider string
}

// InitFunc builds the core. It may be called again after a failure.
type InitFunc func(ctx context.Context) (*Core, error)

type Usecase struct {
	core     *lazy.Value[*Core]
	provider string
}

// New creates the usecase. provider is reported by Health even before the core is ready.
func New(init InitFunc, provider string) *Usecase {
	return &Usecase{
		core:     lazy.New(init),
		provider: provider,
	}
}

func (u *Usecase) ready(ctx context.Context) (*Core, error) {
	core, err := u.core.Get(ctx)
	if err != nil {
		ctxzap.Error(ctx, "assistant core initialization failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", entity.ErrServiceUnavailable, err)
	}
	return core, nil
}

// Warmup forces core construction. Frontends call it at startup but keep
// serving if it fails.
func (u *Usecase) Warmup(ctx context.Context) error {
	_, err := u.ready(ctx)
	return err
}

func (u *Usecase) SearchSimilar(ctx context.Context, query string, n int) ([]entity.SearchResult, error) {
	core, err := u.ready(ctx)
	if err != nil {
		return nil, err
	}
	return core.Index.Search(ctx, query, n)
}

func (u *Usecase) GetArticle(ctx context.Context, id string) (*entity.Article, error) {
	core, err := u.ready(ctx)
	if err != nil {
		return nil, err
	}
	return core.Index.Get(ctx, id)
}

func (u *Usecase) SampleRandomArticles(ctx context.Context, n int) ([]entity.Article, error) {
	core, err := u.ready(ctx)
	if err != nil {
		return nil, err
	}
	return core.Index.SampleRandom(ctx, n)
}

func (u *Usecase) CollectionStats(ctx context.Context) (entity.CollectionStats, error) {
	core, err := u.ready(ctx)
	if err != nil {
		return entity.CollectionStats{}, err
	}
	return core.Index.Stats(ctx)
}

// GenerateChatResponse returns an error only when the service is unavailable.
// Pipeline failures are carried in the response itself.
func (u *Usecase) GenerateChatResponse(ctx context.Context, query string, maxArticles int) (entity.RAGResponse, error) {
	core, err := u.ready(ctx)
	if err != nil {
		return entity.RAGResponse{}, err
	}
	return core.Pipeline.Chat(ctx, query, maxArticles), nil
}

func (u *Usecase) GenerateTest(ctx context.Context, n int) ([]entity.TestQuestion, error) {
	core, err := u.ready(ctx)
	if err != nil {
		return nil, err
	}
	return core.Pipeline.GenerateQuestions(ctx, n)
}

func (u *Usecase) GenerateTestDocument(ctx context.Context, n int) (*entity.GeneratedTest, error) {
	core, err := u.ready(ctx)
	if err != nil {
		return nil, err
	}
	return core.Pipeline.GenerateTest(ctx, n)
}

func (u *Usecase) ServiceInfo(ctx context.Context) (entity.ServiceInfo, error) {
	core, err := u.ready(ctx)
	if err != nil {
		return entity.ServiceInfo{}, err
	}
	return core.Pipeline.ServiceInfo(ctx)
}

func (u *Usecase) SimilarArticles(ctx context.Context, id string, n int) (entity.SimilarArticles, error) {
	core, err := u.ready(ctx)
	if err != nil {
		return entity.SimilarArticles{}, err
	}
	return core.Index.Similar(ctx, id, n)
}

// Health never fails. An unavailable core is reported through the flags.
func (u *Usecase) Health(ctx context.Context) entity.Health {
	health := entity.Health{Status: healthStatusOK, LLMProvider: u.provider}

	core, err := u.ready(ctx)
	if err != nil {
		health.Error = err.Error()
		return health
	}

	stats, err := core.Index.Stats(ctx)
	if err != nil {
		health.Error = err.Error()
		return health
	}

	health.DatabaseReady = true
	health.TotalArticles = stats.TotalDocuments
	health.RAGEnabled = true
	return health
}

func (u *Usecase) IndexCorpus(ctx context.Context, articles []entity.Article) (entity.IndexReport, error) {
	core, err := u.ready(ctx)
	if err != nil {
		return entity.IndexReport{}, err
	}
	return core.Index.Index(ctx, articles)
}

func (u *Usecase) ResetCollection(ctx context.Context) error {
	core, err := u.ready(ctx)
	if err != nil {
		return err
	}
	return core.Index.Reset(ctx)
}
