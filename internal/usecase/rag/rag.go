// Package rag runs the retrieval-augmented chat pipeline and the practice-test pipeline.
package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/futig/traffic-law-assistant/internal/entity"
	"github.com/futig/traffic-law-assistant/internal/pkg/logger"
	"github.com/futig/traffic-law-assistant/internal/usecase/parser"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	noResultsResponse = "Lo siento, no encontré información relevante en la Ley 109 para responder tu consulta. Intenta reformular tu pregunta o usar términos más específicos."
	errorResponseFmt  = "Lo siento, ocurrió un error al procesar tu consulta: %s"

	serviceType = "RAG (Retrieval-Augmented Generation)"
)

var capabilities = []string{
	"Búsqueda semántica",
	"Generación de respuestas conversacionales",
	"Citas de artículos específicos",
	"Respuestas contextualizadas",
}

type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]entity.SearchResult, error)
	SampleRandom(ctx context.Context, n int) ([]entity.Article, error)
	Stats(ctx context.Context) (entity.CollectionStats, error)
	EmbeddingModel() string
}

type Generator interface {
	Answer(ctx context.Context, query string, articles []entity.Article) (string, error)
	Question(ctx context.Context, example string, article entity.Article, index int) (string, error)
	Model() string
}

type Options struct {
	// Concurrency bounds parallel question generation. 1 means sequential.
	Concurrency   int
	ExampleFormat string
	Provider      string
}

type Service struct {
	retriever   Retriever
	generator   Generator
	concurrency int
	example     string
	provider    string
	now         func() time.Time
}

func New(retriever Retriever, generator Generator, opts Options) *Service {
	return &Service{
		retriever:   retriever,
		generator:   generator,
		concurrency: max(opts.Concurrency, 1),
		example:     opts.ExampleFormat,
		provider:    opts.Provider,
		now:         time.Now,
	}
}

// Chat answers query from at most maxArticles retrieved articles.
// Failures are reported inside the response, never as an error.
func (s *Service) Chat(ctx context.Context, query string, maxArticles int) entity.RAGResponse {
	ctx = logger.WithAction(ctx, "rag_chat")

	results, err := s.retriever.Search(ctx, query, maxArticles)
	if err != nil {
		ctxzap.Error(ctx, "retrieval failed", zap.Error(err))
		return failedResponse(query, err)
	}

	if len(results) == 0 {
		ctxzap.Info(ctx, "no relevant articles found")
		return entity.RAGResponse{
			Query:    query,
			Response: noResultsResponse,
			Sources:  []entity.Source{},
		}
	}

	articles := make([]entity.Article, len(results))
	for i, r := range results {
		articles[i] = entity.Article{ID: r.ID, Content: r.Content}
	}

	text, err := s.generator.Answer(ctx, query, articles)
	if err != nil {
		ctxzap.Error(ctx, "answer generation failed", zap.Error(err))
		return failedResponse(query, err)
	}

	sources := make([]entity.Source, len(results))
	var total float64
	for i, r := range results {
		sources[i] = entity.Source{
			ID:              r.ID,
			Content:         r.Content,
			SimilarityScore: r.SimilarityScore,
			Relevance:       entity.RelevanceFor(r.SimilarityScore),
		}
		total += r.SimilarityScore
	}

	ctxzap.Info(ctx, "rag answer generated", zap.Int("articles_consulted", len(sources)))

	return entity.RAGResponse{
		Query:             query,
		Response:          text,
		Sources:           sources,
		Confidence:        total / float64(len(sources)),
		ModelUsed:         s.generator.Model(),
		ArticlesConsulted: len(sources),
	}
}

func failedResponse(query string, err error) entity.RAGResponse {
	return entity.RAGResponse{
		Query:    query,
		Response: fmt.Sprintf(errorResponseFmt, err.Error()),
		Sources:  []entity.Source{},
		Error:    err.Error(),
	}
}

// GenerateQuestions samples n articles and asks for one question per article.
// Articles whose generation or parsing fails are skipped. The order of the
// returned questions follows the sample order.
func (s *Service) GenerateQuestions(ctx context.Context, n int) ([]entity.TestQuestion, error) {
	ctx = logger.WithAction(ctx, "generate_test")

	articles, err := s.retriever.SampleRandom(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("sample articles: %w", err)
	}
	if len(articles) == 0 {
		return nil, entity.ErrNoArticlesAvailable
	}

	ctxzap.Info(ctx, "generating test questions",
		zap.Int("articles", len(articles)),
		zap.Int("concurrency", s.concurrency),
	)

	slots := make([]*entity.TestQuestion, len(articles))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, article := range articles {
		g.Go(func() error {
			slots[i] = s.questionFor(ctx, article, i+1)
			return nil
		})
	}
	_ = g.Wait()

	questions := make([]entity.TestQuestion, 0, len(articles))
	for _, q := range slots {
		if q != nil {
			questions = append(questions, *q)
		}
	}

	ctxzap.Info(ctx, "test questions generated",
		zap.Int("requested", len(articles)),
		zap.Int("generated", len(questions)),
	)

	return questions, nil
}

func (s *Service) questionFor(ctx context.Context, article entity.Article, index int) *entity.TestQuestion {
	ctx = logger.AddFields(ctx, zap.String("article_id", article.ID), zap.Int("question_index", index))

	text, err := s.generator.Question(ctx, s.example, article, index)
	if err != nil {
		ctxzap.Warn(ctx, "question generation failed, skipping article", zap.Error(err))
		return nil
	}

	parsed, ok := parser.Parse(text)
	if !ok {
		ctxzap.Warn(ctx, "could not parse generated question, skipping article",
			zap.Int("output_length", len(text)),
		)
		return nil
	}

	return &entity.TestQuestion{
		Question:       parsed.Text,
		Options:        parsed.Options,
		CorrectAnswer:  parsed.CorrectAnswer,
		ArticleID:      article.ID,
		ArticleContent: article.Content,
	}
}

// GenerateTest wraps GenerateQuestions into a GeneratedTest.
// It fails with entity.ErrNoQuestionsGenerated when every article was skipped.
func (s *Service) GenerateTest(ctx context.Context, n int) (*entity.GeneratedTest, error) {
	questions, err := s.GenerateQuestions(ctx, n)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, entity.ErrNoQuestionsGenerated
	}

	return &entity.GeneratedTest{
		TestID:         uuid.NewString(),
		TotalQuestions: len(questions),
		Questions:      questions,
		GeneratedAt:    s.now().UTC(),
		ArticlesUsed:   len(questions),
	}, nil
}

func (s *Service) ServiceInfo(ctx context.Context) (entity.ServiceInfo, error) {
	stats, err := s.retriever.Stats(ctx)
	if err != nil {
		return entity.ServiceInfo{}, err
	}

	return entity.ServiceInfo{
		ServiceType:    serviceType,
		LLMProvider:    s.provider,
		Model:          s.generator.Model(),
		EmbeddingModel: s.retriever.EmbeddingModel(),
		TotalArticles:  stats.TotalDocuments,
		Capabilities:   append([]string(nil), capabilities...),
	}, nil
}
