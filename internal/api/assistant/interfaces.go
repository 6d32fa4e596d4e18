package assistant

import (
	"context"

	"github.com/futig/traffic-law-assistant/internal/entity"
	"github.com/futig/traffic-law-assistant/internal/pkg/formatter"
)

type AssistantUsecase interface {
	Health(ctx context.Context) entity.Health
	GenerateChatResponse(ctx context.Context, query string, maxArticles int) (entity.RAGResponse, error)
	SearchSimilar(ctx context.Context, query string, n int) ([]entity.SearchResult, error)
	GetArticle(ctx context.Context, id string) (*entity.Article, error)
	SimilarArticles(ctx context.Context, id string, n int) (entity.SimilarArticles, error)
	CollectionStats(ctx context.Context) (entity.CollectionStats, error)
	ServiceInfo(ctx context.Context) (entity.ServiceInfo, error)
	GenerateTestDocument(ctx context.Context, n int) (*entity.GeneratedTest, error)
}

type FormatterFactory interface {
	Create(format entity.ResultFormat) (formatter.Formatter, error)
}
