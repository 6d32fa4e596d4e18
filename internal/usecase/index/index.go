// Package index turns the article corpus into a searchable embedding index
// and answers similarity queries against it.
package index

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/futig/traffic-law-assistant/internal/entity"
	pkgRetry "github.com/futig/traffic-law-assistant/internal/pkg/retry"
	"github.com/futig/traffic-law-assistant/internal/repository"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Embedder maps texts to vectors. Index and query embeddings must come from the same Embedder.
type Embedder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

type Options struct {
	BatchSize    int
	Retry        pkgRetry.RetryConfig
	CacheTTL     time.Duration
	CacheCleanup time.Duration
}

type Index struct {
	store     repository.VectorStore
	embedder  Embedder
	queries   *cache.Cache
	retry     pkgRetry.RetryConfig
	batchSize int
	shuffle   func(n int, swap func(i, j int))
}

func New(store repository.VectorStore, embedder Embedder, opts Options) *Index {
	batchSize := opts.BatchSize
	if batchSize < 1 {
		batchSize = 32
	}

	retryCfg := opts.Retry
	if retryCfg.Attempts == 0 {
		retryCfg = *pkgRetry.DefaultRetryConfig()
	}

	return &Index{
		store:     store,
		embedder:  embedder,
		queries:   cache.New(opts.CacheTTL, opts.CacheCleanup),
		retry:     retryCfg,
		batchSize: batchSize,
		shuffle:   rand.Shuffle,
	}
}

// Index embeds and stores the articles unless the collection already holds documents
func (x *Index) Index(ctx context.Context, articles []entity.Article) (entity.IndexReport, error) {
	if err := x.store.EnsureCollection(ctx); err != nil {
		return entity.IndexReport{}, fmt.Errorf("ensure collection: %w", err)
	}

	existing, err := x.store.Count(ctx)
	if err != nil {
		return entity.IndexReport{}, fmt.Errorf("count documents: %w", err)
	}
	if existing > 0 {
		ctxzap.Info(ctx, "collection already populated, skipping indexing",
			zap.String("collection", x.store.Name()),
			zap.Int("documents", existing),
		)
		return entity.IndexReport{Existing: existing, Skipped: true}, nil
	}

	if len(articles) == 0 {
		return entity.IndexReport{}, nil
	}

	texts := make([]string, len(articles))
	for i, a := range articles {
		texts[i] = a.Content
	}

	vectors := make([][]float32, 0, len(articles))
	for start := 0; start < len(texts); start += x.batchSize {
		end := min(start+x.batchSize, len(texts))

		batch, err := x.encode(ctx, texts[start:end])
		if err != nil {
			return entity.IndexReport{}, fmt.Errorf("embed articles %d-%d: %w", start, end-1, err)
		}
		vectors = append(vectors, batch...)

		ctxzap.Debug(ctx, "embedded batch", zap.Int("from", start), zap.Int("to", end))
	}

	if err := x.store.Add(ctx, articles, vectors); err != nil {
		return entity.IndexReport{}, fmt.Errorf("store embeddings: %w", err)
	}

	ctxzap.Info(ctx, "articles indexed",
		zap.String("collection", x.store.Name()),
		zap.Int("articles", len(articles)),
		zap.String("model", x.embedder.Model()),
	)

	return entity.IndexReport{Indexed: len(articles)}, nil
}

// Search returns up to k articles closest to query, most similar first
func (x *Index) Search(ctx context.Context, query string, k int) ([]entity.SearchResult, error) {
	vector, err := x.queryVector(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := x.store.Query(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("query vector store: %w", err)
	}

	for i := range results {
		results[i].SimilarityScore = Similarity(results[i].Distance)
	}

	return results, nil
}

// Get returns the article with the given id or entity.ErrArticleNotFound
func (x *Index) Get(ctx context.Context, id string) (*entity.Article, error) {
	return x.store.Get(ctx, id)
}

// SampleRandom draws min(n, total) distinct articles uniformly at random
func (x *Index) SampleRandom(ctx context.Context, n int) ([]entity.Article, error) {
	all, err := x.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}

	x.shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })

	if n < len(all) {
		all = all[:max(n, 0)]
	}
	return all, nil
}

func (x *Index) Stats(ctx context.Context) (entity.CollectionStats, error) {
	total, err := x.store.Count(ctx)
	if err != nil {
		return entity.CollectionStats{}, fmt.Errorf("count documents: %w", err)
	}

	return entity.CollectionStats{
		CollectionName:   x.store.Name(),
		TotalDocuments:   total,
		ModelName:        x.embedder.Model(),
		PersistDirectory: x.store.Location(),
	}, nil
}

// Reset empties the collection
func (x *Index) Reset(ctx context.Context) error {
	if err := x.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset collection: %w", err)
	}

	ctxzap.Info(ctx, "collection reset", zap.String("collection", x.store.Name()))
	return nil
}

// Similar returns up to n articles closest to the article with the given id, excluding itself
func (x *Index) Similar(ctx context.Context, id string, n int) (entity.SimilarArticles, error) {
	article, err := x.store.Get(ctx, id)
	if err != nil {
		return entity.SimilarArticles{}, err
	}

	results, err := x.Search(ctx, article.Content, n+1)
	if err != nil {
		return entity.SimilarArticles{}, err
	}

	similar := make([]entity.SearchResult, 0, n)
	for _, r := range results {
		if r.ID == article.ID {
			continue
		}
		if len(similar) == n {
			break
		}
		similar = append(similar, r)
	}

	return entity.SimilarArticles{QueryArticle: article, SimilarArticles: similar}, nil
}

func (x *Index) EmbeddingModel() string {
	return x.embedder.Model()
}

// Similarity converts a cosine distance into a score in [0, 1]
func Similarity(distance float64) float64 {
	return min(max(1-distance, 0), 1)
}

func (x *Index) queryVector(ctx context.Context, query string) ([]float32, error) {
	key := x.embedder.Model() + "\x00" + query
	if v, ok := x.queries.Get(key); ok {
		return v.([]float32), nil
	}

	vectors, err := x.encode(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	x.queries.SetDefault(key, vectors[0])
	return vectors[0], nil
}

func (x *Index) encode(ctx context.Context, texts []string) ([][]float32, error) {
	return retry.DoWithData(
		func() ([][]float32, error) {
			vectors, err := x.embedder.Encode(ctx, texts)
			if err != nil {
				return nil, err
			}
			if len(vectors) != len(texts) {
				return nil, retry.Unrecoverable(fmt.Errorf("%w: got %d vectors for %d texts",
					entity.ErrEmptyEmbedding, len(vectors), len(texts)))
			}
			return vectors, nil
		},
		append(x.retry.ToRetryOptions(ctx),
			retry.OnRetry(func(n uint, err error) {
				ctxzap.Warn(ctx, "embedding request failed, retrying",
					zap.Uint("attempt", n+1),
					zap.Error(err),
				)
			}),
		)...,
	)
}
