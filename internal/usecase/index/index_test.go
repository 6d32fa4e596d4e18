package index

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/futig/traffic-law-assistant/internal/entity"
	"github.com/futig/traffic-law-assistant/internal/integration/embedding"
	pkgRetry "github.com/futig/traffic-law-assistant/internal/pkg/retry"
	"github.com/futig/traffic-law-assistant/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dim = 256

var corpus = []entity.Article{
	{ID: "1", Content: "El conductor debe respetar el límite de velocidad en la autopista."},
	{ID: "2", Content: "Se prohíbe conducir bajo los efectos del alcohol."},
	{ID: "3", Content: "Los motociclistas deben usar casco protector."},
	{ID: "4", Content: "El peatón tiene prioridad en el paso de peatones."},
	{ID: "5", Content: "La velocidad máxima en zona urbana es de 50 kilómetros por hora."},
}

// countingEmbedder wraps the mock embedder and fails the first failures calls
type countingEmbedder struct {
	inner    *embedding.MockEmbedder
	calls    atomic.Int64
	failures int64
	texts    atomic.Int64
}

func (e *countingEmbedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if e.calls.Add(1) <= e.failures {
		return nil, errors.New("embedding backend unavailable")
	}
	e.texts.Add(int64(len(texts)))
	return e.inner.Encode(ctx, texts)
}

func (e *countingEmbedder) Model() string { return e.inner.Model() }

func fastRetry() pkgRetry.RetryConfig {
	return pkgRetry.RetryConfig{Attempts: 3, Delay: time.Millisecond, MaxDelay: time.Millisecond}
}

func newTestIndex(t *testing.T, failures int64) (*Index, *countingEmbedder, *repository.MemoryStore) {
	t.Helper()

	store := repository.NewMemoryStore("articulos", dim)
	emb := &countingEmbedder{inner: embedding.NewMockEmbedder(dim), failures: failures}
	x := New(store, emb, Options{BatchSize: 2, Retry: fastRetry(), CacheTTL: time.Minute})
	return x, emb, store
}

func indexed(t *testing.T) (*Index, *countingEmbedder) {
	t.Helper()

	x, emb, _ := newTestIndex(t, 0)
	report, err := x.Index(context.Background(), corpus)
	require.NoError(t, err)
	require.Equal(t, entity.IndexReport{Indexed: len(corpus)}, report)
	return x, emb
}

func TestIndex_BatchesEmbeddings(t *testing.T) {
	_, emb := indexed(t)

	// 5 articles in batches of 2
	assert.Equal(t, int64(3), emb.calls.Load())
	assert.Equal(t, int64(len(corpus)), emb.texts.Load())
}

func TestIndex_SkipsPopulatedCollection(t *testing.T) {
	x, emb := indexed(t)
	before := emb.calls.Load()

	report, err := x.Index(context.Background(), corpus)
	require.NoError(t, err)

	assert.True(t, report.Skipped)
	assert.Equal(t, len(corpus), report.Existing)
	assert.Equal(t, before, emb.calls.Load())
}

func TestIndex_RetriesEmbedding(t *testing.T) {
	x, emb, store := newTestIndex(t, 2)

	_, err := x.Index(context.Background(), corpus[:1])
	require.NoError(t, err)
	assert.Equal(t, int64(3), emb.calls.Load())

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestIndex_GivesUpAfterAttempts(t *testing.T) {
	x, _, store := newTestIndex(t, 10)

	_, err := x.Index(context.Background(), corpus)
	require.Error(t, err)

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "nothing is stored when embedding fails")
}

func TestSearch_RanksAndScores(t *testing.T) {
	x, _ := indexed(t)

	results, err := x.Search(context.Background(), "límite de velocidad", 3)
	require.NoError(t, err)

	require.NotEmpty(t, results)
	assert.LessOrEqual(t, len(results), 3)
	assert.Contains(t, []string{"1", "5"}, results[0].ID)
	for i, r := range results {
		assert.InDelta(t, Similarity(r.Distance), r.SimilarityScore, 1e-12)
		assert.GreaterOrEqual(t, r.SimilarityScore, 0.0)
		assert.LessOrEqual(t, r.SimilarityScore, 1.0)
		if i > 0 {
			assert.LessOrEqual(t, results[i-1].Distance, r.Distance)
		}
	}
}

func TestSearch_ResultsResolveToArticles(t *testing.T) {
	x, _ := indexed(t)

	results, err := x.Search(context.Background(), "casco", 5)
	require.NoError(t, err)

	for _, r := range results {
		a, err := x.Get(context.Background(), r.ID)
		require.NoError(t, err)
		assert.Equal(t, a.Content, r.Content)
	}
}

func TestSearch_EmptyCollection(t *testing.T) {
	x, _, _ := newTestIndex(t, 0)

	results, err := x.Search(context.Background(), "velocidad", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_CachesQueryVector(t *testing.T) {
	x, emb := indexed(t)
	before := emb.calls.Load()

	first, err := x.Search(context.Background(), "alcohol", 2)
	require.NoError(t, err)
	second, err := x.Search(context.Background(), "alcohol", 2)
	require.NoError(t, err)

	assert.Equal(t, before+1, emb.calls.Load())
	assert.Equal(t, first, second)
}

func TestGet_NotFound(t *testing.T) {
	x, _ := indexed(t)

	_, err := x.Get(context.Background(), "999")
	assert.ErrorIs(t, err, entity.ErrArticleNotFound)
}

func TestSampleRandom(t *testing.T) {
	x, _ := indexed(t)

	tests := []struct {
		n    int
		want int
	}{
		{n: 3, want: 3},
		{n: 5, want: 5},
		{n: 50, want: 5},
		{n: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d", tt.n), func(t *testing.T) {
			sample, err := x.SampleRandom(context.Background(), tt.n)
			require.NoError(t, err)
			assert.Len(t, sample, tt.want)

			seen := map[string]bool{}
			for _, a := range sample {
				assert.False(t, seen[a.ID], "sampled without replacement")
				seen[a.ID] = true
			}
		})
	}
}

func TestSampleRandom_DrawsDifferentSamples(t *testing.T) {
	x, _, _ := newTestIndex(t, 0)

	large := make([]entity.Article, 60)
	for i := range large {
		large[i] = entity.Article{ID: strconv.Itoa(i + 1), Content: fmt.Sprintf("Artículo de prueba número %d.", i+1)}
	}
	_, err := x.Index(context.Background(), large)
	require.NoError(t, err)

	ids := func(sample []entity.Article) []string {
		out := make([]string, len(sample))
		for i, a := range sample {
			out[i] = a.ID
		}
		return out
	}

	first, err := x.SampleRandom(context.Background(), 5)
	require.NoError(t, err)
	second, err := x.SampleRandom(context.Background(), 5)
	require.NoError(t, err)

	require.Len(t, first, 5)
	require.Len(t, second, 5)
	// identical ordered draws have probability below 1e-8
	assert.NotEqual(t, ids(first), ids(second))
}

func TestSampleRandom_EmptyCollection(t *testing.T) {
	x, _, _ := newTestIndex(t, 0)

	sample, err := x.SampleRandom(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, sample)
}

func TestStatsAndReset(t *testing.T) {
	x, _ := indexed(t)

	stats, err := x.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.CollectionStats{
		CollectionName:   "articulos",
		TotalDocuments:   len(corpus),
		ModelName:        "mock-embedding",
		PersistDirectory: "memory",
	}, stats)

	require.NoError(t, x.Reset(context.Background()))

	stats, err = x.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalDocuments)

	report, err := x.Index(context.Background(), corpus)
	require.NoError(t, err)
	assert.Equal(t, len(corpus), report.Indexed)
}

func TestSimilar_ExcludesQueryArticle(t *testing.T) {
	x, _ := indexed(t)

	res, err := x.Similar(context.Background(), "1", 2)
	require.NoError(t, err)

	require.NotNil(t, res.QueryArticle)
	assert.Equal(t, "1", res.QueryArticle.ID)
	assert.Len(t, res.SimilarArticles, 2)
	for _, r := range res.SimilarArticles {
		assert.NotEqual(t, "1", r.ID)
	}

	_, err = x.Similar(context.Background(), "404", 2)
	assert.ErrorIs(t, err, entity.ErrArticleNotFound)
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity(0))
	assert.Equal(t, 0.25, Similarity(0.75))
	assert.Equal(t, 0.0, Similarity(1.4))
	assert.Equal(t, 1.0, Similarity(-0.2))
}
