package rag

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/futig/traffic-law-assistant/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRetriever struct {
	results   []entity.SearchResult
	searchErr error
	sample    []entity.Article
	total     int
	lastK     int
}

func (f *fakeRetriever) Search(_ context.Context, _ string, k int) ([]entity.SearchResult, error) {
	f.lastK = k
	return f.results, f.searchErr
}

func (f *fakeRetriever) SampleRandom(_ context.Context, n int) ([]entity.Article, error) {
	return f.sample[:min(n, len(f.sample))], nil
}

func (f *fakeRetriever) Stats(_ context.Context) (entity.CollectionStats, error) {
	return entity.CollectionStats{TotalDocuments: f.total}, nil
}

func (f *fakeRetriever) EmbeddingModel() string { return "mock-embedding" }

// scriptedGenerator replies per article id. A missing entry is a generation failure.
type scriptedGenerator struct {
	answer    string
	answerErr error
	replies   map[string]string
	delay     func(index int) time.Duration

	mu       sync.Mutex
	indexes  map[string]int
	inFlight atomic.Int64
	peak     atomic.Int64
}

func (g *scriptedGenerator) Answer(_ context.Context, _ string, _ []entity.Article) (string, error) {
	return g.answer, g.answerErr
}

func (g *scriptedGenerator) Question(_ context.Context, _ string, article entity.Article, index int) (string, error) {
	cur := g.inFlight.Add(1)
	defer g.inFlight.Add(-1)
	for {
		p := g.peak.Load()
		if cur <= p || g.peak.CompareAndSwap(p, cur) {
			break
		}
	}

	g.mu.Lock()
	if g.indexes == nil {
		g.indexes = map[string]int{}
	}
	g.indexes[article.ID] = index
	g.mu.Unlock()

	if g.delay != nil {
		time.Sleep(g.delay(index))
	}

	reply, ok := g.replies[article.ID]
	if !ok {
		return "", errors.New("model unavailable")
	}
	return reply, nil
}

func (g *scriptedGenerator) Model() string { return "mistral-small-latest" }

func validQuestion(n int) string {
	return fmt.Sprintf("1-¿Pregunta %d?\n1-Uno.\n2-Dos.\n3-Tres.\nRESPUESTA_CORRECTA:%d", n, n%3+1)
}

func articles(n int) []entity.Article {
	out := make([]entity.Article, n)
	for i := range out {
		out[i] = entity.Article{ID: fmt.Sprint(i + 1), Content: fmt.Sprintf("Contenido %d", i+1)}
	}
	return out
}

func TestChat_AssemblesSources(t *testing.T) {
	r := &fakeRetriever{results: []entity.SearchResult{
		{ID: "1", Content: "a", SimilarityScore: 0.9},
		{ID: "2", Content: "b", SimilarityScore: 0.6},
		{ID: "3", Content: "c", SimilarityScore: 0.3},
	}}
	g := &scriptedGenerator{answer: "Según el Artículo 1..."}
	s := New(r, g, Options{})

	resp := s.Chat(context.Background(), "¿velocidad?", 3)

	assert.Equal(t, 3, r.lastK)
	assert.Equal(t, "¿velocidad?", resp.Query)
	assert.Equal(t, "Según el Artículo 1...", resp.Response)
	assert.Equal(t, "mistral-small-latest", resp.ModelUsed)
	assert.Equal(t, 3, resp.ArticlesConsulted)
	assert.Empty(t, resp.Error)
	assert.InDelta(t, 0.6, resp.Confidence, 1e-9)

	require.Len(t, resp.Sources, 3)
	assert.Equal(t, entity.RelevanceHigh, resp.Sources[0].Relevance)
	assert.Equal(t, entity.RelevanceMedium, resp.Sources[1].Relevance)
	assert.Equal(t, entity.RelevanceLow, resp.Sources[2].Relevance)
	assert.Equal(t, "b", resp.Sources[1].Content)
}

func TestChat_NoResults(t *testing.T) {
	s := New(&fakeRetriever{}, &scriptedGenerator{answer: "unused"}, Options{})

	resp := s.Chat(context.Background(), "nada", 5)

	assert.Equal(t, noResultsResponse, resp.Response)
	assert.Zero(t, resp.Confidence)
	assert.NotNil(t, resp.Sources)
	assert.Empty(t, resp.Sources)
	assert.Empty(t, resp.Error)
	assert.Empty(t, resp.ModelUsed)
}

func TestChat_GenerationFailure(t *testing.T) {
	r := &fakeRetriever{results: []entity.SearchResult{{ID: "1", Content: "a", SimilarityScore: 0.8}}}
	g := &scriptedGenerator{answerErr: entity.ErrGenerationTimeout}
	s := New(r, g, Options{})

	resp := s.Chat(context.Background(), "q", 5)

	assert.Equal(t, "Lo siento, ocurrió un error al procesar tu consulta: "+entity.ErrGenerationTimeout.Error(), resp.Response)
	assert.Equal(t, entity.ErrGenerationTimeout.Error(), resp.Error)
	assert.Zero(t, resp.Confidence)
	assert.Empty(t, resp.Sources)
}

func TestChat_RetrievalFailure(t *testing.T) {
	r := &fakeRetriever{searchErr: errors.New("qdrant down")}
	s := New(r, &scriptedGenerator{}, Options{})

	resp := s.Chat(context.Background(), "q", 5)

	assert.Equal(t, "qdrant down", resp.Error)
	assert.Contains(t, resp.Response, "qdrant down")
}

func TestGenerateQuestions_SkipsFailuresAndKeepsOrder(t *testing.T) {
	sample := articles(5)
	replies := map[string]string{
		"1": validQuestion(1),
		// "2" fails at the model
		"3": "texto sin formato",
		"4": validQuestion(4),
		"5": validQuestion(5),
	}

	for _, concurrency := range []int{1, 4} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			g := &scriptedGenerator{
				replies: replies,
				// later questions finish first
				delay: func(index int) time.Duration { return time.Duration(6-index) * 2 * time.Millisecond },
			}
			s := New(&fakeRetriever{sample: sample}, g, Options{Concurrency: concurrency})

			questions, err := s.GenerateQuestions(context.Background(), 5)
			require.NoError(t, err)

			require.Len(t, questions, 3)
			assert.Equal(t, []string{"1", "4", "5"}, []string{questions[0].ArticleID, questions[1].ArticleID, questions[2].ArticleID})
			assert.Equal(t, "¿Pregunta 4?", questions[1].Question)
			assert.Equal(t, []string{"Uno.", "Dos.", "Tres."}, questions[1].Options)
			assert.Equal(t, 2, questions[1].CorrectAnswer)
			assert.Equal(t, "Contenido 4", questions[1].ArticleContent)

			for _, a := range sample {
				assert.Equal(t, mustAtoi(t, a.ID), g.indexes[a.ID], "question index follows sample position")
			}
			assert.LessOrEqual(t, g.peak.Load(), int64(concurrency))
		})
	}
}

func TestGenerateQuestions_NoArticles(t *testing.T) {
	s := New(&fakeRetriever{}, &scriptedGenerator{}, Options{})

	_, err := s.GenerateQuestions(context.Background(), 5)
	assert.ErrorIs(t, err, entity.ErrNoArticlesAvailable)
}

func TestGenerateQuestions_AllFailedIsEmptyNotError(t *testing.T) {
	s := New(&fakeRetriever{sample: articles(3)}, &scriptedGenerator{}, Options{})

	questions, err := s.GenerateQuestions(context.Background(), 3)
	require.NoError(t, err)
	assert.Empty(t, questions)
}

func TestGenerateTest(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g := &scriptedGenerator{replies: map[string]string{"1": validQuestion(1), "2": validQuestion(2)}}
	s := New(&fakeRetriever{sample: articles(3)}, g, Options{})
	s.now = func() time.Time { return fixed }

	test, err := s.GenerateTest(context.Background(), 3)
	require.NoError(t, err)

	assert.NotEmpty(t, test.TestID)
	assert.Equal(t, 2, test.TotalQuestions)
	assert.Equal(t, 2, test.ArticlesUsed)
	assert.Equal(t, fixed, test.GeneratedAt)
	assert.Len(t, test.Questions, 2)

	s = New(&fakeRetriever{sample: articles(2)}, &scriptedGenerator{}, Options{})
	_, err = s.GenerateTest(context.Background(), 2)
	assert.ErrorIs(t, err, entity.ErrNoQuestionsGenerated)
}

func TestServiceInfo(t *testing.T) {
	s := New(&fakeRetriever{total: 42}, &scriptedGenerator{}, Options{Provider: "Mistral AI"})

	info, err := s.ServiceInfo(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "RAG (Retrieval-Augmented Generation)", info.ServiceType)
	assert.Equal(t, "Mistral AI", info.LLMProvider)
	assert.Equal(t, "mistral-small-latest", info.Model)
	assert.Equal(t, "mock-embedding", info.EmbeddingModel)
	assert.Equal(t, 42, info.TotalArticles)
	assert.Len(t, info.Capabilities, 4)
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()

	var n int
	_, err := fmt.Sscan(s, &n)
	require.NoError(t, err)
	return n
}
