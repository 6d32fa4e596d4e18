package repository

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/futig/traffic-law-assistant/internal/entity"
)

var _ VectorStore = &MemoryStore{}

type memoryRecord struct {
	article entity.Article
	vector  []float32
}

// MemoryStore keeps the collection in process memory. Used with ENABLE_MOCKS and in tests.
type MemoryStore struct {
	mu        sync.RWMutex
	name      string
	dimension int
	records   []memoryRecord
	byID      map[string]int
}

func NewMemoryStore(name string, dimension int) *MemoryStore {
	return &MemoryStore{
		name:      name,
		dimension: dimension,
		byID:      make(map[string]int),
	}
}

func (s *MemoryStore) EnsureCollection(_ context.Context) error {
	return nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records), nil
}

func (s *MemoryStore) Add(_ context.Context, articles []entity.Article, vectors [][]float32) error {
	if err := checkBatch(s.dimension, articles, vectors); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, a := range articles {
		rec := memoryRecord{article: a, vector: append([]float32(nil), vectors[i]...)}
		if pos, ok := s.byID[a.ID]; ok {
			s.records[pos] = rec
			continue
		}
		s.byID[a.ID] = len(s.records)
		s.records = append(s.records, rec)
	}
	return nil
}

func (s *MemoryStore) Query(_ context.Context, vector []float32, limit int) ([]entity.SearchResult, error) {
	if err := checkDimension(s.dimension, vector); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]entity.SearchResult, 0, len(s.records))
	for _, rec := range s.records {
		results = append(results, entity.SearchResult{
			ID:       rec.article.ID,
			Content:  rec.article.Content,
			Distance: cosineDistance(vector, rec.vector),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if limit < len(results) {
		results = results[:limit]
	}
	return results, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*entity.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.byID[id]
	if !ok {
		return nil, entity.ErrArticleNotFound
	}
	article := s.records[pos].article
	return &article, nil
}

func (s *MemoryStore) All(_ context.Context) ([]entity.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	articles := make([]entity.Article, len(s.records))
	for i, rec := range s.records {
		articles[i] = rec.article
	}
	return articles, nil
}

func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.byID = make(map[string]int)
	return nil
}

func (s *MemoryStore) Name() string     { return s.name }
func (s *MemoryStore) Location() string { return "memory" }

// cosineDistance returns 1 - cos(a, b). A zero vector is at distance 1 from everything.
func cosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
