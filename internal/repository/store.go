package repository

import (
	"context"
	"fmt"

	"github.com/futig/traffic-law-assistant/internal/entity"
)

// VectorStore persists article embeddings and answers cosine nearest-neighbour queries
type VectorStore interface {
	// EnsureCollection creates the collection if it does not exist yet
	EnsureCollection(ctx context.Context) error
	Count(ctx context.Context) (int, error)
	// Add stores all articles with their vectors in one batch
	Add(ctx context.Context, articles []entity.Article, vectors [][]float32) error
	// Query returns at most limit hits ordered by ascending cosine distance.
	// Only Distance is filled in the returned results.
	Query(ctx context.Context, vector []float32, limit int) ([]entity.SearchResult, error)
	Get(ctx context.Context, id string) (*entity.Article, error)
	All(ctx context.Context) ([]entity.Article, error)
	// Reset drops the collection and recreates it empty
	Reset(ctx context.Context) error
	Name() string
	Location() string
}

func checkBatch(dimension int, articles []entity.Article, vectors [][]float32) error {
	if len(articles) != len(vectors) {
		return fmt.Errorf("got %d vectors for %d articles", len(vectors), len(articles))
	}
	for i, v := range vectors {
		if err := checkDimension(dimension, v); err != nil {
			return fmt.Errorf("article %s: %w", articles[i].ID, err)
		}
	}
	return nil
}

func checkDimension(dimension int, vector []float32) error {
	if len(vector) != dimension {
		return fmt.Errorf("%w: expected %d, got %d", entity.ErrDimensionMismatch, dimension, len(vector))
	}
	return nil
}
