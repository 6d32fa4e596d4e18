package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/futig/traffic-law-assistant/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

const embeddingsTable = "article_embeddings"

var _ VectorStore = &PgvectorStore{}

// PgvectorStore implements VectorStore on PostgreSQL with the pgvector extension.
// Several collections share one table, keyed by collection name.
type PgvectorStore struct {
	db        *pgxpool.Pool
	name      string
	dimension int
}

func NewPgvectorStore(db *pgxpool.Pool, name string, dimension int) *PgvectorStore {
	return &PgvectorStore{
		db:        db,
		name:      name,
		dimension: dimension,
	}
}

func (s *PgvectorStore) EnsureCollection(ctx context.Context) error {
	var dimension int
	err := s.db.QueryRow(ctx,
		`SELECT dimension FROM collections WHERE name = $1`, s.name,
	).Scan(&dimension)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		ctxzap.Info(ctx, "creating pgvector collection",
			zap.String("collection", s.name),
			zap.Int("dimension", s.dimension),
		)
		_, err = s.db.Exec(ctx,
			`INSERT INTO collections (name, dimension) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
			s.name, s.dimension,
		)
		if err != nil {
			return fmt.Errorf("create collection %s: %w", s.name, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("check collection %s: %w", s.name, err)
	case dimension != s.dimension:
		return fmt.Errorf("collection %s: %w: stored %d, configured %d",
			s.name, entity.ErrDimensionMismatch, dimension, s.dimension)
	}

	return nil
}

func (s *PgvectorStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM article_embeddings WHERE collection = $1`, s.name,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count embeddings: %w", err)
	}
	return count, nil
}

func (s *PgvectorStore) Add(ctx context.Context, articles []entity.Article, vectors [][]float32) error {
	if err := checkBatch(s.dimension, articles, vectors); err != nil {
		return err
	}
	if len(articles) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, a := range articles {
		batch.Queue(
			`INSERT INTO article_embeddings (collection, article_id, content, embedding)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (collection, article_id)
			 DO UPDATE SET content = EXCLUDED.content, embedding = EXCLUDED.embedding`,
			s.name, a.ID, a.Content, pgvector.NewVector(vectors[i]),
		)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert %d embeddings: %w", len(articles), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit embeddings: %w", err)
	}

	return nil
}

func (s *PgvectorStore) Query(ctx context.Context, vector []float32, limit int) ([]entity.SearchResult, error) {
	if err := checkDimension(s.dimension, vector); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx,
		`SELECT article_id, content, embedding <=> $2 AS distance
		 FROM article_embeddings
		 WHERE collection = $1
		 ORDER BY distance
		 LIMIT $3`,
		s.name, pgvector.NewVector(vector), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query embeddings: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.SearchResult, error) {
		var r entity.SearchResult
		err := row.Scan(&r.ID, &r.Content, &r.Distance)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan search results: %w", err)
	}

	return results, nil
}

func (s *PgvectorStore) Get(ctx context.Context, id string) (*entity.Article, error) {
	article := entity.Article{ID: id}
	err := s.db.QueryRow(ctx,
		`SELECT content FROM article_embeddings WHERE collection = $1 AND article_id = $2`,
		s.name, id,
	).Scan(&article.Content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrArticleNotFound
		}
		return nil, fmt.Errorf("get article %s: %w", id, err)
	}

	return &article, nil
}

func (s *PgvectorStore) All(ctx context.Context) ([]entity.Article, error) {
	rows, err := s.db.Query(ctx,
		`SELECT article_id, content FROM article_embeddings WHERE collection = $1 ORDER BY article_id`,
		s.name,
	)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}

	articles, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Article, error) {
		var a entity.Article
		err := row.Scan(&a.ID, &a.Content)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan articles: %w", err)
	}

	return articles, nil
}

// Reset removes the collection row; its embeddings go with it via ON DELETE CASCADE
func (s *PgvectorStore) Reset(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM collections WHERE name = $1`, s.name); err != nil {
		return fmt.Errorf("delete collection %s: %w", s.name, err)
	}

	ctxzap.Info(ctx, "pgvector collection deleted", zap.String("collection", s.name))

	return s.EnsureCollection(ctx)
}

func (s *PgvectorStore) Name() string     { return s.name }
func (s *PgvectorStore) Location() string { return "postgres:" + embeddingsTable }
