package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/futig/traffic-law-assistant/internal/entity"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
)

const (
	payloadArticleID = "article_id"
	payloadContent   = "content"

	scrollPageSize = 256
)

// articleNamespace derives stable point UUIDs for non-numeric article ids
var articleNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:ley109:article"))

var _ VectorStore = &QdrantStore{}

// QdrantStore implements VectorStore on a Qdrant collection over gRPC
type QdrantStore struct {
	collections qdrant.CollectionsClient
	points      qdrant.PointsClient
	name        string
	dimension   int
	location    string
}

func NewQdrantStore(
	collections qdrant.CollectionsClient,
	points qdrant.PointsClient,
	name string,
	dimension int,
	location string,
) *QdrantStore {
	return &QdrantStore{
		collections: collections,
		points:      points,
		name:        name,
		dimension:   dimension,
		location:    location,
	}
}

func (s *QdrantStore) EnsureCollection(ctx context.Context) error {
	resp, err := s.collections.CollectionExists(ctx, &qdrant.CollectionExistsRequest{
		CollectionName: s.name,
	})
	if err != nil {
		return fmt.Errorf("check collection %s: %w", s.name, err)
	}
	if resp.GetResult().GetExists() {
		return nil
	}

	ctxzap.Info(ctx, "creating qdrant collection",
		zap.String("collection", s.name),
		zap.Int("dimension", s.dimension),
	)

	_, err = s.collections.Create(ctx, &qdrant.CreateCollection{
		CollectionName: s.name,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(s.dimension),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", s.name, err)
	}

	return nil
}

func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	exact := true
	resp, err := s.points.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.name,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("count points: %w", err)
	}
	return int(resp.GetResult().GetCount()), nil
}

func (s *QdrantStore) Add(ctx context.Context, articles []entity.Article, vectors [][]float32) error {
	if err := checkBatch(s.dimension, articles, vectors); err != nil {
		return err
	}
	if len(articles) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(articles))
	for i, a := range articles {
		points[i] = &qdrant.PointStruct{
			Id: pointID(a.ID),
			Vectors: &qdrant.Vectors{
				VectorsOptions: &qdrant.Vectors_Vector{
					Vector: &qdrant.Vector{Data: vectors[i]},
				},
			},
			Payload: map[string]*qdrant.Value{
				payloadArticleID: stringValue(a.ID),
				payloadContent:   stringValue(a.Content),
			},
		}
	}

	wait := true
	_, err := s.points.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.name,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upsert %d points: %w", len(points), err)
	}

	return nil
}

func (s *QdrantStore) Query(ctx context.Context, vector []float32, limit int) ([]entity.SearchResult, error) {
	if err := checkDimension(s.dimension, vector); err != nil {
		return nil, err
	}

	resp, err := s.points.Search(ctx, &qdrant.SearchPoints{
		CollectionName: s.name,
		Vector:         vector,
		Limit:          uint64(limit),
		WithPayload:    withPayload(),
	})
	if err != nil {
		return nil, fmt.Errorf("search points: %w", err)
	}

	results := make([]entity.SearchResult, 0, len(resp.GetResult()))
	for _, p := range resp.GetResult() {
		article := articleFromPayload(p.GetPayload())
		results = append(results, entity.SearchResult{
			ID:      article.ID,
			Content: article.Content,
			// Qdrant reports cosine similarity for Distance_Cosine collections
			Distance: 1 - float64(p.GetScore()),
		})
	}
	return results, nil
}

func (s *QdrantStore) Get(ctx context.Context, id string) (*entity.Article, error) {
	resp, err := s.points.Get(ctx, &qdrant.GetPoints{
		CollectionName: s.name,
		Ids:            []*qdrant.PointId{pointID(id)},
		WithPayload:    withPayload(),
	})
	if err != nil {
		return nil, fmt.Errorf("get point %s: %w", id, err)
	}
	if len(resp.GetResult()) == 0 {
		return nil, entity.ErrArticleNotFound
	}

	article := articleFromPayload(resp.GetResult()[0].GetPayload())
	return &article, nil
}

func (s *QdrantStore) All(ctx context.Context) ([]entity.Article, error) {
	var (
		articles []entity.Article
		offset   *qdrant.PointId
	)

	for {
		limit := uint32(scrollPageSize)
		resp, err := s.points.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: s.name,
			Limit:          &limit,
			Offset:         offset,
			WithPayload:    withPayload(),
		})
		if err != nil {
			return nil, fmt.Errorf("scroll points: %w", err)
		}

		for _, p := range resp.GetResult() {
			articles = append(articles, articleFromPayload(p.GetPayload()))
		}

		offset = resp.GetNextPageOffset()
		if offset == nil {
			return articles, nil
		}
	}
}

func (s *QdrantStore) Reset(ctx context.Context) error {
	_, err := s.collections.Delete(ctx, &qdrant.DeleteCollection{
		CollectionName: s.name,
	})
	if err != nil {
		return fmt.Errorf("delete collection %s: %w", s.name, err)
	}

	ctxzap.Info(ctx, "qdrant collection deleted", zap.String("collection", s.name))

	return s.EnsureCollection(ctx)
}

func (s *QdrantStore) Name() string     { return s.name }
func (s *QdrantStore) Location() string { return s.location }

// pointID maps canonical unsigned integers to numeric ids and everything else to a name-based UUID
func pointID(articleID string) *qdrant.PointId {
	if n, err := strconv.ParseUint(articleID, 10, 64); err == nil && strconv.FormatUint(n, 10) == articleID {
		return &qdrant.PointId{PointIdOptions: &qdrant.PointId_Num{Num: n}}
	}
	return &qdrant.PointId{
		PointIdOptions: &qdrant.PointId_Uuid{
			Uuid: uuid.NewSHA1(articleNamespace, []byte(articleID)).String(),
		},
	}
}

func stringValue(s string) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: s}}
}

func withPayload() *qdrant.WithPayloadSelector {
	return &qdrant.WithPayloadSelector{
		SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true},
	}
}

func articleFromPayload(payload map[string]*qdrant.Value) entity.Article {
	return entity.Article{
		ID:      payload[payloadArticleID].GetStringValue(),
		Content: payload[payloadContent].GetStringValue(),
	}
}
