package builder

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/futig/traffic-law-assistant/internal/config"
	"github.com/futig/traffic-law-assistant/internal/repository"
	grpc_zap "github.com/grpc-ecosystem/go-grpc-middleware/logging/zap"
	grpc_retry "github.com/grpc-ecosystem/go-grpc-middleware/retry"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

const qdrantAPIKeyHeader = "api-key"

// openVectorStore is replaced in tests
var openVectorStore = setupVectorStore

// setupVectorStore opens the configured backend. Opened connections are registered in res.
func setupVectorStore(ctx context.Context, cfg *config.Config, logger *zap.Logger, res *closers) (repository.VectorStore, error) {
	name := cfg.VectorStoreCfg.CollectionName
	dimension := cfg.EmbeddingCfg.Dimension
	if cfg.EnableMocks {
		dimension = mockEmbeddingDimension
	}

	switch cfg.VectorStoreCfg.Backend {
	case config.VectorStoreMemory:
		logger.Info("Using in-memory vector store")
		return repository.NewMemoryStore(name, dimension), nil

	case config.VectorStorePgvector:
		db, err := openPgvector(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("open pgvector: %w", err)
		}
		res.add(db.Close)

		return repository.NewPgvectorStore(db, name, dimension), nil

	case config.VectorStoreQdrant:
		conn, err := dialQdrant(cfg.QdrantCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("dial qdrant: %w", err)
		}
		res.add(func() { _ = conn.Close() })

		location := fmt.Sprintf("qdrant://%s:%d", cfg.QdrantCfg.Host, cfg.QdrantCfg.Port)
		logger.Info("Using qdrant vector store", zap.String("location", location))

		return repository.NewQdrantStore(
			qdrant.NewCollectionsClient(conn),
			qdrant.NewPointsClient(conn),
			name,
			dimension,
			location,
		), nil

	default:
		return nil, fmt.Errorf("unknown vector store backend %q", cfg.VectorStoreCfg.Backend)
	}
}

func dialQdrant(cfg config.QdrantConfig, logger *zap.Logger) (*grpc.ClientConn, error) {
	creds := insecure.NewCredentials()
	if cfg.UseTLS {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	interceptors := []grpc.UnaryClientInterceptor{
		grpc_zap.UnaryClientInterceptor(logger.Named("qdrant")),
		grpc_retry.UnaryClientInterceptor(
			grpc_retry.WithMax(cfg.Retry.Attempts),
			grpc_retry.WithBackoff(grpc_retry.BackoffExponential(cfg.Retry.Delay)),
			grpc_retry.WithCodes(codes.Unavailable, codes.ResourceExhausted),
		),
	}
	if cfg.APIKey != "" {
		interceptors = append([]grpc.UnaryClientInterceptor{apiKeyInterceptor(cfg.APIKey)}, interceptors...)
	}

	return grpc.NewClient(
		fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		grpc.WithTransportCredentials(creds),
		grpc.WithChainUnaryInterceptor(interceptors...),
	)
}

func apiKeyInterceptor(key string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, qdrantAPIKeyHeader, key)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}
