package builder

import (
	"context"
	"fmt"

	"github.com/futig/traffic-law-assistant/internal/config"
	"github.com/futig/traffic-law-assistant/internal/pkg/corpus"
	"github.com/futig/traffic-law-assistant/internal/pkg/logger"
	"github.com/futig/traffic-law-assistant/internal/usecase/assistant"
	"github.com/futig/traffic-law-assistant/internal/usecase/generation"
	"github.com/futig/traffic-law-assistant/internal/usecase/index"
	"github.com/futig/traffic-law-assistant/internal/usecase/prompt"
	"github.com/futig/traffic-law-assistant/internal/usecase/rag"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// buildAssistant wires the assistant usecase. The vector store is opened
// lazily on first use, so a missing backend degrades the service instead of
// failing startup.
func buildAssistant(cfg *config.Config, log *zap.Logger, autoIndex bool) (*assistant.Usecase, *closers, error) {
	embedder, err := setupEmbedder(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("setup embedder: %w", err)
	}

	llmConnector, err := setupCompleter(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("setup language model: %w", err)
	}

	example, fromFile := prompt.LoadExampleFormat(cfg.TestCfg.ExamplePath)
	log.Info("Test example format loaded",
		zap.String("path", cfg.TestCfg.ExamplePath),
		zap.Bool("from_file", fromFile),
	)

	res := &closers{}
	build := func(ctx context.Context, attempt *closers) (*assistant.Core, error) {
		store, err := openVectorStore(ctx, cfg, log, attempt)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureCollection(ctx); err != nil {
			return nil, fmt.Errorf("ensure collection %q: %w", store.Name(), err)
		}

		idx := index.New(store, embedder, index.Options{
			BatchSize:    cfg.EmbeddingCfg.BatchSize,
			Retry:        cfg.EmbeddingCfg.Retry,
			CacheTTL:     cfg.EmbeddingCfg.CacheTTL,
			CacheCleanup: cfg.EmbeddingCfg.CacheCleanup,
		})

		if autoIndex {
			if err := indexCorpus(ctx, idx, cfg.CorpusCfg.Path); err != nil {
				return nil, err
			}
		}

		generator := generation.New(llmConnector, cfg.LLMCfg.Model, cfg.LLMCfg.CallTimeout)
		pipeline := rag.New(idx, generator, rag.Options{
			Concurrency:   cfg.TestCfg.Concurrency,
			ExampleFormat: example,
			Provider:      llmConnector.Provider(),
		})

		return &assistant.Core{
			Index:    idx,
			Pipeline: pipeline,
			Provider: llmConnector.Provider(),
		}, nil
	}

	// Connections opened by a failed attempt are closed before it returns.
	initCore := func(ctx context.Context) (*assistant.Core, error) {
		ctx = logger.Detached(ctx, log, "assistant_init")

		attempt := &closers{}
		core, err := build(ctx, attempt)
		if err != nil {
			attempt.Close()
			return nil, err
		}
		res.merge(attempt)
		return core, nil
	}

	return assistant.New(initCore, llmConnector.Provider()), res, nil
}

// indexCorpus loads the corpus file only when the collection is empty
func indexCorpus(ctx context.Context, idx *index.Index, path string) error {
	stats, err := idx.Index(ctx, nil)
	if err != nil {
		return fmt.Errorf("prepare collection: %w", err)
	}
	if stats.Skipped {
		return nil
	}

	articles, err := corpus.LoadFile(path)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}

	report, err := idx.Index(ctx, articles)
	if err != nil {
		return fmt.Errorf("index corpus: %w", err)
	}

	ctxzap.Info(ctx, "corpus indexed",
		zap.String("path", path),
		zap.Int("indexed", report.Indexed),
	)
	return nil
}
