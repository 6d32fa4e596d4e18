package builder

import (
	"fmt"
	"net/url"

	"github.com/futig/traffic-law-assistant/internal/config"
	"github.com/futig/traffic-law-assistant/internal/integration/common"
	"github.com/futig/traffic-law-assistant/internal/integration/embedding"
	"github.com/futig/traffic-law-assistant/internal/integration/llm"
	"github.com/futig/traffic-law-assistant/internal/usecase/generation"
	"github.com/futig/traffic-law-assistant/internal/usecase/index"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// mockEmbeddingDimension keeps mock vectors small regardless of EMBEDDING_DIMENSION
const mockEmbeddingDimension = 256

type completer interface {
	generation.Completer
	Provider() string
}

func setupEmbedder(cfg *config.Config, logger *zap.Logger) (index.Embedder, error) {
	if cfg.EnableMocks {
		logger.Info("Using mock embedder")
		return embedding.NewMockEmbedder(mockEmbeddingDimension), nil
	}

	// per-call deadlines come from EMBEDDING_TIMEOUT
	client, err := ollamaClient(cfg.EmbeddingCfg.URL, config.HTTPClientConfig{})
	if err != nil {
		return nil, fmt.Errorf("embedding client: %w", err)
	}

	logger.Info("Using ollama embedder",
		zap.String("url", cfg.EmbeddingCfg.URL),
		zap.String("model", cfg.EmbeddingCfg.Model),
	)
	return embedding.NewOllamaEmbedder(client, cfg.EmbeddingCfg.Model, cfg.EmbeddingCfg.Timeout), nil
}

func setupCompleter(cfg *config.Config, logger *zap.Logger) (completer, error) {
	if cfg.EnableMocks {
		logger.Info("Using mock language model")
		return llm.NewMockConnector(logger), nil
	}

	switch cfg.LLMCfg.Provider {
	case config.LLMProviderMistral:
		logger.Info("Using Mistral language model", zap.String("model", cfg.LLMCfg.Model))
		return llm.NewConnector(cfg.LLMCfg, logger), nil
	case config.LLMProviderOllama:
		httpCfg := cfg.LLMCfg.HTTPClientConfig
		httpCfg.Token = ""
		client, err := ollamaClient(cfg.LLMCfg.Url, httpCfg)
		if err != nil {
			return nil, fmt.Errorf("llm client: %w", err)
		}
		logger.Info("Using ollama language model", zap.String("model", cfg.LLMCfg.Model))
		return llm.NewOllamaConnector(client), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMCfg.Provider)
	}
}

func ollamaClient(rawURL string, httpCfg config.HTTPClientConfig) (*api.Client, error) {
	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse ollama url %q: %w", rawURL, err)
	}
	return api.NewClient(base, common.NewHTTPClient(httpCfg)), nil
}
