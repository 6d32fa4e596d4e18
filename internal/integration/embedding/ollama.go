package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/futig/traffic-law-assistant/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// OllamaEmbedder encodes texts with an Ollama embedding model
type OllamaEmbedder struct {
	client  *api.Client
	model   string
	timeout time.Duration
}

func NewOllamaEmbedder(client *api.Client, model string, timeout time.Duration) *OllamaEmbedder {
	return &OllamaEmbedder{
		client:  client,
		model:   model,
		timeout: timeout,
	}
}

// Encode returns one vector per input text, in input order
func (e *OllamaEmbedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	ctxzap.Debug(ctx, "requesting embeddings",
		zap.String("model", e.model),
		zap.Int("texts", len(texts)),
	)

	resp, err := e.client.Embed(ctx, &api.EmbedRequest{
		Model: e.model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", entity.ErrEmptyEmbedding, len(resp.Embeddings), len(texts))
	}

	return resp.Embeddings, nil
}

func (e *OllamaEmbedder) Model() string {
	return e.model
}
