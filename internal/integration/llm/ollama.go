package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/futig/traffic-law-assistant/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// OllamaConnector runs chat completions on a local Ollama model
type OllamaConnector struct {
	client *api.Client
}

func NewOllamaConnector(client *api.Client) *OllamaConnector {
	return &OllamaConnector{client: client}
}

func (c *OllamaConnector) Complete(ctx context.Context, req entity.CompletionRequest) (string, error) {
	ctxzap.Info(ctx, "requesting ollama chat",
		zap.String("model", req.Model),
		zap.Float64("temperature", req.Temperature),
		zap.Int("max_tokens", req.MaxTokens),
	)

	messages := make([]api.Message, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = api.Message{Role: string(m.Role), Content: m.Content}
	}

	stream := false
	chatReq := &api.ChatRequest{
		Model:    req.Model,
		Messages: messages,
		Stream:   &stream,
		Options: map[string]any{
			"temperature": req.Temperature,
			"num_predict": req.MaxTokens,
		},
	}

	var out strings.Builder
	err := c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		out.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat failed: %w", err)
	}

	if out.Len() == 0 {
		return "", entity.ErrEmptyCompletion
	}

	return out.String(), nil
}

func (c *OllamaConnector) Provider() string {
	return "Ollama"
}
