package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/avast/retry-go/v4"
	"github.com/futig/traffic-law-assistant/internal/config"
	"github.com/futig/traffic-law-assistant/internal/entity"
	"github.com/futig/traffic-law-assistant/internal/integration/common"
	pkgRetry "github.com/futig/traffic-law-assistant/internal/pkg/retry"
	pkghttp "github.com/futig/traffic-law-assistant/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Connector talks to the Mistral chat-completions API
type Connector struct {
	config    config.LLMConfig
	connector *pkghttp.Connector
	retry     pkgRetry.RetryConfig
	logger    *zap.Logger
}

func NewConnector(
	cfg config.LLMConfig,
	logger *zap.Logger,
) *Connector {
	retryCfg := cfg.Retry
	if retryCfg.Attempts == 0 {
		retryCfg = *pkgRetry.DefaultRetryConfig()
	}

	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig),
		config:    cfg,
		retry:     retryCfg,
		logger:    logger,
	}
}

// Complete performs one non-streaming chat completion and returns the first choice
func (c *Connector) Complete(ctx context.Context, req entity.CompletionRequest) (string, error) {
	ctxzap.Info(ctx, "requesting chat completion",
		zap.String("model", req.Model),
		zap.Float64("temperature", req.Temperature),
		zap.Int("max_tokens", req.MaxTokens),
	)

	body := entity.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	resp, err := retry.DoWithData(
		func() (entity.ChatCompletionResponse, error) {
			var resp entity.ChatCompletionResponse
			err := c.connector.DoRequest(ctx, http.MethodPost, c.config.CompletionsEndpoint, body, &resp)
			var httpErr *pkghttp.HTTPError
			if errors.As(err, &httpErr) && !httpErr.Retryable() {
				return resp, retry.Unrecoverable(err)
			}
			return resp, err
		},
		append(c.retry.ToRetryOptions(ctx),
			retry.OnRetry(func(n uint, err error) {
				ctxzap.Warn(ctx, "chat completion failed, retrying",
					zap.Uint("attempt", n+1),
					zap.Error(err),
				)
			}),
		)...,
	)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", entity.ErrEmptyCompletion
	}

	ctxzap.Info(ctx, "chat completion received",
		zap.String("finish_reason", resp.Choices[0].FinishReason),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	return resp.Choices[0].Message.Content, nil
}

func (c *Connector) Provider() string {
	return "Mistral AI"
}
