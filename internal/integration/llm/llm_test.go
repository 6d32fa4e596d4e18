package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/futig/traffic-law-assistant/internal/config"
	"github.com/futig/traffic-law-assistant/internal/entity"
	"github.com/futig/traffic-law-assistant/internal/integration/llm"
	pkgRetry "github.com/futig/traffic-law-assistant/internal/pkg/retry"
	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func mistralConfig(url string) config.LLMConfig {
	return config.LLMConfig{
		HTTPClientConfig: config.HTTPClientConfig{
			RequestTimeout:        5 * time.Second,
			ConnTimeout:           time.Second,
			KeepAlive:             time.Second,
			IdleConnTimeout:       time.Second,
			ResponseHeaderTimeout: 5 * time.Second,
			Token:                 "secret",
			Url:                   url,
		},
		Model:               "mistral-small-latest",
		CompletionsEndpoint: "/v1/chat/completions",
		Retry:               pkgRetry.RetryConfig{Attempts: 3, Delay: time.Millisecond, MaxDelay: 5 * time.Millisecond},
	}
}

func completionRequest() entity.CompletionRequest {
	return entity.CompletionRequest{
		Model: "mistral-small-latest",
		Messages: []entity.ChatMessage{
			{Role: entity.RoleSystem, Content: "sistema"},
			{Role: entity.RoleUser, Content: "pregunta"},
		},
		Temperature: 0.3,
		MaxTokens:   1000,
	}
}

func TestConnector_Complete(t *testing.T) {
	var got entity.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_ = json.NewEncoder(w).Encode(entity.ChatCompletionResponse{
			ID:    "cmpl-1",
			Model: got.Model,
			Choices: []entity.ChatCompletionChoice{
				{Message: entity.ChatMessage{Role: entity.RoleAssistant, Content: "Según el Artículo 5..."}, FinishReason: "stop"},
			},
		})
	}))
	defer srv.Close()

	c := llm.NewConnector(mistralConfig(srv.URL), zaptest.NewLogger(t))

	text, err := c.Complete(context.Background(), completionRequest())
	require.NoError(t, err)

	assert.Equal(t, "Según el Artículo 5...", text)
	assert.Equal(t, "mistral-small-latest", got.Model)
	assert.Equal(t, 0.3, got.Temperature)
	assert.Equal(t, 1000, got.MaxTokens)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, entity.RoleSystem, got.Messages[0].Role)
	assert.Equal(t, "Mistral AI", c.Provider())
}

func TestConnector_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
	}))
	defer srv.Close()

	c := llm.NewConnector(mistralConfig(srv.URL), zaptest.NewLogger(t))

	_, err := c.Complete(context.Background(), completionRequest())
	assert.ErrorIs(t, err, entity.ErrEmptyCompletion)
}

func TestConnector_UpstreamError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"message":"Unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := llm.NewConnector(mistralConfig(srv.URL), zaptest.NewLogger(t))

	_, err := c.Complete(context.Background(), completionRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 401")
	assert.Equal(t, int32(1), calls.Load(), "client errors are not retried")
}

func TestConnector_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, `{"message":"Requests rate limit exceeded"}`, http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"id":"x","choices":[{"message":{"role":"assistant","content":"ok"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := llm.NewConnector(mistralConfig(srv.URL), zaptest.NewLogger(t))

	text, err := c.Complete(context.Background(), completionRequest())
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOllamaConnector_Complete(t *testing.T) {
	var got api.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":   got.Model,
			"message": map[string]string{"role": "assistant", "content": "respuesta local"},
			"done":    true,
		})
	}))
	defer srv.Close()

	base, err := url.Parse(srv.URL)
	require.NoError(t, err)
	c := llm.NewOllamaConnector(api.NewClient(base, srv.Client()))

	text, err := c.Complete(context.Background(), completionRequest())
	require.NoError(t, err)

	assert.Equal(t, "respuesta local", text)
	require.NotNil(t, got.Stream)
	assert.False(t, *got.Stream)
	assert.Equal(t, 0.3, got.Options["temperature"])
	assert.Equal(t, float64(1000), got.Options["num_predict"])
	assert.Equal(t, "system", got.Messages[0].Role)
}

func TestMockConnector(t *testing.T) {
	m := llm.NewMockConnector(zaptest.NewLogger(t))

	answer, err := m.Complete(context.Background(), entity.CompletionRequest{
		Messages: []entity.ChatMessage{
			{Role: entity.RoleSystem, Content: "asistente"},
			{Role: entity.RoleUser, Content: "CONTEXTO (Artículos de la Ley 109):\nArtículo 12: texto"},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, answer, "Artículo 12")

	question, err := m.Complete(context.Background(), entity.CompletionRequest{
		Messages: []entity.ChatMessage{{Role: entity.RoleSystem, Content: "... RESPUESTA_CORRECTA:1 ..."}},
	})
	require.NoError(t, err)
	assert.Contains(t, question, "RESPUESTA_CORRECTA:1")
}
