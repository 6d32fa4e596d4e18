package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type echoBody struct {
	Text string `json:"text"`
}

func TestConnector_DoRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/echo", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in echoBody
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(echoBody{Text: strings.ToUpper(in.Text)})
	}))
	defer srv.Close()

	c := NewConnector(srv.URL+"/", NewClient(ClientConfig{BearerToken: "secret"}))

	var out echoBody
	err := c.DoRequest(context.Background(), http.MethodPost, "/v1/echo", echoBody{Text: "hola"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "HOLA", out.Text)
}

func TestConnector_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, strings.Repeat("x", maxErrorBody*2), http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewConnector(srv.URL, NewClient(ClientConfig{}))

	err := c.DoRequest(context.Background(), http.MethodGet, "/", nil, nil)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
	assert.Len(t, httpErr.Message, maxErrorBody)
	assert.True(t, httpErr.Retryable())
}

func TestHTTPError_Retryable(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusServiceUnavailable, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, (&HTTPError{StatusCode: tt.status}).Retryable(), tt.status)
	}
}

func TestNetworkError_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	c := NewConnector(srv.URL, NewClient(ClientConfig{}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.DoRequest(ctx, http.MethodGet, "/", nil, nil)

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())

	assert.False(t, (&NetworkError{Err: errors.New("connection refused")}).Timeout())
}

func TestLogTransport_RedactsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	core, logs := observer.New(zap.DebugLevel)
	ctx := ctxzap.ToContext(context.Background(), zap.New(core))

	c := NewConnector(srv.URL, NewClient(ClientConfig{BearerToken: "secret", LogRequests: true}))
	require.NoError(t, c.DoRequest(ctx, http.MethodGet, "/health", nil, nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "HTTP outbound request", entries[0].Message)

	headers, ok := entries[0].ContextMap()["headers"].(http.Header)
	require.True(t, ok)
	assert.Equal(t, "[REDACTED]", headers.Get("Authorization"))

	assert.Equal(t, "HTTP outbound response", entries[1].Message)
	assert.EqualValues(t, http.StatusNoContent, entries[1].ContextMap()["status"])
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(ClientConfig{RequestTimeout: 3 * time.Second})
	assert.Equal(t, 3*time.Second, client.Timeout)

	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok, "no wrappers without token or logging")
	assert.Equal(t, defaultResponseHeaderTimeout, transport.ResponseHeaderTimeout)
	assert.Equal(t, defaultMaxIdleConnsPerHost, transport.MaxIdleConnsPerHost)
}
