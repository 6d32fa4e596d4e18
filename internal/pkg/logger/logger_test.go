package logger

import (
	"context"
	"testing"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDetachedAndFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	ctx := Detached(context.Background(), zap.New(core), "warmup")
	ctx = AddFields(ctx, zap.String("collection", "articulos_ley_109"))
	ctxzap.Info(ctx, "ready")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "warmup", fields["action"])
	assert.Equal(t, "articulos_ley_109", fields["collection"])
}

func TestWithActionWithoutLogger(t *testing.T) {
	// ctxzap falls back to a no-op logger
	assert.NotPanics(t, func() {
		ctxzap.Info(WithAction(context.Background(), "Chat"), "nobody listens")
	})
}
