// Package logger keeps the flow-scoped zap logger in the context.
package logger

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const actionKey = "action"

// AddFields returns ctx with fields appended to its logger
func AddFields(ctx context.Context, fields ...zap.Field) context.Context {
	return ctxzap.ToContext(ctx, ctxzap.Extract(ctx).With(fields...))
}

// WithAction tags every entry logged under ctx with the flow it belongs to
func WithAction(ctx context.Context, action string) context.Context {
	return AddFields(ctx, zap.String(actionKey, action))
}

// Detached attaches log to ctx for work not tied to a request, like warmup or lazy initialization
func Detached(ctx context.Context, log *zap.Logger, action string) context.Context {
	return WithAction(ctxzap.ToContext(ctx, log), action)
}
