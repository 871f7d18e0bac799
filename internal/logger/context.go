package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// ContextWithLogger attaches a request-scoped logger.
func ContextWithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContextOr returns the logger attached to ctx, else def, else a no-op.
func FromContextOr(ctx context.Context, def *zap.Logger) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok && l != nil {
		return l
	}
	if def != nil {
		return def
	}
	return zap.NewNop()
}

// FromContext is FromContextOr without a fallback.
func FromContext(ctx context.Context) *zap.Logger { return FromContextOr(ctx, nil) }
