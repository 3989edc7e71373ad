// Package requestctx carries request-scoped values shared by middleware and
// handlers without import cycles.
package requestctx

import (
	"context"

	"go.uber.org/zap"
)

// key is a distinct context key per stored type.
type key[T any] struct{}

func with[T any](ctx context.Context, v T) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key[T]{}, v)
}

func get[T any](ctx context.Context) (T, bool) {
	var zero T
	if ctx == nil {
		return zero, false
	}
	v, ok := ctx.Value(key[T]{}).(T)
	return v, ok
}

var noopLogger = zap.NewNop()

// TraceInfo identifies the server span of the current request.
type TraceInfo struct {
	TraceID string
	SpanID  string
	Sampled bool
}

// WithLogger stores logger; nil stores the shared no-op logger.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	if logger == nil {
		logger = noopLogger
	}
	return with(ctx, logger)
}

// Logger returns the request logger or the shared no-op logger.
func Logger(ctx context.Context) *zap.Logger {
	if l, ok := get[*zap.Logger](ctx); ok && l != nil {
		return l
	}
	return noopLogger
}

// NoopLogger is the logger returned when none was stored. Recovery compares
// against it to decide whether to fall back to the process logger.
func NoopLogger() *zap.Logger { return noopLogger }

// WithTrace stores the span identifiers.
func WithTrace(ctx context.Context, info TraceInfo) context.Context {
	return with(ctx, info)
}

// Trace returns the span identifiers when TraceMiddleware ran.
func Trace(ctx context.Context) (TraceInfo, bool) {
	return get[TraceInfo](ctx)
}

// TraceID is shorthand for Trace(ctx).TraceID.
func TraceID(ctx context.Context) string {
	info, _ := Trace(ctx)
	return info.TraceID
}
