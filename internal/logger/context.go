package logger

import (
	"context"
	"log/slog"
)

type contextKey string

const correlationIDKey contextKey = "correlation_id"

// ContextWithCorrelationID returns a context carrying the request's
// correlation ID so it can travel from the HTTP boundary into the engine.
func ContextWithCorrelationID(ctx context.Context, correlationID string) context.Context {
	if correlationID == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationIDKey, correlationID)
}

// CorrelationIDFromContext retrieves the correlation ID, or "" if absent
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// WithCorrelationID attaches the context's correlation ID to the logger when
// one is present.
func WithCorrelationID(ctx context.Context, log *slog.Logger) *slog.Logger {
	if id := CorrelationIDFromContext(ctx); id != "" {
		return log.With("correlation_id", id)
	}
	return log
}
