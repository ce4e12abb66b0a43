package http

import (
	"context"
	"log/slog"
)

// handlerLogger resolves the logger for a request, preferring the
// request-scoped logger over the handler's own, and stamps the handler
// and operation attributes onto it.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	logger := LoggerFromContext(ctx)
	switch {
	case logger != nil:
	case fallback != nil:
		logger = fallback
	default:
		logger = slog.Default()
	}

	pairs := make([]any, 0, 4+len(attrs))
	pairs = append(pairs, "handler", handlerName, "operation", operation)
	pairs = append(pairs, attrs...)
	return logger.With(pairs...)
}
