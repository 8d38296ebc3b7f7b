package logging

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

var discard = slog.New(slog.DiscardHandler)

// WithContext returns a copy of ctx carrying logger.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger installed by WithContext.
// Outside a running task it returns a logger that discards everything.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return discard
	}
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return discard
}
