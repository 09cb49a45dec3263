package log

import (
	"context"
	"log/slog"

	"github.com/chjobfeed/ingest/internal/requestid"
	"github.com/chjobfeed/ingest/internal/runctx"
)

// ContextHandler wraps an slog.Handler and automatically extracts
// request_id, run_id and source from the context of each log record.
type ContextHandler struct {
	inner slog.Handler
}

// NewContextHandler returns a handler that enriches every record with
// context values before delegating to inner.
func NewContextHandler(inner slog.Handler) *ContextHandler {
	return &ContextHandler{inner: inner}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := requestid.FromContext(ctx); id != "" {
		r.AddAttrs(slog.String("request_id", id))
	}
	if id := runctx.RunID(ctx); id != "" {
		r.AddAttrs(slog.String("run_id", id))
	}
	if source := runctx.Source(ctx); source != "" {
		r.AddAttrs(slog.String("source", source))
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{inner: h.inner.WithGroup(name)}
}
