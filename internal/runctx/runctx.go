// Package runctx carries orchestration identifiers (run_id, source) through
// a context.Context so the logging handler can stamp every log line emitted
// during a scheduled run without threading extra parameters through every
// function signature — the same trick the teacher applies to request_id.
package runctx

import (
	"context"

	"github.com/google/uuid"
)

type runIDKey struct{}
type sourceKey struct{}

// New generates a random UUID v4 run ID.
func New() string {
	return uuid.NewString()
}

// WithRunID attaches the current orchestration run's identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID extracts the run identifier. Returns "" if absent.
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// WithSource attaches the adapter source key currently being processed.
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey{}, source)
}

// Source extracts the adapter source key. Returns "" if absent.
func Source(ctx context.Context) string {
	s, _ := ctx.Value(sourceKey{}).(string)
	return s
}
