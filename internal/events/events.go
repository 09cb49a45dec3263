// Package events defines the narrow output boundary this core reaches past
// itself: a new job is something downstream search/matching/notification
// consumers need to know about, but none of those consumers live here.
package events

import (
	"context"

	"github.com/chjobfeed/ingest/internal/domain"
)

// Publisher is satisfied by whatever fan-out fabric carries a new posting
// to downstream consumers (a user-scoped SSE channel, a message broker, a
// search indexer). Production wiring for that fabric is out of scope for
// this core; NoopPublisher stands in until it exists.
type Publisher interface {
	PublishNewJob(ctx context.Context, job domain.Job) error
}

// NoopPublisher discards every job. It's the default Publisher until the
// downstream fabric is wired in, so the orchestrator's publish call site
// never has to special-case "nothing is listening yet".
type NoopPublisher struct{}

func (NoopPublisher) PublishNewJob(context.Context, domain.Job) error { return nil }
