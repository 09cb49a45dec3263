package scheduler_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/chjobfeed/ingest/internal/scheduler"
	"github.com/chjobfeed/ingest/internal/taskqueue"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_TicksEnqueueTheirQueue(t *testing.T) {
	queues := scheduler.Queues{
		FetchProviders: taskqueue.New(),
		FetchScrapers:  taskqueue.New(),
		SavedSearches:  taskqueue.New(),
		SemanticSweep:  taskqueue.New(),
		URLCheck:       taskqueue.New(),
	}

	s, err := scheduler.New(scheduler.Intervals{
		FetchProviders: 10 * time.Millisecond,
		FetchScrapers:  time.Hour,
		SavedSearches:  time.Hour,
	}, queues, discardLogger())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	go s.Start(ctx)

	select {
	case <-queues.FetchProviders.C():
	case <-time.After(200 * time.Millisecond):
		t.Fatal("expected fetch_providers to be enqueued within its interval")
	}
}

func TestScheduler_NewRegistersCronJobsWithoutError(t *testing.T) {
	queues := scheduler.Queues{
		FetchProviders: taskqueue.New(),
		FetchScrapers:  taskqueue.New(),
		SavedSearches:  taskqueue.New(),
		SemanticSweep:  taskqueue.New(),
		URLCheck:       taskqueue.New(),
	}
	if _, err := scheduler.New(scheduler.Intervals{}, queues, discardLogger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
