// Package orchestrator drives one ingestion run: fetch every enabled
// adapter in parallel, then persist what came back, one adapter transaction
// at a time with one savepoint per record, and signal the maintenance
// workers when there's new data for them to pick up.
package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/chjobfeed/ingest/internal/adapter"
	"github.com/chjobfeed/ingest/internal/dedup"
	"github.com/chjobfeed/ingest/internal/domain"
	"github.com/chjobfeed/ingest/internal/events"
	"github.com/chjobfeed/ingest/internal/metrics"
	"github.com/chjobfeed/ingest/internal/repository"
	"github.com/chjobfeed/ingest/internal/runctx"
	"github.com/chjobfeed/ingest/internal/taskqueue"
)

// RunSummary accumulates counters across every adapter in a run. Failures
// holds the error from any adapter that failed to fetch or persist, keyed
// by source, so a run with partial failures can still report what worked.
type RunSummary struct {
	Fetched  int
	New      int
	Updated  int
	Dupes    int
	Errors   int
	Failures map[string]error
}

type Orchestrator struct {
	registry         *adapter.Registry
	writer           repository.JobWriter
	dedup            *dedup.Deduplicator
	embeddingQueue   *taskqueue.Queue
	publisher        events.Publisher
	fetchConcurrency int
	softTimeout      time.Duration
	hardTimeout      time.Duration
	logger           *slog.Logger
}

func New(
	registry *adapter.Registry,
	writer repository.JobWriter,
	dd *dedup.Deduplicator,
	embeddingQueue *taskqueue.Queue,
	fetchConcurrency int,
	logger *slog.Logger,
) *Orchestrator {
	if fetchConcurrency < 1 {
		fetchConcurrency = 1
	}
	return &Orchestrator{
		registry:         registry,
		writer:           writer,
		dedup:            dd,
		embeddingQueue:   embeddingQueue,
		publisher:        events.NoopPublisher{},
		fetchConcurrency: fetchConcurrency,
		softTimeout:      540 * time.Second,
		hardTimeout:      600 * time.Second,
		logger:           logger.With("component", "orchestrator"),
	}
}

// WithPublisher overrides the default no-op downstream publisher. Production
// wiring calls this once the SSE/notification fabric exists; until then the
// no-op keeps every new job's publish call a harmless, already-exercised
// code path.
func (o *Orchestrator) WithPublisher(p events.Publisher) *Orchestrator {
	o.publisher = p
	return o
}

// WithTimeouts overrides the default soft/hard per-run limits (540s/600s).
// A zero hard timeout disables the deadline entirely, which tests use to
// avoid depending on wall-clock time.
func (o *Orchestrator) WithTimeouts(soft, hard time.Duration) *Orchestrator {
	o.softTimeout, o.hardTimeout = soft, hard
	return o
}

// Run executes the two-phase ingestion cycle: a bounded-parallel fetch
// phase across every enabled adapter, followed by a sequential persist
// phase, adapter by adapter, in the order the registry was built.
//
// A failing adapter — in either phase — never aborts the run; its failure
// is recorded in the summary and the next adapter proceeds. The whole run
// is bounded by the hard timeout; a soft timeout logs a warning so an
// operator can tell a slow run from a hung one before the hard cutoff
// force-cancels every in-flight fetch.
func (o *Orchestrator) Run(ctx context.Context, query, location string) *RunSummary {
	start := time.Now()
	defer func() { metrics.RunDuration.Observe(time.Since(start).Seconds()) }()

	ctx = runctx.WithRunID(ctx, runctx.New())

	if o.hardTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.hardTimeout)
		defer cancel()
	}
	if o.softTimeout > 0 {
		softTimer := time.AfterFunc(o.softTimeout, func() {
			o.logger.WarnContext(ctx, "ingestion run exceeded its soft time limit", "soft_timeout", o.softTimeout)
		})
		defer softTimer.Stop()
	}

	results := o.fetchAll(ctx, query, location)

	summary := &RunSummary{Failures: map[string]error{}}
	for _, res := range results {
		if res.err != nil {
			o.logger.ErrorContext(ctx, "adapter fetch failed", "source", res.source, "error", res.err)
			summary.Errors++
			summary.Failures[res.source] = res.err
			continue
		}

		summary.Fetched += len(res.jobs)
		if len(res.jobs) == 0 {
			continue
		}

		if err := o.persistAdapter(ctx, res.source, res.jobs, summary); err != nil {
			o.logger.ErrorContext(ctx, "adapter persist transaction failed", "source", res.source, "error", err)
			summary.Errors++
			summary.Failures[res.source] = err
		}
	}

	o.logger.InfoContext(ctx, "ingestion run complete",
		"fetched", summary.Fetched, "new", summary.New, "updated", summary.Updated,
		"dupes", summary.Dupes, "errors", summary.Errors,
	)

	// Post-run side effect: a new job means the embedding backfill has
	// something to do. The backfill sweep itself enqueues the semantic
	// dedup sweep once it completes, since that sweep needs the embeddings
	// this one produces.
	if summary.New > 0 {
		o.embeddingQueue.Enqueue()
	}

	return summary
}

type fetchResult struct {
	source string
	jobs   []domain.RawJob
	err    error
}

// fetchAll runs FetchJobs against every enabled adapter concurrently,
// bounded by fetchConcurrency. One adapter's error never cancels the
// others: each result is captured independently rather than returned as a
// group error.
func (o *Orchestrator) fetchAll(ctx context.Context, query, location string) []fetchResult {
	adapters := o.registry.Enabled()
	results := make([]fetchResult, len(adapters))

	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(o.fetchConcurrency))

	for i, p := range adapters {
		i, p := i, p
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				results[i] = fetchResult{source: p.SourceName(), err: err}
				return nil
			}
			defer sem.Release(1)

			sctx := runctx.WithSource(gctx, p.SourceName())
			fetchStart := time.Now()
			jobs, err := p.FetchJobs(sctx, query, location)
			metrics.FetchDuration.WithLabelValues(p.SourceName()).Observe(time.Since(fetchStart).Seconds())

			results[i] = fetchResult{source: p.SourceName(), jobs: jobs, err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// persistAdapter writes one adapter's fetched batch inside a single
// transaction, giving each record its own savepoint so one bad record rolls
// back in isolation without losing its neighbors or aborting the adapter's
// commit.
func (o *Orchestrator) persistAdapter(ctx context.Context, source string, jobs []domain.RawJob, summary *RunSummary) error {
	ctx = runctx.WithSource(ctx, source)
	return o.writer.WithAdapterTx(ctx, func(tx repository.JobTx) error {
		for _, raw := range jobs {
			raw := raw
			err := tx.WithRecordSavepoint(ctx, func(repo repository.JobRepository) error {
				outcome, err := o.persistRecord(ctx, repo, raw)
				if err != nil {
					return err
				}
				switch outcome {
				case outcomeNew:
					summary.New++
				case outcomeUpdated:
					summary.Updated++
				case outcomeDupe:
					summary.Dupes++
				}
				metrics.JobsUpsertedTotal.WithLabelValues(source, string(outcome)).Inc()
				return nil
			})
			if err != nil {
				o.logger.ErrorContext(ctx, "persist record failed",
					"source", source, "title", raw.Title, "company", raw.Company, "error", err)
				summary.Errors++
				metrics.JobsUpsertedTotal.WithLabelValues(source, "error").Inc()
			}
		}
		return nil
	})
}
