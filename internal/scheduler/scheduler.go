// Package scheduler is the time-driven trigger loop: interval jobs on
// time.Ticker, fixed-clock jobs on robfig/cron, Europe/Zurich throughout. It
// only enqueues — every tick or cron fire hands off to a taskqueue.Queue and
// returns immediately, never blocking on the work itself (the teacher's
// dispatcher→worker split, generalized to a single enqueue-only scheduler).
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/chjobfeed/ingest/internal/taskqueue"
)

const zurichTZ = "Europe/Zurich"

// Queues is every downstream signal channel the scheduler fires into. Each
// is a coalescing taskqueue.Queue: a consumer that's still processing the
// previous fire simply picks up the next one when it's free.
type Queues struct {
	FetchProviders *taskqueue.Queue // fetch_providers
	FetchScrapers  *taskqueue.Queue // fetch_scrapers
	SavedSearches  *taskqueue.Queue // run_saved_searches (downstream consumer, outside this core)
	SemanticSweep  *taskqueue.Queue // dedup_semantic
	URLCheck       *taskqueue.Queue // check_job_urls
}

// Intervals holds the three ticker periods; the two cron jobs (dedup_semantic,
// check_job_urls) have fixed clock times and aren't configurable.
type Intervals struct {
	FetchProviders time.Duration
	FetchScrapers  time.Duration
	SavedSearches  time.Duration
}

type Scheduler struct {
	intervals Intervals
	queues    Queues
	cron      *cron.Cron
	logger    *slog.Logger
}

// New builds the scheduler. Cron entries are registered here but don't
// start firing until Start is called.
func New(intervals Intervals, queues Queues, logger *slog.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(zurichTZ)
	if err != nil {
		return nil, fmt.Errorf("load %s timezone: %w", zurichTZ, err)
	}

	logger = logger.With("component", "scheduler")
	c := cron.New(cron.WithLocation(loc))

	if _, err := c.AddFunc("0 4 * * *", func() {
		logger.Info("cron fired", "job", "dedup_semantic")
		queues.SemanticSweep.Enqueue()
	}); err != nil {
		return nil, fmt.Errorf("register dedup_semantic cron: %w", err)
	}

	if _, err := c.AddFunc("0 3 * * 0", func() {
		logger.Info("cron fired", "job", "check_job_urls")
		queues.URLCheck.Enqueue()
	}); err != nil {
		return nil, fmt.Errorf("register check_job_urls cron: %w", err)
	}

	return &Scheduler{intervals: intervals, queues: queues, cron: c, logger: logger}, nil
}

// Start runs every ticker loop in its own goroutine and starts the cron
// scheduler, blocking until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.tick(ctx, "fetch_providers", s.intervals.FetchProviders, s.queues.FetchProviders)
	go s.tick(ctx, "fetch_scrapers", s.intervals.FetchScrapers, s.queues.FetchScrapers)
	go s.tick(ctx, "run_saved_searches", s.intervals.SavedSearches, s.queues.SavedSearches)

	s.cron.Start()
	s.logger.Info("scheduler started",
		"fetch_providers_interval", s.intervals.FetchProviders,
		"fetch_scrapers_interval", s.intervals.FetchScrapers,
		"run_saved_searches_interval", s.intervals.SavedSearches,
	)

	<-ctx.Done()
	cronCtx := s.cron.Stop()
	<-cronCtx.Done()
	s.logger.Info("scheduler shut down")
}

func (s *Scheduler) tick(ctx context.Context, name string, interval time.Duration, q *taskqueue.Queue) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.logger.Info("tick fired", "job", name)
			q.Enqueue()
		}
	}
}
