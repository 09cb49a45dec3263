// Command ingestd is the long-running ingestion worker: it wires the
// scheduler, the fetch orchestrator, the maintenance sweeps and the admin
// HTTP surface together and runs until told to stop.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/chjobfeed/ingest/internal/adminhttp"
	"github.com/chjobfeed/ingest/internal/breaker"
	"github.com/chjobfeed/ingest/internal/compliance"
	"github.com/chjobfeed/ingest/internal/config"
	"github.com/chjobfeed/ingest/internal/dedup"
	"github.com/chjobfeed/ingest/internal/fetch"
	"github.com/chjobfeed/ingest/internal/health"
	"github.com/chjobfeed/ingest/internal/infrastructure/postgres"
	ctxlog "github.com/chjobfeed/ingest/internal/log"
	"github.com/chjobfeed/ingest/internal/maintenance"
	"github.com/chjobfeed/ingest/internal/metrics"
	"github.com/chjobfeed/ingest/internal/orchestrator"
	"github.com/chjobfeed/ingest/internal/scheduler"
	"github.com/chjobfeed/ingest/internal/taskqueue"
	"github.com/chjobfeed/ingest/internal/wiring"
)

// noopEmbedder stands in for the excluded AI matching pipeline until that
// service is wired in; it lets the embedding backfill loop run end to end
// (pulling pending rows, calling out, writing results) without a real model
// behind it.
type noopEmbedder struct{}

func (noopEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{}
	}
	return out, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()
	logger.Info("db connected")

	metrics.Register()

	jobRepo := postgres.NewJobRepository(pool)
	complianceRepo := postgres.NewComplianceRepository(pool)

	complianceEngine := compliance.New(complianceRepo, logger)
	breakers := breaker.NewRegistry(cfg.BreakerFailureThreshold, time.Duration(cfg.BreakerRecoveryTimeoutSec)*time.Second)
	deduplicator := dedup.New(jobRepo)
	client := fetch.NewClient(logger)

	adapters, err := wiring.Build(cfg, client, breakers, complianceEngine, logger)
	if err != nil {
		log.Fatalf("wire adapters: %v", err)
	}
	defer func() {
		if err := adapters.Close(); err != nil {
			logger.Error("adapter shutdown", "error", err)
		}
	}()

	queues := scheduler.Queues{
		FetchProviders: taskqueue.New(),
		FetchScrapers:  taskqueue.New(),
		SavedSearches:  taskqueue.New(),
		SemanticSweep:  taskqueue.New(),
		URLCheck:       taskqueue.New(),
	}
	embeddingQueue := taskqueue.New()

	providerOrchestrator := orchestrator.New(adapters.Providers, jobRepo, deduplicator, embeddingQueue, cfg.FetchConcurrency, logger)
	scraperOrchestrator := orchestrator.New(adapters.Scrapers, jobRepo, deduplicator, embeddingQueue, cfg.FetchConcurrency, logger)

	sched, err := scheduler.New(scheduler.Intervals{
		FetchProviders: time.Duration(cfg.FetchIntervalMinutes) * time.Minute,
		FetchScrapers:  time.Duration(cfg.ScraperIntervalHours) * time.Hour,
		SavedSearches:  time.Duration(cfg.SearchIntervalMinutes) * time.Minute,
	}, queues, logger)
	if err != nil {
		log.Fatalf("build scheduler: %v", err)
	}

	go sched.Start(ctx)
	go runConsumer(ctx, "fetch_providers", queues.FetchProviders, func(ctx context.Context) {
		providerOrchestrator.Run(ctx, "", "")
	})
	go runConsumer(ctx, "fetch_scrapers", queues.FetchScrapers, func(ctx context.Context) {
		scraperOrchestrator.Run(ctx, "", "")
	})
	go runConsumer(ctx, "embedding_backfill", embeddingQueue, func(ctx context.Context) {
		if _, err := maintenance.BackfillEmbeddings(ctx, jobRepo, noopEmbedder{}, maintenance.EmbeddingBackfillBatchSize, queues.SemanticSweep, logger); err != nil {
			logger.ErrorContext(ctx, "embedding backfill failed", "error", err)
		}
	})
	go runConsumer(ctx, "semantic_dedup_sweep", queues.SemanticSweep, func(ctx context.Context) {
		if _, err := maintenance.SemanticDedupSweep(ctx, jobRepo, deduplicator, maintenance.SemanticSweepBatchSize, logger); err != nil {
			logger.ErrorContext(ctx, "semantic dedup sweep failed", "error", err)
		}
	})
	go runConsumer(ctx, "check_job_urls", queues.URLCheck, func(ctx context.Context) {
		if _, _, err := maintenance.CheckJobURLs(ctx, jobRepo, client, maintenance.URLCheckBatchSize, logger); err != nil {
			logger.ErrorContext(ctx, "url health sweep failed", "error", err)
		}
	})
	// SavedSearches dispatch is a no-op until the authenticated search
	// subsystem (an external collaborator per spec.md §1) exists to supply
	// the saved queries; the queue still ticks so that integration is a
	// matter of wiring a consumer, not touching the scheduler.
	go runConsumer(ctx, "run_saved_searches", queues.SavedSearches, func(context.Context) {
		logger.Debug("run_saved_searches tick with no consumer wired")
	})

	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)
	adminSrv := &http.Server{
		Addr:    ":" + cfg.AdminPort,
		Handler: adminhttp.NewRouter(logger, checker, breakers, complianceEngine),
	}
	go func() {
		logger.Info("admin http server started", "port", cfg.AdminPort)
		if err := adminSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("admin http server", "error", err)
		}
	}()

	metricsSrv := metrics.NewServer(":" + cfg.MetricsPort)
	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := adminSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin http server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}

	logger.Info("ingestd shut down")
}

// runConsumer blocks on q.C() and runs work each time the scheduler signals
// new work is available, until ctx is canceled. Exactly one run is ever
// in flight per queue: the scheduler's ticks coalesce into the queue's
// single-slot buffer while a run is in progress, matching spec.md's "missed
// ticks are not replayed" semantics.
func runConsumer(ctx context.Context, name string, q *taskqueue.Queue, work func(ctx context.Context)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.C():
			work(ctx)
		}
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
