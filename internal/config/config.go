// Package config loads process configuration once at startup into an
// immutable value. Neither the scheduler nor the orchestrator ever read the
// environment mid-run — they are handed a *Config by main.
package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Config is the full environment surface of the ingestion worker.
type Config struct {
	Env         string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"required,oneof=debug info warn error"`
	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`
	AdminPort   string `env:"ADMIN_PORT" envDefault:"8080"`

	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`

	// Scheduler trigger intervals (spec.md §4.I).
	FetchIntervalMinutes   int `env:"FETCH_INTERVAL_MINUTES" envDefault:"30" validate:"min=1"`
	ScraperIntervalHours   int `env:"SCRAPER_INTERVAL_HOURS" envDefault:"6" validate:"min=1"`
	SearchIntervalMinutes  int `env:"SEARCH_INTERVAL_MINUTES" envDefault:"60" validate:"min=1"`
	SchedulerEnabled       bool `env:"SCHEDULER_ENABLED" envDefault:"true"`

	// Fetch orchestrator (spec.md §4.H, §5).
	FetchConcurrency    int `env:"FETCH_CONCURRENCY" envDefault:"5" validate:"min=1,max=64"`
	RunSoftTimeoutSec   int `env:"RUN_SOFT_TIMEOUT_SEC" envDefault:"540" validate:"min=1"`
	RunHardTimeoutSec   int `env:"RUN_HARD_TIMEOUT_SEC" envDefault:"600" validate:"min=1"`

	// Circuit breaker settings (spec.md §4.A), applied to every source's
	// breaker alike; there are no per-source overrides.
	BreakerFailureThreshold int `env:"BREAKER_FAILURE_THRESHOLD" envDefault:"5" validate:"min=1"`
	BreakerRecoveryTimeoutSec int `env:"BREAKER_RECOVERY_TIMEOUT_SEC" envDefault:"60" validate:"min=1"`

	// HTTP fetcher defaults (spec.md §4.C).
	HTTPTimeoutSec    int `env:"HTTP_TIMEOUT_SEC" envDefault:"15" validate:"min=1"`
	HTTPHeavyTimeoutSec int `env:"HTTP_HEAVY_TIMEOUT_SEC" envDefault:"30" validate:"min=1"`
	BrowserTimeoutSec int `env:"BROWSER_TIMEOUT_SEC" envDefault:"30" validate:"min=1"`
	MaxRetries        int `env:"HTTP_MAX_RETRIES" envDefault:"3" validate:"min=0,max=10"`
	BackoffFactor     float64 `env:"HTTP_BACKOFF_FACTOR" envDefault:"1.0" validate:"gt=0"`
	MaxRetryDelaySec  int `env:"HTTP_MAX_RETRY_DELAY_SEC" envDefault:"30" validate:"min=1"`

	// Per-provider credentials; an unset value silently disables the
	// corresponding adapter (spec.md §6).
	JoobleAPIKey      string `env:"JOOBLE_API_KEY"`
	AdzunaAppID       string `env:"ADZUNA_APP_ID"`
	AdzunaAppKey      string `env:"ADZUNA_APP_KEY"`
	CareerjetAffID    string `env:"CAREERJET_AFFID"`
	JSearchRapidAPIKey string `env:"JSEARCH_RAPIDAPI_KEY"`

	// Maintenance (spec.md §4.J).
	DedupBatchSize       int     `env:"DEDUP_BATCH_SIZE" envDefault:"200" validate:"min=1"`
	SemanticThreshold    float64 `env:"SEMANTIC_DEDUP_THRESHOLD" envDefault:"0.95" validate:"gt=0,lte=1"`
	URLHealthBatchSize   int     `env:"URL_HEALTH_BATCH_SIZE" envDefault:"200" validate:"min=1"`
}

// Load reads environment variables into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SlogLevel converts LogLevel to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
