// Package compliance implements the pre-flight gate every adapter must pass
// before issuing an outbound request: is the source allowed, has robots.txt
// review signed off, and has it not tripped the consecutive-block
// kill-switch.
package compliance

import (
	"context"
	"log/slog"
	"time"

	"github.com/chjobfeed/ingest/internal/domain"
	"github.com/chjobfeed/ingest/internal/metrics"
)

// Repository is the persistence boundary ComplianceEngine depends on. The
// concrete implementation lives in internal/infrastructure/postgres and
// takes out a row lock for the read-modify-write in ReportBlock.
type Repository interface {
	Get(ctx context.Context, sourceKey string) (*domain.SourceCompliance, error)
	ReportBlock(ctx context.Context, sourceKey string, at time.Time) (disabled bool, err error)
	ResetBlocks(ctx context.Context, sourceKey string) error
	List(ctx context.Context) ([]domain.SourceCompliance, error)
}

// Engine is the gate. It fails closed: any repository error during a
// pre-check is treated as "cannot scrape" rather than propagated, since an
// adapter that cannot confirm permission must not fetch.
type Engine struct {
	repo   Repository
	logger *slog.Logger
}

func New(repo Repository, logger *slog.Logger) *Engine {
	return &Engine{repo: repo, logger: logger.With("component", "compliance")}
}

// CanScrape returns is_allowed && robots_txt_ok. An unknown source, or a
// repository error, both resolve to false.
func (e *Engine) CanScrape(ctx context.Context, sourceKey string) bool {
	row, err := e.repo.Get(ctx, sourceKey)
	if err != nil {
		e.logger.Error("compliance lookup failed, failing closed", "source", sourceKey, "error", err)
		return false
	}
	if row == nil {
		return false
	}
	return row.CanScrape()
}

// ReportBlock records a block event (HTTP 403/429 or similar) and, when the
// source is configured to auto-disable and has now reached the kill-switch
// threshold, flips is_allowed to false atomically in the same update.
// Unknown sources are a no-op.
func (e *Engine) ReportBlock(ctx context.Context, sourceKey string) {
	disabled, err := e.repo.ReportBlock(ctx, sourceKey, time.Now().UTC())
	if err != nil {
		e.logger.Error("report_block failed", "source", sourceKey, "error", err)
		return
	}
	metrics.ComplianceBlocksTotal.WithLabelValues(sourceKey).Inc()
	if disabled {
		metrics.ComplianceKillSwitchTotal.WithLabelValues(sourceKey).Inc()
		e.logger.Warn("source auto-disabled by kill switch", "source", sourceKey, "threshold", domain.KillSwitchThreshold)
	}
}

// ResetBlocks zeros the consecutive-block counter after a verified success.
func (e *Engine) ResetBlocks(ctx context.Context, sourceKey string) {
	if err := e.repo.ResetBlocks(ctx, sourceKey); err != nil {
		e.logger.Error("reset_blocks failed", "source", sourceKey, "error", err)
	}
}

// Status is the read-only snapshot served on the admin HTTP surface.
type Status struct {
	SourceKey          string     `json:"source_key"`
	Method             string     `json:"method"`
	IsAllowed          bool       `json:"is_allowed"`
	RobotsTxtOK        bool       `json:"robots_txt_ok"`
	RateLimitSeconds   float64    `json:"rate_limit_seconds"`
	MaxRequestsPerHour int        `json:"max_requests_per_hour"`
	ConsecutiveBlocks  int        `json:"consecutive_blocks"`
	LastBlockedAt      *time.Time `json:"last_blocked_at,omitempty"`
	TOSReviewedAt      *time.Time `json:"tos_reviewed_at,omitempty"`
	TOSNotes           *string    `json:"tos_notes,omitempty"`
}

// GetComplianceStatus returns every source's compliance row for operators.
func (e *Engine) GetComplianceStatus(ctx context.Context) ([]Status, error) {
	rows, err := e.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Status, 0, len(rows))
	for _, r := range rows {
		out = append(out, Status{
			SourceKey:          r.SourceKey,
			Method:             string(r.Method),
			IsAllowed:          r.IsAllowed,
			RobotsTxtOK:        r.RobotsTxtOK,
			RateLimitSeconds:   r.RateLimitSeconds,
			MaxRequestsPerHour: r.MaxRequestsPerHour,
			ConsecutiveBlocks:  r.ConsecutiveBlocks,
			LastBlockedAt:      r.LastBlockedAt,
			TOSReviewedAt:      r.TOSReviewedAt,
			TOSNotes:           r.TOSNotes,
		})
	}
	return out, nil
}
