package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chjobfeed/ingest/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ComplianceRepository is the pgx-backed implementation of
// repository.ComplianceRepository.
type ComplianceRepository struct {
	pool *pgxpool.Pool
}

func NewComplianceRepository(pool *pgxpool.Pool) *ComplianceRepository {
	return &ComplianceRepository{pool: pool}
}

func (r *ComplianceRepository) Get(ctx context.Context, sourceKey string) (*domain.SourceCompliance, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT source_key, method, is_allowed, robots_txt_ok, rate_limit_seconds,
		       max_requests_per_hour, auto_disable_on_block, consecutive_blocks,
		       last_blocked_at, tos_reviewed_at, tos_notes, created_at, updated_at
		FROM source_compliance WHERE source_key = $1`, sourceKey)

	s, err := scanCompliance(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get compliance: %w", err)
	}
	return s, nil
}

// ReportBlock takes out a row lock, increments consecutive_blocks and
// stamps last_blocked_at, then flips is_allowed to false in the same
// transaction once the kill-switch threshold is reached — all under one
// lock so two concurrent block reports can never both observe
// consecutive_blocks just below the threshold and both skip disabling.
func (r *ComplianceRepository) ReportBlock(ctx context.Context, sourceKey string, at time.Time) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var autoDisable bool
	var consecutiveBlocks int
	err = tx.QueryRow(ctx, `
		SELECT auto_disable_on_block, consecutive_blocks
		FROM source_compliance WHERE source_key = $1 FOR UPDATE`, sourceKey).
		Scan(&autoDisable, &consecutiveBlocks)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lock compliance row: %w", err)
	}

	consecutiveBlocks++
	disables := autoDisable && consecutiveBlocks >= domain.KillSwitchThreshold

	_, err = tx.Exec(ctx, `
		UPDATE source_compliance
		SET consecutive_blocks = $2, last_blocked_at = $3, is_allowed = is_allowed AND NOT $4, updated_at = NOW()
		WHERE source_key = $1`, sourceKey, consecutiveBlocks, at, disables)
	if err != nil {
		return false, fmt.Errorf("update compliance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return disables, nil
}

func (r *ComplianceRepository) ResetBlocks(ctx context.Context, sourceKey string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE source_compliance SET consecutive_blocks = 0, updated_at = NOW() WHERE source_key = $1`,
		sourceKey)
	if err != nil {
		return fmt.Errorf("reset blocks: %w", err)
	}
	return nil
}

func (r *ComplianceRepository) List(ctx context.Context) ([]domain.SourceCompliance, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT source_key, method, is_allowed, robots_txt_ok, rate_limit_seconds,
		       max_requests_per_hour, auto_disable_on_block, consecutive_blocks,
		       last_blocked_at, tos_reviewed_at, tos_notes, created_at, updated_at
		FROM source_compliance ORDER BY source_key`)
	if err != nil {
		return nil, fmt.Errorf("list compliance: %w", err)
	}
	defer rows.Close()

	var out []domain.SourceCompliance
	for rows.Next() {
		s, err := scanCompliance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan compliance: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

type complianceRowScanner interface {
	Scan(dest ...any) error
}

func scanCompliance(row complianceRowScanner) (*domain.SourceCompliance, error) {
	var s domain.SourceCompliance
	err := row.Scan(
		&s.SourceKey, &s.Method, &s.IsAllowed, &s.RobotsTxtOK, &s.RateLimitSeconds,
		&s.MaxRequestsPerHour, &s.AutoDisableOnBlock, &s.ConsecutiveBlocks,
		&s.LastBlockedAt, &s.TOSReviewedAt, &s.TOSNotes, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
