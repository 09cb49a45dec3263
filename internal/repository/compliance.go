package repository

import (
	"context"
	"time"

	"github.com/chjobfeed/ingest/internal/domain"
)

// ComplianceRepository is the persistence boundary behind
// internal/compliance.Engine.
type ComplianceRepository interface {
	Get(ctx context.Context, sourceKey string) (*domain.SourceCompliance, error)
	ReportBlock(ctx context.Context, sourceKey string, at time.Time) (disabled bool, err error)
	ResetBlocks(ctx context.Context, sourceKey string) error
	List(ctx context.Context) ([]domain.SourceCompliance, error)
}
