// Package repository declares the persistence interfaces the core
// components depend on, so orchestrator/compliance/dedup never import pgx
// directly — the concrete implementations live in
// internal/infrastructure/postgres.
package repository

import (
	"context"

	"github.com/chjobfeed/ingest/internal/domain"
)

// JobRepository owns every write to the jobs table. No other component is
// permitted to mutate a Job row (spec.md §3, Ownership).
type JobRepository interface {
	// Upsert inserts a new job or refreshes last_seen_at/is_active on an
	// existing one (re-activation). Returns true iff the row did not exist
	// before the call.
	Upsert(ctx context.Context, job *domain.Job) (isNew bool, err error)

	// MarkDuplicate sets duplicate_of and deactivates hash. Idempotent.
	MarkDuplicate(ctx context.Context, hash, canonicalHash string) error

	// GetActiveCount returns the count of is_active rows.
	GetActiveCount(ctx context.Context) (int, error)

	// ListWithoutEmbedding returns active jobs missing an embedding, for the
	// backfill maintenance sweep, bounded by limit.
	ListWithoutEmbedding(ctx context.Context, limit int) ([]*domain.Job, error)

	// SetEmbedding persists a generated embedding for hash.
	SetEmbedding(ctx context.Context, hash string, embedding []float32) error

	// ListActiveCandidatesForSemanticSweep returns active, non-duplicate
	// jobs carrying an embedding, oldest first_seen_at first — the order the
	// semantic sweep must process them in so the oldest row in a cluster is
	// always elected canonical.
	ListActiveCandidatesForSemanticSweep(ctx context.Context, limit int) ([]*domain.Job, error)

	// ListActiveForURLCheck returns active jobs for the URL health sweep.
	ListActiveForURLCheck(ctx context.Context, limit int) ([]*domain.Job, error)

	// MarkURLChecked stamps url_last_check and, if deactivate is true,
	// clears is_active (the URL returned 404/410 or stayed unreachable).
	MarkURLChecked(ctx context.Context, hash string, deactivate bool) error
}

// JobWriter is the transactional entry point the fetch orchestrator's
// persist phase uses: one outer transaction per adapter run, committed once
// every record in that run has been handled.
type JobWriter interface {
	// WithAdapterTx opens a transaction scoped to one adapter's batch of
	// records. fn's error rolls the whole batch back; nil commits it.
	WithAdapterTx(ctx context.Context, fn func(tx JobTx) error) error
}

// JobTx is a JobRepository bound to an adapter's outer transaction, plus
// per-record savepoint isolation so one malformed record can't abort its
// neighbors.
type JobTx interface {
	JobRepository

	// WithRecordSavepoint runs fn inside a nested transaction (a SQL
	// SAVEPOINT under the adapter's outer transaction). An error from fn
	// rolls back only this record's writes.
	WithRecordSavepoint(ctx context.Context, fn func(tx JobRepository) error) error
}
