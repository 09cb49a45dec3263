package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/chjobfeed/ingest/internal/domain"
	"github.com/chjobfeed/ingest/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// querier is the subset of pgxpool.Pool and pgx.Tx that JobRepository needs.
// Binding to this instead of *pgxpool.Pool directly lets the same query code
// run against the pool, an adapter's outer transaction, or a per-record
// savepoint.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// JobRepository is the pgx-backed implementation of repository.JobRepository
// and dedup.Finder. Every write to the jobs table goes through here.
type JobRepository struct {
	q    querier
	pool *pgxpool.Pool // only set on the root repository; used to open adapter-scoped transactions
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{q: pool, pool: pool}
}

// WithAdapterTx implements repository.JobWriter: one transaction per
// adapter's batch of records, committed once fn returns nil.
func (r *JobRepository) WithAdapterTx(ctx context.Context, fn func(tx repository.JobTx) error) error {
	if r.pool == nil {
		return fmt.Errorf("WithAdapterTx called on a repository that is already inside a transaction")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin adapter transaction: %w", err)
	}

	if err := fn(&jobTx{JobRepository: &JobRepository{q: tx}, tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit adapter transaction: %w", err)
	}
	return nil
}

// jobTx is a JobRepository bound to an adapter's outer transaction, adding
// per-record savepoint isolation.
type jobTx struct {
	*JobRepository
	tx pgx.Tx
}

// WithRecordSavepoint runs fn inside a SQL SAVEPOINT nested under the
// adapter's outer transaction (pgx.Tx.Begin on an existing Tx issues a
// savepoint rather than a new top-level transaction). A failure rolls back
// only this record; the outer transaction and its other records are
// unaffected.
func (t *jobTx) WithRecordSavepoint(ctx context.Context, fn func(tx repository.JobRepository) error) error {
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin savepoint: %w", err)
	}
	if err := fn(&JobRepository{q: sp}); err != nil {
		_ = sp.Rollback(ctx)
		return err
	}
	return sp.Commit(ctx)
}

// Upsert inserts a new job, or refreshes an existing one: last_seen_at is
// bumped, is_active is forced back to true, and — per the explicit
// resolution of the source's ambiguity on re-upserting a deduplicated row —
// duplicate_of is cleared, since a job reappearing on its own source is no
// longer known to be a duplicate of anything. isNew is determined by a
// pre-read rather than relying on xmax/RETURNING tricks, to avoid ambiguity
// between "inserted" and "updated" on reactivation.
func (r *JobRepository) Upsert(ctx context.Context, job *domain.Job) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM jobs WHERE hash = $1)`, job.Hash).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check existing job: %w", err)
	}

	query := `
		INSERT INTO jobs (
			hash, source, title, company, url, location, canton, description, description_snippet,
			salary_min_chf, salary_max_chf, salary_original, salary_currency, salary_period,
			language, seniority, contract_type, remote, tags, logo, employment_type,
			first_seen_at, last_seen_at, is_active, fuzzy_hash, duplicate_of, embedding
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9,
			$10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21,
			NOW(), NOW(), true, $22, NULL, $23
		)
		ON CONFLICT (hash) DO UPDATE SET
			last_seen_at = NOW(),
			is_active    = true,
			duplicate_of = NULL,
			title        = EXCLUDED.title,
			company      = EXCLUDED.company,
			description  = EXCLUDED.description
		`

	_, err = r.q.Exec(ctx, query,
		job.Hash, job.Source, job.Title, job.Company, job.URL, job.Location, job.Canton, job.Description, job.DescriptionSnippet,
		job.SalaryMinCHF, job.SalaryMaxCHF, job.SalaryOriginal, job.SalaryCurrency, job.SalaryPeriod,
		job.Language, job.Seniority, job.ContractType, job.Remote, job.Tags, job.Logo, job.EmploymentType,
		job.FuzzyHash, job.Embedding,
	)
	if err != nil {
		return false, fmt.Errorf("upsert job: %w", err)
	}

	return !exists, nil
}

func (r *JobRepository) MarkDuplicate(ctx context.Context, hash, canonicalHash string) error {
	_, err := r.q.Exec(ctx,
		`UPDATE jobs SET duplicate_of = $2, is_active = false WHERE hash = $1`,
		hash, canonicalHash)
	if err != nil {
		return fmt.Errorf("mark duplicate: %w", err)
	}
	return nil
}

func (r *JobRepository) GetActiveCount(ctx context.Context) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM jobs WHERE is_active = true`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("get active count: %w", err)
	}
	return count, nil
}

// FindFuzzyDuplicate implements dedup.Finder. The oldest active
// cross-source match wins, with hash ascending breaking equal timestamps
// (ORDER BY first_seen_at ASC, hash ASC).
func (r *JobRepository) FindFuzzyDuplicate(ctx context.Context, fuzzyHash, source string) (string, bool, error) {
	var hash string
	err := r.q.QueryRow(ctx, `
		SELECT hash FROM jobs
		WHERE fuzzy_hash = $1 AND source != $2 AND is_active = true
		ORDER BY first_seen_at ASC, hash ASC
		LIMIT 1`, fuzzyHash, source).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("find fuzzy duplicate: %w", err)
	}
	return hash, true, nil
}

// FindSemanticDuplicate implements dedup.Finder using pgvector's cosine
// distance operator. Only rows strictly older than job (first_seen_at,
// with hash as a tiebreak for equal timestamps) are eligible, so the match
// returned is always a candidate for job's canonical row, never a newer
// row that should instead be merged into job. The oldest such row wins.
func (r *JobRepository) FindSemanticDuplicate(ctx context.Context, job *domain.Job, threshold float64) (string, bool, error) {
	if job.Embedding == nil {
		return "", false, nil
	}
	maxDistance := 1.0 - threshold

	var hash string
	err := r.q.QueryRow(ctx, `
		SELECT hash FROM jobs
		WHERE hash != $1
		  AND is_active = true
		  AND duplicate_of IS NULL
		  AND embedding IS NOT NULL
		  AND (first_seen_at, hash) < ($4, $1)
		  AND embedding <=> $2 < $3
		ORDER BY first_seen_at ASC, hash ASC
		LIMIT 1`, job.Hash, job.Embedding, maxDistance, job.FirstSeenAt).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("find semantic duplicate: %w", err)
	}
	return hash, true, nil
}

func (r *JobRepository) ListWithoutEmbedding(ctx context.Context, limit int) ([]*domain.Job, error) {
	rows, err := r.q.Query(ctx, `
		SELECT hash, title, company, description, description_snippet, tags
		FROM jobs
		WHERE is_active = true AND embedding IS NULL
		ORDER BY first_seen_at ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs without embedding: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		j := &domain.Job{}
		if err := rows.Scan(&j.Hash, &j.Title, &j.Company, &j.Description, &j.DescriptionSnippet, &j.Tags); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *JobRepository) SetEmbedding(ctx context.Context, hash string, embedding []float32) error {
	vec := pgvector.NewVector(embedding)
	_, err := r.q.Exec(ctx, `UPDATE jobs SET embedding = $2 WHERE hash = $1`, hash, vec)
	if err != nil {
		return fmt.Errorf("set embedding: %w", err)
	}
	return nil
}

// ListActiveCandidatesForSemanticSweep returns active, non-duplicate,
// embedded jobs ordered oldest-first — the order the sweep must process
// candidates in so ties always resolve to the oldest row (spec.md's
// resolution of the semantic-sweep canonical-election open question).
func (r *JobRepository) ListActiveCandidatesForSemanticSweep(ctx context.Context, limit int) ([]*domain.Job, error) {
	rows, err := r.q.Query(ctx, `
		SELECT hash, first_seen_at, embedding
		FROM jobs
		WHERE is_active = true AND duplicate_of IS NULL AND embedding IS NOT NULL
		ORDER BY first_seen_at ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list semantic sweep candidates: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		j := &domain.Job{}
		if err := rows.Scan(&j.Hash, &j.FirstSeenAt, &j.Embedding); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *JobRepository) ListActiveForURLCheck(ctx context.Context, limit int) ([]*domain.Job, error) {
	rows, err := r.q.Query(ctx, `
		SELECT hash, url
		FROM jobs
		WHERE is_active = true
		ORDER BY url_last_check ASC NULLS FIRST
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs for url check: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		j := &domain.Job{}
		if err := rows.Scan(&j.Hash, &j.URL); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *JobRepository) MarkURLChecked(ctx context.Context, hash string, deactivate bool) error {
	_, err := r.q.Exec(ctx,
		`UPDATE jobs SET url_last_check = NOW(), is_active = is_active AND NOT $2 WHERE hash = $1`,
		hash, deactivate)
	if err != nil {
		return fmt.Errorf("mark url checked: %w", err)
	}
	return nil
}
