// Package maintenance holds the sweeps that run after ingestion: embedding
// backfill, semantic dedup, and URL health checking — recovered from
// the AI-pipeline task chain (generate_job_embeddings → dedup_semantic_batch)
// and the URL-health stub, both grounded on the original Celery tasks.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chjobfeed/ingest/internal/domain"
	"github.com/chjobfeed/ingest/internal/repository"
	"github.com/chjobfeed/ingest/internal/taskqueue"
)

// Embedder is the boundary to the embedding model. Generating the vector
// itself is outside this core's scope — the AI matching pipeline is an
// external collaborator — so production wires in whatever client talks to
// that service, and tests wire in a deterministic fake.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbeddingBackfillBatchSize bounds a single sweep, matching the original
// task's default batch_size of 100.
const EmbeddingBackfillBatchSize = 100

// BackfillEmbeddings encodes every active job still missing an embedding,
// in batches of batchSize, and — mirroring the Celery task chain — enqueues
// the semantic dedup sweep once new embeddings have landed, since that
// sweep has nothing to compare until they exist.
func BackfillEmbeddings(ctx context.Context, repo repository.JobRepository, embedder Embedder, batchSize int, semanticSweepQueue *taskqueue.Queue, logger *slog.Logger) (int, error) {
	if batchSize <= 0 {
		batchSize = EmbeddingBackfillBatchSize
	}
	logger = logger.With("component", "maintenance", "job", "backfill_embeddings")

	jobs, err := repo.ListWithoutEmbedding(ctx, batchSize)
	if err != nil {
		return 0, fmt.Errorf("list jobs without embedding: %w", err)
	}
	if len(jobs) == 0 {
		return 0, nil
	}

	texts := make([]string, len(jobs))
	for i, j := range jobs {
		texts[i] = buildJobText(j)
	}

	embeddings, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed batch: %w", err)
	}
	if len(embeddings) != len(jobs) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d jobs", len(embeddings), len(jobs))
	}

	processed := 0
	for i, j := range jobs {
		if err := repo.SetEmbedding(ctx, j.Hash, embeddings[i]); err != nil {
			logger.ErrorContext(ctx, "set embedding failed", "hash", j.Hash, "error", err)
			continue
		}
		processed++
	}

	logger.InfoContext(ctx, "embedding backfill complete", "processed", processed, "requested", len(jobs))
	if processed > 0 {
		semanticSweepQueue.Enqueue()
	}
	return processed, nil
}

// buildJobText concatenates the fields that carry semantic signal into one
// string for the embedder, mirroring JobMatcher.build_job_text: title,
// company, description, tags.
func buildJobText(j *domain.Job) string {
	var b strings.Builder
	b.WriteString(j.Title)
	if j.Company != "" {
		b.WriteString(" ")
		b.WriteString(j.Company)
	}
	if j.Description != nil && *j.Description != "" {
		b.WriteString(" ")
		b.WriteString(*j.Description)
	}
	if len(j.Tags) > 0 {
		b.WriteString(" ")
		b.WriteString(strings.Join(j.Tags, " "))
	}
	return b.String()
}
