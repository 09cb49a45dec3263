package maintenance

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chjobfeed/ingest/internal/dedup"
	"github.com/chjobfeed/ingest/internal/metrics"
	"github.com/chjobfeed/ingest/internal/repository"
)

// SemanticThreshold is the cosine-similarity floor above which two rows are
// considered the same posting (spec.md's "distance < 1 - 0.95").
const SemanticThreshold = 0.95

// SemanticSweepBatchSize matches the chained dispatch's batch_size=200.
const SemanticSweepBatchSize = 200

// SemanticDedupSweep walks active, non-duplicate, embedded jobs oldest
// first and, for each, looks for the oldest strictly-older active
// non-duplicate neighbour under the distance threshold (not the nearest
// one). A hit marks the just-checked row — never
// the neighbour — as the duplicate: because candidates are visited in
// first_seen_at order and a row is dropped from future consideration the
// moment it's marked a duplicate, the neighbour returned for any row still
// standing is guaranteed to be the oldest surviving match, so the older row
// always ends up canonical. This is the explicit resolution of the
// semantic-sweep's canonical-election ambiguity: always keep the oldest.
func SemanticDedupSweep(ctx context.Context, repo repository.JobRepository, finder dedup.Finder, batchSize int, logger *slog.Logger) (int, error) {
	if batchSize <= 0 {
		batchSize = SemanticSweepBatchSize
	}
	logger = logger.With("component", "maintenance", "job", "semantic_dedup_sweep")

	candidates, err := repo.ListActiveCandidatesForSemanticSweep(ctx, batchSize)
	if err != nil {
		return 0, fmt.Errorf("list semantic sweep candidates: %w", err)
	}

	marked := 0
	for _, job := range candidates {
		canonical, found, err := finder.FindSemanticDuplicate(ctx, job, SemanticThreshold)
		if err != nil {
			logger.ErrorContext(ctx, "find semantic duplicate failed", "hash", job.Hash, "error", err)
			continue
		}
		if !found {
			continue
		}

		if err := repo.MarkDuplicate(ctx, job.Hash, canonical); err != nil {
			logger.ErrorContext(ctx, "mark duplicate failed", "hash", job.Hash, "canonical", canonical, "error", err)
			continue
		}
		marked++
		metrics.SemanticDedupMergedTotal.Inc()
	}

	logger.InfoContext(ctx, "semantic dedup sweep complete", "candidates", len(candidates), "marked", marked)
	return marked, nil
}
