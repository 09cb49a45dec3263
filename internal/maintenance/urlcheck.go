package maintenance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/chjobfeed/ingest/internal/fetch"
	"github.com/chjobfeed/ingest/internal/metrics"
	"github.com/chjobfeed/ingest/internal/repository"
)

// URLCheckBatchSize bounds a single sweep.
const URLCheckBatchSize = 200

// deadStatuses are the only status codes that prove the posting itself is
// gone, as opposed to a transient hiccup on the source's side.
var deadStatuses = map[int]bool{
	http.StatusNotFound: true,
	http.StatusGone:     true,
}

// CheckJobURLs HEAD-requests a batch of active job URLs and deactivates the
// ones that come back 404/410 or that stay unreachable after the fetch
// client's own retries are exhausted ("persistently unreachable" per
// spec.md — a single transient network error is not enough on its own,
// since the client already retried it).
func CheckJobURLs(ctx context.Context, repo repository.JobRepository, client *fetch.Client, batchSize int, logger *slog.Logger) (checked, deactivated int, err error) {
	if batchSize <= 0 {
		batchSize = URLCheckBatchSize
	}
	logger = logger.With("component", "maintenance", "job", "check_job_urls")

	jobs, err := repo.ListActiveForURLCheck(ctx, batchSize)
	if err != nil {
		return 0, 0, fmt.Errorf("list jobs for url check: %w", err)
	}

	for _, job := range jobs {
		dead := isDead(ctx, client, job.URL)

		if markErr := repo.MarkURLChecked(ctx, job.Hash, dead); markErr != nil {
			logger.ErrorContext(ctx, "mark url checked failed", "hash", job.Hash, "error", markErr)
			continue
		}

		checked++
		if dead {
			deactivated++
			metrics.URLHealthDeactivatedTotal.Inc()
			logger.InfoContext(ctx, "deactivated job with dead url", "hash", job.Hash, "url", job.URL)
		}
	}

	logger.InfoContext(ctx, "url health sweep complete", "checked", checked, "deactivated", deactivated)
	return checked, deactivated, nil
}

func isDead(ctx context.Context, client *fetch.Client, url string) bool {
	_, err := client.FetchText(ctx, url, fetch.Options{Method: http.MethodHead, MaxRetries: 2})
	if err == nil {
		return false
	}

	var statusErr *fetch.StatusError
	if errors.As(err, &statusErr) {
		return deadStatuses[statusErr.StatusCode]
	}

	// Exhausted retries without ever getting a response: unreachable.
	return !errors.Is(err, context.Canceled)
}
