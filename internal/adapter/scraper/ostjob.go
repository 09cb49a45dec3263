package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/chjobfeed/ingest/internal/breaker"
	"github.com/chjobfeed/ingest/internal/domain"
)

const ostjobPageSize = 20

// Ostjob fetches the Eastern-Switzerland CH Media job portal's search API.
// Despite being JSON-over-HTTP, it's modeled as a scraper (not a provider)
// because it's gated by the same method="scraping" compliance row as the
// HTML-rendered sources, per the source_compliance table's method column.
type Ostjob struct {
	*Core
}

func NewOstjob(b *breaker.Breaker, html HTMLFetcher, compliance Compliance, logger *slog.Logger) *Ostjob {
	strategy := newChmediaStrategy("ostjob", "ostjob.ch", "https://api.ostjob.ch/public/vacancy/search/", ostjobPageSize)
	cfg := Config{MaxPages: 10, PageSize: ostjobPageSize, RateLimit: 500 * time.Millisecond}
	return &Ostjob{Core: NewCore("ostjob", b, cfg, strategy, html, compliance, logger)}
}

func (o *Ostjob) FetchJobs(ctx context.Context, query, location string) ([]domain.RawJob, error) {
	return o.Run(ctx, query, location)
}
