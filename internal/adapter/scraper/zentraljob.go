package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/chjobfeed/ingest/internal/breaker"
	"github.com/chjobfeed/ingest/internal/domain"
)

const zentraljobPageSize = 20

// Zentraljob is Ostjob's sibling CH Media portal for Central Switzerland,
// sharing the same chmediaStrategy normalizer under a different domain.
type Zentraljob struct {
	*Core
}

func NewZentraljob(b *breaker.Breaker, html HTMLFetcher, compliance Compliance, logger *slog.Logger) *Zentraljob {
	strategy := newChmediaStrategy("zentraljob", "zentraljob.ch", "https://api.zentraljob.ch/public/vacancy/search/", zentraljobPageSize)
	cfg := Config{MaxPages: 10, PageSize: zentraljobPageSize, RateLimit: 500 * time.Millisecond}
	return &Zentraljob{Core: NewCore("zentraljob", b, cfg, strategy, html, compliance, logger)}
}

func (z *Zentraljob) FetchJobs(ctx context.Context, query, location string) ([]domain.RawJob, error) {
	return z.Run(ctx, query, location)
}
