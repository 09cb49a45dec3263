// Package scraper implements the shared HTML-scraping execution flow every
// scraper adapter runs through: compliance pre-check, paginated listing
// fetch behind the circuit breaker, optional per-stub detail fetch, and
// early termination on a short page or a blocking status code.
package scraper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/chjobfeed/ingest/internal/adapter"
	"github.com/chjobfeed/ingest/internal/breaker"
	"github.com/chjobfeed/ingest/internal/domain"
	"github.com/chjobfeed/ingest/internal/fetch"
)

// Stub is a partially-populated record parsed from a listing page. DetailURL
// is set when the listing alone doesn't carry the full record and a detail
// fetch is required to complete it.
type Stub struct {
	Raw       domain.RawJob
	DetailURL string
}

// Config holds the per-source class flags the source describes as
// RATE_LIMIT_SECONDS, MAX_PAGES, PAGE_SIZE, NEEDS_PLAYWRIGHT, FETCH_DETAILS.
type Config struct {
	RateLimit      time.Duration
	MaxPages       int
	PageSize       int
	NeedsPlaywright bool
	FetchDetails   bool
}

// HTMLFetcher abstracts the two ways a scraper can obtain rendered HTML:
// a plain HTTP GET (most sources) or a headless browser render (sources
// flagged NeedsPlaywright).
type HTMLFetcher interface {
	FetchHTML(ctx context.Context, url string) (string, error)
}

// Compliance is the subset of compliance.Engine's surface the scraper
// execution flow depends on.
type Compliance interface {
	CanScrape(ctx context.Context, sourceKey string) bool
	ReportBlock(ctx context.Context, sourceKey string)
	ResetBlocks(ctx context.Context, sourceKey string)
}

// Strategy is the set of source-specific hooks a concrete scraper supplies;
// Core drives them through the shared execution flow.
type Strategy interface {
	BuildListingURL(page int, query, location string) string
	ParseListingPage(html string) ([]Stub, error)
	// ParseJobDetail merges detail-page content into stub. Only called when
	// Config.FetchDetails is true.
	ParseJobDetail(html string, stub Stub) (domain.RawJob, error)
}

// Core composes adapter.Core with the scraper-specific config and strategy.
// Concrete scrapers are thin wrappers constructing a Core with their own
// Strategy — composition in place of a BaseScraper inheritance chain.
type Core struct {
	*adapter.Core
	cfg        Config
	strategy   Strategy
	html       HTMLFetcher
	compliance Compliance
	logger     *slog.Logger
}

func NewCore(source string, b *breaker.Breaker, cfg Config, strategy Strategy, html HTMLFetcher, compliance Compliance, logger *slog.Logger) *Core {
	return &Core{
		Core:       adapter.NewCore(source, b),
		cfg:        cfg,
		strategy:   strategy,
		html:       html,
		compliance: compliance,
		logger:     logger.With("component", "scraper", "source", source),
	}
}

// SourceName satisfies adapter.Provider. Every scraper is keyed by its
// compliance source_key, so this never varies per concrete scraper.
func (c *Core) SourceName() string { return c.Source }

// Enabled is always true for scrapers: unlike key-gated API providers,
// nothing about a scraper's availability depends on process configuration.
// Compliance (not Enabled) gates a scraper: Run checks it before any page.
func (c *Core) Enabled() bool { return true }

// blockingStatuses are treated as a compliance signal: the source is
// telling us to stop, not just that the page temporarily failed.
var blockingStatuses = map[int]bool{403: true, 429: true}

// Run executes the shared scraper flow: compliance gate, then pages
// 1..MaxPages through the circuit breaker, stopping early on a short page,
// a blocking status, or a circuit-open error.
func (c *Core) Run(ctx context.Context, query, location string) ([]domain.RawJob, error) {
	if !c.compliance.CanScrape(ctx, c.Source) {
		c.logger.InfoContext(ctx, "source disabled by compliance, skipping")
		return nil, domain.ErrSourceDisabled
	}

	var records []domain.RawJob
	maxPages := c.cfg.MaxPages
	if maxPages < 1 {
		maxPages = 1
	}

	for page := 1; page <= maxPages; page++ {
		stubs, err := c.fetchListingPage(ctx, page, query, location)
		if err != nil {
			var openErr *breaker.ErrOpen
			if errors.As(err, &openErr) {
				c.logger.WarnContext(ctx, "circuit open, aborting run", "page", page)
				return records, err
			}
			var statusErr *fetch.StatusError
			if errors.As(err, &statusErr) && blockingStatuses[statusErr.StatusCode] {
				c.compliance.ReportBlock(ctx, c.Source)
				c.Stats.RecordError()
				return records, err
			}
			c.Stats.RecordError()
			c.logger.WarnContext(ctx, "listing page failed, aborting", "page", page, "error", err)
			return records, err
		}

		listed := len(stubs)
		if c.cfg.FetchDetails {
			kept := stubs[:0]
			for _, stub := range stubs {
				select {
				case <-ctx.Done():
					return records, ctx.Err()
				case <-time.After(c.cfg.RateLimit):
				}

				merged, err := c.fetchDetail(ctx, stub)
				if err != nil {
					c.Stats.RecordError()
					c.logger.WarnContext(ctx, "detail fetch failed, skipping record", "url", stub.DetailURL, "error", err)
					continue
				}
				stub.Raw = merged
				kept = append(kept, stub)
			}
			stubs = kept
		}

		for _, s := range stubs {
			records = append(records, s.Raw)
		}
		c.Stats.RecordFetch(len(stubs))

		if c.cfg.PageSize > 0 && listed < c.cfg.PageSize {
			break
		}
	}

	c.compliance.ResetBlocks(ctx, c.Source)
	return records, nil
}

func (c *Core) fetchListingPage(ctx context.Context, page int, query, location string) ([]Stub, error) {
	url := c.strategy.BuildListingURL(page, query, location)

	var html string
	err := c.Breaker.Call(ctx, func(ctx context.Context) error {
		var fetchErr error
		html, fetchErr = c.html.FetchHTML(ctx, url)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	return c.strategy.ParseListingPage(html)
}

func (c *Core) fetchDetail(ctx context.Context, stub Stub) (domain.RawJob, error) {
	var html string
	err := c.Breaker.Call(ctx, func(ctx context.Context) error {
		var fetchErr error
		html, fetchErr = c.html.FetchHTML(ctx, stub.DetailURL)
		return fetchErr
	})
	if err != nil {
		return domain.RawJob{}, err
	}
	return c.strategy.ParseJobDetail(html, stub)
}
