// Package wiring constructs the concrete adapter.Registry from process
// config: one constructor call per source, grounded on the teacher's
// config-driven dependency wiring in cmd/scheduler/main.go. It's the one
// place allowed to import both internal/adapter/provider and
// internal/adapter/scraper, since those packages import internal/adapter
// itself and a cycle would otherwise result.
package wiring

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/chjobfeed/ingest/internal/adapter"
	"github.com/chjobfeed/ingest/internal/adapter/provider"
	"github.com/chjobfeed/ingest/internal/adapter/scraper"
	"github.com/chjobfeed/ingest/internal/breaker"
	"github.com/chjobfeed/ingest/internal/compliance"
	"github.com/chjobfeed/ingest/internal/config"
	"github.com/chjobfeed/ingest/internal/fetch"
)

// Adapters bundles the built registries with the resources that need an
// explicit shutdown (the headless browser instance backing myscience).
//
// Providers and Scrapers are kept as separate registries, not just a tag on
// a shared one, because the scheduler dispatches them on two independent
// triggers (FETCH_INTERVAL_MINUTES vs SCRAPER_INTERVAL_HOURS) and each needs
// its own orchestrator.Run call over its own adapter set. Registry is the
// union of both, in constructor order; cmd/ingestd does not read it, and
// the admin HTTP surface does not list adapters.
type Adapters struct {
	Registry  *adapter.Registry
	Providers *adapter.Registry
	Scrapers  *adapter.Registry
	browser   *scraper.BrowserFetcher
}

// Close releases resources Build acquired. Safe to call even if Build
// never constructed a browser (e.g. in tests that skip myscience).
func (a *Adapters) Close() error {
	if a.browser == nil {
		return nil
	}
	return a.browser.Close()
}

// Build constructs every known source adapter and returns them registered
// under their source_key. Adapters whose adapter.Enabled() is false (e.g.
// Jooble without an API key) still register; the orchestrator filters on
// Enabled() at fetch time.
func Build(cfg *config.Config, client *fetch.Client, breakers *breaker.Registry, compliance *compliance.Engine, logger *slog.Logger) (*Adapters, error) {
	breakerFor := func(source string) *breaker.Breaker { return breakers.Get(source) }

	apiProviders := []adapter.Provider{
		provider.NewJobicy(client, breakerFor("jobicy"), logger),
		provider.NewArbeitnow(client, breakerFor("arbeitnow"), logger),
		provider.NewRemotive(client, breakerFor("remotive"), logger),
		provider.NewJooble(client, breakerFor("jooble"), cfg.JoobleAPIKey, logger),
		provider.NewPublicJobs(client, breakerFor("publicjobs"), logger),
		provider.NewWeWorkRemotely(client, breakerFor("weworkremotely"), logger),
	}

	httpFetcher := scraper.NewHTTPFetcher(client, time.Duration(cfg.HTTPHeavyTimeoutSec)*time.Second)

	htmlScrapers := []adapter.Provider{
		scraper.NewOstjob(breakerFor("ostjob"), httpFetcher, compliance, logger),
		scraper.NewZentraljob(breakerFor("zentraljob"), httpFetcher, compliance, logger),
		scraper.NewSchuljobs(breakerFor("schuljobs"), httpFetcher, compliance, logger),
	}

	browser, err := scraper.NewBrowserFetcher(time.Duration(cfg.BrowserTimeoutSec) * time.Second)
	if err != nil {
		return nil, fmt.Errorf("launch headless browser: %w", err)
	}
	htmlScrapers = append(htmlScrapers, scraper.NewMyscience(breakerFor("myscience"), browser, compliance, logger))

	providerRegistry, err := adapter.NewRegistry(apiProviders...)
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("build provider registry: %w", err)
	}
	scraperRegistry, err := adapter.NewRegistry(htmlScrapers...)
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("build scraper registry: %w", err)
	}
	registry, err := adapter.NewRegistry(append(append([]adapter.Provider{}, apiProviders...), htmlScrapers...)...)
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("build adapter registry: %w", err)
	}

	return &Adapters{Registry: registry, Providers: providerRegistry, Scrapers: scraperRegistry, browser: browser}, nil
}
