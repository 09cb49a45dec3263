// Package adapter defines the shared contract every source integration
// implements, plus Core: the composed circuit breaker, hash helper
// and fetch stats every concrete provider/scraper embeds instead of
// inheriting from a base class.
package adapter

import (
	"context"
	"sync"
	"time"

	"github.com/chjobfeed/ingest/internal/breaker"
	"github.com/chjobfeed/ingest/internal/domain"
)

// Provider is the single interface every source adapter implements,
// whether it's backed by a JSON API, an RSS feed, or an HTML scraper.
type Provider interface {
	// SourceName is the stable lowercase key matching source_compliance.source_key.
	SourceName() string

	// Enabled reports whether the adapter has everything it needs to run
	// (e.g. an API key). Disabled adapters are left out of
	// Registry.Enabled(), so the orchestrator never fetches from them; no
	// log line records that they were skipped.
	Enabled() bool

	// FetchJobs returns normalized-ready raw records for a query/location.
	// Adapters never touch the database; they return in-memory sequences.
	FetchJobs(ctx context.Context, query, location string) ([]domain.RawJob, error)
}

// Stats tracks the running counters the teacher's admin surface exposes for
// every scheduled component: total fetched, last fetch time, error count.
type Stats struct {
	mu           sync.Mutex
	TotalFetched int
	LastFetchAt  time.Time
	Errors       int
}

func (s *Stats) RecordFetch(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TotalFetched += n
	s.LastFetchAt = time.Now()
}

func (s *Stats) RecordError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Errors++
}

func (s *Stats) Snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{TotalFetched: s.TotalFetched, LastFetchAt: s.LastFetchAt, Errors: s.Errors}
}

// Core is embedded by every concrete adapter. It owns the per-source
// circuit breaker and fetch stats — composition in place of the
// BaseJobProvider → BaseScraper → concrete inheritance chain.
type Core struct {
	Source  string
	Breaker *breaker.Breaker
	Stats   *Stats
}

func NewCore(source string, b *breaker.Breaker) *Core {
	return &Core{Source: source, Breaker: b, Stats: &Stats{}}
}

// Hash delegates to domain.ComputeHash, scoped here so adapters never need
// to import the domain hashing helper directly.
func Hash(title, company, url string) string {
	return domain.ComputeHash(title, company, url)
}

// Snippet truncates a description to the shared snippet length.
func Snippet(description string) string {
	return domain.Truncate(description, domain.SnippetLength)
}

// CapTags bounds an adapter's tag list to domain.MaxTags, preserving order.
func CapTags(tags []string) []string {
	if len(tags) <= domain.MaxTags {
		return tags
	}
	return tags[:domain.MaxTags]
}
