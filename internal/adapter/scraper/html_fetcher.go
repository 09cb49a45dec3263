package scraper

import (
	"context"
	"time"

	"github.com/chjobfeed/ingest/internal/fetch"
)

// HTTPFetcher implements HTMLFetcher over the shared retrying HTTP client,
// for every scraper that doesn't need JS rendering.
type HTTPFetcher struct {
	client  *fetch.Client
	timeout time.Duration
}

func NewHTTPFetcher(client *fetch.Client, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{client: client, timeout: timeout}
}

func (f *HTTPFetcher) FetchHTML(ctx context.Context, url string) (string, error) {
	return f.client.FetchText(ctx, url, fetch.Options{Timeout: f.timeout})
}
