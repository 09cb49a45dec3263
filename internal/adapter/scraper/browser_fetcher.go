package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// BrowserFetcher implements HTMLFetcher via a headless Chromium instance,
// for the handful of sources flagged NeedsPlaywright whose listings are
// rendered client-side and never appear in the initial HTML response.
type BrowserFetcher struct {
	browser *rod.Browser
	timeout time.Duration
}

func NewBrowserFetcher(timeout time.Duration) (*BrowserFetcher, error) {
	path, err := launcher.New().Headless(true).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	browser := rod.New().ControlURL(path)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	return &BrowserFetcher{browser: browser, timeout: timeout}, nil
}

func (f *BrowserFetcher) FetchHTML(ctx context.Context, url string) (string, error) {
	page, err := f.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return "", fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	page = page.Timeout(f.timeout)
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load: %w", err)
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("read rendered html: %w", err)
	}
	return html, nil
}

func (f *BrowserFetcher) Close() error {
	return f.browser.Close()
}
