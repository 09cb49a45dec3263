// Package fetch is the retrying HTTP client shared by every adapter: a JSON
// entry point for API providers and an RSS entry point for feed-based
// sources. Both run through the caller's circuit breaker and retry
// transient failures with exponential backoff.
package fetch

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/jpillora/backoff"
	"github.com/mmcdole/gofeed"
)

// Options configures a single call. Method defaults to GET.
type Options struct {
	Method         string
	Headers        map[string]string
	Query          map[string]string
	JSONBody       any
	MaxRetries     int
	BackoffFactor  float64
	MaxRetryDelay  time.Duration
	Timeout        time.Duration
}

func (o Options) withDefaults() Options {
	if o.Method == "" {
		o.Method = http.MethodGet
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = 3
	}
	if o.BackoffFactor == 0 {
		o.BackoffFactor = 1.0
	}
	if o.MaxRetryDelay == 0 {
		o.MaxRetryDelay = 30 * time.Second
	}
	if o.Timeout == 0 {
		o.Timeout = 15 * time.Second
	}
	return o
}

// retryableStatuses mirrors the original fetcher's retry policy: rate
// limiting and server-side failures are retried, any other 4xx is not.
var retryableStatuses = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// StatusError is returned when the final attempt still came back with a
// non-2xx status, so adapters can distinguish "fetched nothing" from
// "source rejected the request" (the latter feeds compliance.ReportBlock).
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// Client wraps an *http.Client with the retry/backoff policy and structured
// logging the teacher applies to its job executor.
type Client struct {
	http   *http.Client
	logger *slog.Logger
}

func NewClient(logger *slog.Logger) *Client {
	return &Client{
		http: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
			},
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				return nil
			},
		},
		logger: logger.With("component", "fetch"),
	}
}

// FetchJSON retries url with exponential backoff and decodes a successful
// response into v. A non-2xx final response is returned as a *StatusError;
// a transport error on the last attempt is returned as is.
func (c *Client) FetchJSON(ctx context.Context, url string, opts Options, v any) error {
	opts = opts.withDefaults()

	body, err := c.doWithRetry(ctx, url, opts)
	if err != nil {
		return err
	}
	if body == nil {
		return nil
	}
	defer body.Close()

	if v == nil {
		return nil
	}
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

// FetchText retries url and returns the raw response body, for callers that
// parse it themselves (HTML scrapers via goquery).
func (c *Client) FetchText(ctx context.Context, url string, opts Options) (string, error) {
	opts = opts.withDefaults()

	body, err := c.doWithRetry(ctx, url, opts)
	if err != nil {
		return "", err
	}
	if body == nil {
		return "", nil
	}
	defer body.Close()

	buf, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(buf), nil
}

// FetchRSS retries url and parses the response as an RSS/Atom feed.
func (c *Client) FetchRSS(ctx context.Context, url string, opts Options) (*gofeed.Feed, error) {
	opts = opts.withDefaults()

	body, err := c.doWithRetry(ctx, url, opts)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, nil
	}
	defer body.Close()

	return gofeed.NewParser().Parse(body)
}

func (c *Client) doWithRetry(ctx context.Context, url string, opts Options) (io.ReadCloser, error) {
	b := &backoff.Backoff{
		Min:    time.Duration(float64(time.Second) * opts.BackoffFactor),
		Max:    opts.MaxRetryDelay,
		Factor: 2,
		Jitter: false,
	}

	var lastErr error
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(b.Duration()):
			}
		}

		body, status, err := c.doOnce(ctx, url, opts)
		if err == nil && status < 300 {
			return body, nil
		}
		if err != nil {
			lastErr = err
			c.logger.WarnContext(ctx, "transport error, will retry", "url", url, "attempt", attempt, "error", err)
			continue
		}

		if !retryableStatuses[status] {
			buf, _ := io.ReadAll(body)
			body.Close()
			return nil, &StatusError{StatusCode: status, Body: string(buf)}
		}
		buf, _ := io.ReadAll(body)
		body.Close()
		lastErr = &StatusError{StatusCode: status, Body: string(buf)}
		c.logger.WarnContext(ctx, "retryable status, will retry", "url", url, "attempt", attempt, "status", status)
	}

	return nil, lastErr
}

// cancelOnClose wraps a response body so the request's timeout context is
// released exactly when the caller finishes reading, not before — cancelling
// eagerly (e.g. via a plain defer) would tear down the connection mid-decode.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	defer c.cancel()
	return c.ReadCloser.Close()
}

func (c *Client) doOnce(ctx context.Context, url string, opts Options) (io.ReadCloser, int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, opts.Timeout)

	var bodyReader io.Reader
	if opts.JSONBody != nil {
		buf, err := json.Marshal(opts.JSONBody)
		if err != nil {
			cancel()
			return nil, 0, fmt.Errorf("marshal json body: %w", err)
		}
		bodyReader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(reqCtx, opts.Method, url, bodyReader)
	if err != nil {
		cancel()
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	if opts.JSONBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts.Query != nil {
		q := req.URL.Query()
		for k, v := range opts.Query {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		return nil, 0, err
	}
	return &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}, resp.StatusCode, nil
}
