package adminhttp_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chjobfeed/ingest/internal/adminhttp"
	"github.com/chjobfeed/ingest/internal/breaker"
	"github.com/chjobfeed/ingest/internal/compliance"
	"github.com/chjobfeed/ingest/internal/domain"
	"github.com/chjobfeed/ingest/internal/health"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakePinger struct{ err error }

func (p *fakePinger) Ping(context.Context) error { return p.err }

type fakeComplianceRepo struct {
	listErr error
	rows    []domain.SourceCompliance
}

func (f *fakeComplianceRepo) Get(context.Context, string) (*domain.SourceCompliance, error) {
	return nil, nil
}
func (f *fakeComplianceRepo) ReportBlock(context.Context, string, time.Time) (bool, error) {
	return false, nil
}
func (f *fakeComplianceRepo) ResetBlocks(context.Context, string) error { return nil }
func (f *fakeComplianceRepo) List(context.Context) ([]domain.SourceCompliance, error) {
	return f.rows, f.listErr
}

func newTestRouter(t *testing.T, pingErr error, complianceRows []domain.SourceCompliance) *httptest.Server {
	t.Helper()
	checker := health.NewChecker(&fakePinger{err: pingErr}, discardLogger(), prometheus.NewRegistry())
	breakers := breaker.NewRegistry(5, time.Minute)
	engine := compliance.New(&fakeComplianceRepo{rows: complianceRows}, discardLogger())

	r := adminhttp.NewRouter(discardLogger(), checker, breakers, engine)
	return httptest.NewServer(r)
}

func TestHealthz_AlwaysUp(t *testing.T) {
	srv := newTestRouter(t, nil, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestReadyz_ReportsDownWhenPostgresUnreachable(t *testing.T) {
	srv := newTestRouter(t, errors.New("connection refused"), nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/readyz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestReadyz_ReportsUpWhenPostgresReachable(t *testing.T) {
	srv := newTestRouter(t, nil, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/readyz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestCompliance_ReturnsSourceRows(t *testing.T) {
	srv := newTestRouter(t, nil, []domain.SourceCompliance{
		{SourceKey: "jobicy", IsAllowed: true, RobotsTxtOK: true},
	})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/compliance")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Sources []compliance.Status `json:"sources"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Sources) != 1 || body.Sources[0].SourceKey != "jobicy" {
		t.Fatalf("unexpected sources: %+v", body.Sources)
	}
}

func TestBreakers_ListsRegisteredSources(t *testing.T) {
	breakers := breaker.NewRegistry(5, time.Minute)
	breakers.Get("jobicy")
	breakers.Get("arbeitnow")

	checker := health.NewChecker(&fakePinger{}, discardLogger(), prometheus.NewRegistry())
	engine := compliance.New(&fakeComplianceRepo{}, discardLogger())
	r := adminhttp.NewRouter(discardLogger(), checker, breakers, engine)
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/breakers")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Breakers []breaker.Status `json:"breakers"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Breakers) != 2 {
		t.Fatalf("expected 2 breakers, got %d", len(body.Breakers))
	}
	if body.Breakers[0].Source != "arbeitnow" || body.Breakers[1].Source != "jobicy" {
		t.Fatalf("expected sorted sources, got %+v", body.Breakers)
	}
}
