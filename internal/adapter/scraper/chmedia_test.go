package scraper

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/chjobfeed/ingest/internal/breaker"
)

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type fakeHTMLFetcher struct {
	responses map[string]string
	calls     []string
}

func (f *fakeHTMLFetcher) FetchHTML(_ context.Context, url string) (string, error) {
	f.calls = append(f.calls, url)
	return f.responses[url], nil
}

type alwaysAllowCompliance struct{}

func (alwaysAllowCompliance) CanScrape(context.Context, string) bool   { return true }
func (alwaysAllowCompliance) ReportBlock(context.Context, string)      {}
func (alwaysAllowCompliance) ResetBlocks(context.Context, string)      {}

func TestOstjob_FetchJobs_NormalizesChMediaResponse(t *testing.T) {
	page1 := `{"items":[{"title":"Lagerist","company":{"name":"Migros","logoId":"abc"},"urlApplication":"https://ostjob.ch/job/1","workplaceCity":"St. Gallen","cantons":["SG"],"activity":"<p>Lager</p>","keywords":"logistik, lager","homeOffice":false,"typeValueMin":80,"typeValueMax":100}]}`
	page2 := `{"items":[]}`

	fetcher := &fakeHTMLFetcher{responses: map[string]string{}}
	b := breaker.New("ostjob", 5, time.Minute)
	o := NewOstjob(b, fetcher, alwaysAllowCompliance{}, discardLogger())

	fetcher.responses[o.strategy.(*chmediaStrategy).BuildListingURL(1, "", "")] = page1
	fetcher.responses[o.strategy.(*chmediaStrategy).BuildListingURL(2, "", "")] = page2

	jobs, err := o.FetchJobs(context.Background(), "", "")
	if err != nil {
		t.Fatalf("FetchJobs returned error: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	got := jobs[0]
	if got.Title != "Lagerist" || got.Company != "Migros" {
		t.Errorf("unexpected job: %+v", got)
	}
	if got.Canton != "SG" {
		t.Errorf("canton = %q, want SG", got.Canton)
	}
	if got.Location != "St. Gallen, SG" {
		t.Errorf("location = %q", got.Location)
	}
	if got.EmploymentType != "80-100%" {
		t.Errorf("employment type = %q", got.EmploymentType)
	}
	if got.Logo != "https://cdn.ostjob.ch/logos/abc" {
		t.Errorf("logo = %q", got.Logo)
	}
}

func TestOstjob_FetchJobs_StopsOnShortPage(t *testing.T) {
	page1 := `{"items":[{"title":"A","company":{"name":"C"},"externalId":"1"}]}`

	fetcher := &fakeHTMLFetcher{responses: map[string]string{}}
	b := breaker.New("ostjob", 5, time.Minute)
	o := NewOstjob(b, fetcher, alwaysAllowCompliance{}, discardLogger())
	fetcher.responses[o.strategy.(*chmediaStrategy).BuildListingURL(1, "", "")] = page1

	jobs, err := o.FetchJobs(context.Background(), "", "")
	if err != nil {
		t.Fatalf("FetchJobs returned error: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	if len(fetcher.calls) != 1 {
		t.Errorf("expected pagination to stop after a short page, got %d calls", len(fetcher.calls))
	}
}
