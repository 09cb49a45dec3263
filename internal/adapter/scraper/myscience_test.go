package scraper

import (
	"context"
	"testing"
	"time"

	"github.com/chjobfeed/ingest/internal/breaker"
)

const myscienceListingFixture = `
<html><body>
<div id="results_table">
  <div itemscope>
    <a href="/job/42">
      <div class="results_title">Postdoctoral Researcher</div>
      <div class="results_organization">ETH Zurich</div>
      <div class="location">Zurich</div>
    </a>
  </div>
</div>
</body></html>`

const myscienceDetailFixture = `
<html><body>
<div id="middle_content">
  <div id="results_table">
    <div id="Description">Research position in computational biology.</div>
    <div class="long_value_row">
      <div class="descriptor">Workplace</div>
      <div class="long_value">Zurich, ZH</div>
    </div>
    <div class="long_value_row">
      <div class="descriptor">Occupation</div>
      <div class="long_value">100%</div>
    </div>
  </div>
</div>
</body></html>`

func TestMyscience_FetchJobs_ParsesListingAndDetail(t *testing.T) {
	fetcher := &fakeHTMLFetcher{responses: map[string]string{
		myscienceBaseURL + "/jobs?p=1": myscienceListingFixture,
		myscienceBaseURL + "/job/42":   myscienceDetailFixture,
	}}

	b := breaker.New("myscience", 5, time.Minute)
	m := NewMyscience(b, fetcher, alwaysAllowCompliance{}, discardLogger())

	jobs, err := m.FetchJobs(context.Background(), "", "")
	if err != nil {
		t.Fatalf("FetchJobs returned error: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	got := jobs[0]
	if got.Title != "Postdoctoral Researcher" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Company != "ETH Zurich" {
		t.Errorf("company = %q", got.Company)
	}
	if got.Description != "Research position in computational biology." {
		t.Errorf("description = %q", got.Description)
	}
	if got.Location != "Zurich, ZH" {
		t.Errorf("location = %q", got.Location)
	}
	if got.Canton != "ZH" {
		t.Errorf("canton = %q, want ZH", got.Canton)
	}
	if got.EmploymentType != "100%" {
		t.Errorf("employment type = %q", got.EmploymentType)
	}
}
