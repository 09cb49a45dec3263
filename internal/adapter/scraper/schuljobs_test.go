package scraper

import (
	"context"
	"testing"
	"time"

	"github.com/chjobfeed/ingest/internal/breaker"
)

const schuljobsListingFixture = `
<html><body>
<div>
  <h3><a class="js-joboffer-detail" href="https://www.schuljobs.ch/job/1">Primarlehrperson</a></h3>
  <p>ZH · Zürich · Schule Zürich</p>
</div>
</body></html>`

const schuljobsDetailFixture = `
<html><head>
<script type="application/ld+json">
{"@type":"JobPosting","title":"Primarlehrperson 100%","description":"Unterricht in der 3. Klasse","employmentType":"FULL_TIME","hiringOrganization":{"name":"Schule Zürich AG","logo":"https://logo"},"jobLocation":{"address":{"addressLocality":"Zürich","addressRegion":"ZH"}}}
</script>
</head><body></body></html>`

func TestSchuljobs_FetchJobs_ParsesListingAndMergesDetail(t *testing.T) {
	fetcher := &fakeHTMLFetcher{responses: map[string]string{
		schuljobsBaseURL + "/suche":            schuljobsListingFixture,
		"https://www.schuljobs.ch/job/1": schuljobsDetailFixture,
	}}

	b := breaker.New("schuljobs", 5, time.Minute)
	s := NewSchuljobs(b, fetcher, alwaysAllowCompliance{}, discardLogger())

	jobs, err := s.FetchJobs(context.Background(), "", "")
	if err != nil {
		t.Fatalf("FetchJobs returned error: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	got := jobs[0]
	if got.Title != "Primarlehrperson 100%" {
		t.Errorf("title = %q, want the JSON-LD title to win", got.Title)
	}
	if got.Company != "Schule Zürich AG" {
		t.Errorf("company = %q", got.Company)
	}
	if got.Canton != "ZH" {
		t.Errorf("canton = %q, want ZH", got.Canton)
	}
	if got.EmploymentType != "FULL_TIME" {
		t.Errorf("employment type = %q", got.EmploymentType)
	}
}
