package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const wwrFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
<channel>
<title>We Work Remotely</title>
<item>
<title>Acme Corp: Senior Go Engineer</title>
<link>https://weworkremotely.com/jobs/1</link>
<guid>https://weworkremotely.com/jobs/1</guid>
<description>&lt;p&gt;Join our backend team&lt;/p&gt;</description>
<region>Europe</region>
<type>Full-Time</type>
<media:content url="https://weworkremotely.com/logos/acme.png"/>
</item>
</channel>
</rss>`

func TestWeWorkRemotely_FetchJobs_ParsesRSSItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(wwrFixture))
	}))
	defer srv.Close()

	restore := weworkremotelyFeedURL
	weworkremotelyFeedURL = srv.URL
	defer func() { weworkremotelyFeedURL = restore }()

	w := NewWeWorkRemotely(newTestClient(), newTestBreaker(), discardLogger())
	jobs, err := w.FetchJobs(context.Background(), "", "")
	if err != nil {
		t.Fatalf("FetchJobs returned error: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	got := jobs[0]
	if got.Company != "Acme Corp" {
		t.Errorf("company = %q, want %q", got.Company, "Acme Corp")
	}
	if got.Title != "Senior Go Engineer" {
		t.Errorf("title = %q, want %q", got.Title, "Senior Go Engineer")
	}
	if !got.Remote {
		t.Error("weworkremotely jobs should always be marked remote")
	}
	if got.Description != "Join our backend team" {
		t.Errorf("description = %q", got.Description)
	}
}
