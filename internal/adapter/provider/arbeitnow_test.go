package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestArbeitnow_FetchJobs_StopsOnEmptyPage(t *testing.T) {
	var pages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		pages = append(pages, page)
		switch page {
		case "1":
			_, _ = w.Write([]byte(`{"data":[{"title":"Backend Engineer","company_name":"Acme","url":"https://an/1","remote":true,"tags":["go"]}]}`))
		default:
			_, _ = w.Write([]byte(`{"data":[]}`))
		}
	}))
	defer srv.Close()

	restore := arbeitnowAPIURL
	arbeitnowAPIURL = srv.URL
	defer func() { arbeitnowAPIURL = restore }()

	a := NewArbeitnow(newTestClient(), newTestBreaker(), discardLogger())
	jobs, err := a.FetchJobs(context.Background(), "", "")
	if err != nil {
		t.Fatalf("FetchJobs returned error: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	if len(pages) != 2 {
		t.Fatalf("expected pagination to stop after the empty page, got %d requests", len(pages))
	}
	if jobs[0].Title != "Backend Engineer" {
		t.Errorf("title = %q", jobs[0].Title)
	}
}

func TestArbeitnow_FetchJobs_MergesAPITagsWithExtractedSkills(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			_, _ = w.Write([]byte(`{"data":[{"title":"Go Engineer","company_name":"Acme","url":"https://an/1","tags":["Go","remote"],"description":"We use golang and docker"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	restore := arbeitnowAPIURL
	arbeitnowAPIURL = srv.URL
	defer func() { arbeitnowAPIURL = restore }()

	a := NewArbeitnow(newTestClient(), newTestBreaker(), discardLogger())
	jobs, err := a.FetchJobs(context.Background(), "", "")
	if err != nil {
		t.Fatalf("FetchJobs returned error: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	tags := jobs[0].Tags
	seen := map[string]bool{}
	for _, tag := range tags {
		if seen[tag] {
			t.Errorf("tag %q appeared more than once: %v", tag, tags)
		}
		seen[tag] = true
	}
	if !seen["Go"] {
		t.Errorf("expected API tag 'Go' preserved, got %v", tags)
	}
}
