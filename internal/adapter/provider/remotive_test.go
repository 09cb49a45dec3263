package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRemotive_FetchJobs_SearchParamOmittedWithoutQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("search") {
			t.Error("search param should be omitted without a query")
		}
		_, _ = w.Write([]byte(`{"jobs":[{"title":"Rust Dev","company_name":"Acme","url":"https://rm/1","candidate_required_location":"Worldwide","tags":["rust"]}]}`))
	}))
	defer srv.Close()

	restore := remotiveAPIURL
	remotiveAPIURL = srv.URL
	defer func() { remotiveAPIURL = restore }()

	r := NewRemotive(newTestClient(), newTestBreaker(), discardLogger())
	jobs, err := r.FetchJobs(context.Background(), "", "")
	if err != nil {
		t.Fatalf("FetchJobs returned error: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Title != "Rust Dev" {
		t.Fatalf("unexpected jobs: %+v", jobs)
	}
	if !jobs[0].Remote {
		t.Error("remotive jobs should always be marked remote")
	}
}
