package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJooble_FetchJobs_SkipsWhenKeyMissing(t *testing.T) {
	j := NewJooble(newTestClient(), newTestBreaker(), "", discardLogger())
	if j.Enabled() {
		t.Error("Jooble should report disabled without an API key")
	}
	jobs, err := j.FetchJobs(context.Background(), "go", "Zurich")
	if err != nil {
		t.Fatalf("expected no error when key missing, got %v", err)
	}
	if jobs != nil {
		t.Errorf("expected nil jobs when key missing, got %v", jobs)
	}
}

func TestJooble_FetchJobs_StopsAtTotalCount(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"jobs":[{"title":"Dev","company":"Acme","link":"https://j/1"}],"totalCount":1}`))
	}))
	defer srv.Close()

	restore := joobleAPIBase
	joobleAPIBase = srv.URL + "/"
	defer func() { joobleAPIBase = restore }()

	j := NewJooble(newTestClient(), newTestBreaker(), "testkey", discardLogger())
	if !j.Enabled() {
		t.Fatal("Jooble should be enabled with a key set")
	}

	jobs, err := j.FetchJobs(context.Background(), "go", "Zurich")
	if err != nil {
		t.Fatalf("FetchJobs returned error: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 request once totalCount is reached, got %d", calls)
	}
}
