package maintenance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chjobfeed/ingest/internal/domain"
	"github.com/chjobfeed/ingest/internal/fetch"
)

type fakeURLCheckRepo struct {
	jobs    []*domain.Job
	checked map[string]bool // hash -> deactivate
}

func (r *fakeURLCheckRepo) Upsert(context.Context, *domain.Job) (bool, error)   { return false, nil }
func (r *fakeURLCheckRepo) MarkDuplicate(context.Context, string, string) error { return nil }
func (r *fakeURLCheckRepo) GetActiveCount(context.Context) (int, error)        { return 0, nil }
func (r *fakeURLCheckRepo) ListWithoutEmbedding(context.Context, int) ([]*domain.Job, error) {
	return nil, nil
}
func (r *fakeURLCheckRepo) SetEmbedding(context.Context, string, []float32) error { return nil }
func (r *fakeURLCheckRepo) ListActiveCandidatesForSemanticSweep(context.Context, int) ([]*domain.Job, error) {
	return nil, nil
}
func (r *fakeURLCheckRepo) ListActiveForURLCheck(_ context.Context, _ int) ([]*domain.Job, error) {
	return r.jobs, nil
}
func (r *fakeURLCheckRepo) MarkURLChecked(_ context.Context, hash string, deactivate bool) error {
	if r.checked == nil {
		r.checked = map[string]bool{}
	}
	r.checked[hash] = deactivate
	return nil
}

func TestCheckJobURLs_DeactivatesGoneAndNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/alive":
			w.WriteHeader(http.StatusOK)
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/gone":
			w.WriteHeader(http.StatusGone)
		}
	}))
	defer srv.Close()

	repo := &fakeURLCheckRepo{jobs: []*domain.Job{
		{Hash: "alive", URL: srv.URL + "/alive"},
		{Hash: "missing", URL: srv.URL + "/missing"},
		{Hash: "gone", URL: srv.URL + "/gone"},
	}}
	client := fetch.NewClient(discardLogger())

	checked, deactivated, err := CheckJobURLs(context.Background(), repo, client, 10, discardLogger())
	if err != nil {
		t.Fatalf("CheckJobURLs returned error: %v", err)
	}
	if checked != 3 {
		t.Fatalf("expected 3 checked, got %d", checked)
	}
	if deactivated != 2 {
		t.Fatalf("expected 2 deactivated, got %d", deactivated)
	}
	if repo.checked["alive"] {
		t.Error("alive job should not be deactivated")
	}
	if !repo.checked["missing"] || !repo.checked["gone"] {
		t.Error("missing/gone jobs should be deactivated")
	}
}
