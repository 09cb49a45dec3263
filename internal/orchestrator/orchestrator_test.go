package orchestrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/chjobfeed/ingest/internal/adapter"
	"github.com/chjobfeed/ingest/internal/dedup"
	"github.com/chjobfeed/ingest/internal/domain"
	"github.com/chjobfeed/ingest/internal/repository"
	"github.com/chjobfeed/ingest/internal/taskqueue"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeProvider struct {
	name  string
	jobs  []domain.RawJob
	err   error
	calls int
}

func (p *fakeProvider) SourceName() string { return p.name }
func (p *fakeProvider) Enabled() bool      { return true }
func (p *fakeProvider) FetchJobs(context.Context, string, string) ([]domain.RawJob, error) {
	p.calls++
	return p.jobs, p.err
}

// fakeFinder never reports a duplicate; dedup behavior itself is covered by
// the dedup package's own tests.
type fakeFinder struct{}

func (fakeFinder) FindFuzzyDuplicate(context.Context, string, string) (string, bool, error) {
	return "", false, nil
}
func (fakeFinder) FindSemanticDuplicate(context.Context, *domain.Job, float64) (string, bool, error) {
	return "", false, nil
}

// fakeRepo is an in-memory repository.JobRepository keyed by hash, shared
// across fakeTx/fakeWriter so assertions can inspect what was written after
// Run returns.
type fakeRepo struct {
	jobs map[string]*domain.Job
}

func newFakeRepo() *fakeRepo { return &fakeRepo{jobs: map[string]*domain.Job{}} }

func (r *fakeRepo) Upsert(_ context.Context, job *domain.Job) (bool, error) {
	_, exists := r.jobs[job.Hash]
	r.jobs[job.Hash] = job
	return !exists, nil
}
func (r *fakeRepo) MarkDuplicate(_ context.Context, hash, canonical string) error {
	if j, ok := r.jobs[hash]; ok {
		c := canonical
		j.DuplicateOf = &c
		j.IsActive = false
	}
	return nil
}
func (r *fakeRepo) GetActiveCount(context.Context) (int, error) { return len(r.jobs), nil }
func (r *fakeRepo) ListWithoutEmbedding(context.Context, int) ([]*domain.Job, error) {
	return nil, nil
}
func (r *fakeRepo) SetEmbedding(context.Context, string, []float32) error { return nil }
func (r *fakeRepo) ListActiveCandidatesForSemanticSweep(context.Context, int) ([]*domain.Job, error) {
	return nil, nil
}
func (r *fakeRepo) ListActiveForURLCheck(context.Context, int) ([]*domain.Job, error) { return nil, nil }
func (r *fakeRepo) MarkURLChecked(context.Context, string, bool) error                { return nil }

type fakeTx struct {
	*fakeRepo
}

func (t *fakeTx) WithRecordSavepoint(ctx context.Context, fn func(repository.JobRepository) error) error {
	return fn(t.fakeRepo)
}

type fakeWriter struct {
	repo  *fakeRepo
	txErr error
}

func (w *fakeWriter) WithAdapterTx(ctx context.Context, fn func(tx repository.JobTx) error) error {
	if w.txErr != nil {
		return w.txErr
	}
	return fn(&fakeTx{fakeRepo: w.repo})
}

func TestOrchestrator_Run_PersistsFetchedJobsAndCountsNew(t *testing.T) {
	p := &fakeProvider{name: "alpha", jobs: []domain.RawJob{
		{Source: "alpha", Title: "Backend Engineer", Company: "Acme", URL: "https://x/1"},
		{Source: "alpha", Title: "Frontend Engineer", Company: "Acme", URL: "https://x/2"},
	}}
	registry, err := adapter.NewRegistry(p)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	repo := newFakeRepo()
	writer := &fakeWriter{repo: repo}
	dd := dedup.New(fakeFinder{})
	q := taskqueue.New()

	o := New(registry, writer, dd, q, 4, discardLogger()).WithTimeouts(0, 0)
	summary := o.Run(context.Background(), "", "")

	if summary.Fetched != 2 || summary.New != 2 || summary.Errors != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(repo.jobs) != 2 {
		t.Fatalf("expected 2 persisted jobs, got %d", len(repo.jobs))
	}

	select {
	case <-q.C():
	default:
		t.Fatal("expected the embedding backfill to be enqueued when new > 0")
	}
}

// fakePublisher records every job it's handed, guarded by a mutex since
// Run persists each adapter sequentially but a future concurrent persist
// phase shouldn't make this test flaky.
type fakePublisher struct {
	mu   sync.Mutex
	jobs []domain.Job
}

func (p *fakePublisher) PublishNewJob(_ context.Context, job domain.Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, job)
	return nil
}

func TestOrchestrator_Run_PublishesEveryNewJob(t *testing.T) {
	p := &fakeProvider{name: "alpha", jobs: []domain.RawJob{
		{Source: "alpha", Title: "Backend Engineer", Company: "Acme", URL: "https://x/1"},
		{Source: "alpha", Title: "Frontend Engineer", Company: "Acme", URL: "https://x/2"},
	}}
	registry, err := adapter.NewRegistry(p)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	writer := &fakeWriter{repo: newFakeRepo()}
	dd := dedup.New(fakeFinder{})
	q := taskqueue.New()
	pub := &fakePublisher{}

	o := New(registry, writer, dd, q, 4, discardLogger()).WithTimeouts(0, 0).WithPublisher(pub)
	summary := o.Run(context.Background(), "", "")

	if summary.New != 2 {
		t.Fatalf("expected 2 new jobs, got %d", summary.New)
	}
	if len(pub.jobs) != 2 {
		t.Fatalf("expected publisher to receive 2 jobs, got %d", len(pub.jobs))
	}
}

func TestOrchestrator_Run_DoesNotEnqueueWhenNothingNew(t *testing.T) {
	p := &fakeProvider{name: "alpha", jobs: nil}
	registry, _ := adapter.NewRegistry(p)

	repo := newFakeRepo()
	writer := &fakeWriter{repo: repo}
	dd := dedup.New(fakeFinder{})
	q := taskqueue.New()

	o := New(registry, writer, dd, q, 2, discardLogger()).WithTimeouts(0, 0)
	summary := o.Run(context.Background(), "", "")

	if summary.Fetched != 0 || summary.New != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	select {
	case <-q.C():
		t.Fatal("did not expect an embedding backfill enqueue with nothing new")
	default:
	}
}

func TestOrchestrator_Run_OneAdapterFailureDoesNotAbortTheOthers(t *testing.T) {
	failing := &fakeProvider{name: "broken", err: errors.New("boom")}
	ok := &fakeProvider{name: "alpha", jobs: []domain.RawJob{
		{Source: "alpha", Title: "Data Engineer", Company: "Acme", URL: "https://x/3"},
	}}
	registry, err := adapter.NewRegistry(failing, ok)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	repo := newFakeRepo()
	writer := &fakeWriter{repo: repo}
	dd := dedup.New(fakeFinder{})
	q := taskqueue.New()

	o := New(registry, writer, dd, q, 4, discardLogger()).WithTimeouts(0, 0)
	summary := o.Run(context.Background(), "", "")

	if summary.Errors != 1 {
		t.Fatalf("expected exactly 1 error from the failing adapter, got %d", summary.Errors)
	}
	if summary.New != 1 {
		t.Fatalf("expected the healthy adapter to still persist, got new=%d", summary.New)
	}
	if _, ok := summary.Failures["broken"]; !ok {
		t.Fatal("expected broken adapter's error recorded in Failures")
	}
}

func TestOrchestrator_Run_AdapterTransactionFailureIsRecorded(t *testing.T) {
	p := &fakeProvider{name: "alpha", jobs: []domain.RawJob{
		{Source: "alpha", Title: "X", Company: "Y", URL: "https://x/4"},
	}}
	registry, _ := adapter.NewRegistry(p)

	writer := &fakeWriter{repo: newFakeRepo(), txErr: errors.New("connection reset")}
	dd := dedup.New(fakeFinder{})
	q := taskqueue.New()

	o := New(registry, writer, dd, q, 1, discardLogger()).WithTimeouts(0, 0)
	summary := o.Run(context.Background(), "", "")

	if summary.Errors != 1 {
		t.Fatalf("expected 1 error for the failed transaction, got %d", summary.Errors)
	}
	if _, ok := summary.Failures["alpha"]; !ok {
		t.Fatal("expected alpha's transaction error recorded in Failures")
	}
}
