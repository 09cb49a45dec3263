package maintenance

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/chjobfeed/ingest/internal/domain"
	"github.com/chjobfeed/ingest/internal/taskqueue"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeEmbedRepo struct {
	pending []*domain.Job
	set     map[string][]float32
}

func (r *fakeEmbedRepo) Upsert(context.Context, *domain.Job) (bool, error)      { return false, nil }
func (r *fakeEmbedRepo) MarkDuplicate(context.Context, string, string) error    { return nil }
func (r *fakeEmbedRepo) GetActiveCount(context.Context) (int, error)            { return 0, nil }
func (r *fakeEmbedRepo) ListWithoutEmbedding(_ context.Context, limit int) ([]*domain.Job, error) {
	if limit < len(r.pending) {
		return r.pending[:limit], nil
	}
	return r.pending, nil
}
func (r *fakeEmbedRepo) SetEmbedding(_ context.Context, hash string, emb []float32) error {
	if r.set == nil {
		r.set = map[string][]float32{}
	}
	r.set[hash] = emb
	return nil
}
func (r *fakeEmbedRepo) ListActiveCandidatesForSemanticSweep(context.Context, int) ([]*domain.Job, error) {
	return nil, nil
}
func (r *fakeEmbedRepo) ListActiveForURLCheck(context.Context, int) ([]*domain.Job, error) { return nil, nil }
func (r *fakeEmbedRepo) MarkURLChecked(context.Context, string, bool) error                { return nil }

type fakeEmbedder struct {
	calls [][]string
}

func (e *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.calls = append(e.calls, texts)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i)}
	}
	return out, nil
}

func TestBackfillEmbeddings_SetsEmbeddingsAndEnqueuesSemanticSweep(t *testing.T) {
	desc := "Build distributed systems."
	repo := &fakeEmbedRepo{pending: []*domain.Job{
		{Hash: "h1", Title: "Backend Engineer", Company: "Acme", Description: &desc, Tags: []string{"go", "postgres"}},
	}}
	embedder := &fakeEmbedder{}
	q := taskqueue.New()

	processed, err := BackfillEmbeddings(context.Background(), repo, embedder, 10, q, discardLogger())
	if err != nil {
		t.Fatalf("BackfillEmbeddings returned error: %v", err)
	}
	if processed != 1 {
		t.Fatalf("expected 1 processed, got %d", processed)
	}
	if _, ok := repo.set["h1"]; !ok {
		t.Fatal("expected embedding to be set for h1")
	}
	if len(embedder.calls) != 1 || embedder.calls[0][0] == "" {
		t.Fatalf("expected embed text to be built from job fields, got %+v", embedder.calls)
	}

	select {
	case <-q.C():
	default:
		t.Fatal("expected semantic sweep to be enqueued after a successful backfill")
	}
}

func TestBackfillEmbeddings_NoPendingJobsDoesNotEnqueue(t *testing.T) {
	repo := &fakeEmbedRepo{}
	embedder := &fakeEmbedder{}
	q := taskqueue.New()

	processed, err := BackfillEmbeddings(context.Background(), repo, embedder, 10, q, discardLogger())
	if err != nil {
		t.Fatalf("BackfillEmbeddings returned error: %v", err)
	}
	if processed != 0 {
		t.Fatalf("expected 0 processed, got %d", processed)
	}
	select {
	case <-q.C():
		t.Fatal("did not expect a semantic sweep enqueue with nothing to embed")
	default:
	}
}
