package adapter

import (
	"context"
	"testing"

	"github.com/chjobfeed/ingest/internal/domain"
)

type fakeProvider struct {
	name    string
	enabled bool
}

func (p *fakeProvider) SourceName() string { return p.name }
func (p *fakeProvider) Enabled() bool      { return p.enabled }
func (p *fakeProvider) FetchJobs(context.Context, string, string) ([]domain.RawJob, error) {
	return nil, nil
}

func TestRegistry_RejectsDuplicateSourceNames(t *testing.T) {
	_, err := NewRegistry(&fakeProvider{name: "x", enabled: true}, &fakeProvider{name: "x", enabled: true})
	if err == nil {
		t.Fatal("expected an error for duplicate source names")
	}
}

func TestRegistry_EnabledFiltersDisabledAdapters(t *testing.T) {
	r, err := NewRegistry(
		&fakeProvider{name: "on", enabled: true},
		&fakeProvider{name: "off", enabled: false},
	)
	if err != nil {
		t.Fatalf("NewRegistry returned error: %v", err)
	}
	if len(r.All()) != 2 {
		t.Fatalf("expected All() to return 2 adapters, got %d", len(r.All()))
	}
	enabled := r.Enabled()
	if len(enabled) != 1 || enabled[0].SourceName() != "on" {
		t.Fatalf("expected only 'on' to be enabled, got %+v", enabled)
	}
}

func TestRegistry_Get(t *testing.T) {
	r, err := NewRegistry(&fakeProvider{name: "x", enabled: true})
	if err != nil {
		t.Fatalf("NewRegistry returned error: %v", err)
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("expected Get to report false for unknown source")
	}
	if p, ok := r.Get("x"); !ok || p.SourceName() != "x" {
		t.Error("expected Get to find registered source")
	}
}
