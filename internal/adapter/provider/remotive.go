package provider

import (
	"context"
	"log/slog"
	"strings"

	"github.com/chjobfeed/ingest/internal/adapter"
	"github.com/chjobfeed/ingest/internal/breaker"
	"github.com/chjobfeed/ingest/internal/domain"
	"github.com/chjobfeed/ingest/internal/fetch"
	"github.com/chjobfeed/ingest/internal/textutil"
)

var remotiveAPIURL = "https://remotive.com/api/remote-jobs"

type remotiveJob struct {
	Title                       string   `json:"title"`
	CompanyName                 string   `json:"company_name"`
	URL                         string   `json:"url"`
	Description                 string   `json:"description"`
	CandidateRequiredLocation   string   `json:"candidate_required_location"`
	JobType                     string   `json:"job_type"`
	Tags                        []string `json:"tags"`
}

type remotiveResponse struct {
	Jobs []remotiveJob `json:"jobs"`
}

// Remotive fetches remote job listings from the Remotive API in a single
// request, optionally filtered by a free-text search term.
type Remotive struct {
	*adapter.Core
	client *fetch.Client
	logger *slog.Logger
}

func NewRemotive(client *fetch.Client, b *breaker.Breaker, logger *slog.Logger) *Remotive {
	return &Remotive{Core: adapter.NewCore("remotive", b), client: client, logger: logger.With("source", "remotive")}
}

func (r *Remotive) SourceName() string { return r.Source }
func (r *Remotive) Enabled() bool      { return true }

func (r *Remotive) FetchJobs(ctx context.Context, query, _ string) ([]domain.RawJob, error) {
	params := map[string]string{"limit": "200"}
	if query != "" {
		params["search"] = query
	}

	var resp remotiveResponse
	err := r.Breaker.Call(ctx, func(ctx context.Context) error {
		return r.client.FetchJSON(ctx, remotiveAPIURL, fetch.Options{Query: params}, &resp)
	})
	if err != nil {
		r.Stats.RecordError()
		return nil, err
	}

	jobs := make([]domain.RawJob, 0, len(resp.Jobs))
	for _, raw := range resp.Jobs {
		jobs = append(jobs, r.normalize(raw))
	}
	r.Stats.RecordFetch(len(jobs))
	return jobs, nil
}

func (r *Remotive) normalize(raw remotiveJob) domain.RawJob {
	title := strings.TrimSpace(raw.Title)
	company := strings.TrimSpace(raw.CompanyName)
	url := strings.TrimSpace(raw.URL)
	description := textutil.StripHTMLTags(raw.Description)
	tags := adapter.CapTags(textutil.MergeTags(raw.Tags, textutil.ExtractJobSkills(title, description)))

	var canton string
	if code, ok := textutil.ExtractCanton(raw.CandidateRequiredLocation); ok {
		canton = code
	}

	return domain.RawJob{
		Source:             "remotive",
		Title:              title,
		Company:            company,
		URL:                url,
		Location:           raw.CandidateRequiredLocation,
		Canton:             canton,
		Description:        description,
		DescriptionSnippet: adapter.Snippet(description),
		Remote:             true,
		Tags:               tags,
		EmploymentType:     raw.JobType,
	}
}
