// Package provider holds the JSON/RSS API source adapters: single-shot and
// paginated JSON fetches, a key-gated POST API, and an RSS feed, each
// normalizing its response into domain.RawJob the way the corresponding
// Python provider did.
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

var jobicyAPIURL = "https://jobicy.com/api/v2/remote-jobs"

type jobicyJob struct {
	JobTitle       string `json:"jobTitle"`
	CompanyName    string `json:"companyName"`
	URL            string `json:"url"`
	JobDescription string `json:"jobDescription"`
	JobGeo         string `json:"jobGeo"`
	Country        string `json:"country"`
	JobType        string `json:"jobType"`
}

type jobicyResponse struct {
	Jobs []jobicyJob `json:"jobs"`
}

// Jobicy fetches remote job listings from Jobicy's public API: one request,
// optionally filtered by a tag query and a non-Switzerland geo.
type Jobicy struct {
	*adapter.Core
	client *fetch.Client
	logger *slog.Logger
}

func NewJobicy(client *fetch.Client, b *breaker.Breaker, logger *slog.Logger) *Jobicy {
	return &Jobicy{Core: adapter.NewCore("jobicy", b), client: client, logger: logger.With("source", "jobicy")}
}

func (j *Jobicy) SourceName() string { return j.Source }
func (j *Jobicy) Enabled() bool      { return true }

func (j *Jobicy) FetchJobs(ctx context.Context, query, location string) ([]domain.RawJob, error) {
	params := map[string]string{"count": "50"}
	if query != "" {
		params["tag"] = query
	}
	if location != "" && !strings.EqualFold(location, "switzerland") {
		params["geo"] = location
	}

	var resp jobicyResponse
	err := j.Breaker.Call(ctx, func(ctx context.Context) error {
		return j.client.FetchJSON(ctx, jobicyAPIURL, fetch.Options{Query: params}, &resp)
	})
	if err != nil {
		j.Stats.RecordError()
		return nil, err
	}

	jobs := make([]domain.RawJob, 0, len(resp.Jobs))
	for _, raw := range resp.Jobs {
		jobs = append(jobs, j.normalize(raw))
	}
	j.Stats.RecordFetch(len(jobs))
	return jobs, nil
}

func (j *Jobicy) normalize(raw jobicyJob) domain.RawJob {
	title := strings.TrimSpace(raw.JobTitle)
	company := strings.TrimSpace(raw.CompanyName)
	url := strings.TrimSpace(raw.URL)
	description := textutil.StripHTMLTags(raw.JobDescription)
	location := raw.JobGeo
	if location == "" {
		location = raw.Country
	}

	var canton string
	if code, ok := textutil.ExtractCanton(location); ok {
		canton = code
	}

	return domain.RawJob{
		Source:             "jobicy",
		Title:              title,
		Company:            company,
		URL:                url,
		Location:           location,
		Canton:             canton,
		Description:        description,
		DescriptionSnippet: adapter.Snippet(description),
		Remote:             true,
		Tags:               adapter.CapTags(textutil.ExtractJobSkills(title, description)),
		EmploymentType:     raw.JobType,
	}
}
