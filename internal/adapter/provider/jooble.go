package provider

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/chjobfeed/ingest/internal/adapter"
	"github.com/chjobfeed/ingest/internal/breaker"
	"github.com/chjobfeed/ingest/internal/domain"
	"github.com/chjobfeed/ingest/internal/fetch"
	"github.com/chjobfeed/ingest/internal/textutil"
)

var joobleAPIBase = "https://jooble.org/api/"

const (
	joobleMaxPages = 3
	joobleMaxDelay = 500 * time.Millisecond
)

type joobleJob struct {
	Title    string `json:"title"`
	Company  string `json:"company"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Location string `json:"location"`
	Type     string `json:"type"`
	Salary   string `json:"salary"`
}

type joobleResponse struct {
	Jobs       []joobleJob `json:"jobs"`
	TotalCount int         `json:"totalCount"`
}

// Jooble fetches jobs from the Jooble aggregator's POST-based API, gated
// behind an API key — Enabled() is false (and the adapter is skipped
// entirely) when JOOBLE_API_KEY is unset.
type Jooble struct {
	*adapter.Core
	client *fetch.Client
	apiKey string
	logger *slog.Logger
}

func NewJooble(client *fetch.Client, b *breaker.Breaker, apiKey string, logger *slog.Logger) *Jooble {
	return &Jooble{Core: adapter.NewCore("jooble", b), client: client, apiKey: apiKey, logger: logger.With("source", "jooble")}
}

func (j *Jooble) SourceName() string { return j.Source }
func (j *Jooble) Enabled() bool      { return j.apiKey != "" }

func (j *Jooble) FetchJobs(ctx context.Context, query, location string) ([]domain.RawJob, error) {
	if j.apiKey == "" {
		j.logger.WarnContext(ctx, "jooble api key not configured, skipping provider")
		return nil, nil
	}

	apiURL := joobleAPIBase + j.apiKey
	var jobs []domain.RawJob
	total := -1

	for page := 1; page <= joobleMaxPages; page++ {
		body := map[string]string{
			"keywords": query,
			"location": location,
			"page":     strconv.Itoa(page),
		}

		var resp joobleResponse
		err := j.Breaker.Call(ctx, func(ctx context.Context) error {
			return j.client.FetchJSON(ctx, apiURL, fetch.Options{
				Method:   "POST",
				JSONBody: body,
			}, &resp)
		})
		if err != nil {
			j.Stats.RecordError()
			j.logger.ErrorContext(ctx, "jooble fetch failed", "page", page, "error", err)
			break
		}
		if len(resp.Jobs) == 0 {
			break
		}

		for _, raw := range resp.Jobs {
			jobs = append(jobs, j.normalize(raw))
		}
		total = resp.TotalCount

		if total > 0 && len(jobs) >= total {
			break
		}
		if page < joobleMaxPages {
			select {
			case <-ctx.Done():
				return jobs, ctx.Err()
			case <-time.After(joobleMaxDelay):
			}
		}
	}

	j.Stats.RecordFetch(len(jobs))
	return jobs, nil
}

func (j *Jooble) normalize(raw joobleJob) domain.RawJob {
	title := strings.TrimSpace(raw.Title)
	company := strings.TrimSpace(raw.Company)
	url := strings.TrimSpace(raw.Link)
	description := textutil.StripHTMLTags(raw.Snippet)
	location := strings.TrimSpace(raw.Location)
	if location == "" {
		location = "Switzerland"
	}

	var canton string
	if code, ok := textutil.ExtractCanton(location); ok {
		canton = code
	}

	return domain.RawJob{
		Source:             "jooble",
		Title:              title,
		Company:            company,
		URL:                url,
		Location:           location,
		Canton:             canton,
		Description:        description,
		DescriptionSnippet: adapter.Snippet(description),
		Remote:             false,
		Tags:               adapter.CapTags(textutil.ExtractJobSkills(title, description)),
		EmploymentType:     raw.Type,
		SalaryOriginal:     raw.Salary,
	}
}
