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

var arbeitnowAPIURL = "https://www.arbeitnow.com/api/job-board-api"

const (
	arbeitnowMaxPages  = 3
	arbeitnowPageDelay = 500 * time.Millisecond
)

type arbeitnowJob struct {
	Title       string   `json:"title"`
	CompanyName string   `json:"company_name"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Remote      bool     `json:"remote"`
	Tags        []string `json:"tags"`
	JobTypes    []string `json:"job_types"`
}

type arbeitnowResponse struct {
	Data []arbeitnowJob `json:"data"`
}

// Arbeitnow fetches the Arbeitnow job board API, paginating up to 3 pages
// with a polite delay between requests.
type Arbeitnow struct {
	*adapter.Core
	client *fetch.Client
	logger *slog.Logger
}

func NewArbeitnow(client *fetch.Client, b *breaker.Breaker, logger *slog.Logger) *Arbeitnow {
	return &Arbeitnow{Core: adapter.NewCore("arbeitnow", b), client: client, logger: logger.With("source", "arbeitnow")}
}

func (a *Arbeitnow) SourceName() string { return a.Source }
func (a *Arbeitnow) Enabled() bool      { return true }

func (a *Arbeitnow) FetchJobs(ctx context.Context, _, _ string) ([]domain.RawJob, error) {
	var jobs []domain.RawJob

	for page := 1; page <= arbeitnowMaxPages; page++ {
		var resp arbeitnowResponse
		err := a.Breaker.Call(ctx, func(ctx context.Context) error {
			return a.client.FetchJSON(ctx, arbeitnowAPIURL, fetch.Options{
				Query: map[string]string{"page": strconv.Itoa(page)},
			}, &resp)
		})
		if err != nil {
			a.Stats.RecordError()
			return jobs, err
		}
		if len(resp.Data) == 0 {
			break
		}

		for _, raw := range resp.Data {
			jobs = append(jobs, a.normalize(raw))
		}

		if page < arbeitnowMaxPages {
			select {
			case <-ctx.Done():
				return jobs, ctx.Err()
			case <-time.After(arbeitnowPageDelay):
			}
		}
	}

	a.Stats.RecordFetch(len(jobs))
	return jobs, nil
}

func (a *Arbeitnow) normalize(raw arbeitnowJob) domain.RawJob {
	title := strings.TrimSpace(raw.Title)
	company := strings.TrimSpace(raw.CompanyName)
	url := strings.TrimSpace(raw.URL)
	description := textutil.StripHTMLTags(raw.Description)

	var canton string
	if code, ok := textutil.ExtractCanton(raw.Location); ok {
		canton = code
	}

	tags := adapter.CapTags(textutil.MergeTags(raw.Tags, textutil.ExtractJobSkills(title, description)))

	var employmentType string
	if len(raw.JobTypes) > 0 {
		employmentType = strings.Join(raw.JobTypes, ", ")
	}

	return domain.RawJob{
		Source:             "arbeitnow",
		Title:              title,
		Company:            company,
		URL:                url,
		Location:           raw.Location,
		Canton:             canton,
		Description:        description,
		DescriptionSnippet: adapter.Snippet(description),
		Remote:             raw.Remote,
		Tags:               tags,
		EmploymentType:     employmentType,
	}
}
