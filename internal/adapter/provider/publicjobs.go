package provider

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chjobfeed/ingest/internal/adapter"
	"github.com/chjobfeed/ingest/internal/breaker"
	"github.com/chjobfeed/ingest/internal/domain"
	"github.com/chjobfeed/ingest/internal/fetch"
	"github.com/chjobfeed/ingest/internal/textutil"
)

const publicjobsBaseURL = "https://www.publicjobs.ch"

var publicjobsDataURL = publicjobsBaseURL + "/jobs/__data.json"

// publicjobsRaw is the decoded, de-indexed form of one job record from the
// SvelteKit __data.json payload.
type publicjobsRaw struct {
	Title          string
	Company        string
	City           string
	Region         string
	Path           string
	WorkloadFrom   string
	WorkloadTo     string
	Logo           string
}

// PublicJobs fetches public-sector and education job listings from
// publicjobs.ch's SvelteKit dehydrated data endpoint, which returns every
// listing in one request encoded as a flat, index-referencing array —
// SvelteKit's load-function serialization format.
type PublicJobs struct {
	*adapter.Core
	client *fetch.Client
	logger *slog.Logger
}

func NewPublicJobs(client *fetch.Client, b *breaker.Breaker, logger *slog.Logger) *PublicJobs {
	return &PublicJobs{Core: adapter.NewCore("publicjobs", b), client: client, logger: logger.With("source", "publicjobs")}
}

func (p *PublicJobs) SourceName() string { return p.Source }
func (p *PublicJobs) Enabled() bool      { return true }

func (p *PublicJobs) FetchJobs(ctx context.Context, query, _ string) ([]domain.RawJob, error) {
	var envelope map[string]any
	err := p.Breaker.Call(ctx, func(ctx context.Context) error {
		return p.client.FetchJSON(ctx, publicjobsDataURL, fetch.Options{Timeout: 20 * time.Second}, &envelope)
	})
	if err != nil {
		p.Stats.RecordError()
		return nil, err
	}

	decoded, err := dehydrateSvelteKit(envelope)
	if err != nil {
		p.logger.WarnContext(ctx, "publicjobs dehydrate failed", "error", err)
		return nil, nil
	}

	jobs := make([]domain.RawJob, 0, len(decoded))
	for _, raw := range decoded {
		if raw.Title == "" {
			continue
		}
		jobs = append(jobs, p.normalize(raw))
	}

	if query != "" {
		jobs = filterByQuery(jobs, query)
	}

	p.Stats.RecordFetch(len(jobs))
	return jobs, nil
}

func filterByQuery(jobs []domain.RawJob, query string) []domain.RawJob {
	q := strings.ToLower(query)
	filtered := jobs[:0]
	for _, j := range jobs {
		haystack := strings.ToLower(j.Title + " " + j.Company + " " + j.Description)
		if strings.Contains(haystack, q) {
			filtered = append(filtered, j)
		}
	}
	return filtered
}

// dehydrateSvelteKit decodes SvelteKit's dehydrated __data.json response
// into a flat list of job records. SvelteKit serializes the page's load
// data as a flat array `d`; objects reference other values in `d` by index
// rather than nesting them directly, so decoding means following those
// index references by hand.
func dehydrateSvelteKit(envelope map[string]any) ([]publicjobsRaw, error) {
	nodes, _ := envelope["nodes"].([]any)
	if len(nodes) == 0 {
		return nil, fmt.Errorf("no nodes in response")
	}
	node0, _ := nodes[0].(map[string]any)
	d, _ := node0["data"].([]any)
	if len(d) == 0 {
		return nil, fmt.Errorf("empty data array")
	}

	meta, _ := d[0].(map[string]any)
	if meta == nil {
		return nil, fmt.Errorf("missing meta object")
	}

	jsIdx, ok := asIndex(meta["jobSearch"])
	if !ok || jsIdx >= len(d) {
		return nil, fmt.Errorf("jobSearch index out of range")
	}
	jobSearch, _ := d[jsIdx].(map[string]any)
	if jobSearch == nil {
		return nil, fmt.Errorf("jobSearch is not an object")
	}

	dataIdx, ok := asIndex(jobSearch["data"])
	if !ok || dataIdx >= len(d) {
		return nil, fmt.Errorf("data index out of range")
	}
	jobIndices, _ := d[dataIdx].([]any)

	results := make([]publicjobsRaw, 0, len(jobIndices))
	for _, v := range jobIndices {
		idx, ok := asIndex(v)
		if !ok || idx >= len(d) {
			continue
		}
		obj, _ := d[idx].(map[string]any)
		if obj == nil {
			continue
		}
		results = append(results, decodeSvelteKitJob(obj, d))
	}
	return results, nil
}

func decodeSvelteKitJob(obj map[string]any, d []any) publicjobsRaw {
	deref := func(key string) string {
		val, ok := obj[key]
		if !ok {
			return ""
		}
		if idx, ok := asIndex(val); ok && idx > 0 && idx < len(d) {
			val = d[idx]
		}
		s, _ := val.(string)
		return s
	}

	raw := publicjobsRaw{
		Title:        deref("title"),
		Company:      deref("contactCompany"),
		City:         deref("workingAddressCity"),
		Region:       deref("workingAddressRegion"),
		Path:         deref("path"),
		Logo:         deref("contactLogo"),
	}
	raw.WorkloadFrom = deref("workloadFrom")
	raw.WorkloadTo = deref("workloadTo")
	return raw
}

func asIndex(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}

func (p *PublicJobs) normalize(raw publicjobsRaw) domain.RawJob {
	company := raw.Company
	if company == "" {
		company = "Unknown"
	}
	location := raw.City
	if location == "" {
		location = raw.Region
	}
	if location == "" {
		location = "Switzerland"
	}

	var canton string
	if len(raw.Region) == 2 {
		canton = raw.Region
	}

	var url string
	if raw.Path != "" {
		url = publicjobsBaseURL + raw.Path
	}

	var employmentType string
	switch {
	case raw.WorkloadFrom != "" && raw.WorkloadTo != "" && raw.WorkloadFrom != raw.WorkloadTo:
		employmentType = raw.WorkloadFrom + "% - " + raw.WorkloadTo + "%"
	case raw.WorkloadFrom != "":
		employmentType = raw.WorkloadFrom + "%"
	}

	return domain.RawJob{
		Source:         "publicjobs",
		Title:          raw.Title,
		Company:        company,
		URL:            url,
		Location:       location,
		Canton:         canton,
		Remote:         false,
		Tags:           adapter.CapTags(textutil.ExtractJobSkills(raw.Title, "")),
		Logo:           raw.Logo,
		EmploymentType: employmentType,
	}
}
