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
	"github.com/mmcdole/gofeed"
)

var weworkremotelyFeedURL = "https://weworkremotely.com/remote-jobs.rss"

// WeWorkRemotely fetches the We Work Remotely RSS feed — the only
// feed-shaped source in the pack, so it's the one that exercises
// fetch.Client.FetchRSS instead of FetchJSON.
type WeWorkRemotely struct {
	*adapter.Core
	client *fetch.Client
	logger *slog.Logger
}

func NewWeWorkRemotely(client *fetch.Client, b *breaker.Breaker, logger *slog.Logger) *WeWorkRemotely {
	return &WeWorkRemotely{Core: adapter.NewCore("weworkremotely", b), client: client, logger: logger.With("source", "weworkremotely")}
}

func (w *WeWorkRemotely) SourceName() string { return w.Source }
func (w *WeWorkRemotely) Enabled() bool      { return true }

func (w *WeWorkRemotely) FetchJobs(ctx context.Context, query, _ string) ([]domain.RawJob, error) {
	var feed *gofeed.Feed
	err := w.Breaker.Call(ctx, func(ctx context.Context) error {
		f, fetchErr := w.client.FetchRSS(ctx, weworkremotelyFeedURL, fetch.Options{})
		feed = f
		return fetchErr
	})
	if err != nil {
		w.Stats.RecordError()
		return nil, err
	}
	if feed == nil {
		return nil, nil
	}

	jobs := make([]domain.RawJob, 0, len(feed.Items))
	for _, item := range feed.Items {
		jobs = append(jobs, w.normalize(item))
	}

	if query != "" {
		jobs = filterByQuery(jobs, query)
	}

	w.Stats.RecordFetch(len(jobs))
	return jobs, nil
}

func (w *WeWorkRemotely) normalize(item *gofeed.Item) domain.RawJob {
	// Title format is "Company Name: Job Title".
	fullTitle := strings.TrimSpace(item.Title)
	var company, title string
	if idx := strings.Index(fullTitle, ": "); idx >= 0 {
		company = fullTitle[:idx]
		title = fullTitle[idx+2:]
	} else {
		title = fullTitle
	}

	url := strings.TrimSpace(item.Link)
	if url == "" {
		url = strings.TrimSpace(item.GUID)
	}
	description := textutil.StripHTMLTags(item.Description)

	region := strings.TrimSpace(item.Custom["region"])
	jobType := strings.TrimSpace(item.Custom["type"])

	location := region
	if location == "" {
		location = "Remote / Worldwide"
	}

	var logo string
	if item.Extensions != nil {
		if media, ok := item.Extensions["media"]; ok {
			if contents, ok := media["content"]; ok && len(contents) > 0 {
				logo = contents[0].Attrs["url"]
			}
		}
	}

	var canton string
	if code, ok := textutil.ExtractCanton(location); ok {
		canton = code
	}

	return domain.RawJob{
		Source:             "weworkremotely",
		Title:              title,
		Company:            company,
		URL:                url,
		Location:           location,
		Canton:             canton,
		Description:        description,
		DescriptionSnippet: adapter.Snippet(description),
		Remote:             true,
		Tags:               adapter.CapTags(textutil.ExtractJobSkills(title, description)),
		Logo:               logo,
		EmploymentType:     jobType,
	}
}
