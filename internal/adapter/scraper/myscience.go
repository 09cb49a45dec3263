package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chjobfeed/ingest/internal/breaker"
	"github.com/chjobfeed/ingest/internal/domain"
	"github.com/chjobfeed/ingest/internal/textutil"
)

const myscienceBaseURL = "https://www.myscience.ch"

// myscienceStrategy scrapes myScience.ch's academic/research job board.
// Unlike the other HTML scrapers, the listing is client-rendered, so this
// adapter is always wired with a BrowserFetcher rather than HTTPFetcher.
type myscienceStrategy struct{}

func (myscienceStrategy) BuildListingURL(page int, _, _ string) string {
	return fmt.Sprintf("%s/jobs?p=%d", myscienceBaseURL, page)
}

func (myscienceStrategy) ParseListingPage(html string) ([]Stub, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	results := doc.Find("#results_table")
	if results.Length() == 0 {
		return nil, nil
	}

	var stubs []Stub
	results.Find("div[itemscope]").Each(func(_ int, record *goquery.Selection) {
		titleEl := record.Find(".results_title").First()
		title := strings.TrimSpace(titleEl.Text())
		if title == "" {
			return
		}

		href, _ := record.Find("a[href]").First().Attr("href")
		detailURL := href
		if href != "" && !strings.HasPrefix(href, "http") {
			detailURL = myscienceBaseURL + href
		}

		company := strings.TrimSpace(record.Find(".results_organization").First().Text())
		if company == "" {
			company = "Unknown"
		}
		location := strings.TrimSpace(record.Find(".location").First().Text())

		var logo string
		if src, ok := record.Find(".centered_logo img").First().Attr("src"); ok && src != "" {
			logo = src
			if !strings.HasPrefix(logo, "http") {
				logo = myscienceBaseURL + logo
			}
		}

		stubs = append(stubs, Stub{
			Raw: domain.RawJob{
				Source:   "myscience",
				Title:    title,
				Company:  company,
				Location: location,
				URL:      detailURL,
				Logo:     logo,
			},
			DetailURL: detailURL,
		})
	})
	return stubs, nil
}

func (myscienceStrategy) ParseJobDetail(html string, stub Stub) (domain.RawJob, error) {
	job := stub.Raw

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return job, err
	}

	container := doc.Find("#middle_content #results_table")
	if container.Length() == 0 {
		container = doc.Find("#middle_content")
	}

	if desc := container.Find("#Description").First(); desc.Length() > 0 {
		job.Description = strings.TrimSpace(desc.Text())
	}
	if logoEl := container.Find(".centered_logo img").First(); logoEl.Length() > 0 {
		if src, ok := logoEl.Attr("src"); ok && src != "" {
			if strings.HasPrefix(src, "http") {
				job.Logo = src
			} else {
				job.Logo = myscienceBaseURL + src
			}
		}
	}

	container.Find(".long_value_row").Each(func(_ int, row *goquery.Selection) {
		descriptor := row.Find(".descriptor").First()
		value := row.Find(".long_value").First()
		if descriptor.Length() == 0 || value.Length() == 0 {
			return
		}
		label := strings.ToLower(strings.TrimSpace(descriptor.Text()))
		text := strings.TrimSpace(value.Text())
		switch {
		case strings.Contains(label, "workplace") || strings.Contains(label, "arbeitsort"):
			job.Location = text
		case strings.Contains(label, "occupation"), strings.Contains(label, "pensum"), strings.Contains(label, "funktion"):
			job.EmploymentType = text
		}
	})

	if job.Location == "" {
		job.Location = "Switzerland"
	}
	if code, ok := textutil.ExtractCanton(job.Location); ok {
		job.Canton = code
	}
	job.DescriptionSnippet = domain.Truncate(job.Description, domain.SnippetLength)
	job.Tags = textutil.ExtractJobSkills(job.Title, job.Description)
	return job, nil
}

// Myscience fetches academic/research job listings from myscience.ch via a
// headless browser, since the listing is rendered client-side.
type Myscience struct {
	*Core
}

func NewMyscience(b *breaker.Breaker, browser HTMLFetcher, compliance Compliance, logger *slog.Logger) *Myscience {
	cfg := Config{
		MaxPages:        5,
		PageSize:        20,
		RateLimit:       2 * time.Second,
		FetchDetails:    true,
		NeedsPlaywright: true,
	}
	return &Myscience{Core: NewCore("myscience", b, cfg, myscienceStrategy{}, browser, compliance, logger)}
}

func (m *Myscience) FetchJobs(ctx context.Context, query, location string) ([]domain.RawJob, error) {
	return m.Run(ctx, query, location)
}
