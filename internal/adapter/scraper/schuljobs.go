package scraper

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chjobfeed/ingest/internal/breaker"
	"github.com/chjobfeed/ingest/internal/domain"
	"github.com/chjobfeed/ingest/internal/textutil"
)

const schuljobsBaseURL = "https://www.schuljobs.ch"

// schuljobsStrategy scrapes schuljobs.ch's server-rendered listing page and
// merges in JSON-LD (schema.org JobPosting) found on each job's detail
// page. The original site paginates the remainder of its results via an
// AJAX "scroll" endpoint keyed by a search hash extracted from the first
// page; that stateful pagination doesn't fit the Strategy interface's
// page-number contract, so this adapter covers the initial listing page
// only (MaxPages=1).
type schuljobsStrategy struct{}

func (schuljobsStrategy) BuildListingURL(_ int, _, _ string) string {
	return schuljobsBaseURL + "/suche"
}

func (schuljobsStrategy) ParseListingPage(html string) ([]Stub, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var stubs []Stub
	doc.Find("a.js-joboffer-detail").Each(func(_ int, link *goquery.Selection) {
		title := strings.TrimSpace(link.Text())
		href, ok := link.Attr("href")
		if title == "" || !ok || href == "" {
			return
		}
		detailURL := href
		if !strings.HasPrefix(detailURL, "http") {
			detailURL = schuljobsBaseURL + href
		}

		company := "Unknown"
		var location, canton string
		if card := link.Closest("h3").Parent(); card.Length() > 0 {
			if metaText := strings.TrimSpace(card.Find("p").First().Text()); metaText != "" {
				parts := splitAndTrim(metaText, "·")
				switch {
				case len(parts) >= 3:
					if len(parts[0]) == 2 {
						canton = parts[0]
					}
					location = parts[1]
					company = parts[2]
				case len(parts) == 2:
					if len(parts[0]) == 2 {
						canton = parts[0]
					}
					location = parts[1]
				}
			}
		}

		stubs = append(stubs, Stub{
			Raw: domain.RawJob{
				Source:   "schuljobs",
				Title:    title,
				Company:  company,
				Location: location,
				Canton:   canton,
				URL:      detailURL,
			},
			DetailURL: detailURL,
		})
	})
	return stubs, nil
}

func splitAndTrim(s, sep string) []string {
	raw := strings.Split(s, sep)
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

type jsonLDJobPosting struct {
	Type              string `json:"@type"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	EmploymentType    string `json:"employmentType"`
	HiringOrganization struct {
		Name string `json:"name"`
		Logo string `json:"logo"`
	} `json:"hiringOrganization"`
	JobLocation struct {
		Address struct {
			AddressLocality string `json:"addressLocality"`
			AddressRegion   string `json:"addressRegion"`
		} `json:"address"`
	} `json:"jobLocation"`
}

func (schuljobsStrategy) ParseJobDetail(html string, stub Stub) (domain.RawJob, error) {
	job := stub.Raw

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return job, err
	}

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var posting jsonLDJobPosting
		if err := json.Unmarshal([]byte(s.Text()), &posting); err != nil {
			return true
		}
		if posting.Type != "JobPosting" {
			return true
		}

		if posting.Title != "" {
			job.Title = posting.Title
		}
		if posting.HiringOrganization.Name != "" {
			job.Company = posting.HiringOrganization.Name
		}
		if posting.HiringOrganization.Logo != "" {
			job.Logo = posting.HiringOrganization.Logo
		}
		if posting.JobLocation.Address.AddressLocality != "" {
			job.Location = posting.JobLocation.Address.AddressLocality
		}
		if posting.JobLocation.Address.AddressRegion != "" {
			job.Canton = posting.JobLocation.Address.AddressRegion
		}
		if posting.Description != "" {
			job.Description = textutil.StripHTMLTags(posting.Description)
		}
		if posting.EmploymentType != "" {
			job.EmploymentType = posting.EmploymentType
		}
		return false
	})

	if job.Canton == "" && job.Location != "" {
		if code, ok := textutil.ExtractCanton(job.Location); ok {
			job.Canton = code
		}
	}
	job.DescriptionSnippet = domain.Truncate(job.Description, domain.SnippetLength)
	job.Tags = textutil.ExtractJobSkills(job.Title, job.Description)
	return job, nil
}

// Schuljobs fetches education/teaching job listings from schuljobs.ch.
type Schuljobs struct {
	*Core
}

func NewSchuljobs(b *breaker.Breaker, html HTMLFetcher, compliance Compliance, logger *slog.Logger) *Schuljobs {
	cfg := Config{
		MaxPages:     1,
		PageSize:     25,
		RateLimit:    2 * time.Second,
		FetchDetails: true,
	}
	return &Schuljobs{Core: NewCore("schuljobs", b, cfg, schuljobsStrategy{}, html, compliance, logger)}
}

func (s *Schuljobs) FetchJobs(ctx context.Context, query, location string) ([]domain.RawJob, error) {
	return s.Run(ctx, query, location)
}
