package scraper

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/chjobfeed/ingest/internal/domain"
	"github.com/chjobfeed/ingest/internal/textutil"
)

// chmediaJob is the subset of the CH Media job-portal API response shape
// (shared by Ostjob and Zentraljob) the normalizer reads.
type chmediaJob struct {
	Title       string `json:"title"`
	Activity    string `json:"activity"`
	Keywords    string `json:"keywords"`
	HomeOffice  bool   `json:"homeOffice"`
	WorkplaceCity string `json:"workplaceCity"`
	Cantons     []string `json:"cantons"`
	TypeValueMin float64 `json:"typeValueMin"`
	TypeValueMax float64 `json:"typeValueMax"`
	URLApplication string `json:"urlApplication"`
	URLDescription string `json:"urlDescription"`
	ExternalID     string `json:"externalId"`
	Company        struct {
		Name   string `json:"name"`
		LogoID string `json:"logoId"`
	} `json:"company"`
}

type chmediaResponse struct {
	Items []chmediaJob `json:"items"`
}

// chmediaStrategy is the Strategy shared by Ostjob and Zentraljob: both
// portals are CH Media properties exposing the same JSON-over-HTTP search
// API under a different domain, so only the domain/API URL differ.
type chmediaStrategy struct {
	source  string
	domain  string
	apiURL  string
	pageSize int
}

func newChmediaStrategy(source, domain, apiURL string, pageSize int) *chmediaStrategy {
	return &chmediaStrategy{source: source, domain: domain, apiURL: apiURL, pageSize: pageSize}
}

func (s *chmediaStrategy) BuildListingURL(page int, _, _ string) string {
	return fmt.Sprintf("%s?page=%d&size=%d", s.apiURL, page, s.pageSize)
}

func (s *chmediaStrategy) ParseListingPage(body string) ([]Stub, error) {
	var resp chmediaResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return nil, fmt.Errorf("decode chmedia response: %w", err)
	}

	stubs := make([]Stub, 0, len(resp.Items))
	for _, item := range resp.Items {
		stubs = append(stubs, Stub{Raw: s.normalize(item)})
	}
	return stubs, nil
}

// ParseJobDetail is never invoked: chmedia listings carry the full record,
// so Config.FetchDetails is false for both adapters.
func (s *chmediaStrategy) ParseJobDetail(_ string, stub Stub) (domain.RawJob, error) {
	return stub.Raw, nil
}

func (s *chmediaStrategy) buildURL(job chmediaJob) string {
	if job.URLApplication != "" && !strings.HasPrefix(job.URLApplication, "mailto:") {
		return job.URLApplication
	}
	if job.URLDescription != "" {
		return job.URLDescription
	}
	if job.ExternalID != "" {
		return fmt.Sprintf("https://%s/stelle/%s", s.domain, job.ExternalID)
	}
	return fmt.Sprintf("https://%s", s.domain)
}

func (s *chmediaStrategy) normalize(job chmediaJob) domain.RawJob {
	title := strings.TrimSpace(job.Title)
	company := strings.TrimSpace(job.Company.Name)
	url := s.buildURL(job)

	var cantonRaw string
	if len(job.Cantons) > 0 {
		cantonRaw = job.Cantons[0]
	}
	location := locationFromCityCanton(job.WorkplaceCity, cantonRaw)

	canton := cantonRaw
	if len(canton) != 2 {
		if code, ok := textutil.ExtractCanton(location); ok {
			canton = code
		} else {
			canton = ""
		}
	}

	description := textutil.StripHTMLTags(job.Activity)

	var keywords []string
	if job.Keywords != "" {
		for _, k := range strings.Split(job.Keywords, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keywords = append(keywords, k)
			}
		}
	}
	tags := textutil.MergeTags(keywords, textutil.ExtractJobSkills(title, description))
	if len(tags) > domain.MaxTags {
		tags = tags[:domain.MaxTags]
	}

	var employmentType string
	if job.TypeValueMin != 0 || job.TypeValueMax != 0 {
		employmentType = fmt.Sprintf("%s-%s%%", trimPercent(job.TypeValueMin), trimPercent(job.TypeValueMax))
	}

	var logo string
	if job.Company.LogoID != "" {
		logo = fmt.Sprintf("https://cdn.%s/logos/%s", s.domain, job.Company.LogoID)
	}

	return domain.RawJob{
		Source:             s.source,
		Title:              title,
		Company:            company,
		URL:                url,
		Location:           location,
		Canton:             canton,
		Description:        description,
		DescriptionSnippet: domain.Truncate(description, domain.SnippetLength),
		Remote:             job.HomeOffice,
		Tags:               tags,
		Logo:               logo,
		EmploymentType:     employmentType,
	}
}

func locationFromCityCanton(city, canton string) string {
	switch {
	case city != "" && canton != "":
		return city + ", " + canton
	case city != "":
		return city
	case canton != "":
		return canton
	default:
		return "Switzerland"
	}
}

func trimPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
