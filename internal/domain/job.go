// Package domain holds the core entities of the ingestion pipeline: Job and
// SourceCompliance, their enumerations, and the pure helpers (hashing) that
// several components depend on without needing a database.
package domain

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
)

var (
	ErrJobNotFound    = errors.New("job not found")
	ErrSourceDisabled = errors.New("source is disabled by compliance")
	ErrSourceUnknown  = errors.New("source is not registered with compliance")
)

// SalaryPeriod is the normalized billing period of a salary figure.
type SalaryPeriod string

const (
	SalaryYearly  SalaryPeriod = "yearly"
	SalaryMonthly SalaryPeriod = "monthly"
	SalaryHourly  SalaryPeriod = "hourly"
)

// Language is one of the four working languages the normalizer accepts.
type Language string

const (
	LanguageDE Language = "de"
	LanguageFR Language = "fr"
	LanguageEN Language = "en"
	LanguageIT Language = "it"
)

// Seniority is inferred from a job title by the normalizer, most senior first.
type Seniority string

const (
	SeniorityIntern   Seniority = "intern"
	SeniorityJunior   Seniority = "junior"
	SeniorityMid      Seniority = "mid"
	SenioritySenior   Seniority = "senior"
	SeniorityLead     Seniority = "lead"
	SeniorityHead     Seniority = "head"
	SeniorityDirector Seniority = "director"
)

// ContractType is inferred from employment_type/title/description.
type ContractType string

const (
	ContractFullTime       ContractType = "full_time"
	ContractPartTime       ContractType = "part_time"
	ContractContract       ContractType = "contract"
	ContractInternship     ContractType = "internship"
	ContractApprenticeship ContractType = "apprenticeship"
	ContractTemporary      ContractType = "temporary"
)

// Job is the canonical aggregated record. Nullable columns are pointers so a
// zero value and "not set" are distinguishable, mirroring the source
// schema's nullable columns.
type Job struct {
	Hash   string
	Source string

	Title              string
	Company            string
	URL                string
	Location           *string
	Canton             *string
	Description        *string
	DescriptionSnippet *string

	SalaryMinCHF   *int
	SalaryMaxCHF   *int
	SalaryOriginal *string
	SalaryCurrency *string
	SalaryPeriod   *SalaryPeriod

	Language     *Language
	Seniority    *Seniority
	ContractType *ContractType

	Remote         bool
	Tags           []string
	Logo           *string
	EmploymentType *string

	FirstSeenAt  time.Time
	LastSeenAt   time.Time
	IsActive     bool
	URLLastCheck *time.Time

	FuzzyHash   string
	DuplicateOf *string
	Embedding   *pgvector.Vector
}

// MaxTags bounds the ordered tag set an adapter may attach to a job.
const MaxTags = 15

// SnippetLength bounds description_snippet.
const SnippetLength = 200

// ComputeHash derives the primary key from lowercased title, company and the
// raw URL. Determinism is load-bearing: a testable property requires
// hash(t, c, u) = hash(t', c', u) whenever lower(t)=lower(t') and
// lower(c)=lower(c').
func ComputeHash(title, company, url string) string {
	raw := strings.ToLower(strings.TrimSpace(title)) + "|" +
		strings.ToLower(strings.TrimSpace(company)) + "|" +
		strings.TrimSpace(url)
	sum := md5.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// RawJob is what an adapter's FetchJobs returns before the
// normalizer and deduplicator touch it. It is a superset of Job's fields so
// an adapter can leave a field unset ("") and let the normalizer fill it in.
type RawJob struct {
	Source string

	Title              string
	Company            string
	URL                string
	Location           string
	Canton             string
	Description        string
	DescriptionSnippet string

	SalaryMinCHF   *int
	SalaryMaxCHF   *int
	SalaryOriginal string
	SalaryCurrency string
	SalaryPeriod   SalaryPeriod

	Language     Language
	Seniority    Seniority
	ContractType ContractType

	Remote         bool
	Tags           []string
	Logo           string
	EmploymentType string
}

// Truncate caps a description to n runes, matching the adapter-base's
// snippet helper.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
