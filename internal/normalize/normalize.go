// Package normalize enriches a domain.RawJob with salary, language,
// seniority and contract-type fields the adapter left unset. Every function
// here is pure and idempotent: fields already populated by the adapter are
// never overwritten.
package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/RadhiFadlillah/whatlanggo"
	"github.com/chjobfeed/ingest/internal/domain"
)

// currencyToCHF are static conversion rates, matching the fixed-rate table
// the pipeline has always used rather than a live FX feed.
var currencyToCHF = map[string]float64{
	"CHF": 1.0,
	"EUR": 0.96,
	"USD": 0.88,
	"GBP": 1.12,
}

var periodMultiplier = map[domain.SalaryPeriod]float64{
	domain.SalaryYearly:  1,
	domain.SalaryMonthly: 12,
	domain.SalaryHourly:  2080,
}

type seniorityPattern struct {
	level    domain.Seniority
	keywords []string
}

// seniorityPatterns is checked in order: most senior first, first match wins.
var seniorityPatterns = []seniorityPattern{
	{domain.SeniorityHead, []string{"head of", "director", "directeur", "direktor", "chef de"}},
	{domain.SeniorityLead, []string{"lead", "leiter", "team lead", "chef d'équipe", "teamleiter"}},
	{domain.SenioritySenior, []string{"senior", "sr.", "experienced", "erfahren", "expérimenté"}},
	{domain.SeniorityMid, []string{"mid-level", "mid level", "confirmé", "confirmed"}},
	{domain.SeniorityJunior, []string{"junior", "jr.", "anfänger", "débutant"}},
	{domain.SeniorityIntern, []string{"intern", "internship", "praktikant", "praktikum", "stage", "stagiaire", "trainee"}},
}

type contractPattern struct {
	kind     domain.ContractType
	keywords []string
}

// contractPatterns mirrors SENIORITY_PATTERNS' priority-list shape, checked
// apprenticeship first since it's the most specific keyword set.
var contractPatterns = []contractPattern{
	{domain.ContractApprenticeship, []string{"apprenticeship", "apprentissage", "lehre", "lehrstelle", "lehrling"}},
	{domain.ContractInternship, []string{"internship", "praktikum", "stage", "stagiaire", "trainee"}},
	{domain.ContractTemporary, []string{"temporary", "temp ", "temporär", "intérim", "interim"}},
	{domain.ContractContract, []string{"contract", "freelance", "befristet", "cdd", "contrat à durée déterminée"}},
	{domain.ContractPartTime, []string{"part-time", "part time", "teilzeit", "temps partiel", "50%", "60%", "70%", "80%", "90%"}},
	{domain.ContractFullTime, []string{"full-time", "full time", "100%", "vollzeit", "temps plein", "festanstellung", "unbefristet", "cdi", "permanent"}},
}

var (
	salaryRangeRe  = regexp.MustCompile(`(?i)(\d[\d.,']*)\s*k?\s*[-–—]+\s*(\d[\d.,']*)\s*k?`)
	salarySingleRe = regexp.MustCompile(`(?i)(\d[\d.,']+)\s*k?`)
	currencyRe     = regexp.MustCompile(`(?i)\b(CHF|EUR|USD|GBP|€|\$|£)\b`)
)

var currencySymbolMap = map[string]string{
	"€":   "EUR",
	"$":   "USD",
	"£":   "GBP",
	"chf": "CHF",
	"eur": "EUR",
	"usd": "USD",
	"gbp": "GBP",
}

// Salary converts salary_original into salary_min_chf/salary_max_chf,
// annualized, skipping entirely when both are already set.
func Salary(j *domain.RawJob) {
	if j.SalaryMinCHF != nil && j.SalaryMaxCHF != nil {
		return
	}

	min, max := j.SalaryMinCHF, j.SalaryMaxCHF
	currency := j.SalaryCurrency

	if j.SalaryOriginal != "" && min == nil && max == nil {
		parsedMin, parsedMax, parsedCurrency := parseSalaryString(j.SalaryOriginal)
		min, max = parsedMin, parsedMax
		if parsedCurrency != "" && currency == "" {
			currency = parsedCurrency
		}
	}

	if min == nil && max == nil {
		return
	}

	rate := 1.0
	if currency != "" {
		if r, ok := currencyToCHF[strings.ToUpper(currency)]; ok {
			rate = r
		}
	}

	multiplier := 1.0
	if j.SalaryPeriod != "" {
		if m, ok := periodMultiplier[j.SalaryPeriod]; ok {
			multiplier = m
		}
	}

	if min != nil && max != nil && *min > *max {
		min, max = max, min
	}

	if min != nil {
		v := int(float64(*min) * rate * multiplier)
		j.SalaryMinCHF = &v
	}
	if max != nil {
		v := int(float64(*max) * rate * multiplier)
		j.SalaryMaxCHF = &v
	}
}

func parseSalaryString(text string) (min, max *int, currency string) {
	if m := currencyRe.FindStringSubmatch(text); m != nil {
		raw := m[1]
		if mapped, ok := currencySymbolMap[strings.ToLower(raw)]; ok {
			currency = mapped
		} else {
			currency = strings.ToUpper(raw)
		}
	}

	if m := salaryRangeRe.FindStringSubmatch(text); m != nil {
		lo := parseNumber(m[1], text)
		hi := parseNumber(m[2], text)
		return lo, hi, currency
	}

	if m := salarySingleRe.FindStringSubmatch(text); m != nil {
		v := parseNumber(m[1], text)
		return v, v, currency
	}

	return nil, nil, currency
}

func parseNumber(raw, context string) *int {
	if raw == "" {
		return nil
	}
	cleaned := strings.NewReplacer(",", "", ".", "", "'", "").Replace(strings.TrimSpace(raw))
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	if strings.Contains(strings.ToLower(context), "k") && value < 1000 {
		value *= 1000
	}
	v := int(value)
	return &v
}

// Language detects title+description language using whatlanggo, accepting
// only the four working languages and only above the confidence floor.
func Language(j *domain.RawJob) {
	if j.Language != "" {
		return
	}

	text := strings.TrimSpace(j.Title + " " + j.Description)
	if len(text) < 50 {
		return
	}

	info := whatlanggo.Detect(text)
	if info.Confidence < 0.7 {
		return
	}

	lang := mapWhatlangLanguage(info.Lang)
	if lang == "" {
		return
	}
	j.Language = lang
}

func mapWhatlangLanguage(l whatlanggo.Lang) domain.Language {
	switch l {
	case whatlanggo.Deu:
		return domain.LanguageDE
	case whatlanggo.Fra:
		return domain.LanguageFR
	case whatlanggo.Eng:
		return domain.LanguageEN
	case whatlanggo.Ita:
		return domain.LanguageIT
	default:
		return ""
	}
}

// Seniority infers a level from the lowercased title, most senior first.
func Seniority(j *domain.RawJob) {
	if j.Seniority != "" {
		return
	}

	title := strings.ToLower(j.Title)
	if title == "" {
		return
	}

	for _, p := range seniorityPatterns {
		for _, kw := range p.keywords {
			if strings.Contains(title, kw) {
				j.Seniority = p.level
				return
			}
		}
	}
}

// ContractType infers a contract type from the first non-empty of
// employment_type, title, description_snippet, checked in that priority
// order and in isolation from one another.
func ContractType(j *domain.RawJob) {
	if j.ContractType != "" {
		return
	}

	candidates := []string{j.EmploymentType, j.Title, j.DescriptionSnippet}
	var text string
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			text = strings.ToLower(c)
			break
		}
	}
	if text == "" {
		return
	}

	for _, p := range contractPatterns {
		for _, kw := range p.keywords {
			if strings.Contains(text, kw) {
				j.ContractType = p.kind
				return
			}
		}
	}
}

// Normalize runs every enrichment step over a raw job, in the order the
// pipeline has always applied them: salary, language, seniority, contract
// type.
func Normalize(j *domain.RawJob) {
	Salary(j)
	Language(j)
	Seniority(j)
	ContractType(j)
}
