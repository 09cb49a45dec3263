package orchestrator

import (
	"context"
	"fmt"

	"github.com/chjobfeed/ingest/internal/domain"
	"github.com/chjobfeed/ingest/internal/normalize"
	"github.com/chjobfeed/ingest/internal/repository"
)

type recordOutcome string

const (
	outcomeNew     recordOutcome = "new"
	outcomeUpdated recordOutcome = "updated"
	outcomeDupe    recordOutcome = "dupe"
)

// persistRecord normalizes, deduplicates and upserts a single raw job
// inside the caller's savepoint. Returns which of the three outcomes the
// record landed in, for the run summary's counters.
func (o *Orchestrator) persistRecord(ctx context.Context, repo repository.JobRepository, raw domain.RawJob) (recordOutcome, error) {
	normalize.Normalize(&raw)
	job := toJob(raw)

	canonical, isDupe, err := o.dedup.CheckFuzzy(ctx, job)
	if err != nil {
		return "", fmt.Errorf("check fuzzy duplicate: %w", err)
	}

	isNew, err := repo.Upsert(ctx, job)
	if err != nil {
		return "", fmt.Errorf("upsert job: %w", err)
	}

	if isDupe {
		if err := repo.MarkDuplicate(ctx, job.Hash, canonical); err != nil {
			return "", fmt.Errorf("mark duplicate: %w", err)
		}
		return outcomeDupe, nil
	}
	if isNew {
		if err := o.publisher.PublishNewJob(ctx, *job); err != nil {
			o.logger.WarnContext(ctx, "publish new job failed", "hash", job.Hash, "error", err)
		}
		return outcomeNew, nil
	}
	return outcomeUpdated, nil
}

// toJob converts an adapter's RawJob into the canonical Job row, computing
// the primary hash and turning RawJob's "" meaning unset into nil pointers.
func toJob(raw domain.RawJob) *domain.Job {
	tags := raw.Tags
	if len(tags) > domain.MaxTags {
		tags = tags[:domain.MaxTags]
	}

	snippet := raw.DescriptionSnippet
	if snippet == "" && raw.Description != "" {
		snippet = domain.Truncate(raw.Description, domain.SnippetLength)
	}

	return &domain.Job{
		Hash:               domain.ComputeHash(raw.Title, raw.Company, raw.URL),
		Source:             raw.Source,
		Title:              raw.Title,
		Company:            raw.Company,
		URL:                raw.URL,
		Location:           nonEmpty(raw.Location),
		Canton:             nonEmpty(raw.Canton),
		Description:        nonEmpty(raw.Description),
		DescriptionSnippet: nonEmpty(snippet),
		SalaryMinCHF:       raw.SalaryMinCHF,
		SalaryMaxCHF:       raw.SalaryMaxCHF,
		SalaryOriginal:     nonEmpty(raw.SalaryOriginal),
		SalaryCurrency:     nonEmpty(raw.SalaryCurrency),
		SalaryPeriod:       salaryPeriodPtr(raw.SalaryPeriod),
		Language:           languagePtr(raw.Language),
		Seniority:          seniorityPtr(raw.Seniority),
		ContractType:       contractTypePtr(raw.ContractType),
		Remote:             raw.Remote,
		Tags:               tags,
		Logo:               nonEmpty(raw.Logo),
		EmploymentType:     nonEmpty(raw.EmploymentType),
	}
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func salaryPeriodPtr(p domain.SalaryPeriod) *domain.SalaryPeriod {
	if p == "" {
		return nil
	}
	return &p
}

func languagePtr(l domain.Language) *domain.Language {
	if l == "" {
		return nil
	}
	return &l
}

func seniorityPtr(s domain.Seniority) *domain.Seniority {
	if s == "" {
		return nil
	}
	return &s
}

func contractTypePtr(c domain.ContractType) *domain.ContractType {
	if c == "" {
		return nil
	}
	return &c
}
