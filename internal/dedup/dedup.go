// Package dedup computes the fuzzy identity of a job (invariant to
// seniority words, gender markers and legal company suffixes) and drives
// the fuzzy/semantic duplicate lookups against the repository.
package dedup

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/chjobfeed/ingest/internal/domain"
)

var companySuffixes = map[string]bool{
	"ag": true, "gmbh": true, "sa": true, "sarl": true, "sàrl": true,
	"ltd": true, "inc": true, "corp": true, "se": true, "plc": true,
	"srl": true, "co": true, "llc": true, "pty": true, "bv": true, "nv": true,
}

// seniorityStrip words are removed from the title before hashing so that
// "Senior Backend Engineer" and "Backend Engineer" fuzzy-match.
var seniorityStrip = []string{
	"senior", "junior", "lead", "head", "intern", "trainee", "sr.", "jr.", "sr", "jr",
	"(m/f/d)", "(m/w/d)", "(f/m/d)", "(w/m/d)", "(m/f/x)", "(w/m/x)", "(all genders)",
	"m/f/d", "m/w/d", "f/m/d", "w/m/d",
}

var (
	punctRe  = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	spacesRe = regexp.MustCompile(`\s+`)
)

// FuzzyHash computes md5(normalized_title|normalized_company), the stable
// cross-source identifier invariant to seniority, gender markers, and legal
// suffixes (domain.Job invariant vi).
func FuzzyHash(title, company string) string {
	raw := normalizeTitle(title) + "|" + normalizeCompany(company)
	sum := md5.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func normalizeTitle(title string) string {
	t := strings.ToLower(strings.TrimSpace(title))
	for _, word := range seniorityStrip {
		t = strings.ReplaceAll(t, word, " ")
	}
	t = punctRe.ReplaceAllString(t, " ")
	return strings.TrimSpace(spacesRe.ReplaceAllString(t, " "))
}

func normalizeCompany(company string) string {
	c := strings.ToLower(strings.TrimSpace(company))
	c = punctRe.ReplaceAllString(c, " ")

	words := strings.Fields(c)
	kept := words[:0]
	for _, w := range words {
		if !companySuffixes[w] {
			kept = append(kept, w)
		}
	}
	return strings.TrimSpace(strings.Join(kept, " "))
}

// Finder is the persistence boundary the Deduplicator depends on. The
// concrete implementation queries the jobs table (fuzzy) or pgvector
// (semantic).
type Finder interface {
	// FindFuzzyDuplicate returns the canonical hash of an existing active
	// job sharing fuzzyHash but reported by a different source. The oldest
	// matching row wins; ("", false, nil) if none found.
	FindFuzzyDuplicate(ctx context.Context, fuzzyHash, source string) (canonicalHash string, found bool, err error)

	// FindSemanticDuplicate returns the canonical hash of the oldest active,
	// non-duplicate job whose embedding cosine distance to job's embedding
	// is below 1-threshold. ("", false, nil) if none found or job has no
	// embedding.
	FindSemanticDuplicate(ctx context.Context, job *domain.Job, threshold float64) (canonicalHash string, found bool, err error)
}

// Deduplicator applies the fuzzy layer inline during ingestion; the
// semantic layer runs separately as a maintenance sweep (spec §4.J) since it
// needs an embedding that does not exist yet at insert time.
type Deduplicator struct {
	finder Finder
}

func New(finder Finder) *Deduplicator {
	return &Deduplicator{finder: finder}
}

// CheckFuzzy computes job's fuzzy hash and, if an active cross-source match
// exists, returns the canonical hash to record as duplicate_of.
func (d *Deduplicator) CheckFuzzy(ctx context.Context, job *domain.Job) (canonicalHash string, isDuplicate bool, err error) {
	job.FuzzyHash = FuzzyHash(job.Title, job.Company)
	return d.finder.FindFuzzyDuplicate(ctx, job.FuzzyHash, job.Source)
}
