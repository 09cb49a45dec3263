package domain

import "time"

// ScrapeMethod distinguishes a JSON/RSS API integration from an HTML/browser
// scraper — both are gated by the same compliance row, but only "scraping"
// sources are expected to trip robots_txt_ok concerns.
type ScrapeMethod string

const (
	MethodAPI      ScrapeMethod = "api"
	MethodScraping ScrapeMethod = "scraping"
)

// KillSwitchThreshold is the number of consecutive blocks after which a
// source with AutoDisableOnBlock is automatically disabled.
const KillSwitchThreshold = 3

// SourceCompliance is the per-source row ComplianceEngine owns exclusively.
type SourceCompliance struct {
	SourceKey   string
	Method      ScrapeMethod
	IsAllowed   bool
	RobotsTxtOK bool

	RateLimitSeconds   float64
	MaxRequestsPerHour int

	AutoDisableOnBlock bool
	ConsecutiveBlocks  int
	LastBlockedAt      *time.Time

	TOSReviewedAt *time.Time
	TOSNotes      *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanScrape is the in-memory form of the compliance gate: is_allowed AND
// robots_txt_ok. The DB-backed engine additionally fails closed on error.
func (s *SourceCompliance) CanScrape() bool {
	return s.IsAllowed && s.RobotsTxtOK
}
