// seed inserts the source_compliance row for every known adapter into the
// local dev database, so the compliance gate has something to read and the
// scheduler has sources to fetch from on a fresh database.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/chjobfeed/ingest/internal/infrastructure/postgres"
)

type sourceSpec struct {
	key                string
	method             string
	rateLimitSeconds   float64
	maxRequestsPerHour int
	autoDisableOnBlock bool
}

var sources = []sourceSpec{
	{"jobicy", "api", 1, 120, true},
	{"arbeitnow", "api", 1, 120, true},
	{"remotive", "api", 1, 120, true},
	{"jooble", "api", 1, 60, true},
	{"publicjobs", "api", 1, 120, true},
	{"weworkremotely", "api", 2, 60, true},
	{"ostjob", "scraping", 3, 40, true},
	{"zentraljob", "scraping", 3, 40, true},
	{"schuljobs", "scraping", 5, 20, true},
	{"myscience", "scraping", 5, 20, true},
}

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	var inserted, skipped int
	for _, s := range sources {
		tag, err := pool.Exec(ctx, `
			INSERT INTO source_compliance (
				source_key, method, is_allowed, robots_txt_ok, rate_limit_seconds,
				max_requests_per_hour, auto_disable_on_block, consecutive_blocks
			) VALUES ($1, $2, true, true, $3, $4, $5, 0)
			ON CONFLICT (source_key) DO NOTHING`,
			s.key, s.method, s.rateLimitSeconds, s.maxRequestsPerHour, s.autoDisableOnBlock,
		)
		if err != nil {
			log.Fatalf("insert source %s: %v", s.key, err)
		}
		if tag.RowsAffected() > 0 {
			inserted++
		} else {
			skipped++
		}
	}

	fmt.Printf("Seed complete: %d inserted, %d already present\n", inserted, skipped)
}
