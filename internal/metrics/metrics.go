// Package metrics declares the Prometheus series the ingestion worker
// exposes on /metrics under the "ingest" namespace.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// FetchDuration times a single adapter's fetch call.
	FetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ingest",
		Name:      "fetch_duration_seconds",
		Help:      "Duration of a single adapter's fetch_jobs call.",
		Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"source"})

	// JobsUpsertedTotal counts persisted records by outcome: new, updated,
	// dupe, error.
	JobsUpsertedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ingest",
		Name:      "jobs_upserted_total",
		Help:      "Total jobs processed by the repository, by outcome.",
	}, []string{"source", "outcome"})

	RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ingest",
		Name:      "run_duration_seconds",
		Help:      "Duration of one orchestrator run (fetch + persist).",
		Buckets:   prometheus.DefBuckets,
	})

	// CircuitBreakerState: 0=closed 1=half_open 2=open.
	CircuitBreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "ingest",
		Name:      "circuit_breaker_state",
		Help:      "Circuit breaker state per source. 0=closed 1=half_open 2=open.",
	}, []string{"source"})

	ComplianceBlocksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ingest",
		Name:      "compliance_blocks_total",
		Help:      "Total report_block events, by source.",
	}, []string{"source"})

	ComplianceKillSwitchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ingest",
		Name:      "compliance_kill_switch_total",
		Help:      "Total times a source was auto-disabled by the kill switch.",
	}, []string{"source"})

	SemanticDedupMergedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ingest",
		Name:      "semantic_dedup_merged_total",
		Help:      "Total jobs deactivated by the semantic dedup sweep.",
	})

	URLHealthDeactivatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ingest",
		Name:      "url_health_deactivated_total",
		Help:      "Total jobs deactivated by the URL health check.",
	})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ingest",
		Name:      "http_request_duration_seconds",
		Help:      "Admin HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ingest",
		Name:      "http_requests_total",
		Help:      "Total admin HTTP requests, by method/path/status.",
	}, []string{"method", "path", "status"})
)

// Register registers all series with the default Prometheus registry. Call
// once at startup.
func Register() {
	prometheus.MustRegister(
		FetchDuration,
		JobsUpsertedTotal,
		RunDuration,
		CircuitBreakerState,
		ComplianceBlocksTotal,
		ComplianceKillSwitchTotal,
		SemanticDedupMergedTotal,
		URLHealthDeactivatedTotal,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// NewServer builds the standalone metrics HTTP server, separate from the
// admin/gin server so a metrics scraper never shares a port with readiness
// probes under load.
func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{Addr: addr, Handler: mux}
}
