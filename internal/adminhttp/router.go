// Package adminhttp is the one HTTP surface this core owns: a read-only
// operator view over liveness, readiness, circuit breaker state and source
// compliance status, plus the Prometheus scrape endpoint. There is no public
// API here — job data is consumed downstream by the matching pipeline
// directly from Postgres.
package adminhttp

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	sloggin "github.com/samber/slog-gin"

	"github.com/chjobfeed/ingest/internal/breaker"
	"github.com/chjobfeed/ingest/internal/compliance"
	"github.com/chjobfeed/ingest/internal/health"
)

// NewRouter builds the admin gin engine. checker, breakers and complianceEngine
// are all read-only dependencies; nothing on this surface mutates state.
func NewRouter(logger *slog.Logger, checker *health.Checker, breakers *breaker.Registry, complianceEngine *compliance.Engine) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(securityHeaders())
	r.Use(sloggin.New(logger))
	r.Use(recordMetrics())

	h := &handlers{checker: checker, breakers: breakers, compliance: complianceEngine, logger: logger}

	r.GET("/healthz", h.liveness)
	r.GET("/readyz", h.readiness)
	r.GET("/breakers", h.breakerStatus)
	r.GET("/compliance", h.complianceStatus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
