package adminhttp

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/chjobfeed/ingest/internal/breaker"
	"github.com/chjobfeed/ingest/internal/compliance"
	"github.com/chjobfeed/ingest/internal/health"
)

type handlers struct {
	checker    *health.Checker
	breakers   *breaker.Registry
	compliance *compliance.Engine
	logger     *slog.Logger
}

func (h *handlers) liveness(c *gin.Context) {
	c.JSON(http.StatusOK, h.checker.Liveness(c.Request.Context()))
}

func (h *handlers) readiness(c *gin.Context) {
	result := h.checker.Readiness(c.Request.Context())
	status := http.StatusOK
	if result.Status != "up" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, result)
}

// breakerStatus lists every circuit breaker the orchestrator has created so
// far, sorted by source for a stable diff between scrapes.
func (h *handlers) breakerStatus(c *gin.Context) {
	statuses := h.breakers.All()
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Source < statuses[j].Source })
	c.JSON(http.StatusOK, gin.H{"breakers": statuses})
}

func (h *handlers) complianceStatus(c *gin.Context) {
	statuses, err := h.compliance.GetComplianceStatus(c.Request.Context())
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "compliance status lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sources": statuses})
}
