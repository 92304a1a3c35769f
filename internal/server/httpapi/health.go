package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/server/services"
)

// HealthHandler exposes liveness and readiness endpoints.
type HealthHandler struct {
	readiness *services.ReadinessService
}

func NewHealthHandler(readiness *services.ReadinessService) *HealthHandler {
	return &HealthHandler{readiness: readiness}
}

// Healthz is liveness only: a degraded server is alive by definition.
func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// Ready returns the per-dependency report, 200 when the durable store
// is up and 503 otherwise.
func (h *HealthHandler) Ready(c *gin.Context) {
	report := h.readiness.Report(c.Request.Context())
	status := http.StatusOK
	if !report.Ready {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}
