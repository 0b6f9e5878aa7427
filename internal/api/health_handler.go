package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ignite/crm-pipeline/internal/pkg/httputil"
)

// healthStatus is the /health payload.
type healthStatus struct {
	Status string            `json:"status"` // "healthy", "degraded"
	Checks map[string]string `json:"checks"`
}

// HealthCheck probes the database and the log store. The API stays up
// when the log store is down (campaign runs degrade to the synchronous
// path), so a Redis failure reports "degraded" rather than unhealthy.
//
//	GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	status := "healthy"

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			checks["database"] = "down: " + err.Error()
			status = "degraded"
		} else {
			checks["database"] = "up"
		}
	} else {
		checks["database"] = "not_configured"
	}

	if h.log != nil {
		if err := h.log.Ping(ctx); err != nil {
			checks["stream"] = "down: " + err.Error()
			status = "degraded"
		} else {
			checks["stream"] = "up"
		}
	} else {
		checks["stream"] = "not_configured"
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	httputil.JSON(w, code, healthStatus{Status: status, Checks: checks})
}
