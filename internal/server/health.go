package server

import (
	"context"
	"net/http"
	"time"

	"student-records/internal/common/logger"
)

// Pinger checks the liveness of one backing dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports the health of the service and its stores.
type HealthHandler struct {
	checks map[string]Pinger
	logger logger.Logger
}

func NewHealthHandler(checks map[string]Pinger, log logger.Logger) *HealthHandler {
	return &HealthHandler{checks: checks, logger: log}
}

// Healthz pings every dependency and returns 503 when any is down.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, pinger := range h.checks {
		if err := pinger.Ping(ctx); err != nil {
			h.logger.Warn("health check failed", map[string]interface{}{
				"dependency": name,
				"error":      err.Error(),
			})
			results[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "up"
	}

	body := map[string]interface{}{
		"status":       statusWord(status),
		"dependencies": results,
	}
	writeJSON(w, status, body)
}

func statusWord(status int) string {
	if status == http.StatusOK {
		return "healthy"
	}
	return "degraded"
}
