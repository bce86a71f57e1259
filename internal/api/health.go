package api

import (
	"context"
	"net/http"
)

// HealthChecker reports whether a dependency can serve requests.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness probes. Probes sit
// outside the token gate so the orchestrator can reach them.
type HealthHandler struct {
	checks map[string]HealthChecker
}

// NewHealthHandler creates a HealthHandler over the named dependency
// checks. Nil checkers are ignored, so optional dependencies can be
// passed unconditionally.
func NewHealthHandler(checks map[string]HealthChecker) *HealthHandler {
	filtered := make(map[string]HealthChecker, len(checks))
	for name, check := range checks {
		if check != nil {
			filtered[name] = check
		}
	}
	return &HealthHandler{checks: filtered}
}

// Live answers 200 whenever the process is running.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready answers 200 when every dependency check passes, 503 otherwise,
// with the per-dependency outcome in the body.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	results := make(map[string]string, len(h.checks))

	for name, check := range h.checks {
		if err := check.Health(r.Context()); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}

	writeJSON(w, status, results)
}
