package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tako0614/bunkarium-ranking/internal/middleware"
)

// HealthChecker defines the interface for components that can be health checked.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandlers provides health and readiness check endpoints for
// Kubernetes probes.
type HealthHandlers struct {
	// exposureChecker verifies the exposure backend (optional).
	exposureChecker HealthChecker
}

// NewHealthHandlers creates a new health check handler. The checker may be
// nil when the in-memory exposure provider is used.
func NewHealthHandlers(exposureChecker HealthChecker) *HealthHandlers {
	return &HealthHandlers{exposureChecker: exposureChecker}
}

// HealthResponse represents the JSON response for health checks.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// Health handles GET /health (liveness probe).
// Returns 200 if the application is running and can serve requests.
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	response := HealthResponse{
		Status:    "healthy",
		Checks:    map[string]string{"runtime": "ok"},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	writeJSON(w, http.StatusOK, response)
}

// Ready handles GET /ready (readiness probe). The ranking core is pure
// computation, so readiness only covers the optional exposure backend.
func (h *HealthHandlers) Ready(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	response := HealthResponse{
		Status:    "ready",
		Checks:    map[string]string{},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	status := http.StatusOK
	if h.exposureChecker != nil {
		if err := h.exposureChecker.HealthCheck(r.Context()); err != nil {
			response.Status = "not_ready"
			response.Checks["exposures"] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			response.Checks["exposures"] = "ok"
		}
	}

	writeJSON(w, status, response)
}
