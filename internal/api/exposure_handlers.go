package api

import (
	"net/http"
	"strings"

	"github.com/tako0614/bunkarium-ranking/internal/exposure"
	"github.com/tako0614/bunkarium-ranking/internal/middleware"
)

// ExposureHandlers serves the per-user recent cluster exposure counts
// backing the diversity/novelty score.
type ExposureHandlers struct {
	provider exposure.Provider
}

// NewExposureHandlers creates a new ExposureHandlers instance.
func NewExposureHandlers(provider exposure.Provider) *ExposureHandlers {
	return &ExposureHandlers{provider: provider}
}

// exposureResponse is the JSON body for exposure reads.
type exposureResponse struct {
	UserID    string         `json:"user_id"`
	Exposures map[string]int `json:"exposures"`
}

// Get handles GET /v1/exposures/{user} - returns the user's recent
// cluster exposure counts.
func (h *ExposureHandlers) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	userID := strings.TrimPrefix(r.URL.Path, "/v1/exposures/")
	if userID == "" || strings.Contains(userID, "/") {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "User ID is required")
		return
	}

	exposures, err := h.provider.RecentClusterExposures(r.Context(), userID)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to load exposures")
		return
	}

	writeJSON(w, http.StatusOK, exposureResponse{
		UserID:    userID,
		Exposures: exposures,
	})
}
