package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tako0614/bunkarium-ranking/internal/exposure"
	"github.com/tako0614/bunkarium-ranking/internal/feed"
	"github.com/tako0614/bunkarium-ranking/internal/middleware"
)

// RankHandlers holds dependencies for the ranking HTTP handlers.
type RankHandlers struct {
	ranker        *feed.Ranker
	exposures     exposure.Provider
	maxCandidates int
}

// NewRankHandlers creates a new RankHandlers instance. The exposure
// provider fills recent cluster exposures for requests that do not carry
// them; it may be nil.
func NewRankHandlers(ranker *feed.Ranker, exposures exposure.Provider, maxCandidates int) *RankHandlers {
	return &RankHandlers{
		ranker:        ranker,
		exposures:     exposures,
		maxCandidates: maxCandidates,
	}
}

// Rank handles POST /v1/rank. It decodes a full ranking request, fills
// missing cluster exposures from the provider, and returns the ranked
// feed slice.
func (h *RankHandlers) Rank(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	var req feed.RankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "Invalid JSON body")
		return
	}

	if req.ContractVersion != "" && req.ContractVersion != feed.ContractVersion {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeContractMismatch)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeContractMismatch,
			"Unsupported contract version "+req.ContractVersion)
		return
	}

	if h.maxCandidates > 0 && len(req.Candidates) > h.maxCandidates {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeTooManyCandidates)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeTooManyCandidates,
			"Candidate set exceeds the configured limit")
		return
	}

	// The request ID doubles as the deterministic seed fallback, so make
	// sure there always is one.
	if req.RequestID == "" {
		req.RequestID = middleware.GetRequestID(r.Context())
	}

	if req.User.RecentClusterExposures == nil && h.exposures != nil && req.User.UserID != "" {
		exposures, err := h.exposures.RecentClusterExposures(r.Context(), req.User.UserID)
		if err != nil {
			slog.Warn("failed to load cluster exposures, ranking without them",
				"user_id", req.User.UserID,
				"error", err)
		} else {
			req.User.RecentClusterExposures = exposures
		}
	}

	resp, err := h.ranker.Rank(r.Context(), req)
	if err != nil {
		if errors.Is(err, feed.ErrMalformedCandidate) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeMalformedCandidate)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeMalformedCandidate, err.Error())
			return
		}
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		slog.Error("ranking call failed", "request_id", req.RequestID, "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Ranking failed")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
