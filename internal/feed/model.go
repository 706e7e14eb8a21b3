// Package feed orchestrates the scoring and diversity-aware reranking
// pipeline for one ranking call: policy filtering, score blending, the
// deterministic primary sort, strategy dispatch, reason-code derivation,
// and the parameter fingerprint.
package feed

import (
	"time"

	"github.com/tako0614/bunkarium-ranking/internal/rerank"
	"github.com/tako0614/bunkarium-ranking/internal/scoring"
)

// Identity constants reported on every response.
const (
	// AlgorithmID identifies the ranking algorithm family.
	AlgorithmID = "bunkarium-feed"

	// AlgorithmVersion is the implementation version.
	AlgorithmVersion = "1.0.0"

	// ContractVersion is the conformance contract version this
	// implementation satisfies.
	ContractVersion = "1"
)

// Features carries the precomputed feature record for a candidate. Every
// value here is computed by upstream collaborators; the core never
// recomputes features.
type Features struct {
	// CVS holds the cultural-value sub-signals.
	CVS scoring.CVSComponents `json:"cvs"`

	// Relevance is the personal relevance score in [0, 1], when known.
	Relevance *float64 `json:"relevance,omitempty"`

	// RelevanceSource tags how the relevance score was derived:
	// liked, following, or saved.
	RelevanceSource string `json:"relevance_source,omitempty"`

	// Embedding is the optional content embedding vector.
	Embedding []float64 `json:"embedding,omitempty"`

	// SupportDensity is an optional explicit support-density hint.
	SupportDensity *float64 `json:"support_density,omitempty"`

	// ViewCount is the optional qualified view count.
	ViewCount *int `json:"view_count,omitempty"`
}

// Candidate is one item under consideration for the feed. Candidates are
// immutable for the duration of a ranking call.
type Candidate struct {
	ItemKey     string    `json:"item_key"`
	Type        string    `json:"type"`
	ClusterID   string    `json:"cluster_id"`
	CreatedAt   time.Time `json:"created_at"`
	Moderated   bool      `json:"moderated"`
	SpamSuspect bool      `json:"spam_suspect"`
	HardBlocked bool      `json:"hard_blocked"`
	Features    Features  `json:"features"`
}

// UserState carries the per-user inputs to a ranking call. Reputation and
// activity fields owned by external collaborators ride along untouched.
type UserState struct {
	// UserID identifies the user, used by exposure providers at the
	// boundary.
	UserID string `json:"user_id,omitempty"`

	// DiversitySlider is the user's diversity preference in [0, 1].
	DiversitySlider float64 `json:"diversity_slider"`

	// RecentClusterExposures maps clusterID to its recent exposure
	// count for this user.
	RecentClusterExposures map[string]int `json:"recent_cluster_exposures,omitempty"`
}

// RankRequest is the input to one ranking call.
type RankRequest struct {
	ContractVersion string      `json:"contract_version"`
	RequestID       string      `json:"request_id"`
	RequestSeed     string      `json:"request_seed,omitempty"`
	User            UserState   `json:"user"`
	Candidates      []Candidate `json:"candidates"`
	Surface         string      `json:"surface"`
	Overrides       *Overrides  `json:"overrides,omitempty"`
}

// RankedItem is one entry of the final ordered feed slice.
type RankedItem struct {
	ItemKey        string            `json:"item_key"`
	Type           string            `json:"type"`
	ClusterID      string            `json:"cluster_id"`
	FinalScore     float64           `json:"final_score"`
	ReasonCodes    []string          `json:"reason_codes"`
	ScoreBreakdown scoring.Breakdown `json:"score_breakdown"`
}

// RankResponse is the output of one ranking call.
type RankResponse struct {
	RequestID         string        `json:"request_id"`
	AlgorithmID       string        `json:"algorithm_id"`
	AlgorithmVersion  string        `json:"algorithm_version"`
	ContractVersion   string        `json:"contract_version"`
	ParamsFingerprint string        `json:"params_fingerprint"`
	VariantID         string        `json:"variant_id,omitempty"`
	Items             []RankedItem  `json:"items"`
	Constraints       rerank.Report `json:"constraints"`
}
