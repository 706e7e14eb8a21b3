package feed

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/tako0614/bunkarium-ranking/internal/explain"
	"github.com/tako0614/bunkarium-ranking/internal/fingerprint"
	"github.com/tako0614/bunkarium-ranking/internal/rerank"
	"github.com/tako0614/bunkarium-ranking/internal/scoring"
)

// Parameters holds the full ranking configuration for a call. Values are
// merged in layers: defaults, the optional calibration file, and finally
// per-request overrides.
type Parameters struct {
	// Strategy selects the reranking strategy: MMR or DPP.
	Strategy string `json:"strategy"`

	// Weights is the base score blend before slider adjustment.
	Weights scoring.Weights `json:"weights"`

	// CVSWeights blends the cultural-value sub-signals.
	CVSWeights scoring.CVSWeights `json:"cvs_weights"`

	// DiversityCapN is the target result size.
	DiversityCapN int `json:"diversity_cap_n"`

	// DiversityCapK is the base soft per-cluster cap.
	DiversityCapK int `json:"diversity_cap_k"`

	// ExplorationBudget is the base fraction of exploration positions.
	ExplorationBudget float64 `json:"exploration_budget"`

	// Lambda is the MMR similarity penalty.
	Lambda float64 `json:"lambda"`

	// ClusterNoveltyFactor dampens cluster novelty per exposure.
	ClusterNoveltyFactor float64 `json:"cluster_novelty_factor"`

	// TimeHalfLifeHours is the recency half-life.
	TimeHalfLifeHours float64 `json:"time_half_life_hours"`

	// NewClusterMaxExposure is the exposure ceiling for exploration
	// eligibility.
	NewClusterMaxExposure int `json:"new_cluster_max_exposure"`

	// DPPDiversityWeight scales similarity inside the DPP kernel.
	DPPDiversityWeight float64 `json:"dpp_diversity_weight"`

	// DPPTemperature tempers DPP determinant gains.
	DPPTemperature float64 `json:"dpp_temperature"`

	// Thresholds controls the explain pass rules.
	Thresholds explain.Thresholds `json:"thresholds"`

	// FingerprintAlgorithm selects the parameter fingerprint digest.
	FingerprintAlgorithm string `json:"fingerprint_algorithm"`

	// VariantID optionally tags an experiment variant on responses.
	VariantID string `json:"variant_id,omitempty"`
}

// DefaultParameters returns the standard ranking configuration.
func DefaultParameters() Parameters {
	return Parameters{
		Strategy:              string(rerank.StrategyMMR),
		Weights:               scoring.DefaultWeights(),
		CVSWeights:            scoring.DefaultCVSWeights(),
		DiversityCapN:         50,
		DiversityCapK:         3,
		ExplorationBudget:     0.15,
		Lambda:                0.3,
		ClusterNoveltyFactor:  scoring.DefaultClusterNoveltyFactor,
		TimeHalfLifeHours:     scoring.DefaultTimeHalfLifeHours,
		NewClusterMaxExposure: 3,
		DPPDiversityWeight:    0.7,
		DPPTemperature:        1.0,
		Thresholds:            explain.DefaultThresholds(),
		FingerprintAlgorithm:  string(fingerprint.AlgorithmSHA256),
	}
}

// Overrides is the per-request partial parameter override accepted at the
// external boundary. Nil fields keep the configured value.
type Overrides struct {
	Strategy           *string             `json:"strategy,omitempty"`
	DiversityCapN      *int                `json:"diversity_cap_n,omitempty"`
	DiversityCapK      *int                `json:"diversity_cap_k,omitempty"`
	ExplorationBudget  *float64            `json:"exploration_budget,omitempty"`
	Lambda             *float64            `json:"lambda,omitempty"`
	Weights            *scoring.Weights    `json:"weights,omitempty"`
	Thresholds         *explain.Thresholds `json:"thresholds,omitempty"`
	DPPDiversityWeight *float64            `json:"dpp_diversity_weight,omitempty"`
	DPPTemperature     *float64            `json:"dpp_temperature,omitempty"`
	VariantID          *string             `json:"variant_id,omitempty"`
}

// Apply returns a copy of p with the non-nil override fields applied.
func (p Parameters) Apply(o *Overrides) Parameters {
	if o == nil {
		return p
	}
	if o.Strategy != nil {
		p.Strategy = *o.Strategy
	}
	if o.DiversityCapN != nil {
		p.DiversityCapN = *o.DiversityCapN
	}
	if o.DiversityCapK != nil {
		p.DiversityCapK = *o.DiversityCapK
	}
	if o.ExplorationBudget != nil {
		p.ExplorationBudget = *o.ExplorationBudget
	}
	if o.Lambda != nil {
		p.Lambda = *o.Lambda
	}
	if o.Weights != nil {
		p.Weights = *o.Weights
	}
	if o.Thresholds != nil {
		p.Thresholds = *o.Thresholds
	}
	if o.DPPDiversityWeight != nil {
		p.DPPDiversityWeight = *o.DPPDiversityWeight
	}
	if o.DPPTemperature != nil {
		p.DPPTemperature = *o.DPPTemperature
	}
	if o.VariantID != nil {
		p.VariantID = *o.VariantID
	}
	return p
}

// MergeCalibration merges calibration-file overrides into base. Only
// non-zero values from the override are applied, so partial calibration
// files degrade gracefully.
func MergeCalibration(base, override Parameters) Parameters {
	result := base

	if override.Strategy != "" {
		result.Strategy = override.Strategy
	}
	if override.Weights != (scoring.Weights{}) {
		result.Weights = override.Weights
	}
	if override.CVSWeights != (scoring.CVSWeights{}) {
		result.CVSWeights = override.CVSWeights
	}
	if override.DiversityCapN != 0 {
		result.DiversityCapN = override.DiversityCapN
	}
	if override.DiversityCapK != 0 {
		result.DiversityCapK = override.DiversityCapK
	}
	if override.ExplorationBudget != 0 {
		result.ExplorationBudget = override.ExplorationBudget
	}
	if override.Lambda != 0 {
		result.Lambda = override.Lambda
	}
	if override.ClusterNoveltyFactor != 0 {
		result.ClusterNoveltyFactor = override.ClusterNoveltyFactor
	}
	if override.TimeHalfLifeHours != 0 {
		result.TimeHalfLifeHours = override.TimeHalfLifeHours
	}
	if override.NewClusterMaxExposure != 0 {
		result.NewClusterMaxExposure = override.NewClusterMaxExposure
	}
	if override.DPPDiversityWeight != 0 {
		result.DPPDiversityWeight = override.DPPDiversityWeight
	}
	if override.DPPTemperature != 0 {
		result.DPPTemperature = override.DPPTemperature
	}
	if override.Thresholds != (explain.Thresholds{}) {
		result.Thresholds = override.Thresholds
	}
	if override.FingerprintAlgorithm != "" {
		result.FingerprintAlgorithm = override.FingerprintAlgorithm
	}
	if override.VariantID != "" {
		result.VariantID = override.VariantID
	}

	return result
}

// LoadCalibration loads ranking parameters from a JSON calibration file
// layered over the defaults. A missing or unreadable file returns the
// defaults with an error so startup can degrade gracefully.
func LoadCalibration(filePath string) (Parameters, error) {
	defaults := DefaultParameters()
	if filePath == "" {
		return defaults, nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return defaults, fmt.Errorf("failed to read calibration file: %w", err)
	}

	var override Parameters
	if err := json.Unmarshal(data, &override); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return defaults, fmt.Errorf("failed to parse calibration file: %w", err)
	}

	merged := MergeCalibration(defaults, override)
	slog.Info("loaded ranking calibration",
		"path", filePath,
		"strategy", merged.Strategy,
		"diversity_cap_n", merged.DiversityCapN,
		"diversity_cap_k", merged.DiversityCapK)
	return merged, nil
}
