// Package rerank implements the diversity-aware reranking engine. Given a
// deterministically sorted, scored candidate list it produces the final
// ordered subset under a soft per-cluster cap and an exploration quota,
// using either greedy maximal marginal relevance (MMR) or determinantal
// point process (DPP) sampling. Everything here is reproducible: the only
// randomness is the seeded generator, and all iteration orders are fixed.
package rerank

import (
	"math"

	"github.com/tako0614/bunkarium-ranking/internal/scoring"
	"github.com/tako0614/bunkarium-ranking/internal/similarity"
)

// Strategy identifies the reranking strategy used for a call.
type Strategy string

// Reranking strategies.
const (
	StrategyMMR  Strategy = "MMR"
	StrategyDPP  Strategy = "DPP"
	StrategyNone Strategy = "NONE"
)

// Exploration score blend over DNS and final score.
const (
	explorationDNSWeight   = 0.7
	explorationScoreWeight = 0.3
)

// Item is the reranker's view of a scored candidate. Items must arrive in
// total sort order: finalScore desc, createdAt desc, itemKey asc.
type Item struct {
	Key        string
	ClusterID  string
	FinalScore float64
	DNS        float64
	Embedding  []float64
}

// Params carries the effective reranking parameters for one call.
type Params struct {
	// TargetSize is N, the requested output size before availability.
	TargetSize int

	// ClusterCapK is the soft per-cluster cap.
	ClusterCapK int

	// ExplorationBudget is the fraction of positions reserved for
	// under-exposed clusters.
	ExplorationBudget float64

	// Lambda is the MMR similarity penalty.
	Lambda float64

	// Seed feeds the deterministic generator for slot placement.
	Seed string

	// ClusterExposures maps clusterID to its recent exposure count.
	ClusterExposures map[string]int

	// NewClusterMaxExposure is the exposure ceiling for exploration
	// eligibility.
	NewClusterMaxExposure int

	// DiversityWeight scales similarity inside the DPP kernel.
	DiversityWeight float64

	// Temperature tempers DPP determinant gains.
	Temperature float64
}

// Report summarizes the constraints applied during one reranking call.
type Report struct {
	UsedStrategy               Strategy        `json:"used_strategy"`
	CapAppliedCount            int             `json:"cap_applied_count"`
	ExplorationSlotsRequested  int             `json:"exploration_slots_requested"`
	ExplorationSlotsFilled     int             `json:"exploration_slots_filled"`
	EffectiveDiversityCapK     int             `json:"effective_diversity_cap_k"`
	EffectiveExplorationBudget float64         `json:"effective_exploration_budget"`
	EffectiveWeights           scoring.Weights `json:"effective_weights"`
}

// Selection is one picked item plus whether it filled an exploration slot.
type Selection struct {
	Item        Item
	Exploration bool
}

// itemSimilarity returns a similarity in [0, 1]: the normalized cosine of
// the embeddings when both exist, otherwise cluster identity.
func itemSimilarity(a, b Item) float64 {
	if len(a.Embedding) > 0 && len(b.Embedding) > 0 {
		return similarity.Normalized(similarity.Cosine(a.Embedding, b.Embedding))
	}
	return similarity.Cluster(a.ClusterID, b.ClusterID)
}

// normalize bounds the params that every strategy depends on.
func (p Params) normalize() Params {
	if p.ClusterCapK < 1 {
		p.ClusterCapK = 1
	}
	if p.ExplorationBudget < 0 || math.IsNaN(p.ExplorationBudget) {
		p.ExplorationBudget = 0
	}
	if p.Lambda < 0 || math.IsNaN(p.Lambda) {
		p.Lambda = 0
	}
	return p
}

// baseReport seeds a report with the effective constraint values.
func baseReport(strategy Strategy, p Params) Report {
	return Report{
		UsedStrategy:               strategy,
		EffectiveDiversityCapK:     p.ClusterCapK,
		EffectiveExplorationBudget: p.ExplorationBudget,
	}
}

// targetSize bounds N by availability.
func targetSize(target, available int) int {
	if target < 0 {
		target = 0
	}
	if target > available {
		target = available
	}
	return target
}
