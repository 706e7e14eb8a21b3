// Package scoring provides the per-candidate score components (PRS, CVS,
// DNS), the blended final score, and the diversity-slider weight
// adjustment. All functions are pure; every numeric edge case resolves to
// a finite, bounded value.
package scoring

import (
	"math"
	"time"
)

// Default DNS parameters.
const (
	// DefaultClusterNoveltyFactor dampens cluster novelty per recent exposure.
	DefaultClusterNoveltyFactor = 0.06

	// DefaultTimeHalfLifeHours is the half-life of the recency component.
	DefaultTimeHalfLifeHours = 72.0
)

// SpamPenalty is subtracted from the blended score for spam-suspect items.
const SpamPenalty = 0.5

// CVSComponents holds the cultural-value sub-signals, each precomputed
// upstream and expected in [0, 1].
type CVSComponents struct {
	Like       float64 `json:"like"`
	Context    float64 `json:"context"`
	Collection float64 `json:"collection"`
	Bridge     float64 `json:"bridge"`
	Sustain    float64 `json:"sustain"`
}

// CVSWeights holds the blend weights for the cultural-value sub-signals.
type CVSWeights struct {
	Like       float64 `json:"like"`
	Context    float64 `json:"context"`
	Collection float64 `json:"collection"`
	Bridge     float64 `json:"bridge"`
	Sustain    float64 `json:"sustain"`
}

// DefaultCVSWeights returns the default cultural-value blend. The weights
// sum to 1.0.
func DefaultCVSWeights() CVSWeights {
	return CVSWeights{
		Like:       0.35,
		Context:    0.25,
		Collection: 0.15,
		Bridge:     0.15,
		Sustain:    0.10,
	}
}

// Weights holds the top-level blend weights for the final score.
// After renormalization the three weights sum to 1.0 within tolerance.
type Weights struct {
	PRS float64 `json:"prs"`
	CVS float64 `json:"cvs"`
	DNS float64 `json:"dns"`
}

// DefaultWeights returns the base score blend before any slider adjustment.
func DefaultWeights() Weights {
	return Weights{PRS: 0.45, CVS: 0.35, DNS: 0.20}
}

// Sum returns the total of the three weights.
func (w Weights) Sum() float64 {
	return w.PRS + w.CVS + w.DNS
}

// Breakdown carries the per-component scores behind a final score.
// It is derived fresh each ranking call and never persisted.
type Breakdown struct {
	PRS        float64 `json:"prs"`
	CVS        float64 `json:"cvs"`
	DNS        float64 `json:"dns"`
	Penalty    float64 `json:"penalty"`
	FinalScore float64 `json:"final_score"`
}

// Clamp01 bounds v to [0, 1], mapping non-finite values to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0.0
	}
	if v < 0.0 {
		return 0.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}

// Round9 rounds v to 9 decimal digits. Conformance compares final scores
// within 1e-9, so the rounding is mandatory and idempotent.
func Round9(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0.0
	}
	return math.Round(v*1e9) / 1e9
}

// CVS blends the cultural-value sub-signals into a score in [0, 1].
func CVS(c CVSComponents, w CVSWeights) float64 {
	sum := c.Like*w.Like +
		c.Context*w.Context +
		c.Collection*w.Collection +
		c.Bridge*w.Bridge +
		c.Sustain*w.Sustain
	return Clamp01(sum)
}

// DNS computes the diversity/novelty score in [0, 1] as a 60/40 blend of
// cluster novelty and time novelty.
//
// clusterNovelty = 1 / (1 + exposureCount * factor)
// timeNovelty    = exp(-ln2 * ageHours / halfLifeHours)
//
// Negative exposure counts floor to 0 and future timestamps behave as age
// 0, so the result is always well defined.
func DNS(exposureCount int, createdAt, now time.Time, factor, halfLifeHours float64) float64 {
	if exposureCount < 0 {
		exposureCount = 0
	}
	if factor < 0 {
		factor = 0
	}

	clusterNovelty := 1.0 / (1.0 + float64(exposureCount)*factor)

	ageHours := now.Sub(createdAt).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	timeNovelty := 1.0
	if halfLifeHours > 0 {
		timeNovelty = math.Exp(-math.Ln2 * ageHours / halfLifeHours)
	}

	return Clamp01(0.6*clusterNovelty + 0.4*timeNovelty)
}

// Penalty returns the score penalty for quality flags, clamped to [0, 1].
// Hard-blocked candidates are removed before scoring and never reach here.
func Penalty(spamSuspect bool) float64 {
	if spamSuspect {
		return SpamPenalty
	}
	return 0.0
}

// Final blends the components into the rounded final score. The PRS input
// is clamped to [0, 1]; missing relevance defaults to 0 upstream.
func Final(prs, cvs, dns, penalty float64, w Weights) float64 {
	prs = Clamp01(prs)
	penalty = Clamp01(penalty)
	return Round9(w.PRS*prs + w.CVS*cvs + w.DNS*dns - penalty)
}

// Compute derives the full breakdown for one candidate's inputs.
func Compute(prs float64, components CVSComponents, cvsWeights CVSWeights,
	exposureCount int, createdAt, now time.Time,
	noveltyFactor, halfLifeHours float64,
	spamSuspect bool, w Weights) Breakdown {

	prs = Clamp01(prs)
	cvs := CVS(components, cvsWeights)
	dns := DNS(exposureCount, createdAt, now, noveltyFactor, halfLifeHours)
	penalty := Penalty(spamSuspect)

	return Breakdown{
		PRS:        Round9(prs),
		CVS:        Round9(cvs),
		DNS:        Round9(dns),
		Penalty:    penalty,
		FinalScore: Final(prs, cvs, dns, penalty, w),
	}
}
