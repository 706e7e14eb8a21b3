package scoring

import "math"

// Slider adjustment constants. The slider t in [0, 1] shifts weight from
// PRS toward DNS/CVS as it rises, widens the exploration budget, and
// tightens the per-cluster cap.
const (
	// sliderDeltaMax is the maximum weight shifted away from PRS.
	sliderDeltaMax = 0.10

	// Split of the shifted weight between DNS and CVS. The ratios sum to
	// 1 so the pre-clamp weight total is preserved.
	sliderSplitDNS = 0.7
	sliderSplitCVS = 0.3

	// Per-weight clamp bounds applied during renormalization.
	weightMin = 0.05
	weightMax = 0.90

	// renormalizePasses bounds the clamp-renormalize iteration.
	renormalizePasses = 3

	// Cluster cap multiplier range: lerp(capMultMax, capMultMin, t).
	// t=0.5 is the identity multiplier.
	capMultMax = 1.5
	capMultMin = 0.5

	// Exploration budget multiplier range: lerp(exploreMultMin, exploreMultMax, t).
	exploreMultMin = 0.5
	exploreMultMax = 2.0

	// Exploration budget bounds after scaling.
	explorationBudgetMin = 0.0
	explorationBudgetMax = 0.5
)

// Adjustment is the result of applying the diversity slider: renormalized
// score weights, the effective per-cluster cap, and the effective
// exploration budget.
type Adjustment struct {
	Weights           Weights
	DiversityCapK     int
	ExplorationBudget float64
}

// lerp linearly interpolates between a and b by t in [0, 1].
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// clampSlider bounds the slider to [0, 1], treating non-finite input as
// the neutral midpoint.
func clampSlider(t float64) float64 {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return 0.5
	}
	if t < 0.0 {
		return 0.0
	}
	if t > 1.0 {
		return 1.0
	}
	return t
}

// boundInt bounds v to [lo, hi].
func boundInt(lo, hi, v int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// boundFloat bounds v to [lo, hi].
func boundFloat(lo, hi, v float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Renormalize clamps each weight to [weightMin, weightMax] and divides by
// the sum, iterating up to renormalizePasses times since clamping can
// disturb the total. A zero sum falls back to equal thirds. The result
// always sums to 1.0 within floating tolerance.
func Renormalize(w Weights) Weights {
	for pass := 0; pass < renormalizePasses; pass++ {
		w.PRS = boundFloat(weightMin, weightMax, w.PRS)
		w.CVS = boundFloat(weightMin, weightMax, w.CVS)
		w.DNS = boundFloat(weightMin, weightMax, w.DNS)

		sum := w.Sum()
		if sum == 0 {
			return Weights{PRS: 1.0 / 3.0, CVS: 1.0 / 3.0, DNS: 1.0 / 3.0}
		}
		w.PRS /= sum
		w.CVS /= sum
		w.DNS /= sum
	}
	return w
}

// AdjustForSlider maps the user's diversity preference onto effective
// score weights, cluster cap, and exploration budget. Pure and
// deterministic; no randomness.
//
// delta = (2t - 1) * sliderDeltaMax is removed from PRS and split between
// DNS and CVS, then the triple is clamp-renormalized. The cap scales down
// and the exploration budget scales up as t rises.
func AdjustForSlider(base Weights, slider float64, baseCapK int, baseBudget float64) Adjustment {
	t := clampSlider(slider)
	delta := (2.0*t - 1.0) * sliderDeltaMax

	adjusted := Weights{
		PRS: base.PRS - delta,
		CVS: base.CVS + sliderSplitCVS*delta,
		DNS: base.DNS + sliderSplitDNS*delta,
	}
	adjusted = Renormalize(adjusted)

	if baseCapK < 1 {
		baseCapK = 1
	}
	capK := boundInt(1, baseCapK+3,
		int(math.Round(float64(baseCapK)*lerp(capMultMax, capMultMin, t))))

	if baseBudget < 0 || math.IsNaN(baseBudget) || math.IsInf(baseBudget, 0) {
		baseBudget = 0
	}
	budget := boundFloat(explorationBudgetMin, explorationBudgetMax,
		baseBudget*lerp(exploreMultMin, exploreMultMax, t))

	return Adjustment{
		Weights:           adjusted,
		DiversityCapK:     capK,
		ExplorationBudget: budget,
	}
}
