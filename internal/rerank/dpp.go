package rerank

import (
	"math"

	"github.com/tako0614/bunkarium-ranking/internal/similarity"
)

const (
	// dppMaxKernel caps the kernel dimension. Repeated determinant
	// evaluation is cubic in the subset size, so the strategy is only
	// offered for small result slices.
	dppMaxKernel = 100

	// dppQualityFloor keeps kernel qualities strictly positive.
	dppQualityFloor = 1e-10

	// dppRegularization is added to the submatrix diagonal for numerical
	// stability.
	dppRegularization = 1e-6
)

// MaxKernelSize returns the DPP kernel dimension ceiling. Requests with a
// larger target size fall back to MMR.
func MaxKernelSize() int {
	return dppMaxKernel
}

// DPP greedily selects a diverse subset by maximizing the determinant of
// the kernel submatrix induced by the selection. The per-cluster cap is
// tracked for reporting only; diversity here is intrinsic to the kernel,
// not slot-based, so exploration slot counts stay zero.
func DPP(items []Item, p Params) ([]Selection, Report) {
	p = p.normalize()
	rep := baseReport(StrategyDPP, p)

	m := len(items)
	if m > dppMaxKernel {
		m = dppMaxKernel
	}
	n := targetSize(p.TargetSize, m)
	if n == 0 {
		rep.UsedStrategy = StrategyNone
		return []Selection{}, rep
	}

	temperature := p.Temperature
	if temperature <= 0 || math.IsNaN(temperature) || math.IsInf(temperature, 0) {
		temperature = 1.0
	}
	diversityWeight := p.DiversityWeight
	if diversityWeight < 0 || math.IsNaN(diversityWeight) {
		diversityWeight = 0
	}

	kernel := buildKernel(items[:m], diversityWeight)

	selected := make([]int, 0, n)
	inSelection := make([]bool, m)
	clusterCounts := make(map[string]int)

	for len(selected) < n {
		bestIdx := -1
		bestGain := 0.0
		for i := 0; i < m; i++ {
			if inSelection[i] {
				continue
			}
			det := subsetDeterminant(kernel, selected, i)
			gain := temperedGain(det, temperature)
			if gain > bestGain {
				bestGain = gain
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}

		if clusterCounts[items[bestIdx].ClusterID] >= p.ClusterCapK {
			rep.CapAppliedCount++
		}
		clusterCounts[items[bestIdx].ClusterID]++
		inSelection[bestIdx] = true
		selected = append(selected, bestIdx)
	}

	selections := make([]Selection, 0, len(selected))
	for _, idx := range selected {
		selections = append(selections, Selection{Item: items[idx]})
	}
	return selections, rep
}

// buildKernel constructs the DPP kernel L over the given items:
// L[i][i] = q_i^2 and L[i][j] = q_i * max(0, 1 - w*sim(i,j)) * q_j with
// q_i floored at a small positive quality. Pairwise similarities are
// cached per call.
func buildKernel(items []Item, diversityWeight float64) [][]float64 {
	m := len(items)
	cache := similarity.NewPairCache()

	q := make([]float64, m)
	for i := range items {
		q[i] = math.Max(items[i].FinalScore, dppQualityFloor)
	}

	kernel := make([][]float64, m)
	for i := range kernel {
		kernel[i] = make([]float64, m)
	}
	for i := 0; i < m; i++ {
		kernel[i][i] = q[i] * q[i]
		for j := i + 1; j < m; j++ {
			s, ok := cache.Get(i, j)
			if !ok {
				s = itemSimilarity(items[i], items[j])
				cache.Put(i, j, s)
			}
			v := q[i] * math.Max(0, 1.0-diversityWeight*s) * q[j]
			kernel[i][j] = v
			kernel[j][i] = v
		}
	}
	return kernel
}

// subsetDeterminant computes the regularized determinant of the kernel
// submatrix induced by selected plus the candidate index.
func subsetDeterminant(kernel [][]float64, selected []int, candidate int) float64 {
	idx := make([]int, 0, len(selected)+1)
	idx = append(idx, selected...)
	idx = append(idx, candidate)

	k := len(idx)
	sub := make([][]float64, k)
	for a := 0; a < k; a++ {
		sub[a] = make([]float64, k)
		for b := 0; b < k; b++ {
			sub[a][b] = kernel[idx[a]][idx[b]]
		}
	}
	return Determinant(sub, dppRegularization)
}

// temperedGain clamps the determinant to a non-negative finite value and
// scales it by gain^(1/temperature), guarding 0^x to 0 and non-finite
// results to 0.
func temperedGain(det, temperature float64) float64 {
	if math.IsNaN(det) || math.IsInf(det, 0) || det <= 0 {
		return 0.0
	}
	gain := math.Pow(det, 1.0/temperature)
	if math.IsNaN(gain) || math.IsInf(gain, 0) {
		return 0.0
	}
	return gain
}
