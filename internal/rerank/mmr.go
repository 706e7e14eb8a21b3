package rerank

import (
	"math"

	"github.com/tako0614/bunkarium-ranking/internal/rng"
	"github.com/tako0614/bunkarium-ranking/internal/similarity"
)

// MMR builds the result position by position using greedy maximal
// marginal relevance. Position 0 is reserved for the best-relevance seed;
// exploration slots are drawn deterministically from the seeded generator;
// every other position trades relevance against the maximum similarity to
// already-selected items.
func MMR(items []Item, p Params) ([]Selection, Report) {
	p = p.normalize()
	rep := baseReport(StrategyMMR, p)

	n := targetSize(p.TargetSize, len(items))
	if n == 0 {
		rep.UsedStrategy = StrategyNone
		return []Selection{}, rep
	}

	slots := int(math.Floor(float64(n) * p.ExplorationBudget))
	rep.ExplorationSlotsRequested = slots

	// Position 0 is never an exploration slot.
	gen := rng.New(p.Seed)
	slotSet := make(map[int]struct{}, slots)
	if slots > 0 && n > 1 {
		for _, pos := range gen.UniqueIndices(slots, 1, n-1) {
			slotSet[pos] = struct{}{}
		}
	}

	// Exploration eligibility: the item's cluster has at most the
	// new-cluster ceiling of recent exposures.
	eligible := make([]bool, len(items))
	for i, it := range items {
		eligible[i] = p.ClusterExposures[it.ClusterID] <= p.NewClusterMaxExposure
	}

	cache := similarity.NewPairCache()
	sim := func(i, j int) float64 {
		if v, ok := cache.Get(i, j); ok {
			return v
		}
		v := itemSimilarity(items[i], items[j])
		cache.Put(i, j, v)
		return v
	}

	used := make([]bool, len(items))
	clusterCounts := make(map[string]int)
	selections := make([]Selection, 0, n)
	selectedIdx := make([]int, 0, n)
	remaining := len(items)

	for pos := 0; len(selections) < n && remaining > 0; pos++ {
		pick := -1
		explorationPick := false

		if _, isSlot := slotSet[pos]; isSlot {
			pick = pickExploration(items, used, eligible, clusterCounts, p.ClusterCapK)
			if pick >= 0 {
				explorationPick = true
				rep.ExplorationSlotsFilled++
			}
		}
		if pick < 0 && pos == 0 {
			pick = pickTopScore(items, used, clusterCounts, p.ClusterCapK, &rep)
		}
		if pick < 0 {
			pick = pickMarginal(items, used, selectedIdx, clusterCounts,
				p.ClusterCapK, p.Lambda, sim, &rep)
		}
		if pick < 0 {
			break
		}

		used[pick] = true
		remaining--
		clusterCounts[items[pick].ClusterID]++
		selectedIdx = append(selectedIdx, pick)
		selections = append(selections, Selection{Item: items[pick], Exploration: explorationPick})
	}

	return selections, rep
}

// pickExploration selects the unselected candidate maximizing
// 0.7*DNS + 0.3*finalScore. It prefers exploration-eligible candidates
// under the cluster cap, then any candidate under the cap, then the whole
// remaining pool, so a slot is always fillable while candidates remain.
// Ties resolve to the earlier (higher ranked) item.
func pickExploration(items []Item, used, eligible []bool, counts map[string]int, capK int) int {
	best := -1
	bestScore := math.Inf(-1)

	consider := func(requireEligible, respectCap bool) {
		for i := range items {
			if used[i] {
				continue
			}
			if requireEligible && !eligible[i] {
				continue
			}
			if respectCap && counts[items[i].ClusterID] >= capK {
				continue
			}
			score := explorationDNSWeight*items[i].DNS + explorationScoreWeight*items[i].FinalScore
			if score > bestScore {
				bestScore = score
				best = i
			}
		}
	}

	consider(true, true)
	if best < 0 {
		consider(false, true)
	}
	if best < 0 {
		consider(false, false)
	}
	return best
}

// pickTopScore returns the highest-scored unselected candidate whose
// cluster is still under the cap. Items arrive pre-sorted so the first
// unselected under-cap index wins; candidates skipped over the cap
// increment the violation counter.
func pickTopScore(items []Item, used []bool, counts map[string]int, capK int, rep *Report) int {
	for i := range items {
		if used[i] {
			continue
		}
		if counts[items[i].ClusterID] >= capK {
			rep.CapAppliedCount++
			continue
		}
		return i
	}
	return -1
}

// pickMarginal runs one MMR step: among unselected candidates under the
// cap, maximize finalScore - lambda*maxSimilarity(candidate, selected).
// If the cap excludes every remaining candidate, the best marginal score
// ignoring the cap wins so the loop always makes progress; the skipped
// candidates were already counted, the fallback itself is not a violation.
func pickMarginal(items []Item, used []bool, selectedIdx []int, counts map[string]int,
	capK int, lambda float64, sim func(i, j int) float64, rep *Report) int {

	best := -1
	bestScore := math.Inf(-1)
	capped := -1
	cappedScore := math.Inf(-1)

	for i := range items {
		if used[i] {
			continue
		}
		maxSim := 0.0
		for _, j := range selectedIdx {
			if s := sim(i, j); s > maxSim {
				maxSim = s
			}
		}
		score := items[i].FinalScore - lambda*maxSim

		if counts[items[i].ClusterID] >= capK {
			rep.CapAppliedCount++
			if score > cappedScore {
				cappedScore = score
				capped = i
			}
			continue
		}
		if score > bestScore {
			bestScore = score
			best = i
		}
	}

	if best >= 0 {
		return best
	}
	return capped
}
