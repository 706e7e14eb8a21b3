package rerank

import (
	"reflect"
	"testing"
)

// keys extracts the item keys from a selection list.
func keys(sels []Selection) []string {
	out := make([]string, 0, len(sels))
	for _, s := range sels {
		out = append(out, s.Item.Key)
	}
	return out
}

// checkInvariants verifies the shared reranking invariants: bounded size
// and pairwise-distinct keys.
func checkInvariants(t *testing.T, sels []Selection, targetSize, available int) {
	t.Helper()
	max := targetSize
	if available < max {
		max = available
	}
	if len(sels) > max {
		t.Errorf("selection size %d exceeds bound %d", len(sels), max)
	}
	seen := make(map[string]bool)
	for _, s := range sels {
		if seen[s.Item.Key] {
			t.Errorf("duplicate item key %q", s.Item.Key)
		}
		seen[s.Item.Key] = true
	}
}

// TestMMR_EmptyInput verifies degenerate inputs yield a well-formed empty
// result with strategy NONE.
func TestMMR_EmptyInput(t *testing.T) {
	sels, rep := MMR(nil, Params{TargetSize: 10, ClusterCapK: 3, Seed: "s"})
	if len(sels) != 0 {
		t.Errorf("expected empty selection, got %d items", len(sels))
	}
	if rep.UsedStrategy != StrategyNone {
		t.Errorf("expected strategy NONE, got %s", rep.UsedStrategy)
	}
}

// TestMMR_ZeroTarget verifies N=0 returns empty with strategy NONE.
func TestMMR_ZeroTarget(t *testing.T) {
	items := []Item{{Key: "a", ClusterID: "c1", FinalScore: 0.9}}
	sels, rep := MMR(items, Params{TargetSize: 0, ClusterCapK: 3, Seed: "s"})
	if len(sels) != 0 || rep.UsedStrategy != StrategyNone {
		t.Errorf("expected empty NONE result, got %d items, strategy %s",
			len(sels), rep.UsedStrategy)
	}
}

// TestMMR_RelevanceOrderAcrossClusters verifies items in distinct clusters
// with no embeddings keep relevance order (pairwise similarity is 0, so
// the lambda penalty never bites).
func TestMMR_RelevanceOrderAcrossClusters(t *testing.T) {
	items := []Item{
		{Key: "a", ClusterID: "c1", FinalScore: 0.9},
		{Key: "b", ClusterID: "c2", FinalScore: 0.8},
		{Key: "c", ClusterID: "c3", FinalScore: 0.7},
	}
	sels, rep := MMR(items, Params{
		TargetSize:  3,
		ClusterCapK: 3,
		Lambda:      0.5,
		Seed:        "order",
	})
	checkInvariants(t, sels, 3, len(items))

	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(keys(sels), want) {
		t.Errorf("expected order %v, got %v", want, keys(sels))
	}
	if rep.UsedStrategy != StrategyMMR {
		t.Errorf("expected strategy MMR, got %s", rep.UsedStrategy)
	}
	if rep.CapAppliedCount != 0 {
		t.Errorf("expected no cap violations, got %d", rep.CapAppliedCount)
	}
}

// TestMMR_LambdaDemotesSameCluster verifies the similarity penalty pushes
// a same-cluster runner-up below a lower-scored item from another cluster.
func TestMMR_LambdaDemotesSameCluster(t *testing.T) {
	items := []Item{
		{Key: "a", ClusterID: "c1", FinalScore: 0.9},
		{Key: "b", ClusterID: "c1", FinalScore: 0.8},
		{Key: "c", ClusterID: "c2", FinalScore: 0.75},
	}
	sels, _ := MMR(items, Params{
		TargetSize:  3,
		ClusterCapK: 2,
		Lambda:      0.3,
		Seed:        "lambda",
	})
	// b's marginal score is 0.8 - 0.3*1 = 0.5, c's is 0.75.
	want := []string{"a", "c", "b"}
	if !reflect.DeepEqual(keys(sels), want) {
		t.Errorf("expected order %v, got %v", want, keys(sels))
	}
}

// TestMMR_EmbeddingSimilarity verifies the penalty uses normalized cosine
// similarity when both embeddings are present.
func TestMMR_EmbeddingSimilarity(t *testing.T) {
	items := []Item{
		{Key: "a", ClusterID: "c1", FinalScore: 0.9, Embedding: []float64{1, 0}},
		// Same direction as a: normalized similarity 1.0.
		{Key: "b", ClusterID: "c2", FinalScore: 0.85, Embedding: []float64{2, 0}},
		// Orthogonal to a: normalized similarity 0.5.
		{Key: "c", ClusterID: "c3", FinalScore: 0.7, Embedding: []float64{0, 1}},
	}
	sels, _ := MMR(items, Params{
		TargetSize:  3,
		ClusterCapK: 3,
		Lambda:      0.8,
		Seed:        "emb",
	})
	// b: 0.85 - 0.8*1.0 = 0.05; c: 0.7 - 0.8*0.5 = 0.3, so c ranks second.
	want := []string{"a", "c", "b"}
	if !reflect.DeepEqual(keys(sels), want) {
		t.Errorf("expected order %v, got %v", want, keys(sels))
	}
}

// TestMMR_ClusterCapFallback covers the progress guarantee: three items
// from one cluster with cap 1 still yield a full result, with violations
// counted.
func TestMMR_ClusterCapFallback(t *testing.T) {
	items := []Item{
		{Key: "a", ClusterID: "c1", FinalScore: 0.9},
		{Key: "b", ClusterID: "c1", FinalScore: 0.8},
		{Key: "c", ClusterID: "c1", FinalScore: 0.7},
	}
	sels, rep := MMR(items, Params{
		TargetSize:  3,
		ClusterCapK: 1,
		Lambda:      0.5,
		Seed:        "cap",
	})
	checkInvariants(t, sels, 3, len(items))

	if len(sels) < 1 {
		t.Fatal("cap fallback must still return at least one item")
	}
	if rep.CapAppliedCount == 0 {
		t.Error("expected cap violations to be counted")
	}
	// The fallback keeps picking the best marginal score, so the full
	// slice is returned in score order.
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(keys(sels), want) {
		t.Errorf("expected order %v, got %v", want, keys(sels))
	}
}

// TestMMR_ExplorationSlot verifies an exploration slot picks the
// under-exposed cluster's candidate by exploration score and tags it.
func TestMMR_ExplorationSlot(t *testing.T) {
	items := []Item{
		{Key: "hot", ClusterID: "big", FinalScore: 0.9, DNS: 0.1},
		{Key: "mid", ClusterID: "big", FinalScore: 0.8, DNS: 0.2},
		{Key: "new", ClusterID: "fresh", FinalScore: 0.1, DNS: 0.95},
	}
	sels, rep := MMR(items, Params{
		TargetSize:        2,
		ClusterCapK:       2,
		ExplorationBudget: 0.5, // floor(2*0.5) = 1 slot, forced to position 1
		Lambda:            0.5,
		Seed:              "explore",
		ClusterExposures:  map[string]int{"big": 50, "fresh": 0},
		NewClusterMaxExposure: 3,
	})
	checkInvariants(t, sels, 2, len(items))

	if rep.ExplorationSlotsRequested != 1 {
		t.Errorf("expected 1 requested slot, got %d", rep.ExplorationSlotsRequested)
	}
	if rep.ExplorationSlotsFilled != 1 {
		t.Errorf("expected 1 filled slot, got %d", rep.ExplorationSlotsFilled)
	}
	want := []string{"hot", "new"}
	if !reflect.DeepEqual(keys(sels), want) {
		t.Errorf("expected order %v, got %v", want, keys(sels))
	}
	if sels[0].Exploration {
		t.Error("position 0 must not be an exploration pick")
	}
	if !sels[1].Exploration {
		t.Error("slot position must be flagged as exploration")
	}
}

// TestMMR_ExplorationFallbackPool verifies a slot with no eligible
// candidates falls back to the remaining pool instead of stalling.
func TestMMR_ExplorationFallbackPool(t *testing.T) {
	items := []Item{
		{Key: "a", ClusterID: "big", FinalScore: 0.9, DNS: 0.3},
		{Key: "b", ClusterID: "big", FinalScore: 0.8, DNS: 0.6},
	}
	sels, rep := MMR(items, Params{
		TargetSize:        2,
		ClusterCapK:       2,
		ExplorationBudget: 0.5,
		Seed:              "fallback",
		// Every cluster is over the ceiling, so nothing is eligible.
		ClusterExposures:      map[string]int{"big": 99},
		NewClusterMaxExposure: 3,
	})
	if len(sels) != 2 {
		t.Fatalf("expected 2 items, got %d", len(sels))
	}
	if rep.ExplorationSlotsFilled != 1 {
		t.Errorf("fallback slot should still count as filled, got %d", rep.ExplorationSlotsFilled)
	}
}

// TestMMR_Determinism verifies two runs with the same seed and ordering
// agree exactly, including exploration placement.
func TestMMR_Determinism(t *testing.T) {
	items := make([]Item, 0, 20)
	for i := 0; i < 20; i++ {
		cluster := "c1"
		if i%3 == 0 {
			cluster = "c2"
		}
		items = append(items, Item{
			Key:        string(rune('a' + i)),
			ClusterID:  cluster,
			FinalScore: 1.0 - float64(i)*0.04,
			DNS:        float64(i) * 0.05,
		})
	}
	p := Params{
		TargetSize:            10,
		ClusterCapK:           5,
		ExplorationBudget:     0.3,
		Lambda:                0.4,
		Seed:                  "fixed-seed-123",
		ClusterExposures:      map[string]int{"c1": 8, "c2": 1},
		NewClusterMaxExposure: 3,
	}

	first, repA := MMR(items, p)
	second, repB := MMR(items, p)

	if !reflect.DeepEqual(keys(first), keys(second)) {
		t.Errorf("runs diverged: %v vs %v", keys(first), keys(second))
	}
	if repA != repB {
		t.Errorf("reports diverged: %+v vs %+v", repA, repB)
	}
}

// TestMMR_TargetBeyondAvailable verifies N is bounded by availability.
func TestMMR_TargetBeyondAvailable(t *testing.T) {
	items := []Item{
		{Key: "a", ClusterID: "c1", FinalScore: 0.9},
		{Key: "b", ClusterID: "c2", FinalScore: 0.8},
	}
	sels, _ := MMR(items, Params{TargetSize: 50, ClusterCapK: 3, Seed: "s"})
	if len(sels) != 2 {
		t.Errorf("expected 2 items, got %d", len(sels))
	}
}
