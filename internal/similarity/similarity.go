// Package similarity provides the vector and cluster similarity primitives
// used by the diversity-aware reranking strategies, plus a per-call cache
// for unordered candidate pairs.
package similarity

import "math"

// Cosine computes the cosine similarity between two vectors in [-1, 1].
// Returns 0 when the vectors differ in length, are empty, or either has a
// zero norm, so degenerate embeddings never poison a ranking call.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(sim) || math.IsInf(sim, 0) {
		return 0.0
	}
	// Floating error can push the ratio slightly past the unit interval.
	if sim > 1.0 {
		return 1.0
	}
	if sim < -1.0 {
		return -1.0
	}
	return sim
}

// EuclideanDistance computes the euclidean distance between two vectors.
// Returns +Inf when the vectors differ in length so mismatched embeddings
// rank as maximally dissimilar.
func EuclideanDistance(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Cluster returns the cluster identity similarity: 1 when both items
// belong to the same non-empty cluster, 0 otherwise.
func Cluster(clusterA, clusterB string) float64 {
	if clusterA != "" && clusterA == clusterB {
		return 1.0
	}
	return 0.0
}

// Normalized maps a cosine similarity from [-1, 1] into [0, 1].
func Normalized(cosine float64) float64 {
	return (cosine + 1.0) / 2.0
}

// PairCache memoizes similarity values for unordered index pairs. The
// lifetime of a cache is exactly one reranking call; it must never be
// shared across calls. Not safe for concurrent use.
type PairCache struct {
	values map[uint64]float64
}

// NewPairCache creates an empty pair cache.
func NewPairCache() *PairCache {
	return &PairCache{values: make(map[uint64]float64)}
}

// pairKey builds a canonical key for an unordered (i, j) index pair.
func pairKey(i, j int) uint64 {
	if i > j {
		i, j = j, i
	}
	return uint64(uint32(i))<<32 | uint64(uint32(j))
}

// Get returns the cached similarity for the pair, if present.
func (c *PairCache) Get(i, j int) (float64, bool) {
	v, ok := c.values[pairKey(i, j)]
	return v, ok
}

// Put stores the similarity for the pair.
func (c *PairCache) Put(i, j int, sim float64) {
	c.values[pairKey(i, j)] = sim
}

// Len returns the number of cached pairs.
func (c *PairCache) Len() int {
	return len(c.values)
}
