// Package rng provides the seeded deterministic random generator used for
// exploration slot placement. Identical seed strings must produce identical
// draw sequences across runs and across independent implementations, so the
// generator is a fixed 64-bit xorshift seeded from an FNV-1a hash rather
// than anything from math/rand.
package rng

import "sort"

// FNV-1a 64-bit constants.
const (
	fnvOffset64 uint64 = 0xcbf29ce484222325
	fnvPrime64  uint64 = 0x100000001b3
)

// Hash64 computes the 64-bit FNV-1a hash of s.
// Also used as the dependency-free fallback for parameter fingerprints.
func Hash64(s string) uint64 {
	h := fnvOffset64
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= fnvPrime64
	}
	return h
}

// SeedFromString derives a generator seed from a seed string.
// A zero hash is forced to 1 so the xorshift state never sticks at zero.
func SeedFromString(seed string) uint64 {
	h := Hash64(seed)
	if h == 0 {
		return 1
	}
	return h
}

// Generator is a 64-bit xorshift generator. It is not safe for concurrent
// use; one instance is scoped to exactly one reranking call.
type Generator struct {
	state uint64
}

// New creates a generator seeded from the given seed string.
func New(seed string) *Generator {
	return &Generator{state: SeedFromString(seed)}
}

// Next advances the generator and returns the raw 64-bit state.
// State transition: x ^= x<<13; x ^= x>>7; x ^= x<<17. A zero result is
// forced to 1 to keep the generator from locking up.
func (g *Generator) Next() uint64 {
	x := g.state
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	if x == 0 {
		x = 1
	}
	g.state = x
	return x
}

// Float64 returns the next value in [0, 1), derived from the low 32 bits
// of the state so the mapping is exact in float64.
func (g *Generator) Float64() float64 {
	return float64(g.Next()&0xffffffff) / (1 << 32)
}

// UniqueIndices draws count distinct indices from the inclusive range
// [min, max] and returns them sorted ascending. If count covers the whole
// range, every index is returned without consuming generator state.
func (g *Generator) UniqueIndices(count, min, max int) []int {
	size := max - min + 1
	if size <= 0 || count <= 0 {
		return []int{}
	}
	if count >= size {
		out := make([]int, size)
		for i := range out {
			out[i] = min + i
		}
		return out
	}

	seen := make(map[int]struct{}, count)
	out := make([]int, 0, count)
	for len(out) < count {
		idx := min + int(g.Float64()*float64(size))
		if idx > max {
			idx = max
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}
