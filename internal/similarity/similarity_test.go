package similarity

import (
	"math"
	"testing"
)

// TestCosine tests cosine similarity across normal and degenerate vectors.
func TestCosine(t *testing.T) {
	tests := []struct {
		name     string
		a        []float64
		b        []float64
		expected float64
	}{
		{
			name:     "identical vectors",
			a:        []float64{1, 2, 3},
			b:        []float64{1, 2, 3},
			expected: 1.0,
		},
		{
			name:     "opposite vectors",
			a:        []float64{1, 0},
			b:        []float64{-1, 0},
			expected: -1.0,
		},
		{
			name:     "orthogonal vectors",
			a:        []float64{1, 0},
			b:        []float64{0, 1},
			expected: 0.0,
		},
		{
			name:     "scaled vectors are still parallel",
			a:        []float64{1, 1},
			b:        []float64{5, 5},
			expected: 1.0,
		},
		{
			name:     "length mismatch",
			a:        []float64{1, 2},
			b:        []float64{1, 2, 3},
			expected: 0.0,
		},
		{
			name:     "empty vectors",
			a:        nil,
			b:        nil,
			expected: 0.0,
		},
		{
			name:     "zero norm",
			a:        []float64{0, 0},
			b:        []float64{1, 2},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cosine(tt.a, tt.b)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("expected %f, got %f", tt.expected, got)
			}
		})
	}
}

// TestEuclideanDistance tests euclidean distance including mismatches.
func TestEuclideanDistance(t *testing.T) {
	tests := []struct {
		name     string
		a        []float64
		b        []float64
		expected float64
	}{
		{
			name:     "identical vectors",
			a:        []float64{1, 2, 3},
			b:        []float64{1, 2, 3},
			expected: 0.0,
		},
		{
			name:     "unit distance",
			a:        []float64{0, 0},
			b:        []float64{0, 1},
			expected: 1.0,
		},
		{
			name:     "pythagorean triple",
			a:        []float64{0, 0},
			b:        []float64{3, 4},
			expected: 5.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EuclideanDistance(tt.a, tt.b)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("expected %f, got %f", tt.expected, got)
			}
		})
	}

	if d := EuclideanDistance([]float64{1}, []float64{1, 2}); !math.IsInf(d, 1) {
		t.Errorf("length mismatch: expected +Inf, got %f", d)
	}
}

// TestCluster tests cluster identity similarity.
func TestCluster(t *testing.T) {
	if got := Cluster("punk", "punk"); got != 1.0 {
		t.Errorf("same cluster: expected 1.0, got %f", got)
	}
	if got := Cluster("punk", "noise"); got != 0.0 {
		t.Errorf("different cluster: expected 0.0, got %f", got)
	}
	if got := Cluster("", ""); got != 0.0 {
		t.Errorf("empty clusters: expected 0.0, got %f", got)
	}
}

// TestNormalized tests the [-1,1] to [0,1] mapping.
func TestNormalized(t *testing.T) {
	tests := []struct {
		cosine   float64
		expected float64
	}{
		{cosine: -1.0, expected: 0.0},
		{cosine: 0.0, expected: 0.5},
		{cosine: 1.0, expected: 1.0},
	}
	for _, tt := range tests {
		if got := Normalized(tt.cosine); math.Abs(got-tt.expected) > 1e-9 {
			t.Errorf("Normalized(%f): expected %f, got %f", tt.cosine, tt.expected, got)
		}
	}
}

// TestPairCache tests unordered pair memoization.
func TestPairCache(t *testing.T) {
	c := NewPairCache()

	if _, ok := c.Get(1, 2); ok {
		t.Error("expected miss on empty cache")
	}

	c.Put(1, 2, 0.75)

	v, ok := c.Get(1, 2)
	if !ok || v != 0.75 {
		t.Errorf("expected hit with 0.75, got %f (hit=%v)", v, ok)
	}

	// Unordered: the reversed pair must hit the same entry.
	v, ok = c.Get(2, 1)
	if !ok || v != 0.75 {
		t.Errorf("reversed pair: expected hit with 0.75, got %f (hit=%v)", v, ok)
	}

	c.Put(2, 1, 0.25)
	if c.Len() != 1 {
		t.Errorf("expected single canonical entry, got %d", c.Len())
	}
	if v, _ := c.Get(1, 2); v != 0.25 {
		t.Errorf("expected overwrite to 0.25, got %f", v)
	}

	// Distinct pairs stay distinct.
	c.Put(0, 3, 0.5)
	if c.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", c.Len())
	}
}
