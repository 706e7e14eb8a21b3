package fingerprint

import (
	"strings"
	"testing"
)

// TestCanonical_SortedKeys verifies insertion order does not affect the
// canonical form.
func TestCanonical_SortedKeys(t *testing.T) {
	a, err := Canonical(map[string]any{"zeta": 1, "alpha": 2, "mid": map[string]any{"b": 1, "a": 2}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Canonical(map[string]any{"mid": map[string]any{"a": 2, "b": 1}, "alpha": 2, "zeta": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(a) != string(b) {
		t.Errorf("canonical forms differ:\n%s\n%s", a, b)
	}
	if string(a) != `{"alpha":2,"mid":{"a":2,"b":1},"zeta":1}` {
		t.Errorf("unexpected canonical form: %s", a)
	}
}

// TestCompute tests both digest paths for determinism and distinctness.
func TestCompute(t *testing.T) {
	params := map[string]any{
		"weights": map[string]any{"prs": 0.45, "cvs": 0.35, "dns": 0.2},
		"cap_n":   50,
	}

	tests := []struct {
		name   string
		algo   Algorithm
		prefix string
		hexLen int
	}{
		{name: "sha256", algo: AlgorithmSHA256, prefix: "sha256:", hexLen: 64},
		{name: "fnv fallback", algo: AlgorithmFNV, prefix: "fnv1a64:", hexLen: 16},
		{name: "unknown algorithm falls back to fnv", algo: "whirlpool", prefix: "fnv1a64:", hexLen: 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compute(params, tt.algo)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
			if len(got) != len(tt.prefix)+tt.hexLen {
				t.Errorf("expected %d hex digits, got %q", tt.hexLen, got)
			}

			again, err := Compute(params, tt.algo)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != again {
				t.Errorf("fingerprint not deterministic: %q vs %q", got, again)
			}
		})
	}
}

// TestCompute_DistinguishesParameters verifies different parameters yield
// different fingerprints.
func TestCompute_DistinguishesParameters(t *testing.T) {
	a, _ := Compute(map[string]any{"lambda": 0.3}, AlgorithmSHA256)
	b, _ := Compute(map[string]any{"lambda": 0.31}, AlgorithmSHA256)
	if a == b {
		t.Error("expected distinct fingerprints for distinct parameters")
	}
}

// TestCompute_UnserializableValue verifies the error path.
func TestCompute_UnserializableValue(t *testing.T) {
	if _, err := Compute(map[string]any{"bad": make(chan int)}, AlgorithmSHA256); err == nil {
		t.Error("expected error for unserializable parameter value")
	}
}
