// Package fingerprint produces a content hash of the effective ranking
// parameters so callers can detect configuration drift, including drift in
// implicitly defaulted values. The canonical form is JSON with sorted keys;
// the digest is SHA-256 by default with a deterministic FNV-1a fallback for
// environments without a cryptographic hash facility. The two algorithms
// need not match each other, only themselves across repeated runs.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/tako0614/bunkarium-ranking/internal/rng"
)

// Algorithm selects the digest used for the fingerprint.
type Algorithm string

// Supported fingerprint algorithms.
const (
	AlgorithmSHA256 Algorithm = "sha256"
	AlgorithmFNV    Algorithm = "fnv1a64"
)

// Canonical serializes params to the canonical byte form: JSON with map
// keys sorted lexicographically (encoding/json sorts map keys at every
// nesting level). Values must be JSON-serializable.
func Canonical(params map[string]any) ([]byte, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize parameters: %w", err)
	}
	return data, nil
}

// Compute hashes the canonical form of params with the given algorithm and
// returns "<algorithm>:<hex digest>". Unknown algorithms fall back to the
// FNV path so a fingerprint is always produced.
func Compute(params map[string]any, algo Algorithm) (string, error) {
	data, err := Canonical(params)
	if err != nil {
		return "", err
	}

	switch algo {
	case AlgorithmSHA256:
		sum := sha256.Sum256(data)
		return string(AlgorithmSHA256) + ":" + hex.EncodeToString(sum[:]), nil
	default:
		h := rng.Hash64(string(data))
		return string(AlgorithmFNV) + ":" + fmt.Sprintf("%016x", h), nil
	}
}
