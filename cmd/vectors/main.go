// Package main implements the conformance vector tool. It generates and
// verifies the reference vectors that pin the deterministic core: the
// 64-bit hash, the generator state sequence, the float mapping, and one
// full ranking call under a frozen clock. Fixtures are written as JSON or
// canonical CBOR so other implementations can check bit-for-bit agreement.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/tako0614/bunkarium-ranking/internal/feed"
	"github.com/tako0614/bunkarium-ranking/internal/rng"
	"github.com/tako0614/bunkarium-ranking/internal/scoring"
)

// vectorClock is the frozen now for the ranking vector.
var vectorClock = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// HashVector pins Hash64 for one input.
type HashVector struct {
	Input string `json:"input" cbor:"input"`
	Want  uint64 `json:"want" cbor:"want"`
}

// GeneratorVector pins the state and float sequences for one seed.
type GeneratorVector struct {
	Seed   string    `json:"seed" cbor:"seed"`
	States []uint64  `json:"states" cbor:"states"`
	Floats []float64 `json:"floats" cbor:"floats"`
}

// RankVector pins one full ranking call.
type RankVector struct {
	Request  feed.RankRequest  `json:"request" cbor:"request"`
	Response feed.RankResponse `json:"response" cbor:"response"`
}

// VectorFile is the on-disk fixture.
type VectorFile struct {
	ContractVersion string            `json:"contract_version" cbor:"contract_version"`
	Hashes          []HashVector      `json:"hashes" cbor:"hashes"`
	Generators      []GeneratorVector `json:"generators" cbor:"generators"`
	Rank            RankVector        `json:"rank" cbor:"rank"`
}

func main() {
	out := flag.String("out", "", "output path for generate")
	in := flag.String("in", "", "input path for verify")
	format := flag.String("format", "json", "fixture format: json or cbor")
	flag.Parse()

	switch flag.Arg(0) {
	case "generate":
		if *out == "" {
			fatal("generate requires -out")
		}
		if err := generate(*out, *format); err != nil {
			fatal(err.Error())
		}
		fmt.Println("wrote", *out)
	case "verify":
		if *in == "" {
			fatal("verify requires -in")
		}
		if err := verify(*in, *format); err != nil {
			fatal(err.Error())
		}
		fmt.Println("ok")
	default:
		fmt.Println("Usage: vectors generate -out FILE [-format json|cbor]")
		fmt.Println("       vectors verify -in FILE [-format json|cbor]")
		os.Exit(2)
	}
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, "vectors:", msg)
	os.Exit(1)
}

// compute rebuilds the full vector file from the deterministic core.
func compute() (VectorFile, error) {
	file := VectorFile{ContractVersion: feed.ContractVersion}

	for _, input := range []string{"", "a", "fixed-seed-123", "req-42"} {
		file.Hashes = append(file.Hashes, HashVector{
			Input: input,
			Want:  rng.Hash64(input),
		})
	}

	for _, seed := range []string{"fixed-seed-123", "req-42"} {
		gen := rng.New(seed)
		vec := GeneratorVector{Seed: seed}
		for i := 0; i < 5; i++ {
			vec.States = append(vec.States, gen.Next())
		}
		gen = rng.New(seed)
		for i := 0; i < 5; i++ {
			vec.Floats = append(vec.Floats, gen.Float64())
		}
		file.Generators = append(file.Generators, vec)
	}

	request := rankVectorRequest()
	ranker := feed.NewRanker(feed.DefaultParameters()).
		WithClock(func() time.Time { return vectorClock })
	response, err := ranker.Rank(context.Background(), request)
	if err != nil {
		return VectorFile{}, fmt.Errorf("failed to build ranking vector: %w", err)
	}
	file.Rank = RankVector{Request: request, Response: response}

	return file, nil
}

// rankVectorRequest is the fixed ranking scenario: two clusters, one
// spam-suspect candidate, exposures skewed toward the first cluster.
func rankVectorRequest() feed.RankRequest {
	relevance := func(v float64) *float64 { return &v }
	return feed.RankRequest{
		ContractVersion: feed.ContractVersion,
		RequestID:       "conformance-mmr-1",
		RequestSeed:     "fixed-seed-123",
		User: feed.UserState{
			DiversitySlider:        0.5,
			RecentClusterExposures: map[string]int{"c1": 2, "c2": 0},
		},
		Surface: "home",
		Candidates: []feed.Candidate{
			{
				ItemKey: "alpha", Type: "post", ClusterID: "c1",
				CreatedAt: vectorClock.Add(-1 * time.Hour), Moderated: true,
				Features: feed.Features{
					CVS:             cvs(0.8, 0.6, 0.4, 0.2, 0.5),
					Relevance:       relevance(0.9),
					RelevanceSource: "liked",
				},
			},
			{
				ItemKey: "bravo", Type: "post", ClusterID: "c1",
				CreatedAt: vectorClock.Add(-2 * time.Hour), Moderated: true,
				Features: feed.Features{
					CVS:             cvs(0.5, 0.8, 0.2, 0.6, 0.3),
					Relevance:       relevance(0.7),
					RelevanceSource: "following",
				},
			},
			{
				ItemKey: "charlie", Type: "post", ClusterID: "c2",
				CreatedAt: vectorClock.Add(-3 * time.Hour), Moderated: true,
				Features: feed.Features{
					CVS:       cvs(0.4, 0.3, 0.6, 0.7, 0.2),
					Relevance: relevance(0.5),
				},
			},
			{
				ItemKey: "delta", Type: "post", ClusterID: "c2",
				CreatedAt: vectorClock.Add(-30 * time.Hour), Moderated: true,
				SpamSuspect: true,
				Features: feed.Features{
					CVS:       cvs(0.2, 0.1, 0.1, 0.3, 0.1),
					Relevance: relevance(0.3),
				},
			},
		},
	}
}

func generate(path, format string) error {
	file, err := compute()
	if err != nil {
		return err
	}
	data, err := encode(file, format)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func verify(path, format string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read fixture: %w", err)
	}

	var stored VectorFile
	if err := decode(data, format, &stored); err != nil {
		return err
	}

	current, err := compute()
	if err != nil {
		return err
	}

	// Compare through the fixture encoding so both sides share the same
	// representation of timestamps and floats.
	storedData, err := encode(stored, format)
	if err != nil {
		return err
	}
	currentData, err := encode(current, format)
	if err != nil {
		return err
	}
	if !bytes.Equal(storedData, currentData) {
		return fmt.Errorf("fixture %s does not match the current implementation", path)
	}
	return nil
}

func encode(file VectorFile, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "json":
		return json.MarshalIndent(file, "", "  ")
	case "cbor":
		opts := cbor.CanonicalEncOptions()
		opts.Time = cbor.TimeRFC3339Nano
		mode, err := opts.EncMode()
		if err != nil {
			return nil, err
		}
		return mode.Marshal(file)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

func decode(data []byte, format string, out *VectorFile) error {
	switch strings.ToLower(format) {
	case "json":
		return json.Unmarshal(data, out)
	case "cbor":
		return cbor.Unmarshal(data, out)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

func cvs(like, ctx, collection, bridge, sustain float64) scoring.CVSComponents {
	return scoring.CVSComponents{
		Like:       like,
		Context:    ctx,
		Collection: collection,
		Bridge:     bridge,
		Sustain:    sustain,
	}
}
