package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/tako0614/bunkarium-ranking/internal/explain"
	"github.com/tako0614/bunkarium-ranking/internal/fingerprint"
	"github.com/tako0614/bunkarium-ranking/internal/rerank"
	"github.com/tako0614/bunkarium-ranking/internal/scoring"
	"github.com/tako0614/bunkarium-ranking/internal/surface"
)

// ErrMalformedCandidate signals a broken upstream collaborator contract:
// a candidate arrived without the fields the core requires.
var ErrMalformedCandidate = errors.New("malformed candidate: missing item key")

// Ranker runs the full ranking pipeline. A Ranker is safe for concurrent
// use: every call allocates its own PRNG and similarity cache and no state
// survives a call.
type Ranker struct {
	params   Parameters
	policies surface.Table
	metrics  *Metrics
	now      func() time.Time
}

// NewRanker creates a Ranker with the given parameters, the default
// surface policy table, and the wall clock.
func NewRanker(params Parameters) *Ranker {
	return &Ranker{
		params:   params,
		policies: surface.DefaultTable(),
		now:      time.Now,
	}
}

// WithPolicies replaces the surface policy table.
func (r *Ranker) WithPolicies(t surface.Table) *Ranker {
	if t != nil {
		r.policies = t
	}
	return r
}

// WithMetrics attaches Prometheus metrics.
func (r *Ranker) WithMetrics(m *Metrics) *Ranker {
	r.metrics = m
	return r
}

// WithClock replaces the time source, used by tests and conformance
// fixtures that need a frozen now.
func (r *Ranker) WithClock(now func() time.Time) *Ranker {
	if now != nil {
		r.now = now
	}
	return r
}

// scoredCandidate pairs a candidate with its breakdown for sorting.
type scoredCandidate struct {
	candidate Candidate
	breakdown scoring.Breakdown
}

// sanitizeExposures copies the exposure map, flooring negative counts to
// zero. A nil map yields an empty one.
func sanitizeExposures(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for cluster, count := range in {
		if count < 0 {
			count = 0
		}
		out[cluster] = count
	}
	return out
}

// Rank executes one ranking call. Degenerate inputs (no candidates,
// zero target size) yield a well-formed empty response with strategy NONE;
// malformed candidates propagate as errors.
func (r *Ranker) Rank(ctx context.Context, req RankRequest) (RankResponse, error) {
	start := time.Now()

	if r.metrics != nil {
		r.metrics.ObserveCandidates(len(req.Candidates))
	}

	for i, c := range req.Candidates {
		if c.ItemKey == "" {
			if r.metrics != nil {
				r.metrics.IncRankErrors()
			}
			return RankResponse{}, fmt.Errorf("candidate %d: %w", i, ErrMalformedCandidate)
		}
	}

	params := r.params.Apply(req.Overrides)
	exposures := sanitizeExposures(req.User.RecentClusterExposures)
	policy := r.policies.Lookup(req.Surface)
	now := r.now()

	// Hard-blocked and policy-filtered candidates are silently removed.
	visible := make([]Candidate, 0, len(req.Candidates))
	for _, c := range req.Candidates {
		if c.HardBlocked {
			continue
		}
		if !policy.Allows(c.Moderated) {
			continue
		}
		visible = append(visible, c)
	}

	// The slider adjusts the blend weights before scoring so the primary
	// sort already reflects the user's diversity preference.
	adjusted := scoring.AdjustForSlider(params.Weights, req.User.DiversitySlider,
		params.DiversityCapK, params.ExplorationBudget)

	scored := make([]scoredCandidate, 0, len(visible))
	for _, c := range visible {
		prs := 0.0
		if c.Features.Relevance != nil {
			prs = *c.Features.Relevance
		}
		breakdown := scoring.Compute(prs, c.Features.CVS, params.CVSWeights,
			exposures[c.ClusterID], c.CreatedAt, now,
			params.ClusterNoveltyFactor, params.TimeHalfLifeHours,
			c.SpamSuspect, adjusted.Weights)
		scored = append(scored, scoredCandidate{candidate: c, breakdown: breakdown})
	}

	// Total order: finalScore desc, createdAt desc, itemKey asc. Every
	// tie-break is deterministic, so the result is independent of the
	// sort algorithm's stability.
	sort.Slice(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.breakdown.FinalScore != b.breakdown.FinalScore {
			return a.breakdown.FinalScore > b.breakdown.FinalScore
		}
		if !a.candidate.CreatedAt.Equal(b.candidate.CreatedAt) {
			return a.candidate.CreatedAt.After(b.candidate.CreatedAt)
		}
		return a.candidate.ItemKey < b.candidate.ItemKey
	})

	seed := req.RequestSeed
	if seed == "" {
		seed = req.RequestID
	}

	items := make([]rerank.Item, len(scored))
	byKey := make(map[string]scoredCandidate, len(scored))
	for i, sc := range scored {
		items[i] = rerank.Item{
			Key:        sc.candidate.ItemKey,
			ClusterID:  sc.candidate.ClusterID,
			FinalScore: sc.breakdown.FinalScore,
			DNS:        sc.breakdown.DNS,
			Embedding:  sc.candidate.Features.Embedding,
		}
		byKey[sc.candidate.ItemKey] = sc
	}

	rerankParams := rerank.Params{
		TargetSize:            params.DiversityCapN,
		ClusterCapK:           adjusted.DiversityCapK,
		ExplorationBudget:     adjusted.ExplorationBudget,
		Lambda:                params.Lambda,
		Seed:                  seed,
		ClusterExposures:      exposures,
		NewClusterMaxExposure: params.NewClusterMaxExposure,
		DiversityWeight:       params.DPPDiversityWeight,
		Temperature:           params.DPPTemperature,
	}

	var selections []rerank.Selection
	var report rerank.Report
	if useDPP(params.Strategy, params.DiversityCapN, len(items)) {
		selections, report = rerank.DPP(items, rerankParams)
	} else {
		selections, report = rerank.MMR(items, rerankParams)
	}
	report.EffectiveWeights = adjusted.Weights

	ranked := make([]RankedItem, 0, len(selections))
	for _, sel := range selections {
		sc := byKey[sel.Item.Key]
		codes := explain.Reasons(candidateSignals(sc.candidate, exposures), params.Thresholds)
		if sel.Exploration {
			codes = explain.Merge(
				[]string{explain.CodeExploration, explain.CodeDiversitySlot}, codes)
		}
		ranked = append(ranked, RankedItem{
			ItemKey:        sc.candidate.ItemKey,
			Type:           sc.candidate.Type,
			ClusterID:      sc.candidate.ClusterID,
			FinalScore:     sc.breakdown.FinalScore,
			ReasonCodes:    codes,
			ScoreBreakdown: sc.breakdown,
		})
	}

	fp, err := fingerprint.Compute(effectiveParams(params, adjusted),
		fingerprint.Algorithm(params.FingerprintAlgorithm))
	if err != nil {
		if r.metrics != nil {
			r.metrics.IncRankErrors()
		}
		return RankResponse{}, fmt.Errorf("failed to fingerprint parameters: %w", err)
	}

	if r.metrics != nil {
		r.metrics.ObserveRank(string(report.UsedStrategy),
			time.Since(start).Seconds(), report.CapAppliedCount)
	}
	slog.Debug("ranked feed candidates",
		"request_id", req.RequestID,
		"surface", req.Surface,
		"candidates", len(req.Candidates),
		"ranked", len(ranked),
		"strategy", report.UsedStrategy)

	return RankResponse{
		RequestID:         req.RequestID,
		AlgorithmID:       AlgorithmID,
		AlgorithmVersion:  AlgorithmVersion,
		ContractVersion:   ContractVersion,
		ParamsFingerprint: fp,
		VariantID:         params.VariantID,
		Items:             ranked,
		Constraints:       report,
	}, nil
}

// useDPP reports whether the DPP strategy applies: it must be requested
// and the target size must fit the kernel ceiling, since determinant
// evaluation is cubic in the subset size.
func useDPP(strategy string, targetSize, available int) bool {
	if strategy != string(rerank.StrategyDPP) {
		return false
	}
	n := targetSize
	if available < n {
		n = available
	}
	return n <= rerank.MaxKernelSize()
}

// candidateSignals adapts a candidate's feature record for the explain
// pass.
func candidateSignals(c Candidate, exposures map[string]int) explain.Signals {
	return explain.Signals{
		Context:          c.Features.CVS.Context,
		Bridge:           c.Features.CVS.Bridge,
		Like:             c.Features.CVS.Like,
		SupportDensity:   c.Features.SupportDensity,
		ViewCount:        c.Features.ViewCount,
		Relevance:        c.Features.Relevance,
		RelevanceSource:  c.Features.RelevanceSource,
		ClusterExposures: exposures[c.ClusterID],
	}
}

// effectiveParams canonicalizes the parameters actually used for the
// call, including slider-adjusted values, for the fingerprint.
func effectiveParams(p Parameters, adj scoring.Adjustment) map[string]any {
	return map[string]any{
		"algorithm_id":      AlgorithmID,
		"algorithm_version": AlgorithmVersion,
		"contract_version":  ContractVersion,
		"strategy":          p.Strategy,
		"weights": map[string]any{
			"prs": adj.Weights.PRS,
			"cvs": adj.Weights.CVS,
			"dns": adj.Weights.DNS,
		},
		"cvs_weights": map[string]any{
			"like":       p.CVSWeights.Like,
			"context":    p.CVSWeights.Context,
			"collection": p.CVSWeights.Collection,
			"bridge":     p.CVSWeights.Bridge,
			"sustain":    p.CVSWeights.Sustain,
		},
		"diversity_cap_n":          p.DiversityCapN,
		"diversity_cap_k":          adj.DiversityCapK,
		"exploration_budget":       adj.ExplorationBudget,
		"lambda":                   p.Lambda,
		"cluster_novelty_factor":   p.ClusterNoveltyFactor,
		"time_half_life_hours":     p.TimeHalfLifeHours,
		"new_cluster_max_exposure": p.NewClusterMaxExposure,
		"dpp_diversity_weight":     p.DPPDiversityWeight,
		"dpp_temperature":          p.DPPTemperature,
		"thresholds": map[string]any{
			"context":              p.Thresholds.Context,
			"bridge":               p.Thresholds.Bridge,
			"support_density":      p.Thresholds.SupportDensity,
			"relevance":            p.Thresholds.Relevance,
			"new_cluster_exposure": p.Thresholds.NewClusterExposure,
		},
	}
}
