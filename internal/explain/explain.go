// Package explain derives human-legible reason codes for ranked feed
// items. Rules are evaluated in a fixed order with no short-circuiting so
// independent implementations emit identical code lists.
package explain

// Reason codes attached to ranked items.
const (
	CodeGrowingContext     = "GROWING_CONTEXT"
	CodeBridgeSuccess      = "BRIDGE_SUCCESS"
	CodeHighSupportDensity = "HIGH_SUPPORT_DENSITY"
	CodeNewInCluster       = "NEW_IN_CLUSTER"
	CodeSimilarToLiked     = "SIMILAR_TO_LIKED"
	CodeFollowing          = "FOLLOWING"
	CodeSimilarToSaved     = "SIMILAR_TO_SAVED"
	CodeTrendingInCluster  = "TRENDING_IN_CLUSTER"
	CodeExploration        = "EXPLORATION"
	CodeDiversitySlot      = "DIVERSITY_SLOT"
)

// Relevance source tags set by the upstream relevance service.
const (
	SourceLiked     = "liked"
	SourceFollowing = "following"
	SourceSaved     = "saved"
)

// Thresholds controls when each reason rule fires. All values are
// caller-overridable; zero-value callers should start from
// DefaultThresholds.
type Thresholds struct {
	Context            float64 `json:"context"`
	Bridge             float64 `json:"bridge"`
	SupportDensity     float64 `json:"support_density"`
	Relevance          float64 `json:"relevance"`
	NewClusterExposure int     `json:"new_cluster_exposure"`
}

// DefaultThresholds returns the standard rule thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Context:            0.70,
		Bridge:             0.70,
		SupportDensity:     0.15,
		Relevance:          0.65,
		NewClusterExposure: 2,
	}
}

// Signals is the per-candidate input to reason derivation. Every field is
// precomputed upstream; nil pointers mean the signal was not supplied.
type Signals struct {
	Context          float64  // cultural context sub-signal [0, 1]
	Bridge           float64  // bridge sub-signal [0, 1]
	Like             float64  // like sub-signal [0, 1], used to derive density
	SupportDensity   *float64 // explicit support density, wins over derivation
	ViewCount        *int     // qualified view count for density derivation
	Relevance        *float64 // personal relevance score [0, 1]
	RelevanceSource  string   // liked | following | saved
	ClusterExposures int      // recent exposure count for the item's cluster
}

// supportDensity returns the explicit hint when present, otherwise derives
// like-signal over qualified views. Without a view count the derived
// density is 0.
func supportDensity(s Signals) float64 {
	if s.SupportDensity != nil {
		return *s.SupportDensity
	}
	if s.ViewCount == nil {
		return 0.0
	}
	views := *s.ViewCount
	if views < 1 {
		views = 1
	}
	return s.Like / float64(views)
}

// Reasons evaluates every rule in the fixed order and returns the ordered,
// deduplicated reason codes. The list is never empty:
// TRENDING_IN_CLUSTER is appended when no other rule fires.
func Reasons(s Signals, t Thresholds) []string {
	codes := make([]string, 0, 4)

	if s.Context >= t.Context {
		codes = append(codes, CodeGrowingContext)
	}
	if s.Bridge >= t.Bridge {
		codes = append(codes, CodeBridgeSuccess)
	}
	if supportDensity(s) >= t.SupportDensity {
		codes = append(codes, CodeHighSupportDensity)
	}
	if s.ClusterExposures < t.NewClusterExposure {
		codes = append(codes, CodeNewInCluster)
	}
	if s.Relevance != nil && *s.Relevance >= t.Relevance {
		switch s.RelevanceSource {
		case SourceLiked:
			codes = append(codes, CodeSimilarToLiked)
		case SourceFollowing:
			codes = append(codes, CodeFollowing)
		case SourceSaved:
			codes = append(codes, CodeSimilarToSaved)
		}
	}

	if len(codes) == 0 {
		codes = append(codes, CodeTrendingInCluster)
	}
	return codes
}

// Merge prepends the given codes to derived ones, deduplicating while
// preserving first-occurrence order. Used to fold exploration tags into a
// slot pick's reasons.
func Merge(front, derived []string) []string {
	out := make([]string, 0, len(front)+len(derived))
	seen := make(map[string]struct{}, len(front)+len(derived))
	for _, list := range [][]string{front, derived} {
		for _, code := range list {
			if _, dup := seen[code]; dup {
				continue
			}
			seen[code] = struct{}{}
			out = append(out, code)
		}
	}
	return out
}
