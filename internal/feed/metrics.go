package feed

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricRankRequestsTotal   = "feed_rank_requests_total"
	MetricRankErrorsTotal     = "feed_rank_errors_total"
	MetricRankDuration        = "feed_rank_duration_seconds"
	MetricRankStrategyTotal   = "feed_rank_strategy_total"
	MetricRankCapApplied      = "feed_rank_cap_applied_total"
	MetricRankCandidatesCount = "feed_rank_candidates"
)

// Metrics contains Prometheus metrics for the ranking pipeline.
// All operations are thread-safe.
type Metrics struct {
	rankTotal     prometheus.Counter
	rankErrors    prometheus.Counter
	rankDuration  prometheus.Histogram
	strategyTotal *prometheus.CounterVec
	capApplied    prometheus.Counter
	candidates    prometheus.Histogram
}

// NewMetrics creates and returns a new Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to register
// them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		rankTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRankRequestsTotal,
			Help: "Total number of ranking calls",
		}),
		rankErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRankErrorsTotal,
			Help: "Total number of failed ranking calls",
		}),
		rankDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRankDuration,
			Help:    "Histogram of ranking call duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		strategyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRankStrategyTotal,
			Help: "Total number of ranking calls by reranking strategy",
		}, []string{"strategy"}),
		capApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRankCapApplied,
			Help: "Total number of soft cluster-cap applications",
		}),
		candidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRankCandidatesCount,
			Help:    "Histogram of candidate set sizes per ranking call",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000},
		}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.rankTotal,
		m.rankErrors,
		m.rankDuration,
		m.strategyTotal,
		m.capApplied,
		m.candidates,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveRank records one completed ranking call.
func (m *Metrics) ObserveRank(strategy string, seconds float64, capApplied int) {
	m.rankTotal.Inc()
	m.rankDuration.Observe(seconds)
	m.strategyTotal.WithLabelValues(strategy).Inc()
	if capApplied > 0 {
		m.capApplied.Add(float64(capApplied))
	}
}

// ObserveCandidates records the candidate set size of one call.
func (m *Metrics) ObserveCandidates(n int) {
	m.candidates.Observe(float64(n))
}

// IncRankErrors increments the failed-call counter.
func (m *Metrics) IncRankErrors() {
	m.rankErrors.Inc()
}
