package metrics

import "github.com/prometheus/client_golang/prometheus"

// Match engine Prometheus metrics.
var (
	MatchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_requests_total",
			Help:      "Total number of match requests",
		},
		[]string{"status"}, // "ok" / "rejected" / "canceled"
	)

	MatchCandidatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_candidates_total",
			Help:      "Candidates processed by the match engine",
		},
		[]string{"status"}, // "ok" / "error"
	)

	MatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_duration_seconds",
			Help:      "Time to score and rank one match request",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)
)

var matchMetricsRegistered bool

// RegisterMatchMetrics registers Prometheus match metrics. Must be called once from main.
func RegisterMatchMetrics() {
	if matchMetricsRegistered {
		return
	}
	prometheus.MustRegister(MatchRequestsTotal)
	prometheus.MustRegister(MatchCandidatesTotal)
	prometheus.MustRegister(MatchDuration)
	matchMetricsRegistered = true
}
