package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline diagnostics. Exclusion counts are exposed here and logged, never
// returned to callers.
var (
	// SearchesTotal tracks search requests by terminal status.
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "destination_search_requests_total",
			Help: "Total number of destination search requests",
		},
		[]string{"status"},
	)

	// SearchDuration tracks end-to-end search latency.
	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "destination_search_duration_seconds",
			Help:    "Duration of destination search requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// CandidatesExcluded tracks per-stage candidate exclusions.
	CandidatesExcluded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "destination_search_candidates_excluded_total",
			Help: "Candidates excluded during filtering, by pipeline stage",
		},
		[]string{"stage"},
	)

	// CollaboratorFailures tracks exhausted external collaborators.
	CollaboratorFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "destination_search_collaborator_failures_total",
			Help: "External collaborator calls that exhausted all attempts",
		},
		[]string{"collaborator"},
	)

	// CacheRequests tracks cache lookups by outcome.
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "destination_search_cache_requests_total",
			Help: "Cache lookups by payload kind and outcome (hit, stale, miss)",
		},
		[]string{"kind", "outcome"},
	)
)

// Exclusion stage labels.
const (
	StageNoForecast  = "no_forecast"
	StageCondition   = "condition"
	StageTemperature = "temperature"
)

// RecordSearch records one finished search request.
func RecordSearch(status string, duration time.Duration) {
	SearchesTotal.WithLabelValues(status).Inc()
	SearchDuration.Observe(duration.Seconds())
}

// RecordExclusion records one excluded candidate at the given stage.
func RecordExclusion(stage string) {
	CandidatesExcluded.WithLabelValues(stage).Inc()
}

// RecordCacheLookup records a cache lookup outcome for a payload kind.
func RecordCacheLookup(kind, outcome string) {
	CacheRequests.WithLabelValues(kind, outcome).Inc()
}
