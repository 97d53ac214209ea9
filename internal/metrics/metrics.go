// Package metrics exposes Prometheus instrumentation for the
// classification pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VerdictsTotal counts classifications by outcome.
	VerdictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spamsift_verdicts_total",
			Help: "Total classifications by label, profile and source",
		},
		[]string{"label", "profile", "source"},
	)

	// ErrorsTotal counts classification failures by error kind.
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spamsift_errors_total",
			Help: "Total classification failures by error kind",
		},
		[]string{"kind"},
	)

	// ClassificationDuration tracks end-to-end request latency per source.
	ClassificationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spamsift_classification_duration_seconds",
			Help:    "Classification latency in seconds",
			Buckets: []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"source"},
	)

	// BatchSize tracks how large submitted batches are.
	BatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "spamsift_batch_size",
			Help:    "Number of texts per batch request",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	// CacheLookupsTotal counts score cache hits and misses.
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spamsift_score_cache_lookups_total",
			Help: "Score cache lookups by result",
		},
		[]string{"result"},
	)
)

// RecordVerdict increments the verdict counter.
func RecordVerdict(label, profile, source string) {
	VerdictsTotal.WithLabelValues(label, profile, source).Inc()
}

// RecordError increments the failure counter for an error kind.
func RecordError(kind string) {
	ErrorsTotal.WithLabelValues(kind).Inc()
}

// ObserveDuration records one classification round trip.
func ObserveDuration(source string, seconds float64) {
	ClassificationDuration.WithLabelValues(source).Observe(seconds)
}

// RecordBatchSize records the size of one submitted batch.
func RecordBatchSize(n int) {
	BatchSize.Observe(float64(n))
}

// RecordCacheLookup records a score cache hit or miss.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookupsTotal.WithLabelValues(result).Inc()
}
