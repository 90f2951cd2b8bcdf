// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	LookupResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lookup_results_count",
			Help:    "Number of results returned per lookup",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
		[]string{"kind", "strategy"},
	)

	LookupCacheEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lookup_cache_events_total",
			Help: "Result cache hits and misses",
		},
		[]string{"kind", "event"},
	)

	LookupCandidatesScanned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lookup_candidates_scanned_total",
			Help: "Reference rows scored by uncached lookups",
		},
		[]string{"kind"},
	)

	CategoryExactMatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "category_exact_matches_total",
			Help: "Category lookups answered by the literal substring tier",
		},
	)

	ReferenceRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reference_rows",
			Help: "Rows loaded per reference dataset",
		},
		[]string{"dataset"},
	)
)
