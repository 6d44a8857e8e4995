package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Source attempt outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
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

	SourceAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_attempts_total",
			Help: "Upstream source attempts by outcome",
		},
		[]string{"source", "outcome"},
	)

	SourceAttemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "source_attempt_duration_seconds",
			Help:    "Duration of a single source attempt",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
		},
		[]string{"source"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "financial_cache_lookups_total",
			Help: "Financial data cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	Retrievals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "financial_retrievals_total",
			Help: "Financial data retrievals by outcome (fetched, cached, failed)",
		},
		[]string{"outcome"},
	)
)

// ObserveSourceAttempt records one adapter call.
func ObserveSourceAttempt(source, outcome string, d time.Duration) {
	SourceAttempts.WithLabelValues(source, outcome).Inc()
	SourceAttemptDuration.WithLabelValues(source).Observe(d.Seconds())
}
