package metrics

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Stage metrics
	stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pagesmith_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds by stage and outcome",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 0.1s to ~400s
		},
		[]string{"stage", "outcome"},
	)

	stageOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagesmith_stage_outcomes_total",
			Help: "Total stage attempts by stage and outcome",
		},
		[]string{"stage", "outcome"},
	)

	// API metrics
	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pagesmith_api_request_duration_seconds",
			Help:    "Model API request duration in seconds by model",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 0.1s to ~100s
		},
		[]string{"model", "status"},
	)

	rateLimiterWaitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pagesmith_rate_limiter_wait_duration_seconds",
			Help:    "Rate limiter wait duration in seconds by model",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~32s
		},
		[]string{"model"},
	)

	// Checkpoint metrics
	checkpointSaves = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagesmith_checkpoint_saves_total",
			Help: "Total checkpoint snapshots written",
		},
	)

	// Publishing metrics
	postsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagesmith_posts_published_total",
			Help: "Total posts published by status",
		},
		[]string{"status"},
	)
)

// Collector provides convenience methods for recording metrics
type Collector struct {
	logger *slog.Logger
}

// NewCollector creates a new metrics collector
func NewCollector(logger *slog.Logger) *Collector {
	return &Collector{
		logger: logger,
	}
}

// ObserveStage records one stage attempt's duration and outcome
func (c *Collector) ObserveStage(stage, outcome string, duration time.Duration) {
	stageDuration.WithLabelValues(stage, outcome).Observe(duration.Seconds())
	stageOutcomes.WithLabelValues(stage, outcome).Inc()
}

// RecordAPIRequest records a model API request duration
func (c *Collector) RecordAPIRequest(model string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	apiRequestDuration.WithLabelValues(model, status).Observe(duration.Seconds())
}

// RecordRateLimiterWait records rate limiter wait time
func (c *Collector) RecordRateLimiterWait(model string, duration time.Duration) {
	rateLimiterWaitDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// IncCheckpointSave counts one checkpoint write
func (c *Collector) IncCheckpointSave() {
	checkpointSaves.Inc()
}

// IncPostPublished counts one published post by its WordPress status
func (c *Collector) IncPostPublished(status string) {
	postsPublished.WithLabelValues(status).Inc()
}
