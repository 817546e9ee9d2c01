package metrics

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	statementsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "theoforge_statements_generated_total",
			Help: "Total candidate statements accepted into the work queue",
		},
	)

	proofAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "theoforge_proof_attempts_total",
			Help: "Total proof attempts by outcome",
		},
		[]string{"status"}, // "proved", "failed", "error"
	)

	discoveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "theoforge_discoveries_total",
			Help: "Total newly archived discoveries",
		},
	)

	proofDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "theoforge_proof_duration_seconds",
			Help:    "Proof attempt duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
		},
	)

	queueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "theoforge_queue_depth",
			Help: "Current depth of the proof task queue",
		},
	)

	enqueueRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "theoforge_enqueue_rejections_total",
			Help: "Enqueue attempts rejected by a full queue (backpressure)",
		},
	)

	activeWorkers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "theoforge_active_workers",
			Help: "Number of active workers by kind",
		},
		[]string{"kind"}, // "generator" or "prover"
	)
)

// Collector provides convenience methods for recording pipeline metrics.
type Collector struct {
	logger *slog.Logger
}

// NewCollector creates a new metrics collector.
func NewCollector(logger *slog.Logger) *Collector {
	return &Collector{logger: logger}
}

// RecordGenerated counts statements accepted into the queue.
func (c *Collector) RecordGenerated(n int) {
	statementsGenerated.Add(float64(n))
}

// RecordAttempt records one proof attempt and its duration.
func (c *Collector) RecordAttempt(proved bool, errored bool, duration time.Duration) {
	status := "failed"
	switch {
	case proved:
		status = "proved"
	case errored:
		status = "error"
	}
	proofAttempts.WithLabelValues(status).Inc()
	proofDuration.Observe(duration.Seconds())
}

// RecordDiscovery counts a newly archived discovery.
func (c *Collector) RecordDiscovery() {
	discoveries.Inc()
}

// RecordEnqueueRejection counts a backpressure rejection.
func (c *Collector) RecordEnqueueRejection() {
	enqueueRejections.Inc()
}

// SetQueueDepth sets the current queue depth.
func (c *Collector) SetQueueDepth(depth int) {
	queueDepth.Set(float64(depth))
}

// SetActiveWorkers sets the number of active workers of a kind.
func (c *Collector) SetActiveWorkers(kind string, count int) {
	activeWorkers.WithLabelValues(kind).Set(float64(count))
}
