package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "roomres"
	subsystem = "admission"
)

// Outcome labels of admissionsCounter.
const (
	OutcomeCommitted     = "committed"
	OutcomeInvalidRange  = "invalid_range"
	OutcomeOverlap       = "overlap"
	OutcomeStorageError  = "storage_error"
	OutcomeQueueFull     = "queue_full"
	OutcomeWithdrawn     = "withdrawn"
	OutcomeWorkerStopped = "worker_stopped"
)

var (
	admissionsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "Count of reservation requests by admission outcome.",
		},
		[]string{"outcome"},
	)
	admissionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "duration_seconds",
			Help:      "Time the worker spent deciding a claimed request.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)
)

var registerMetrics sync.Once

// Register adds the admission collectors to reg. queueDepth reports the
// number of requests waiting for the worker.
func Register(reg prometheus.Registerer, queueDepth func() int) {
	registerMetrics.Do(func() {
		reg.MustRegister(admissionsCounter)
		reg.MustRegister(admissionDuration)
		reg.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "queue_depth",
				Help:      "Reservation requests queued and not yet claimed by the worker.",
			},
			func() float64 { return float64(queueDepth()) },
		))
	})
}

// RecordOutcome counts one request with the given outcome label.
func RecordOutcome(outcome string) {
	admissionsCounter.WithLabelValues(outcome).Inc()
}

// ObserveDuration records how long one admission decision took.
func ObserveDuration(d time.Duration) {
	admissionDuration.Observe(d.Seconds())
}
