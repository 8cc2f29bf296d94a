package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkerMetrics tracks batch runs of the background workers (outbox publisher,
// analytics consumer).
type WorkerMetrics struct {
	duration  *prometheus.HistogramVec
	processed *prometheus.CounterVec
	failed    *prometheus.CounterVec
}

// NewWorkerMetrics registers the worker metrics on the provided registerer.
func NewWorkerMetrics(reg prometheus.Registerer) *WorkerMetrics {
	if reg == nil {
		return &WorkerMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "worker_batch_duration_seconds",
		Help:    "Duration of worker batches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"worker"})
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "worker_items_processed_total",
		Help: "Items a worker handled successfully.",
	}, []string{"worker"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "worker_items_failed_total",
		Help: "Items a worker failed to handle.",
	}, []string{"worker"})
	reg.MustRegister(duration, processed, failed)
	return &WorkerMetrics{
		duration:  duration,
		processed: processed,
		failed:    failed,
	}
}

func (w *WorkerMetrics) ObserveBatch(worker string, d time.Duration) {
	if w == nil || w.duration == nil {
		return
	}
	w.duration.WithLabelValues(normalizeLabel(worker)).Observe(d.Seconds())
}

func (w *WorkerMetrics) AddProcessed(worker string, n int) {
	if w == nil || w.processed == nil || n <= 0 {
		return
	}
	w.processed.WithLabelValues(normalizeLabel(worker)).Add(float64(n))
}

func (w *WorkerMetrics) IncFailed(worker string) {
	if w == nil || w.failed == nil {
		return
	}
	w.failed.WithLabelValues(normalizeLabel(worker)).Inc()
}
