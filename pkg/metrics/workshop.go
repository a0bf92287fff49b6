package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkshopMetrics records outcomes of workshop operations, both single
// calls and batch runs.
type WorkshopMetrics struct {
	batchDuration *prometheus.HistogramVec
	batchItems    *prometheus.CounterVec
	transitions   *prometheus.CounterVec
}

// NewWorkshopMetrics registers the workshop metrics on the provided registerer.
func NewWorkshopMetrics(reg prometheus.Registerer) *WorkshopMetrics {
	if reg == nil {
		return &WorkshopMetrics{}
	}
	batchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "workshop_batch_duration_seconds",
		Help:    "Duration of workshop batch runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	batchItems := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workshop_batch_items",
		Help: "Per-order outcomes of workshop batch runs.",
	}, []string{"operation", "outcome"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workshop_status_transitions",
		Help: "Order status transitions applied.",
	}, []string{"from", "to"})
	reg.MustRegister(batchDuration, batchItems, transitions)
	return &WorkshopMetrics{
		batchDuration: batchDuration,
		batchItems:    batchItems,
		transitions:   transitions,
	}
}

// ObserveBatchDuration records how long a batch run of the named operation took.
func (w *WorkshopMetrics) ObserveBatchDuration(operation string, duration time.Duration) {
	if w == nil || w.batchDuration == nil {
		return
	}
	w.batchDuration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncBatchSucceeded counts an order that completed inside a batch run.
func (w *WorkshopMetrics) IncBatchSucceeded(operation string) {
	if w == nil || w.batchItems == nil {
		return
	}
	w.batchItems.WithLabelValues(normalizeLabel(operation), "succeeded").Inc()
}

// IncBatchFailed counts an order that failed inside a batch run.
func (w *WorkshopMetrics) IncBatchFailed(operation string) {
	if w == nil || w.batchItems == nil {
		return
	}
	w.batchItems.WithLabelValues(normalizeLabel(operation), "failed").Inc()
}

// IncTransition counts one applied order status transition.
func (w *WorkshopMetrics) IncTransition(from, to string) {
	if w == nil || w.transitions == nil {
		return
	}
	w.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
