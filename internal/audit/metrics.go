package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the observable state of the audit pipeline. The queue is
// unbounded by design, so the depth gauge is the signal that storage is
// unreachable and entries are piling up.
type Metrics struct {
	queueDepth           prometheus.Gauge
	flushRunsTotal       *prometheus.CounterVec
	entriesFlushedTotal  prometheus.Counter
	entriesRequeuedTotal prometheus.Counter
	claimsBlockedTotal   *prometheus.CounterVec
}

// NewMetrics registers the audit metrics on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		queueDepth: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "lunchperk",
				Subsystem: "audit",
				Name:      "queue_depth",
				Help:      "Current number of audit entries waiting to be flushed.",
			},
		),
		flushRunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lunchperk",
				Subsystem: "audit",
				Name:      "flush_runs_total",
				Help:      "Total flush attempts partitioned by result.",
			},
			[]string{"result"},
		),
		entriesFlushedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "lunchperk",
				Subsystem: "audit",
				Name:      "entries_flushed_total",
				Help:      "Total audit entries durably stored.",
			},
		),
		entriesRequeuedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "lunchperk",
				Subsystem: "audit",
				Name:      "entries_requeued_total",
				Help:      "Total audit entries pushed back to the queue after a failed flush.",
			},
		),
		claimsBlockedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lunchperk",
				Subsystem: "claims",
				Name:      "blocked_total",
				Help:      "Total coupon claims blocked by the validator, by reason.",
			},
			[]string{"reason"},
		),
	}
}

// SetQueueDepth records the current flush queue length.
func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

// ObserveFlush records the outcome of one flush attempt.
func (m *Metrics) ObserveFlush(inserted int, requeued int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.flushRunsTotal.WithLabelValues("error").Inc()
	} else {
		m.flushRunsTotal.WithLabelValues("success").Inc()
	}
	if inserted > 0 {
		m.entriesFlushedTotal.Add(float64(inserted))
	}
	if requeued > 0 {
		m.entriesRequeuedTotal.Add(float64(requeued))
	}
}

// ObserveBlockedClaim counts a blocked coupon claim.
func (m *Metrics) ObserveBlockedClaim(reason string) {
	if m == nil {
		return
	}
	m.claimsBlockedTotal.WithLabelValues(reason).Inc()
}
