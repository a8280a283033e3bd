package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the audit publisher.
type Metrics struct {
	QueueDepth      prometheus.Gauge
	EventsDropped   prometheus.Counter
	EventsEnqueued  prometheus.Counter
	PersistDuration prometheus.Histogram
	PersistFailures prometheus.Counter
	EventsProcessed prometheus.Counter
	DrainedOnClose  prometheus.Counter
}

// New registers audit metrics with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mcpgate_audit_queue_depth",
			Help: "Current number of records in the audit publisher queue",
		}),
		EventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "mcpgate_audit_events_dropped_total",
			Help: "Audit records dropped because the buffer was full",
		}),
		EventsEnqueued: factory.NewCounter(prometheus.CounterOpts{
			Name: "mcpgate_audit_events_enqueued_total",
			Help: "Audit records accepted by the publisher",
		}),
		PersistDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mcpgate_audit_persist_duration_seconds",
			Help:    "Time taken to persist an audit record to the store",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		PersistFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "mcpgate_audit_persist_failures_total",
			Help: "Audit record persistence failures",
		}),
		EventsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "mcpgate_audit_events_processed_total",
			Help: "Audit records persisted by the background worker",
		}),
		DrainedOnClose: factory.NewCounter(prometheus.CounterOpts{
			Name: "mcpgate_audit_events_drained_total",
			Help: "Audit records persisted while draining on shutdown",
		}),
	}
}
