package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Validate outcomes.
const (
	OutcomeFastPath = "fast_path"
	OutcomeStoreHit = "store_hit"
	OutcomeExpired  = "expired"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// Reasons an asynchronous activity write did not reach the store.
const (
	DropQueueFull   = "queue_full"
	DropCircuitOpen = "circuit_open"
	DropStopped     = "stopped"
)

// Metrics holds Prometheus collectors for the session subsystem.
type Metrics struct {
	SessionsCreated     prometheus.Counter
	CreateRejected      *prometheus.CounterVec
	ValidateOutcomes    *prometheus.CounterVec
	SessionsEnded       *prometheus.CounterVec
	ActiveSessions      prometheus.Gauge
	CacheEntries        prometheus.Gauge
	ActivityWrites      prometheus.Counter
	ActivityWriteErrors prometheus.Counter
	ActivityWriteDrops  *prometheus.CounterVec
	IDCollisions        prometheus.Counter
	IDExhausted         prometheus.Counter
	OperationDurationMs *prometheus.HistogramVec

	SweepDurationMs prometheus.Histogram
	SweepProcessed  *prometheus.CounterVec
	SweepFailures   *prometheus.CounterVec
}

// New registers collectors with the default Prometheus registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers collectors with reg. Tests pass a fresh registry
// so repeated construction does not collide.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SessionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "mcpgate_sessions_created_total",
			Help: "Total number of MCP sessions created",
		}),
		CreateRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mcpgate_session_create_rejected_total",
			Help: "Session creations rejected, by error code",
		}, []string{"code"}),
		ValidateOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mcpgate_session_validations_total",
			Help: "Session validations by outcome",
		}, []string{"outcome"}),
		SessionsEnded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mcpgate_sessions_ended_total",
			Help: "Sessions deactivated, by reason",
		}, []string{"reason"}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mcpgate_active_sessions",
			Help: "Active sessions as of the last stats or sweep run",
		}),
		CacheEntries: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mcpgate_session_cache_entries",
			Help: "Entries in the activity cache as of the last stats or sweep run",
		}),
		ActivityWrites: factory.NewCounter(prometheus.CounterOpts{
			Name: "mcpgate_session_activity_writes_total",
			Help: "Asynchronous activity writes persisted to the store",
		}),
		ActivityWriteErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "mcpgate_session_activity_write_errors_total",
			Help: "Asynchronous activity writes that failed",
		}),
		ActivityWriteDrops: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mcpgate_session_activity_write_drops_total",
			Help: "Asynchronous activity writes skipped, by reason",
		}, []string{"reason"}),
		IDCollisions: factory.NewCounter(prometheus.CounterOpts{
			Name: "mcpgate_session_id_collisions_total",
			Help: "Generated session identifiers that already existed",
		}),
		IDExhausted: factory.NewCounter(prometheus.CounterOpts{
			Name: "mcpgate_session_id_exhausted_total",
			Help: "Identifier generations that ran out of attempts",
		}),
		OperationDurationMs: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mcpgate_session_operation_duration_ms",
			Help:    "Duration of session operations in milliseconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"operation"}),
		SweepDurationMs: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mcpgate_session_sweep_duration_ms",
			Help:    "Duration of reconciler sweeps in milliseconds",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}),
		SweepProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mcpgate_session_sweep_processed_total",
			Help: "Records handled by reconciler sweeps, by phase",
		}, []string{"phase"}),
		SweepFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mcpgate_session_sweep_failures_total",
			Help: "Reconciler phase failures, by phase",
		}, []string{"phase"}),
	}
}

func (m *Metrics) IncrementCreated() {
	m.SessionsCreated.Inc()
}

func (m *Metrics) IncrementRejected(code string) {
	m.CreateRejected.WithLabelValues(code).Inc()
}

func (m *Metrics) IncrementValidate(outcome string) {
	m.ValidateOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementEnded(reason string, n int) {
	if n <= 0 {
		return
	}
	m.SessionsEnded.WithLabelValues(reason).Add(float64(n))
}

func (m *Metrics) SetActive(n int) {
	m.ActiveSessions.Set(float64(n))
}

func (m *Metrics) SetCacheEntries(n int) {
	m.CacheEntries.Set(float64(n))
}

func (m *Metrics) IncrementActivityWrite() {
	m.ActivityWrites.Inc()
}

func (m *Metrics) IncrementActivityWriteError() {
	m.ActivityWriteErrors.Inc()
}

func (m *Metrics) IncrementActivityWriteDrop(reason string) {
	m.ActivityWriteDrops.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementIDCollision() {
	m.IDCollisions.Inc()
}

func (m *Metrics) IncrementIDExhausted() {
	m.IDExhausted.Inc()
}

func (m *Metrics) ObserveOperation(operation string, durationMs float64) {
	m.OperationDurationMs.WithLabelValues(operation).Observe(durationMs)
}

func (m *Metrics) ObserveSweep(durationMs float64) {
	m.SweepDurationMs.Observe(durationMs)
}

func (m *Metrics) AddSweepProcessed(phase string, n int) {
	if n <= 0 {
		return
	}
	m.SweepProcessed.WithLabelValues(phase).Add(float64(n))
}

func (m *Metrics) IncrementSweepFailure(phase string) {
	m.SweepFailures.WithLabelValues(phase).Inc()
}
