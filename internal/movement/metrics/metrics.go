package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the movement module.
// Tracks accepted and rejected movements and the duration of the accept path
// and of log reconciliation.
type Metrics struct {
	MovementsRecorded  *prometheus.CounterVec
	MovementsRejected  *prometheus.CounterVec
	RecordDuration     prometheus.Histogram
	ReconcileDuration  prometheus.Histogram
	ConsistencyDrifted prometheus.Gauge
}

// New registers the movement metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the movement metrics on reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MovementsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hostelgate_movements_recorded_total",
			Help: "Movements accepted into the ledger by kind",
		}, []string{"kind"}),
		MovementsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hostelgate_movements_rejected_total",
			Help: "Movements rejected by reason code",
		}, []string{"reason"}),
		RecordDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "hostelgate_record_movement_duration_seconds",
			Help:    "Duration of the movement accept path including lock wait",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
		}),
		ReconcileDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "hostelgate_reconcile_logs_duration_seconds",
			Help:    "Duration of ledger scan plus log reconciliation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		ConsistencyDrifted: factory.NewGauge(prometheus.GaugeOpts{
			Name: "hostelgate_status_cache_mismatches",
			Help: "Residents whose cached status disagreed with the ledger at the last check",
		}),
	}
}

func (m *Metrics) IncrementRecorded(kind string) {
	m.MovementsRecorded.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementRejected(reason string) {
	m.MovementsRejected.WithLabelValues(reason).Inc()
}

// ObserveRecord records the duration of a RecordMovement call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveRecord(start time.Time) {
	m.RecordDuration.Observe(time.Since(start).Seconds())
}

// ObserveReconcile records the duration of a Logs call.
func (m *Metrics) ObserveReconcile(start time.Time) {
	m.ReconcileDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) SetMismatches(n int) {
	m.ConsistencyDrifted.Set(float64(n))
}
