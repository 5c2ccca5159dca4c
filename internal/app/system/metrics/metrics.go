// Package metrics exposes Prometheus instruments for the journal core.
//
// A nil *Metrics is valid and records nothing, so services and tests can run
// without a registry.
package metrics

import (
	"time"

	"github.com/dalemusser/tripjournal/internal/domain/journalerr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tripjournal"

// Metrics holds the registered instruments.
type Metrics struct {
	operations      *prometheus.CounterVec
	opLatency       *prometheus.HistogramVec
	sequencesIssued prometheus.Counter
	notifyDelivered *prometheus.CounterVec
	notifyDropped   prometheus.Counter
	storeUp         prometheus.Gauge
	taskRuns        *prometheus.CounterVec
}

// New registers the instruments with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "core operations by name and outcome (ok or error kind)",
		}, []string{"operation", "outcome"}),
		opLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "core operation latency including store round trips",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		}, []string{"operation"}),
		sequencesIssued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sequences_issued_total",
			Help:      "record sequence numbers handed out by the allocator",
		}),
		notifyDelivered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "notification deliveries by sink and outcome",
		}, []string{"sink", "outcome"}),
		notifyDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_dropped_total",
			Help:      "events dropped because the dispatch queue was full or closed",
		}),
		storeUp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_up",
			Help:      "1 when the last background store ping succeeded",
		}),
		taskRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_runs_total",
			Help:      "background task runs by task and outcome",
		}, []string{"task", "outcome"}),
	}
}

// Outcome labels err: "ok", or the journalerr kind.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return journalerr.KindOf(err).String()
}

// ObserveOp records one finished operation.
func (m *Metrics) ObserveOp(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, Outcome(err)).Inc()
	m.opLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// SequenceIssued counts one allocator hand-out.
func (m *Metrics) SequenceIssued() {
	if m == nil {
		return
	}
	m.sequencesIssued.Inc()
}

// NotificationDelivered records a sink delivery attempt.
func (m *Metrics) NotificationDelivered(sink string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.notifyDelivered.WithLabelValues(sink, outcome).Inc()
}

// NotificationDropped counts an event that never reached a sink.
func (m *Metrics) NotificationDropped() {
	if m == nil {
		return
	}
	m.notifyDropped.Inc()
}

// SetStoreUp records the result of a background store ping.
func (m *Metrics) SetStoreUp(up bool) {
	if m == nil {
		return
	}
	if up {
		m.storeUp.Set(1)
		return
	}
	m.storeUp.Set(0)
}

// StoreUpGauge exposes the store_up gauge for tests.
func (m *Metrics) StoreUpGauge() prometheus.Gauge { return m.storeUp }

// TaskRun records one background task run.
func (m *Metrics) TaskRun(task string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.taskRuns.WithLabelValues(task, outcome).Inc()
}
