package client

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks Prometheus metrics for the async client core's operations.
//
// All metrics use the "libnfs_client_" prefix. Methods handle a nil
// receiver gracefully, so a nil *Metrics acts as a no-op.
type Metrics struct {
	// OperationsTotal counts completed async operations by kind and
	// outcome. Labels: op=[mount, stat], outcome=[success, error]
	OperationsTotal *prometheus.CounterVec

	// OperationDuration tracks operation latency by kind.
	OperationDuration *prometheus.HistogramVec

	// MountState counts entries into each mount state machine state,
	// process-wide and labeled by state. It is not tracked per client and
	// does not record which state a client is currently in.
	MountState *prometheus.CounterVec
}

var (
	metricsOnce     sync.Once
	metricsInstance *Metrics
)

// NewMetrics creates and registers the client's Prometheus metrics. If
// registerer is nil, prometheus.DefaultRegisterer is used. Idempotent via
// sync.Once.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	metricsOnce.Do(func() {
		if registerer == nil {
			registerer = prometheus.DefaultRegisterer
		}

		m := &Metrics{
			OperationsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "libnfs_client_operations_total",
					Help: "Total async client operations by kind and outcome",
				},
				[]string{"op", "outcome"},
			),
			OperationDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "libnfs_client_operation_duration_seconds",
					Help:    "Async client operation duration in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"op"},
			),
			MountState: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "libnfs_client_mount_state_transitions_total",
					Help: "Total mount state machine transitions by state entered",
				},
				[]string{"state"},
			),
		}

		registerer.MustRegister(m.OperationsTotal, m.OperationDuration, m.MountState)
		metricsInstance = m
	})

	return metricsInstance
}

// RecordOperation records a completed operation's outcome and duration.
func (m *Metrics) RecordOperation(op string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.OperationsTotal.WithLabelValues(op, outcome).Inc()
	m.OperationDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordMountState records entry into a mount state machine state.
func (m *Metrics) RecordMountState(state string) {
	if m == nil {
		return
	}
	m.MountState.WithLabelValues(state).Inc()
}
