package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/clayv/RateGate/pkg/config"
)

// GateMetrics tracks admission behaviour of rate gates.
//
// Metrics:
//   - rategate_gate_waits_total: wait calls by gate and outcome
//   - rategate_gate_wait_duration_seconds: time spent waiting, by outcome
//   - rategate_gate_in_flight: admissions whose expiry is pending
//   - rategate_gate_reclaimed_total: occurrences returned by the reclaimer
//   - rategate_gate_closed_total: gate teardowns
type GateMetrics struct {
	waitsTotal     *prometheus.CounterVec
	waitDuration   *prometheus.HistogramVec
	inFlight       *prometheus.GaugeVec
	reclaimedTotal *prometheus.CounterVec
	closedTotal    *prometheus.CounterVec
}

// NewGateMetrics creates and registers gate metrics with the provided registry.
func NewGateMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *GateMetrics {
	gm := &GateMetrics{
		waitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "gate",
				Name:      "waits_total",
				Help:      "Total number of WaitToProceed calls by outcome",
			},
			[]string{"gate", "outcome"},
		),

		waitDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "gate",
				Name:      "wait_duration_seconds",
				Help:      "Time callers spent waiting for admission",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10), // 0.5ms to ~2m
			},
			[]string{"gate", "outcome"},
		),

		inFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "gate",
				Name:      "in_flight",
				Help:      "Admissions whose expiry has not yet been reclaimed",
			},
			[]string{"gate"},
		),

		reclaimedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "gate",
				Name:      "reclaimed_total",
				Help:      "Total occurrences returned to gates by the reclaimer",
			},
			[]string{"gate"},
		),

		closedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "gate",
				Name:      "closed_total",
				Help:      "Total gate teardowns",
			},
			[]string{"gate"},
		),
	}

	registry.MustRegister(
		gm.waitsTotal,
		gm.waitDuration,
		gm.inFlight,
		gm.reclaimedTotal,
		gm.closedTotal,
	)

	return gm
}

// RecordWait records one wait call.
func (gm *GateMetrics) RecordWait(gate, outcome string, waited time.Duration) {
	gm.waitsTotal.WithLabelValues(gate, outcome).Inc()
	gm.waitDuration.WithLabelValues(gate, outcome).Observe(waited.Seconds())
}

// RecordAdmit publishes the in-flight count right after an admission.
func (gm *GateMetrics) RecordAdmit(gate string, inFlight int) {
	gm.inFlight.WithLabelValues(gate).Set(float64(inFlight))
}

// RecordReclaim records a reclaimer pass. inFlight is authoritative and
// replaces the running gauge value.
func (gm *GateMetrics) RecordReclaim(gate string, released, inFlight int) {
	gm.reclaimedTotal.WithLabelValues(gate).Add(float64(released))
	gm.inFlight.WithLabelValues(gate).Set(float64(inFlight))
}

// RecordClose records a teardown; a closed gate holds nothing.
func (gm *GateMetrics) RecordClose(gate string) {
	gm.closedTotal.WithLabelValues(gate).Inc()
	gm.inFlight.WithLabelValues(gate).Set(0)
}
