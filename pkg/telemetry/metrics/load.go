package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/clayv/RateGate/pkg/config"
)

// LoadMetrics tracks load-generator runs.
//
// Metrics:
//   - rategate_load_runs_total: completed runs by gate and audit result
//   - rategate_load_admitted: admissions in the latest run
//   - rategate_load_max_in_window: largest admissions seen in one window
//   - rategate_load_window_bound: admissions allowed in one window
type LoadMetrics struct {
	runsTotal   *prometheus.CounterVec
	admitted    *prometheus.GaugeVec
	maxInWindow *prometheus.GaugeVec
	windowBound *prometheus.GaugeVec
}

// NewLoadMetrics creates and registers load metrics with the provided registry.
func NewLoadMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *LoadMetrics {
	lm := &LoadMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "load",
				Name:      "runs_total",
				Help:      "Total load runs by audit result",
			},
			[]string{"gate", "result"},
		),
		admitted: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "load",
				Name:      "admitted",
				Help:      "Admissions in the latest load run",
			},
			[]string{"gate"},
		),
		maxInWindow: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "load",
				Name:      "max_in_window",
				Help:      "Largest number of admissions observed in one window in the latest run",
			},
			[]string{"gate"},
		),
		windowBound: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "load",
				Name:      "window_bound",
				Help:      "Admissions a gate may allow in one window",
			},
			[]string{"gate"},
		),
	}

	registry.MustRegister(lm.runsTotal, lm.admitted, lm.maxInWindow, lm.windowBound)

	return lm
}

// RecordRun records one run summary.
func (lm *LoadMetrics) RecordRun(gate string, admitted, maxInWindow, bound int, passed bool) {
	result := "passed"
	if !passed {
		result = "failed"
	}
	lm.runsTotal.WithLabelValues(gate, result).Inc()
	lm.admitted.WithLabelValues(gate).Set(float64(admitted))
	lm.maxInWindow.WithLabelValues(gate).Set(float64(maxInWindow))
	lm.windowBound.WithLabelValues(gate).Set(float64(bound))
}
