package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/clayv/RateGate/pkg/config"
	"github.com/clayv/RateGate/pkg/rategate"
)

// Collector is the entry point for all Prometheus metrics in RateGate.
// It owns the registry, observes gates through the rategate.Observer
// interface and records load-run results.
//
// Pass the collector to every gate with rategate.WithObserver:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	reg, err := registry.FromConfig(cfg.Gates, rategate.WithObserver(collector))
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	gateMetrics *GateMetrics
	loadMetrics *LoadMetrics
}

var _ rategate.Observer = (*Collector)(nil)

// NewCollector creates a collector registering its metrics with registry.
// A nil registry creates a fresh one.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}

	return &Collector{
		config:      cfg,
		registry:    registry,
		gateMetrics: NewGateMetrics(cfg, registry),
		loadMetrics: NewLoadMetrics(cfg, registry),
	}
}

// Registry returns the Prometheus registry backing the collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveWait records the outcome and duration of one WaitToProceed call.
func (c *Collector) ObserveWait(gate string, outcome rategate.Outcome, waited time.Duration) {
	c.gateMetrics.RecordWait(gate, string(outcome), waited)
}

// ObserveAdmit records the in-flight count after an admission.
func (c *Collector) ObserveAdmit(gate string, inFlight int) {
	c.gateMetrics.RecordAdmit(gate, inFlight)
}

// ObserveReclaim records released occurrences and the remaining in-flight
// count after a reclaimer pass.
func (c *Collector) ObserveReclaim(gate string, released, inFlight int) {
	c.gateMetrics.RecordReclaim(gate, released, inFlight)
}

// ObserveClose records a gate teardown.
func (c *Collector) ObserveClose(gate string) {
	c.gateMetrics.RecordClose(gate)
}

// RecordRun records the summary of one load run against gate.
//
// Parameters:
//   - admitted: callers admitted during the run
//   - maxInWindow: the largest number of admissions seen in one window
//   - bound: the admissions the gate may allow in one window
//   - passed: whether the sliding-window audit held
func (c *Collector) RecordRun(gate string, admitted, maxInWindow, bound int, passed bool) {
	c.loadMetrics.RecordRun(gate, admitted, maxInWindow, bound, passed)
}
