// Package metrics exposes RateGate behaviour as Prometheus metrics.
//
// The Collector implements rategate.Observer, so attaching it to a gate
// with rategate.WithObserver is all that is needed to export admission
// outcomes, wait latency, in-flight admissions and reclaimer activity.
// Load runs add their audit summary through RecordRun.
//
// All metrics are registered on the collector's own registry and served
// by Handler in the Prometheus exposition format.
package metrics
