package tracing

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	SpanLoadRun = "rategate.load.run"
)

// Attribute keys use the "rategate.*" namespace.
const (
	AttrRunID       = "rategate.run_id"
	AttrGate        = "rategate.gate"
	AttrOccurrences = "rategate.gate.occurrences"
	AttrTimeUnitMS  = "rategate.gate.time_unit_ms"

	AttrWorkers    = "rategate.load.workers"
	AttrDurationMS = "rategate.load.duration_ms"
	AttrTimeoutMS  = "rategate.load.timeout_ms"

	AttrAttempts    = "rategate.load.attempts"
	AttrAdmitted    = "rategate.load.admitted"
	AttrRejected    = "rategate.load.rejected"
	AttrMaxInWindow = "rategate.audit.max_in_window"
	AttrTotalBound  = "rategate.audit.total_bound"
	AttrPassed      = "rategate.audit.passed"
)

// GateAttributes describes the gate a span runs against.
func GateAttributes(runID, gate string, occurrences int, timeUnit time.Duration) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrRunID, runID),
		attribute.String(AttrGate, gate),
		attribute.Int(AttrOccurrences, occurrences),
		attribute.Int64(AttrTimeUnitMS, timeUnit.Milliseconds()),
	}
}

// LoadAttributes describes the load settings of a run.
func LoadAttributes(workers int, duration, timeout time.Duration) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrWorkers, workers),
		attribute.Int64(AttrDurationMS, duration.Milliseconds()),
		attribute.Int64(AttrTimeoutMS, timeout.Milliseconds()),
	}
}

// SetAudit records a run's outcome on span. A failed audit marks the span
// as an error.
func SetAudit(span trace.Span, attempts, admitted, rejected, maxInWindow, totalBound int, passed bool) {
	span.SetAttributes(
		attribute.Int(AttrAttempts, attempts),
		attribute.Int(AttrAdmitted, admitted),
		attribute.Int(AttrRejected, rejected),
		attribute.Int(AttrMaxInWindow, maxInWindow),
		attribute.Int(AttrTotalBound, totalBound),
		attribute.Bool(AttrPassed, passed),
	)
	if !passed {
		span.SetStatus(codes.Error, "sliding-window audit failed")
	}
}

// RecordError records err on span and marks it failed. A nil err is a no-op.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
