// Package tracing exports OpenTelemetry spans for load runs.
//
// Each audited load run becomes one span named "rategate.load.run" carrying
// the gate's configuration, the load settings and the audit outcome under
// the "rategate.*" attribute namespace. A failed audit or a gate failure
// marks the span as an error.
//
// Spans are batched and sent to an OTLP/gRPC collector. Sampling is
// parent based with one of three root strategies:
//   - always: every run
//   - never: no runs
//   - ratio: a fraction of runs, by trace ID
//
// A disabled Tracer hands out no-op spans, so callers never check whether
// tracing is on:
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	if err != nil {
//		return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, tracing.SpanLoadRun)
//	defer span.End()
package tracing
