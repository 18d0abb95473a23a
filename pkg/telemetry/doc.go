// Package telemetry groups the observability packages used by rategate.
//
// # Components
//
//   - logging: structured slog output through an async buffer, with run and
//     gate fields carried on the context
//   - metrics: Prometheus collectors for gate admissions, waits, reclaims
//     and load-run audits
//   - tracing: OpenTelemetry spans for load runs, exported over OTLP/gRPC
//   - health: liveness, readiness and version endpoints
//
// Each sub-package is configured from the matching section of
// config.TelemetryConfig and can be used on its own. The run command wires
// all four together:
//
//	logger, _ := logging.FromConfig(cfg.Logging, os.Stderr)
//	logger.SetDefault()
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	tracer, _ := tracing.New(&cfg.Telemetry.Tracing, version)
//	defer tracer.Shutdown(context.Background())
//
//	reg, _ := registry.FromConfig(cfg.Gates, rategate.WithObserver(collector))
package telemetry
