// Package health provides liveness, readiness and version endpoints for
// `rategate run`.
//
// Liveness always reports "ok" while the process runs. Readiness runs the
// registered checks concurrently, each bounded by the checker's timeout;
// GatesCheck reports a gate set unhealthy as soon as any gate is closed,
// which includes gates disposed by a reclaimer failure.
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.RegisterCheck("gates", health.GatesCheck(reg))
//	checker.Mount(mux, cfg.Telemetry.Health, health.VersionInfo{Version: version})
package health
