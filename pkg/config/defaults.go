package config

import "time"

// Default values for configuration fields.
const (
	// Load defaults
	DefaultLoadWorkers  = 16
	DefaultLoadDuration = 10 * time.Second
	DefaultLoadTimeout  = time.Second

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "text"
	DefaultLoggingBufferSize  = 1000
	DefaultMetricsListen      = "127.0.0.1:9090"
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "rategate"
	DefaultHealthLiveness     = "/healthz"
	DefaultHealthReadiness    = "/readyz"
	DefaultHealthVersion      = "/version"
	DefaultHealthCheckTimeout = 2 * time.Second
	DefaultTracingSampler     = "always"
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingService     = "rategate"
	DefaultTracingTimeout     = 10 * time.Second

	// Report defaults
	DefaultStorageBackend    = "sqlite"
	DefaultSQLitePath        = "data/reports.db"
	DefaultSQLiteDriver      = "modernc"
	DefaultSQLiteBusyTimeout = 5 * time.Second
	DefaultRetentionDays     = 30
	DefaultRetentionSchedule = "0 3 * * *"
)

// ApplyDefaults fills zero-valued fields with their defaults. Fields that
// were set explicitly are left untouched. Gate entries have no defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Load.Workers == 0 {
		cfg.Load.Workers = DefaultLoadWorkers
	}
	if cfg.Load.Duration == 0 {
		cfg.Load.Duration = DefaultLoadDuration
	}
	if cfg.Load.Timeout == 0 {
		cfg.Load.Timeout = DefaultLoadTimeout
	}

	applyTelemetryDefaults(&cfg.Telemetry)
	applyReportsDefaults(&cfg.Reports)
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLoggingLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLoggingFormat
	}
	if t.Logging.BufferSize == 0 {
		t.Logging.BufferSize = DefaultLoggingBufferSize
	}

	if t.Metrics.ListenAddress == "" {
		t.Metrics.ListenAddress = DefaultMetricsListen
	}
	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultMetricsPath
	}
	if t.Metrics.Namespace == "" {
		t.Metrics.Namespace = DefaultMetricsNamespace
	}

	if t.Health.LivenessPath == "" {
		t.Health.LivenessPath = DefaultHealthLiveness
	}
	if t.Health.ReadinessPath == "" {
		t.Health.ReadinessPath = DefaultHealthReadiness
	}
	if t.Health.VersionPath == "" {
		t.Health.VersionPath = DefaultHealthVersion
	}
	if t.Health.CheckTimeout == 0 {
		t.Health.CheckTimeout = DefaultHealthCheckTimeout
	}

	if t.Tracing.Sampler == "" {
		t.Tracing.Sampler = DefaultTracingSampler
	}
	if t.Tracing.Endpoint == "" {
		t.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if t.Tracing.ServiceName == "" {
		t.Tracing.ServiceName = DefaultTracingService
	}
	if t.Tracing.Timeout == 0 {
		t.Tracing.Timeout = DefaultTracingTimeout
	}
}

func applyReportsDefaults(r *ReportsConfig) {
	if r.Storage.Backend == "" {
		r.Storage.Backend = DefaultStorageBackend
	}
	if r.Storage.SQLite.Path == "" {
		r.Storage.SQLite.Path = DefaultSQLitePath
	}
	if r.Storage.SQLite.Driver == "" {
		r.Storage.SQLite.Driver = DefaultSQLiteDriver
	}
	if r.Storage.SQLite.BusyTimeout == 0 {
		r.Storage.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}

	if r.Retention.Days == 0 {
		r.Retention.Days = DefaultRetentionDays
	}
	if r.Retention.Schedule == "" {
		r.Retention.Schedule = DefaultRetentionSchedule
	}
}
