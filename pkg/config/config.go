package config

import "time"

// Config is the root configuration structure for RateGate tooling.
// It declares the named gates, the load generator settings, telemetry and
// report persistence.
type Config struct {
	// Gates lists the named rate gates to build. Names must be unique.
	Gates []GateConfig `yaml:"gates"`

	// Load contains defaults for the load generator driven by `rategate run`.
	Load LoadSettings `yaml:"load"`

	// Telemetry contains configuration for logging, metrics and health
	// endpoints.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Reports contains configuration for persisting load-run reports.
	Reports ReportsConfig `yaml:"reports"`
}

// GateConfig describes one named gate.
type GateConfig struct {
	// Name identifies the gate in logs, metrics and reports.
	Name string `yaml:"name"`

	// Occurrences is the number of admissions allowed per time unit.
	Occurrences int `yaml:"occurrences"`

	// TimeUnit is the length of the sliding window. Rounded up to whole
	// milliseconds; must not exceed rategate.MaxTimeUnit.
	TimeUnit time.Duration `yaml:"time_unit"`
}

// LoadSettings contains load generator settings.
type LoadSettings struct {
	// Workers is the number of concurrent callers per gate.
	// Default: 16
	Workers int `yaml:"workers"`

	// Duration is how long each gate is driven.
	// Default: 10s
	Duration time.Duration `yaml:"duration"`

	// Timeout is the per-call wait timeout. -1ns (rategate.Infinite) waits
	// until admitted. Probe-only runs pass `--timeout 0` on the command line.
	// Default: 1s
	Timeout time.Duration `yaml:"timeout"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// TracingConfig contains OpenTelemetry tracing configuration. Each load run
// becomes one span per gate, exported over OTLP/gRPC.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of runs to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "rategate"
	ServiceName string `yaml:"service_name"`

	// Insecure disables TLS for the collector connection.
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	AddSource bool `yaml:"add_source"`

	// BufferSize is the size of the async log buffer.
	// Default: 1000
	BufferSize int `yaml:"buffer_size"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled starts the HTTP server for /metrics and the health endpoints
	// during `rategate run`.
	Enabled bool `yaml:"enabled"`

	// ListenAddress is where the telemetry HTTP server listens.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "rategate"
	Namespace string `yaml:"namespace"`
}

// HealthConfig contains health check endpoint configuration. The endpoints
// are served by the metrics HTTP server.
type HealthConfig struct {
	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/healthz"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/readyz"
	ReadinessPath string `yaml:"readiness_path"`

	// VersionPath is the path for the version information endpoint.
	// Default: "/version"
	VersionPath string `yaml:"version_path"`

	// CheckTimeout bounds each readiness check.
	// Default: 2s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}

// ReportsConfig contains report persistence configuration.
type ReportsConfig struct {
	// Storage selects and configures the report backend.
	Storage StorageConfig `yaml:"storage"`

	// Retention controls pruning of old reports.
	Retention RetentionConfig `yaml:"retention"`
}

// StorageConfig selects the report backend.
type StorageConfig struct {
	// Backend is the storage backend.
	// Options: "memory", "sqlite"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite configures the SQLite backend.
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// SQLiteConfig configures the SQLite report backend.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/reports.db"
	Path string `yaml:"path"`

	// Driver selects the SQLite driver.
	// Options: "modernc" (pure Go), "cgo" (mattn/go-sqlite3)
	// Default: "modernc"
	Driver string `yaml:"driver"`

	// BusyTimeout is how long a writer waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RetentionConfig controls pruning of stored reports.
type RetentionConfig struct {
	// Days is how long reports are kept. A negative value keeps reports
	// forever.
	// Default: 30
	Days int `yaml:"days"`

	// MaxRecords caps the number of stored reports. 0 means unlimited.
	MaxRecords int64 `yaml:"max_records"`

	// Schedule is the cron expression for the pruning job.
	// Default: "0 3 * * *"
	Schedule string `yaml:"schedule"`
}

// Gate returns the gate configuration with the given name.
func (c *Config) Gate(name string) (GateConfig, bool) {
	for _, g := range c.Gates {
		if g.Name == name {
			return g, true
		}
	}
	return GateConfig{}, false
}

// GateNames returns the configured gate names in declaration order.
func (c *Config) GateNames() []string {
	names := make([]string, 0, len(c.Gates))
	for _, g := range c.Gates {
		names = append(names, g.Name)
	}
	return names
}
