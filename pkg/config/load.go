package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable override.
const EnvPrefix = "RATEGATE_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// Environment variables are not consulted; use LoadConfigWithEnvOverrides
// for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML and applies defaults without validating.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	ApplyDefaults(&cfg)
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention RATEGATE_SECTION_FIELD (e.g., RATEGATE_LOAD_WORKERS).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Values that fail to parse are ignored and the file value stays in effect.
func applyEnvOverrides(cfg *Config) {
	// Load overrides
	envInt("LOAD_WORKERS", &cfg.Load.Workers)
	envDuration("LOAD_DURATION", &cfg.Load.Duration)
	envDuration("LOAD_TIMEOUT", &cfg.Load.Timeout)

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY_METRICS_LISTEN_ADDRESS", &cfg.Telemetry.Metrics.ListenAddress)
	envString("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	envBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)

	// Report overrides
	envString("REPORTS_STORAGE_BACKEND", &cfg.Reports.Storage.Backend)
	envString("REPORTS_STORAGE_SQLITE_PATH", &cfg.Reports.Storage.SQLite.Path)
	envString("REPORTS_STORAGE_SQLITE_DRIVER", &cfg.Reports.Storage.SQLite.Driver)
	envInt("REPORTS_RETENTION_DAYS", &cfg.Reports.Retention.Days)
	envString("REPORTS_RETENTION_SCHEDULE", &cfg.Reports.Retention.Schedule)

	for i := range cfg.Gates {
		applyGateEnvOverrides(&cfg.Gates[i])
	}
}

// applyGateEnvOverrides applies overrides for a single named gate.
// Gate variables follow the format RATEGATE_GATES_<NAME>_<FIELD> where NAME
// is the upper-cased gate name with dashes replaced by underscores.
func applyGateEnvOverrides(gate *GateConfig) {
	key := strings.ToUpper(strings.ReplaceAll(gate.Name, "-", "_"))
	prefix := fmt.Sprintf("GATES_%s_", key)

	envInt(prefix+"OCCURRENCES", &gate.Occurrences)
	envDuration(prefix+"TIME_UNIT", &gate.TimeUnit)
}

func envString(name string, dst *string) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		*dst = val
	}
}

func envInt(name string, dst *int) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envBool(name string, dst *bool) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envDuration(name string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
