package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/clayv/RateGate/pkg/rategate"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "gates[0].occurrences").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateGates(cfg.Gates)...)
	errs = append(errs, validateLoad(&cfg.Load)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateReports(&cfg.Reports)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateGates checks every gate against the same bounds rategate.New
// enforces, and rejects duplicate or empty names.
func validateGates(gates []GateConfig) []FieldError {
	var errs []FieldError

	if len(gates) == 0 {
		errs = append(errs, FieldError{
			Field:   "gates",
			Message: "at least one gate is required",
		})
		return errs
	}

	seen := make(map[string]int, len(gates))
	for i, g := range gates {
		field := fmt.Sprintf("gates[%d]", i)

		if g.Name == "" {
			errs = append(errs, FieldError{
				Field:   field + ".name",
				Message: "gate name is required",
			})
		} else if first, dup := seen[g.Name]; dup {
			errs = append(errs, FieldError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate gate name %q (first declared at gates[%d])", g.Name, first),
			})
		} else {
			seen[g.Name] = i
		}

		// Check each bound on its own so both fields are reported.
		if err := rategate.ValidateConfig(g.Occurrences, time.Millisecond); err != nil {
			errs = append(errs, FieldError{
				Field:   field + ".occurrences",
				Message: err.Error(),
			})
		}
		if err := rategate.ValidateConfig(1, g.TimeUnit); err != nil {
			errs = append(errs, FieldError{
				Field:   field + ".time_unit",
				Message: err.Error(),
			})
		}
	}

	return errs
}

func validateLoad(cfg *LoadSettings) []FieldError {
	var errs []FieldError

	if cfg.Workers <= 0 {
		errs = append(errs, FieldError{
			Field:   "load.workers",
			Message: "workers must be positive",
		})
	}
	if cfg.Duration <= 0 {
		errs = append(errs, FieldError{
			Field:   "load.duration",
			Message: "duration must be positive",
		})
	}
	if cfg.Timeout < 0 && cfg.Timeout != rategate.Infinite {
		errs = append(errs, FieldError{
			Field:   "load.timeout",
			Message: fmt.Sprintf("timeout must be non-negative or %d (infinite), got %s", rategate.Infinite, cfg.Timeout),
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json', 'text', or 'console'", cfg.Logging.Format),
		})
	}

	if cfg.Logging.BufferSize < 0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.buffer_size",
			Message: "buffer size must be non-negative",
		})
	}

	if cfg.Metrics.Enabled {
		if _, _, err := net.SplitHostPort(cfg.Metrics.ListenAddress); err != nil {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.listen_address",
				Message: fmt.Sprintf("invalid listen address %q: %v", cfg.Metrics.ListenAddress, err),
			})
		}

		paths := map[string]string{
			"telemetry.metrics.path":          cfg.Metrics.Path,
			"telemetry.health.liveness_path":  cfg.Health.LivenessPath,
			"telemetry.health.readiness_path": cfg.Health.ReadinessPath,
			"telemetry.health.version_path":   cfg.Health.VersionPath,
		}
		for field, path := range paths {
			if !strings.HasPrefix(path, "/") {
				errs = append(errs, FieldError{
					Field:   field,
					Message: fmt.Sprintf("path %q must start with '/'", path),
				})
			}
		}
	}

	if cfg.Health.CheckTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.health.check_timeout",
			Message: "check timeout must be non-negative",
		})
	}

	if cfg.Tracing.Enabled {
		switch cfg.Tracing.Sampler {
		case "always", "never":
		case "ratio":
			if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
				errs = append(errs, FieldError{
					Field:   "telemetry.tracing.sample_ratio",
					Message: fmt.Sprintf("sample ratio must be between 0.0 and 1.0, got %g", cfg.Tracing.SampleRatio),
				})
			}
		default:
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sampler",
				Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
			})
		}
		if _, _, err := net.SplitHostPort(cfg.Tracing.Endpoint); err != nil {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.endpoint",
				Message: fmt.Sprintf("invalid endpoint %q: %v", cfg.Tracing.Endpoint, err),
			})
		}
		if cfg.Tracing.Timeout < 0 {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.timeout",
				Message: "timeout must be non-negative",
			})
		}
	}

	return errs
}

// validateReports validates report storage and retention configuration.
func validateReports(cfg *ReportsConfig) []FieldError {
	var errs []FieldError

	switch cfg.Storage.Backend {
	case "memory":
	case "sqlite":
		if cfg.Storage.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "reports.storage.sqlite.path",
				Message: "sqlite path is required when backend is 'sqlite'",
			})
		}
		if cfg.Storage.SQLite.Driver != "modernc" && cfg.Storage.SQLite.Driver != "cgo" {
			errs = append(errs, FieldError{
				Field:   "reports.storage.sqlite.driver",
				Message: fmt.Sprintf("invalid sqlite driver %q: must be 'modernc' or 'cgo'", cfg.Storage.SQLite.Driver),
			})
		}
		if cfg.Storage.SQLite.BusyTimeout < 0 {
			errs = append(errs, FieldError{
				Field:   "reports.storage.sqlite.busy_timeout",
				Message: "busy timeout must be non-negative",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "reports.storage.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'memory' or 'sqlite'", cfg.Storage.Backend),
		})
	}

	if cfg.Retention.MaxRecords < 0 {
		errs = append(errs, FieldError{
			Field:   "reports.retention.max_records",
			Message: "max records must be non-negative",
		})
	}
	if _, err := cron.ParseStandard(cfg.Retention.Schedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "reports.retention.schedule",
			Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.Retention.Schedule, err),
		})
	}

	return errs
}
