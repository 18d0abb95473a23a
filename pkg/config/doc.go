// Package config provides configuration management for RateGate tooling.
//
// This package handles loading, validating, and watching YAML configuration
// with environment variable overrides. A configuration declares the named
// gates built by the registry, load generator defaults, telemetry settings
// and report storage.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("rategate.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("rategate.yaml")
//
// # Example
//
//	gates:
//	  - name: github-api
//	    occurrences: 30
//	    time_unit: 1m
//	  - name: mailer
//	    occurrences: 5
//	    time_unit: 1s
//	load:
//	  workers: 32
//	  duration: 30s
//	  timeout: 2s
//	reports:
//	  storage:
//	    backend: sqlite
//	    sqlite:
//	      path: data/reports.db
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention RATEGATE_SECTION_FIELD.
// For example:
//
//   - RATEGATE_LOAD_WORKERS overrides load.workers
//   - RATEGATE_GATES_GITHUB_API_OCCURRENCES overrides occurrences of the
//     gate named "github-api"
//   - RATEGATE_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
//
// # Validation
//
// Gate entries are checked with rategate.ValidateConfig, so a configuration
// that validates always constructs. All field errors are collected into a
// single ValidationError.
//
// # Watching
//
// Watcher reloads the file after a debounced change and hands the new
// configuration, or the load error, to a callback. `rategate validate
// --watch` uses it to re-validate on every save.
package config
