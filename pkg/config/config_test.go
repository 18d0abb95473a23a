package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

const validYAML = `
gates:
  - name: github-api
    occurrences: 30
    time_unit: 1m
  - name: mailer
    occurrences: 5
    time_unit: 1500us
load:
  workers: 8
  duration: 2s
  timeout: 250ms
telemetry:
  logging:
    level: debug
    format: json
reports:
  storage:
    backend: memory
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rategate.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

// ============================================================================
// Loading
// ============================================================================

func TestLoadConfig_ValidFile(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if len(cfg.Gates) != 2 {
		t.Fatalf("expected 2 gates, got %d", len(cfg.Gates))
	}
	gate, ok := cfg.Gate("github-api")
	if !ok {
		t.Fatal("expected gate github-api")
	}
	if gate.Occurrences != 30 || gate.TimeUnit != time.Minute {
		t.Errorf("unexpected gate config %+v", gate)
	}
	if cfg.Load.Workers != 8 || cfg.Load.Timeout != 250*time.Millisecond {
		t.Errorf("unexpected load config %+v", cfg.Load)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
	}
	if got := cfg.GateNames(); strings.Join(got, ",") != "github-api,mailer" {
		t.Errorf("GateNames() = %v", got)
	}
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
gates:
  - name: only
    occurrences: 1
    time_unit: 1s
`))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Load.Workers != DefaultLoadWorkers {
		t.Errorf("expected workers %d, got %d", DefaultLoadWorkers, cfg.Load.Workers)
	}
	if cfg.Load.Timeout != DefaultLoadTimeout {
		t.Errorf("expected timeout %v, got %v", DefaultLoadTimeout, cfg.Load.Timeout)
	}
	if cfg.Reports.Storage.Backend != DefaultStorageBackend {
		t.Errorf("expected backend %q, got %q", DefaultStorageBackend, cfg.Reports.Storage.Backend)
	}
	if cfg.Reports.Storage.SQLite.Driver != DefaultSQLiteDriver {
		t.Errorf("expected driver %q, got %q", DefaultSQLiteDriver, cfg.Reports.Storage.SQLite.Driver)
	}
	if cfg.Reports.Retention.Schedule != DefaultRetentionSchedule {
		t.Errorf("expected schedule %q, got %q", DefaultRetentionSchedule, cfg.Reports.Retention.Schedule)
	}
	if cfg.Telemetry.Health.ReadinessPath != DefaultHealthReadiness {
		t.Errorf("expected readiness path %q, got %q", DefaultHealthReadiness, cfg.Telemetry.Health.ReadinessPath)
	}
}

func TestParse_LoadSection(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want LoadSettings
	}{
		{
			name: "explicit values",
			yaml: "load:\n  workers: 4\n  duration: 30s\n  timeout: 500ms\n",
			want: LoadSettings{Workers: 4, Duration: 30 * time.Second, Timeout: 500 * time.Millisecond},
		},
		{
			name: "infinite timeout",
			yaml: "load:\n  workers: 2\n  timeout: -1ns\n",
			want: LoadSettings{Workers: 2, Duration: DefaultLoadDuration, Timeout: -1},
		},
		{
			name: "section omitted",
			yaml: "gates: []\n",
			want: LoadSettings{Workers: DefaultLoadWorkers, Duration: DefaultLoadDuration, Timeout: DefaultLoadTimeout},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.yaml))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if cfg.Load != tt.want {
				t.Errorf("Load = %+v, want %+v", cfg.Load, tt.want)
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "gates: [\n"))
	if err == nil || !strings.Contains(err.Error(), "failed to parse") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	t.Setenv("RATEGATE_LOAD_WORKERS", "64")
	t.Setenv("RATEGATE_LOAD_TIMEOUT", "-1ns")
	t.Setenv("RATEGATE_GATES_GITHUB_API_OCCURRENCES", "10")
	t.Setenv("RATEGATE_GATES_MAILER_TIME_UNIT", "2s")
	t.Setenv("RATEGATE_TELEMETRY_METRICS_ENABLED", "true")
	t.Setenv("RATEGATE_REPORTS_RETENTION_DAYS", "not-a-number")

	cfg, err := LoadConfigWithEnvOverrides(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Load.Workers != 64 {
		t.Errorf("expected workers 64, got %d", cfg.Load.Workers)
	}
	if cfg.Load.Timeout != -1 {
		t.Errorf("expected infinite timeout, got %v", cfg.Load.Timeout)
	}
	if g, _ := cfg.Gate("github-api"); g.Occurrences != 10 {
		t.Errorf("expected github-api occurrences 10, got %d", g.Occurrences)
	}
	if g, _ := cfg.Gate("mailer"); g.TimeUnit != 2*time.Second {
		t.Errorf("expected mailer time unit 2s, got %v", g.TimeUnit)
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics enabled")
	}
	if cfg.Reports.Retention.Days != DefaultRetentionDays {
		t.Errorf("unparseable override should be ignored, got days %d", cfg.Reports.Retention.Days)
	}
}

func TestLoadConfigWithEnvOverrides_RevalidatesOverrides(t *testing.T) {
	t.Setenv("RATEGATE_GATES_MAILER_OCCURRENCES", "0")

	_, err := LoadConfigWithEnvOverrides(writeConfig(t, validYAML))
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Errors[0].Field != "gates[1].occurrences" {
		t.Errorf("unexpected field %q", verr.Errors[0].Field)
	}
}

// ============================================================================
// Validation
// ============================================================================

func validConfig() *Config {
	cfg := &Config{
		Gates: []GateConfig{{Name: "a", Occurrences: 1, TimeUnit: time.Second}},
	}
	ApplyDefaults(cfg)
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Config)
		wantFields []string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:       "no gates",
			mutate:     func(c *Config) { c.Gates = nil },
			wantFields: []string{"gates"},
		},
		{
			name: "duplicate and empty names",
			mutate: func(c *Config) {
				c.Gates = append(c.Gates,
					GateConfig{Name: "a", Occurrences: 1, TimeUnit: time.Second},
					GateConfig{Name: "", Occurrences: 1, TimeUnit: time.Second},
				)
			},
			wantFields: []string{"gates[1].name", "gates[2].name"},
		},
		{
			name: "both gate bounds reported",
			mutate: func(c *Config) {
				c.Gates[0].Occurrences = 0
				c.Gates[0].TimeUnit = -time.Second
			},
			wantFields: []string{"gates[0].occurrences", "gates[0].time_unit"},
		},
		{
			name:       "time unit above maximum",
			mutate:     func(c *Config) { c.Gates[0].TimeUnit = 25 * 24 * time.Hour },
			wantFields: []string{"gates[0].time_unit"},
		},
		{
			name:       "negative timeout other than infinite",
			mutate:     func(c *Config) { c.Load.Timeout = -time.Second },
			wantFields: []string{"load.timeout"},
		},
		{
			name:       "bad logging level",
			mutate:     func(c *Config) { c.Telemetry.Logging.Level = "verbose" },
			wantFields: []string{"telemetry.logging.level"},
		},
		{
			name: "metrics listen address checked only when enabled",
			mutate: func(c *Config) {
				c.Telemetry.Metrics.Enabled = true
				c.Telemetry.Metrics.ListenAddress = "no-port"
			},
			wantFields: []string{"telemetry.metrics.listen_address"},
		},
		{
			name: "tracing checked only when enabled",
			mutate: func(c *Config) {
				c.Telemetry.Tracing.Sampler = "sometimes"
			},
		},
		{
			name: "bad tracing settings",
			mutate: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
				c.Telemetry.Tracing.Sampler = "ratio"
				c.Telemetry.Tracing.SampleRatio = 1.5
				c.Telemetry.Tracing.Endpoint = "collector"
			},
			wantFields: []string{"telemetry.tracing.sample_ratio", "telemetry.tracing.endpoint"},
		},
		{
			name:       "bad backend",
			mutate:     func(c *Config) { c.Reports.Storage.Backend = "postgres" },
			wantFields: []string{"reports.storage.backend"},
		},
		{
			name:       "bad driver",
			mutate:     func(c *Config) { c.Reports.Storage.SQLite.Driver = "odbc" },
			wantFields: []string{"reports.storage.sqlite.driver"},
		},
		{
			name:       "bad cron",
			mutate:     func(c *Config) { c.Reports.Retention.Schedule = "every day" },
			wantFields: []string{"reports.retention.schedule"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if len(verr.Errors) != len(tt.wantFields) {
				t.Fatalf("expected %d errors, got %v", len(tt.wantFields), verr.Errors)
			}
			for i, field := range tt.wantFields {
				if verr.Errors[i].Field != field {
					t.Errorf("error %d field = %q, want %q", i, verr.Errors[i].Field, field)
				}
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "gates", Message: "required"}}}
	if got := single.Error(); got != "configuration validation failed: gates: required" {
		t.Errorf("unexpected message %q", got)
	}

	multi := ValidationError{Errors: []FieldError{
		{Field: "a", Message: "x"},
		{Field: "b", Message: "y"},
	}}
	if got := multi.Error(); !strings.Contains(got, "2 errors") || !strings.Contains(got, "  - b: y") {
		t.Errorf("unexpected message %q", got)
	}
}

// ============================================================================
// Singleton
// ============================================================================

func resetSingleton() {
	process.mu.Lock()
	process.path = ""
	process.cfg = nil
	process.revision = 0
	process.mu.Unlock()
	process.once = sync.Once{}
}

func TestInitialize(t *testing.T) {
	resetSingleton()
	t.Cleanup(resetSingleton)

	path := writeConfig(t, validYAML)
	if err := Initialize(path); err != nil {
		t.Fatalf("failed to initialize config: %v", err)
	}
	cfg := GetConfig()
	if cfg == nil || len(cfg.Gates) != 2 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if Path() != path || Revision() != 1 {
		t.Errorf("Path() = %q, Revision() = %d", Path(), Revision())
	}

	// Second call is ignored.
	if err := Initialize(filepath.Join(t.TempDir(), "missing.yaml")); err != nil {
		t.Errorf("second Initialize should be ignored, got %v", err)
	}
	if GetConfig() != cfg || Path() != path {
		t.Error("second Initialize replaced the config")
	}
}

func TestReloadConfig(t *testing.T) {
	resetSingleton()
	t.Cleanup(resetSingleton)

	if _, err := ReloadConfig(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("ReloadConfig() before Initialize error = %v, want ErrNotInitialized", err)
	}

	// A broken file at startup still records the path for later reloads.
	path := writeConfig(t, "gates: []\n")
	if err := Initialize(path); err == nil {
		t.Fatal("expected Initialize of invalid config to fail")
	}
	if GetConfig() != nil || Revision() != 0 {
		t.Fatal("invalid config was installed")
	}

	if err := os.WriteFile(path, []byte(validYAML), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := ReloadConfig()
	if err != nil {
		t.Fatalf("ReloadConfig() error = %v", err)
	}
	if GetConfig() != cfg || Revision() != 1 {
		t.Fatalf("reload not installed (revision %d)", Revision())
	}

	if err := os.WriteFile(path, []byte("gates: []\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReloadConfig(); err == nil {
		t.Fatal("expected reload of invalid config to fail")
	}
	if GetConfig() != cfg || Revision() != 1 {
		t.Error("failed reload replaced the config")
	}
}

func TestMustGetConfig_Panics(t *testing.T) {
	resetSingleton()
	t.Cleanup(resetSingleton)

	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustGetConfig()
}
