package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/clayv/RateGate/pkg/cli"
	"github.com/clayv/RateGate/pkg/config"
	"github.com/clayv/RateGate/pkg/loadgen"
	"github.com/clayv/RateGate/pkg/rategate"
	"github.com/clayv/RateGate/pkg/registry"
	"github.com/clayv/RateGate/pkg/report"
	"github.com/clayv/RateGate/pkg/report/retention"
	"github.com/clayv/RateGate/pkg/report/storage"
	"github.com/clayv/RateGate/pkg/telemetry/metrics"
	"github.com/clayv/RateGate/pkg/telemetry/tracing"
)

var runFlags struct {
	gates    []string
	workers  int
	duration time.Duration
	timeout  string
	format   string
	noStore  bool
	listen   string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Drive gates with concurrent callers and audit the rate bound",
	Long: `Drive the configured gates with concurrent callers for a fixed duration.

Every admission is timestamped. After the run, each gate is audited: no
trailing window of the gate's time unit may contain more admissions than its
occurrences, and the total may not exceed N x ceil(D/T) + N. Results are
printed and stored as reports. The command exits 2 when any gate fails its
audit.

While running, /metrics and the health endpoints are served when
telemetry.metrics.enabled is set or --listen is given. With
telemetry.tracing.enabled, each gate's run is exported as an OTLP span.

Examples:
  # Drive every configured gate
  rategate run

  # Drive two gates for 30s with 64 callers each
  rategate run --gate mailer --gate search --duration 30s --workers 64

  # Probe without waiting, print JSON, keep nothing
  rategate run --timeout 0 --format json --no-store

  # Callers wait as long as it takes
  rategate run --timeout infinite

  # Expose metrics while the run is in progress
  rategate run --listen 127.0.0.1:9090`,
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringSliceVarP(&runFlags.gates, "gate", "g", nil, "gate to drive (repeatable, default: all)")
	runCmd.Flags().IntVarP(&runFlags.workers, "workers", "w", 0, "concurrent callers per gate (overrides load.workers)")
	runCmd.Flags().DurationVarP(&runFlags.duration, "duration", "d", 0, "run duration (overrides load.duration)")
	runCmd.Flags().StringVarP(&runFlags.timeout, "timeout", "t", "", `per-call wait timeout, or "infinite" (overrides load.timeout)`)
	runCmd.Flags().StringVarP(&runFlags.format, "format", "f", "text", "output format: text, json, csv")
	runCmd.Flags().BoolVar(&runFlags.noStore, "no-store", false, "do not persist reports")
	runCmd.Flags().StringVarP(&runFlags.listen, "listen", "l", "", "serve metrics and health on this address (implies telemetry.metrics.enabled)")
	registerGateCompletions(runCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()

	format, err := cli.ParseFormat(runFlags.format)
	if err != nil {
		return err
	}

	loadCfg, err := loadSettings(cmd, cfg.Load)
	if err != nil {
		return err
	}

	selected, err := selectGates(cfg, runFlags.gates)
	if err != nil {
		return err
	}

	if runFlags.listen != "" {
		cfg.Telemetry.Metrics.Enabled = true
		cfg.Telemetry.Metrics.ListenAddress = runFlags.listen
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to initialize tracing: %w", err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Telemetry.Tracing.Timeout)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}()

	reg, err := registry.FromConfig(selected, rategate.WithObserver(collector))
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer func() {
		if err := reg.Close(); err != nil {
			slog.Warn("gate shutdown reported errors", "error", err)
		}
	}()

	var store report.Storage
	if !runFlags.noStore {
		store, err = storage.Open(cfg.Reports.Storage)
		if err != nil {
			return cli.NewCommandError("run", fmt.Errorf("failed to open report storage: %w", err))
		}
		defer store.Close()

		pruner := retention.NewPruner(store, retention.FromConfig(cfg.Reports.Retention))
		if err := pruner.Start(ctx); err != nil {
			slog.Warn("failed to start retention scheduler", "error", err)
		} else {
			defer pruner.Stop()
		}
	}

	if cfg.Telemetry.Metrics.Enabled {
		srv, err := startTelemetryServer(cfg, collector, reg, store)
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		defer srv.shutdown()
		fmt.Fprintf(os.Stderr, "✓ Metrics: http://%s%s\n", srv.addr, cfg.Telemetry.Metrics.Path)
	}

	gates := make([]*rategate.Gate, 0, len(selected))
	for _, gc := range selected {
		g, err := reg.Get(gc.Name)
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		gates = append(gates, g)
	}

	var admitted atomic.Int64
	stopProgress := func(error) {}
	if format == cli.FormatText {
		stopProgress = trackProgress(ctx, cli.NewProgressReporter(os.Stderr), loadCfg.Duration, &admitted)
	}

	results, runErr := loadgen.RunAll(ctx, gates, loadCfg,
		loadgen.WithLogger(slog.Default().With("component", "loadgen")),
		loadgen.WithAdmittedCounter(&admitted),
		loadgen.WithTracer(tracer.Tracer()),
	)
	stopProgress(runErr)

	runID := uuid.NewString()
	var failed []string
	for _, res := range results {
		if res == nil {
			continue
		}
		collector.RecordRun(res.Gate, res.Admitted, res.MaxInWindow, res.Occurrences, res.Passed)
		if !res.Passed {
			failed = append(failed, res.Gate)
		}
		if store != nil {
			if err := store.Store(context.WithoutCancel(ctx), report.FromResult(res, runID)); err != nil {
				slog.Error("failed to store report", "gate", res.Gate, "error", err)
			}
		}
	}

	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), cli.ResultsTable(results)); err != nil {
		return cli.NewCommandError("run", err)
	}

	if runErr != nil {
		return cli.NewCommandError("run", runErr)
	}
	if len(failed) > 0 {
		return &cli.AuditError{Gates: failed}
	}
	return nil
}

// loadSettings merges load flags over the load section of the config.
func loadSettings(cmd *cobra.Command, lc config.LoadSettings) (loadgen.Config, error) {
	out := loadgen.Config{
		Workers:  lc.Workers,
		Duration: lc.Duration,
		Timeout:  lc.Timeout,
	}

	if cmd.Flags().Changed("workers") {
		if runFlags.workers <= 0 {
			return out, cli.NewConfigError("workers", "must be positive")
		}
		out.Workers = runFlags.workers
	}
	if cmd.Flags().Changed("duration") {
		if runFlags.duration <= 0 {
			return out, cli.NewConfigError("duration", "must be positive")
		}
		out.Duration = runFlags.duration
	}
	if cmd.Flags().Changed("timeout") {
		timeout, err := parseTimeout(runFlags.timeout)
		if err != nil {
			return out, err
		}
		out.Timeout = timeout
	}
	return out, nil
}

// parseTimeout accepts a non-negative duration or "infinite".
func parseTimeout(s string) (time.Duration, error) {
	if strings.EqualFold(s, "infinite") || s == "-1" {
		return rategate.Infinite, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, cli.NewConfigError("timeout", fmt.Sprintf("invalid duration %q", s))
	}
	if d < 0 {
		return 0, cli.NewConfigError("timeout", `must be non-negative or "infinite"`)
	}
	return d, nil
}

// selectGates returns the named gates in the order given, or every gate
// when names is empty.
func selectGates(cfg *config.Config, names []string) ([]config.GateConfig, error) {
	if len(names) == 0 {
		if len(cfg.Gates) == 0 {
			return nil, cli.NewConfigError("gates", "no gates configured")
		}
		return cfg.Gates, nil
	}

	seen := make(map[string]bool, len(names))
	selected := make([]config.GateConfig, 0, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		gc, ok := cfg.Gate(name)
		if !ok {
			return nil, cli.NewConfigError("gate", fmt.Sprintf("unknown gate %q (configured: %s)",
				name, strings.Join(cfg.GateNames(), ", ")))
		}
		selected = append(selected, gc)
	}
	return selected, nil
}

// trackProgress redraws the progress bar until ctx ends or the returned
// stop function is called with the run's error.
func trackProgress(ctx context.Context, p cli.ProgressReporter, total time.Duration, admitted *atomic.Int64) func(error) {
	done := make(chan struct{})
	finished := make(chan struct{})
	started := time.Now()

	p.Start(total)
	go func() {
		defer close(finished)
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				p.Update(time.Since(started), admitted.Load())
			}
		}
	}()

	return func(err error) {
		close(done)
		<-finished
		if err != nil {
			p.Error(err)
			return
		}
		p.Finish()
	}
}
