package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clayv/RateGate/pkg/cli"
	"github.com/clayv/RateGate/pkg/config"
	"github.com/clayv/RateGate/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "rategate",
	Short: "RateGate - sliding-window rate limiting under load",
	Long: `RateGate admits at most N occurrences of an action within any rolling
time unit T, blocking further callers until capacity frees up.

The rategate command works with the gates named in a configuration file:
  - run: drive gates with concurrent callers and audit the window bound
  - validate: check the configuration, optionally on every change
  - report: list and prune stored load-run reports`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the status its error maps to.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
}

// loadConfig loads the config file with RATEGATE_* overrides applied.
func loadConfig() (*config.Config, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, cli.NewConfigError(cfgFile, err.Error())
	}
	return config.MustGetConfig(), nil
}

// setupLogging installs the configured logger as the slog default. The
// caller closes the returned logger to flush buffered output.
func setupLogging(cfg *config.Config) (*logging.Logger, error) {
	logCfg := cfg.Telemetry.Logging
	if verbose {
		logCfg.Level = "debug"
	}

	logger, err := logging.FromConfig(logCfg, os.Stderr)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	logger.SetDefault()
	return logger, nil
}
