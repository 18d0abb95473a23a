package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/clayv/RateGate/pkg/cli"
	"github.com/clayv/RateGate/pkg/config"
)

var validateFlags struct {
	watch bool
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load the configuration file, apply defaults and RATEGATE_* environment
overrides, and check every field. Gate entries are held to the same bounds
as the gate constructor.

With --watch the command keeps running and reloads the file on every save
until interrupted. Each valid save is installed as a new revision; an
invalid one is reported and the previous revision stays in effect.

Examples:
  # Validate once
  rategate validate --config gates.yaml

  # Re-validate while editing
  rategate validate --watch`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVarP(&validateFlags.watch, "watch", "w", false, "re-validate whenever the file changes")
}

func validateConfig(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	err := config.Initialize(cfgFile)
	printValidation(out, config.GetConfig(), err)

	if !validateFlags.watch {
		if err != nil {
			return cli.NewCommandError("validate", err)
		}
		return nil
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	fmt.Fprintf(out, "Watching %s for changes (Ctrl+C to stop)\n", cfgFile)
	err = config.Watch(ctx, config.DefaultDebounceInterval,
		slog.Default().With("component", "config.watcher"),
		func(cfg *config.Config, err error) {
			printValidation(out, cfg, err)
		})
	if err != nil && ctx.Err() == nil {
		return cli.NewCommandError("validate", err)
	}
	return nil
}

func printValidation(w io.Writer, cfg *config.Config, err error) {
	if err == nil && cfg == nil {
		err = config.ErrNotInitialized
	}
	if err != nil {
		fmt.Fprintf(w, "✗ %s: %v\n", cfgFile, err)
		return
	}

	fmt.Fprintf(w, "✓ %s is valid (%d gates, revision %d)\n", cfgFile, len(cfg.Gates), config.Revision())
	for _, g := range cfg.Gates {
		fmt.Fprintf(w, "  - %s: %d per %s\n", g.Name, g.Occurrences, g.TimeUnit)
	}
}
