package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/clayv/RateGate/pkg/cli"
	"github.com/clayv/RateGate/pkg/config"
	"github.com/clayv/RateGate/pkg/report"
	"github.com/clayv/RateGate/pkg/report/retention"
	"github.com/clayv/RateGate/pkg/report/storage"
)

var reportFlags struct {
	gate   string
	runID  string
	since  time.Duration
	failed bool
	limit  int
	offset int
	format string
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Inspect stored load-run reports",
	Long: `Inspect and prune the reports written by "rategate run".

Subcommands:
  list   - List reports, newest first
  prune  - Apply the retention policy now`,
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored reports",
	Long: `List stored reports, newest first.

Examples:
  # Last 20 reports
  rategate report list

  # Failed runs of one gate in the last day, as CSV
  rategate report list --gate mailer --failed --since 24h --format csv`,
	RunE: listReports,
}

var reportPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete reports outside the retention policy",
	Long: `Delete reports older than reports.retention.days and, when
reports.retention.max_records is set, the oldest reports beyond that count.`,
	RunE: pruneReports,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportListCmd, reportPruneCmd)

	reportListCmd.Flags().StringVarP(&reportFlags.gate, "gate", "g", "", "filter by gate")
	reportListCmd.Flags().StringVar(&reportFlags.runID, "run", "", "filter by run ID")
	reportListCmd.Flags().DurationVar(&reportFlags.since, "since", 0, "only reports started within this long")
	reportListCmd.Flags().BoolVar(&reportFlags.failed, "failed", false, "only reports that failed the audit")
	reportListCmd.Flags().IntVarP(&reportFlags.limit, "limit", "n", 20, "max results (0 for all)")
	reportListCmd.Flags().IntVar(&reportFlags.offset, "offset", 0, "pagination offset")
	reportListCmd.Flags().StringVarP(&reportFlags.format, "format", "f", "text", "output format: text, json, csv")
	registerGateCompletions(reportListCmd)
}

func openReports() (report.Storage, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := setupLogging(cfg)
	if err != nil {
		return nil, nil, err
	}

	store, err := storage.Open(cfg.Reports.Storage)
	if err != nil {
		logger.Close()
		return nil, nil, cli.NewCommandError("report", err)
	}
	return store, func() {
		store.Close()
		logger.Close()
	}, nil
}

func listReports(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(reportFlags.format)
	if err != nil {
		return err
	}
	if reportFlags.limit < 0 || reportFlags.offset < 0 {
		return cli.NewConfigError("limit", "limit and offset must be non-negative")
	}

	store, closeFn, err := openReports()
	if err != nil {
		return err
	}
	defer closeFn()

	query := &report.Query{
		Gate:   reportFlags.gate,
		RunID:  reportFlags.runID,
		Limit:  reportFlags.limit,
		Offset: reportFlags.offset,
	}
	if reportFlags.since > 0 {
		from := time.Now().Add(-reportFlags.since)
		query.StartTime = &from
	}
	if reportFlags.failed {
		passed := false
		query.Passed = &passed
	}

	reports, err := store.Query(cmd.Context(), query)
	if err != nil {
		return cli.NewCommandError("report list", err)
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), cli.ReportsTable(reports))
}

func pruneReports(cmd *cobra.Command, args []string) error {
	store, closeFn, err := openReports()
	if err != nil {
		return err
	}
	defer closeFn()

	cfg := retention.FromConfig(config.MustGetConfig().Reports.Retention)
	deleted, err := retention.NewPruner(store, cfg).Prune(cmd.Context())
	if err != nil {
		return cli.NewCommandError("report prune", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Pruned %d report(s)\n", deleted)
	return nil
}
