/*
Package cli provides command-line helpers for the rategate command.

Output Formatting:

Results and stored reports render as an aligned table, indented JSON or CSV:

	format, err := cli.ParseFormat(flagValue)
	if err != nil {
		return err
	}
	if err := cli.NewFormatter(format).FormatTo(os.Stdout, cli.ResultsTable(results)); err != nil {
		return err
	}

Progress Reporting:

A load run is timed, so progress is elapsed time plus admissions so far:

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(duration)
	progress.Update(elapsed, admitted)
	progress.Finish()

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

Exit Codes:

ExitCode maps a command error to the process status: 0 on success, 2 when
a load run failed its audit (AuditError), 1 otherwise.
*/
package cli
