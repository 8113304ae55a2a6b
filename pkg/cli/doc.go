/*
Package cli provides the helpers shared by the coursys commands.

Report Formatting:

A purge report can be rendered as a text summary, JSON or CSV:

	formatter, err := cli.NewFormatter(cli.OutputFormat(cfg.Purge.ReportFormat))
	if err != nil {
		return err
	}
	if err := formatter.FormatTo(os.Stdout, report); err != nil {
		return err
	}

The per-model "Purging" and "Skipping" lines are written by the executor
while it runs; the formatter only renders the summary that follows them.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

A purge run checks ctx between models, so an interrupt finishes the model
being processed and reports what was done so far.
*/
package cli
