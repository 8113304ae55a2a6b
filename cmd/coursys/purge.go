package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"coursys/courselib/pkg/cli"
	"coursys/courselib/pkg/config"
)

var purgeFlags struct {
	dryRun bool
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete records that are eligible for purging",
	Long: `Delete every record whose model policy makes it eligible for purging.

One line is printed per model with the number of eligible records. A model
whose purger is misconfigured or fails is reported and skipped; the other
models are still purged.

Examples:
  # Report what would be deleted
  coursys purge --dry-run

  # Delete eligible records
  coursys purge

  # Use a specific configuration
  coursys purge --config /etc/coursys/config.yaml`,
	Args: cobra.NoArgs,
	RunE: runPurgeCmd,
}

func init() {
	rootCmd.AddCommand(purgeCmd)

	purgeCmd.Flags().BoolVar(&purgeFlags.dryRun, "dry-run", false, "report eligible records without deleting them")
}

func runPurgeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	return runPurge(ctx, cfg, cmd.OutOrStdout(), !purgeFlags.dryRun)
}

// runPurge performs one purge run with cfg. Only setup failures and
// interruption are returned as errors.
func runPurge(ctx context.Context, cfg *config.Config, out io.Writer, commit bool) error {
	sess, err := openSession(ctx, cfg)
	if err != nil {
		return cli.NewCommandError("purge", err)
	}
	defer sess.Close(context.Background())

	if _, err := sess.run(ctx, cfg, out, commit); err != nil {
		return cli.NewCommandError("purge", err)
	}
	return nil
}
