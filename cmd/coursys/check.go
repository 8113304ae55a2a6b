package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"coursys/courselib/pkg/catalog"
	"coursys/courselib/pkg/cli"
	"coursys/courselib/pkg/config"
	"coursys/courselib/pkg/purge"
	"coursys/courselib/pkg/purge/schedule"
	"coursys/courselib/pkg/telemetry/health"
)

var checkFlags struct {
	timeout time.Duration
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that a purge can run",
	Long: `Check the database connection, the model tables, every discovered
purger and the purge schedule without deleting anything.

Exits with status 1 if any check fails.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runCheck(cmd.Context(), cfg, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().DurationVar(&checkFlags.timeout, "timeout", 5*time.Second, "timeout per check")
}

func runCheck(ctx context.Context, cfg *config.Config, out io.Writer) error {
	sess, err := openSession(ctx, cfg)
	if err != nil {
		return cli.NewCommandError("check", err)
	}
	defer sess.Close(context.Background())

	status := preflight(sess, cfg, checkFlags.timeout).Run(ctx)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CHECK\tSTATUS\tMESSAGE")
	for _, c := range status.Checks {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, c.Status, strings.ReplaceAll(c.Message, "\n", "; "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if failed := status.Failed(); len(failed) > 0 {
		names := make([]string, 0, len(failed))
		for _, c := range failed {
			names = append(names, c.Name)
		}
		return cli.NewCommandError("check", fmt.Errorf("failed checks: %s", strings.Join(names, ", ")))
	}
	return nil
}

// preflight registers the checks run before purging.
func preflight(sess *session, cfg *config.Config, timeout time.Duration) *health.Checker {
	checker := health.New(timeout)

	checker.RegisterCheck("database", sess.store.Ping)

	checker.RegisterCheck("schema", func(ctx context.Context) error {
		return sess.store.CheckSchema(ctx, catalog.Default.Models())
	})

	checker.RegisterCheck("purgers", func(ctx context.Context) error {
		units, err := discoverUnits(cfg, sess.logger)
		if err != nil {
			return err
		}
		return validateUnits(units, time.Now())
	})

	checker.RegisterCheck("schedule", func(ctx context.Context) error {
		return schedule.Validate(cfg.Purge.Schedule)
	})

	return checker
}

// validateUnits builds the retrieval of every unit and returns the
// configuration errors found.
func validateUnits(units []purge.Unit, now time.Time) error {
	var errs []error
	for _, u := range units {
		if u.Err != nil {
			errs = append(errs, u.Err)
			continue
		}
		r, err := buildRetrieval(u, now)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if r.Mode() == purge.ModeNone {
			errs = append(errs, purge.NewConfigError(u.Model, "purger returned no retrieval", purge.ErrNoRetrieval))
		}
	}
	return errors.Join(errs...)
}

// buildRetrieval asks u's purger for its retrieval. A purger that panics is
// reported as a configuration error of its model.
func buildRetrieval(u purge.Unit, now time.Time) (r purge.Retrieval, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = purge.NewConfigError(u.Model, "purger panicked", fmt.Errorf("%v", rec))
		}
	}()

	model, _ := catalog.Default.Lookup(u.Model)
	r, err = u.Purger.Retrieval(&purge.Env{Model: model, Catalog: catalog.Default, Now: now})
	if err != nil {
		return r, purge.NewConfigError(u.Model, "cannot build retrieval", err)
	}
	return r, nil
}
