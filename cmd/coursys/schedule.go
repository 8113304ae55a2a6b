package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"coursys/courselib/pkg/cli"
	"coursys/courselib/pkg/config"
	"coursys/courselib/pkg/purge"
	"coursys/courselib/pkg/purge/schedule"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run purges on the configured schedule",
	Long: `Run committing purges on the cron schedule in purge.schedule until
interrupted.

The configuration file is reloaded when it changes or on SIGHUP. Policy
overrides, disabled models and the schedule take effect from the next
sweep; database settings require a restart.

Examples:
  # Purge nightly at 02:30 (the default schedule)
  coursys schedule --config /etc/coursys/config.yaml`,
	Args: cobra.NoArgs,
	RunE: runScheduleCmd,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runScheduleCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	sess, err := openSession(ctx, cfg)
	if err != nil {
		return cli.NewCommandError("schedule", err)
	}
	defer sess.Close(context.Background())

	status := preflight(sess, cfg, 5*time.Second).Run(ctx)
	for _, c := range status.Failed() {
		sess.logger.Warn("preflight check failed", "check", c.Name, "error", c.Message)
	}

	d := newDaemon(sess, cmd.OutOrStdout(), sess.logger.With("component", "schedule"))
	if err := d.start(ctx, cfg); err != nil {
		return cli.NewCommandError("schedule", err)
	}
	defer d.stop()

	if cfgFile != "" {
		watcher, err := config.NewWatcher(cfgFile, 0)
		if err != nil {
			return cli.NewCommandError("schedule", err)
		}
		go func() {
			if err := watcher.Watch(ctx, func() error { return d.reload(ctx) }); err != nil {
				d.logger.Error("config watcher failed", "error", err)
			}
		}()
		defer watcher.Stop()
	}

	hup, stopHUP := cli.ReloadSignals()
	defer stopHUP()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("shutting down")
			return nil
		case <-hup:
			if err := d.reload(ctx); err != nil {
				d.logger.Error("configuration reload failed", "error", err)
			}
		}
	}
}

// daemon owns the scheduler of the schedule command and swaps it when the
// configured schedule changes.
type daemon struct {
	sess   *session
	out    io.Writer
	logger *slog.Logger

	mu        sync.Mutex
	scheduler *schedule.Scheduler
	spec      string
}

func newDaemon(sess *session, out io.Writer, logger *slog.Logger) *daemon {
	return &daemon{sess: sess, out: out, logger: logger}
}

// sweep runs one committing purge with the current configuration.
func (d *daemon) sweep(ctx context.Context) (*purge.Report, error) {
	return d.sess.run(ctx, config.MustGetConfig(), d.out, true)
}

func (d *daemon) start(ctx context.Context, cfg *config.Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := schedule.New(cfg.Purge.Schedule, d.sweep)
	if err := s.Start(ctx); err != nil {
		return err
	}
	d.scheduler = s
	d.spec = cfg.Purge.Schedule

	if next := s.NextRun(); next != nil {
		d.logger.Info("next purge scheduled", "at", next.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func (d *daemon) stop() {
	d.mu.Lock()
	s := d.scheduler
	d.scheduler = nil
	d.mu.Unlock()

	if s != nil {
		s.Stop()
	}
}

// reload re-reads the configuration file and reschedules if purge.schedule
// changed. On failure the running configuration stays in effect.
func (d *daemon) reload(ctx context.Context) error {
	prev := config.GetConfig()
	cfg, err := config.ReloadConfig()
	if err != nil {
		return err
	}

	if prev != nil && prev.Database != cfg.Database {
		d.logger.Warn("database settings changed; restart to apply them")
	}

	d.mu.Lock()
	unchanged := cfg.Purge.Schedule == d.spec
	d.mu.Unlock()
	if unchanged {
		d.logger.Info("configuration reloaded")
		return nil
	}

	if err := schedule.Validate(cfg.Purge.Schedule); err != nil {
		return fmt.Errorf("keeping schedule %q: %w", d.spec, err)
	}
	d.stop()
	d.logger.Info("configuration reloaded", "schedule", cfg.Purge.Schedule)
	return d.start(ctx, cfg)
}
