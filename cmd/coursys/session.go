package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"coursys/courselib/pkg/catalog"
	"coursys/courselib/pkg/cli"
	"coursys/courselib/pkg/config"
	"coursys/courselib/pkg/purge"
	"coursys/courselib/pkg/store/sqlstore"
	"coursys/courselib/pkg/telemetry/logging"
	"coursys/courselib/pkg/telemetry/tracing"
)

// session holds the resources a purge command runs with.
type session struct {
	logger  *slog.Logger
	store   *sqlstore.Store
	tracer  *tracing.Tracer
	metrics *purge.Metrics
}

// setupLogging installs the configured logger as the default.
func setupLogging(cfg *config.Config) (*slog.Logger, error) {
	logger, err := logging.Setup(logging.FromConfig(cfg.Telemetry.Logging, verbose))
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	return logger, nil
}

// openSession sets up logging, tracing, metrics and the database.
func openSession(ctx context.Context, cfg *config.Config) (*session, error) {
	logger, err := setupLogging(cfg)
	if err != nil {
		return nil, err
	}

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	var metrics *purge.Metrics
	if cfg.Telemetry.Metrics.Enabled {
		metrics = purge.NewMetrics(cfg.Telemetry.Metrics.Namespace, prometheus.NewRegistry())
	}

	logger.Debug("opening database", "driver", cfg.Database.Driver, "dsn", cfg.Database.DSN)
	st, err := sqlstore.New(&sqlstore.Config{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		WALMode:      cfg.Database.WALMode,
		BusyTimeout:  cfg.Database.BusyTimeout,
	})
	if err != nil {
		_ = tracer.Shutdown(ctx)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := st.Migrate(ctx, catalog.Default.Models()); err != nil {
			st.Close()
			_ = tracer.Shutdown(ctx)
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	return &session{
		logger:  logger,
		store:   st,
		tracer:  tracer,
		metrics: metrics,
	}, nil
}

// Close flushes traces and closes the database.
func (s *session) Close(ctx context.Context) error {
	if err := s.tracer.Shutdown(ctx); err != nil {
		s.logger.Warn("failed to flush traces", "error", err)
	}
	return s.store.Close()
}

// discoverUnits builds the purge units for cfg from the registered apps.
func discoverUnits(cfg *config.Config, logger *slog.Logger) ([]purge.Unit, error) {
	overrides := make([]purge.Override, 0, len(cfg.Purge.Policies))
	for _, p := range cfg.Purge.Policies {
		overrides = append(overrides, purge.Override{
			Model:     p.Model,
			Field:     p.AgeField,
			AfterDays: p.AfterDays,
		})
	}

	return purge.Discover(catalog.Default, purge.DefaultRegistry, purge.DiscoverOptions{
		Overrides: overrides,
		Disabled:  cfg.Purge.Disabled,
		Logger:    logger,
	})
}

// run discovers and processes every unit, writing the per-model lines and
// the report summary to out. Failed units are part of the report, not an
// error.
func (s *session) run(ctx context.Context, cfg *config.Config, out io.Writer, commit bool) (*purge.Report, error) {
	units, err := discoverUnits(cfg, s.logger)
	if err != nil {
		return nil, err
	}

	exec := purge.NewExecutor(s.store, catalog.Default, purge.Options{
		Out:     out,
		Logger:  s.logger,
		Metrics: s.metrics,
		Tracer:  s.tracer.Tracer(),
	})

	report, runErr := exec.Run(ctx, units, commit)

	if s.metrics != nil && cfg.Telemetry.Metrics.TextfilePath != "" {
		if err := s.metrics.WriteTextfile(cfg.Telemetry.Metrics.TextfilePath); err != nil {
			s.logger.Error("failed to write metrics textfile", "path", cfg.Telemetry.Metrics.TextfilePath, "error", err)
		}
	}

	if report != nil {
		formatter, err := cli.NewFormatter(cli.OutputFormat(cfg.Purge.ReportFormat))
		if err != nil {
			return report, err
		}
		if err := formatter.FormatTo(out, report); err != nil {
			return report, fmt.Errorf("failed to write report: %w", err)
		}
	}

	return report, runErr
}
