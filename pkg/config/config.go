package config

import "time"

// Config is the root configuration structure for coursys.
// It contains the database connection, the purge sweep settings and the
// telemetry settings.
type Config struct {
	// Database contains the connection settings for the application
	// database the purge sweep deletes from.
	Database DatabaseConfig `yaml:"database"`

	// Purge contains the purge sweep configuration including the schedule,
	// disabled models and per-model age policy overrides.
	Purge PurgeConfig `yaml:"purge"`

	// Telemetry contains configuration for observability including logging,
	// metrics, and distributed tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// DatabaseConfig contains the application database settings.
type DatabaseConfig struct {
	// Driver is the database/sql driver.
	// Options: "sqlite3" (cgo), "sqlite" (pure Go), "postgres"
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// DSN is the driver-specific data source name: a file path for the
	// sqlite drivers, a connection URL or key/value string for postgres.
	// Default: "data/coursys.db"
	DSN string `yaml:"dsn"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// BusyTimeout is the time to wait for a locked sqlite database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// WALMode enables write-ahead logging for sqlite.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// AutoMigrate creates missing tables for every registered model
	// before purging.
	// Default: false
	AutoMigrate bool `yaml:"auto_migrate"`
}

// PurgeConfig contains the purge sweep configuration.
type PurgeConfig struct {
	// Schedule is the cron expression used by "coursys schedule".
	// Format: standard 5-field cron (minute hour day month weekday)
	// Default: "30 2 * * *" (daily at 2:30 AM)
	Schedule string `yaml:"schedule"`

	// Disabled lists model names that are never purged.
	Disabled []string `yaml:"disabled"`

	// Policies are age policy overrides. An override replaces every
	// policy and purger discovered for its model.
	Policies []PolicyOverride `yaml:"policies"`

	// ReportFormat controls the run summary printed after the per-model lines.
	// Options: "text", "json", "csv"
	// Default: "text"
	ReportFormat string `yaml:"report_format"`
}

// PolicyOverride is an age policy for one model.
type PolicyOverride struct {
	// Model is the catalog model name, e.g. "LogEntry".
	Model string `yaml:"model"`

	// AgeField is the date or datetime field the age is measured on.
	AgeField string `yaml:"age_field"`

	// AfterDays is the retention period in days. Must be positive.
	AfterDays int `yaml:"after_days"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether purge metrics are collected.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Namespace is the metric name prefix.
	// Default: "coursys"
	Namespace string `yaml:"namespace"`

	// TextfilePath, if set, receives the metrics in the Prometheus text
	// format after every run, for the node exporter textfile collector.
	TextfilePath string `yaml:"textfile_path"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector endpoint (e.g., "localhost:4317").
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS to the collector.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// ServiceName is reported as the service.name resource attribute.
	// Default: "coursys"
	ServiceName string `yaml:"service_name"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`
}
