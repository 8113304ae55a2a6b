package config

import "time"

// Default values for configuration fields.
const (
	// Database defaults
	DefaultDatabaseDriver       = "sqlite"
	DefaultDatabaseDSN          = "data/coursys.db"
	DefaultDatabaseMaxOpenConns = 10
	DefaultDatabaseMaxIdleConns = 5
	DefaultDatabaseBusyTimeout  = 5 * time.Second
	DefaultDatabaseWALMode      = true
	DefaultDatabaseAutoMigrate  = false

	// Purge defaults
	DefaultPurgeSchedule     = "30 2 * * *"
	DefaultPurgeReportFormat = "text"

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "text"
	DefaultMetricsEnabled     = false
	DefaultMetricsNamespace   = "coursys"
	DefaultTracingEnabled     = false
	DefaultTracingServiceName = "coursys"
	DefaultTracingSampleRatio = 1.0
)

// NewDefaultConfig returns a configuration with every field at its default.
// Boolean defaults that are true can only be expressed here, so LoadConfig
// decodes YAML on top of this value.
func NewDefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:       DefaultDatabaseDriver,
			DSN:          DefaultDatabaseDSN,
			MaxOpenConns: DefaultDatabaseMaxOpenConns,
			MaxIdleConns: DefaultDatabaseMaxIdleConns,
			BusyTimeout:  DefaultDatabaseBusyTimeout,
			WALMode:      DefaultDatabaseWALMode,
			AutoMigrate:  DefaultDatabaseAutoMigrate,
		},
		Purge: PurgeConfig{
			Schedule:     DefaultPurgeSchedule,
			ReportFormat: DefaultPurgeReportFormat,
		},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{
				Level:  DefaultLoggingLevel,
				Format: DefaultLoggingFormat,
			},
			Metrics: MetricsConfig{
				Enabled:   DefaultMetricsEnabled,
				Namespace: DefaultMetricsNamespace,
			},
			Tracing: TracingConfig{
				Enabled:     DefaultTracingEnabled,
				ServiceName: DefaultTracingServiceName,
				SampleRatio: DefaultTracingSampleRatio,
			},
		},
	}
}

// ApplyDefaults fills empty fields of cfg with default values. Fields that
// were explicitly set are not modified.
func ApplyDefaults(cfg *Config) {
	// Database defaults
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DefaultDatabaseDriver
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = DefaultDatabaseDSN
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = DefaultDatabaseMaxOpenConns
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = DefaultDatabaseMaxIdleConns
	}
	if cfg.Database.BusyTimeout == 0 {
		cfg.Database.BusyTimeout = DefaultDatabaseBusyTimeout
	}

	// Purge defaults
	if cfg.Purge.Schedule == "" {
		cfg.Purge.Schedule = DefaultPurgeSchedule
	}
	if cfg.Purge.ReportFormat == "" {
		cfg.Purge.ReportFormat = DefaultPurgeReportFormat
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
}
