package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// Values missing from the file keep their defaults. The result is validated.
// The configuration is not modified by environment variables; use
// LoadConfigWithEnvOverrides for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := NewDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	// Explicit empty values in the file fall back to defaults.
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention COURSYS_SECTION_FIELD (e.g., COURSYS_DATABASE_DSN).
// Environment variables always take precedence over file-based configuration.
// An empty path starts from the defaults instead of a file.
//
// The loading sequence is:
// 1. Load YAML from file (or defaults)
// 2. Apply environment variable overrides
// 3. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = NewDefaultConfig()
	} else {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format COURSYS_SECTION_FIELD. Values that do
// not parse are ignored.
func applyEnvOverrides(cfg *Config) {
	// Database overrides
	if val := os.Getenv("COURSYS_DATABASE_DRIVER"); val != "" {
		cfg.Database.Driver = val
	}
	if val := os.Getenv("COURSYS_DATABASE_DSN"); val != "" {
		cfg.Database.DSN = val
	}
	if val := os.Getenv("COURSYS_DATABASE_MAX_OPEN_CONNS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Database.MaxOpenConns = i
		}
	}
	if val := os.Getenv("COURSYS_DATABASE_MAX_IDLE_CONNS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Database.MaxIdleConns = i
		}
	}
	if val := os.Getenv("COURSYS_DATABASE_BUSY_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Database.BusyTimeout = d
		}
	}
	if val := os.Getenv("COURSYS_DATABASE_WAL_MODE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Database.WALMode = b
		}
	}
	if val := os.Getenv("COURSYS_DATABASE_AUTO_MIGRATE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Database.AutoMigrate = b
		}
	}

	// Purge overrides
	if val := os.Getenv("COURSYS_PURGE_SCHEDULE"); val != "" {
		cfg.Purge.Schedule = val
	}
	if val := os.Getenv("COURSYS_PURGE_DISABLED"); val != "" {
		cfg.Purge.Disabled = splitList(val)
	}
	if val := os.Getenv("COURSYS_PURGE_REPORT_FORMAT"); val != "" {
		cfg.Purge.ReportFormat = val
	}

	// Telemetry overrides
	if val := os.Getenv("COURSYS_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("COURSYS_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("COURSYS_TELEMETRY_LOGGING_ADD_SOURCE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Logging.AddSource = b
		}
	}
	if val := os.Getenv("COURSYS_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("COURSYS_TELEMETRY_METRICS_NAMESPACE"); val != "" {
		cfg.Telemetry.Metrics.Namespace = val
	}
	if val := os.Getenv("COURSYS_TELEMETRY_METRICS_TEXTFILE_PATH"); val != "" {
		cfg.Telemetry.Metrics.TextfilePath = val
	}
	if val := os.Getenv("COURSYS_TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv("COURSYS_TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
	if val := os.Getenv("COURSYS_TELEMETRY_TRACING_INSECURE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Insecure = b
		}
	}
	if val := os.Getenv("COURSYS_TELEMETRY_TRACING_SERVICE_NAME"); val != "" {
		cfg.Telemetry.Tracing.ServiceName = val
	}
	if val := os.Getenv("COURSYS_TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
}

// splitList splits a comma-separated list, dropping empty items.
func splitList(val string) []string {
	var items []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
