package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "database.driver").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateDatabase(&cfg.Database)...)
	errs = append(errs, validatePurge(&cfg.Purge)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateDatabase(cfg *DatabaseConfig) []FieldError {
	var errs []FieldError

	validDrivers := map[string]bool{"sqlite3": true, "sqlite": true, "postgres": true}
	if cfg.Driver == "" {
		errs = append(errs, FieldError{
			Field:   "database.driver",
			Message: "database driver is required",
		})
	} else if !validDrivers[cfg.Driver] {
		errs = append(errs, FieldError{
			Field:   "database.driver",
			Message: fmt.Sprintf("invalid driver %q: must be 'sqlite3', 'sqlite', or 'postgres'", cfg.Driver),
		})
	}

	if cfg.DSN == "" {
		errs = append(errs, FieldError{
			Field:   "database.dsn",
			Message: "database DSN is required",
		})
	}

	if cfg.MaxOpenConns < 0 {
		errs = append(errs, FieldError{
			Field:   "database.max_open_conns",
			Message: "max open connections cannot be negative",
		})
	}
	if cfg.MaxIdleConns < 0 {
		errs = append(errs, FieldError{
			Field:   "database.max_idle_conns",
			Message: "max idle connections cannot be negative",
		})
	}
	if cfg.BusyTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "database.busy_timeout",
			Message: "busy timeout cannot be negative",
		})
	}

	return errs
}

func validatePurge(cfg *PurgeConfig) []FieldError {
	var errs []FieldError

	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "purge.schedule",
				Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.Schedule, err),
			})
		}
	}

	for i, name := range cfg.Disabled {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("purge.disabled[%d]", i),
				Message: "model name cannot be empty",
			})
		}
	}

	seen := make(map[string]bool, len(cfg.Policies))
	for i, p := range cfg.Policies {
		field := fmt.Sprintf("purge.policies[%d]", i)
		if p.Model == "" {
			errs = append(errs, FieldError{
				Field:   field + ".model",
				Message: "model is required",
			})
		} else if seen[p.Model] {
			errs = append(errs, FieldError{
				Field:   field + ".model",
				Message: fmt.Sprintf("duplicate policy for model %q", p.Model),
			})
		}
		seen[p.Model] = true

		if p.AgeField == "" {
			errs = append(errs, FieldError{
				Field:   field + ".age_field",
				Message: "age field is required",
			})
		}
		if p.AfterDays <= 0 {
			errs = append(errs, FieldError{
				Field:   field + ".after_days",
				Message: fmt.Sprintf("after_days must be positive, got %d", p.AfterDays),
			})
		}
	}

	validFormats := map[string]bool{"text": true, "json": true, "csv": true}
	if !validFormats[cfg.ReportFormat] {
		errs = append(errs, FieldError{
			Field:   "purge.report_format",
			Message: fmt.Sprintf("invalid report format %q: must be 'text', 'json' or 'csv'", cfg.ReportFormat),
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	// Validate logging level
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if cfg.Logging.Level == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: "logging level is required",
		})
	} else if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	// Validate logging format
	validFormats := map[string]bool{"json": true, "text": true}
	if cfg.Logging.Format == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: "logging format is required",
		})
	} else if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Namespace == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.namespace",
			Message: "metrics namespace is required when metrics are enabled",
		})
	}

	// Validate tracing configuration
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	return errs
}
