// Package config provides configuration management for coursys.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("coursys.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("coursys.yaml")
//
// An empty path to LoadConfigWithEnvOverrides starts from the defaults.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention COURSYS_SECTION_FIELD.
// For example:
//
//   - COURSYS_DATABASE_DSN overrides database.dsn
//   - COURSYS_PURGE_DISABLED overrides purge.disabled (comma-separated)
//   - COURSYS_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Example Configuration
//
//	database:
//	  driver: postgres
//	  dsn: postgres://coursys@db/coursys?sslmode=require
//
//	purge:
//	  schedule: "30 2 * * *"
//	  disabled: [Semester]
//	  policies:
//	    - model: LogEntry
//	      age_field: datetime
//	      after_days: 730
//
//	telemetry:
//	  logging:
//	    level: info
//	    format: json
//
// # Reloading
//
// Long-running commands watch the file with a Watcher and call ReloadConfig
// when it changes. A configuration that fails validation is rejected and the
// previous one stays active.
package config
