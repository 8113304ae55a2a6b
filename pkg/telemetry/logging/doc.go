// Package logging configures structured logging for coursys.
//
// It builds a log/slog logger from the telemetry.logging configuration
// section and installs it as the default, so every component logger
// derived with slog.Default().With("component", ...) shares its level and
// format.
//
// # Usage
//
//	logger, err := logging.Setup(logging.FromConfig(cfg.Telemetry.Logging, verbose))
//	if err != nil {
//	    return err
//	}
//	logger.Info("purge run started", "units", 12)
//
// Logs go to stderr; stdout is reserved for the purge report lines.
//
// # Redaction
//
// Attributes named "dsn" are passed through RedactDSN, which masks database
// passwords in URL and key/value connection strings:
//
//	postgres://coursys:secret@db/coursys  →  postgres://coursys:***@db/coursys
//	host=db user=coursys password=secret  →  host=db user=coursys password=***
package logging
