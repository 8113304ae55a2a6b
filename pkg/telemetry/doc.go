// Package telemetry groups the observability packages of coursys.
//
// # Components
//
//   - logging: slog setup with DSN redaction
//   - tracing: OpenTelemetry spans for purge runs, exported over OTLP gRPC
//   - health: preflight checks run by "coursys check" and "coursys schedule"
//
// Purge metrics live with the executor in package purge.
package telemetry
