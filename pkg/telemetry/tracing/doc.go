// Package tracing sets up OpenTelemetry tracing for coursys.
//
// A purge run is one trace: a "purge.run" span with a "purge.unit" child per
// model, carrying the model, source, retrieval mode and counts as attributes.
// Spans are exported over OTLP gRPC.
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	exec := purge.NewExecutor(st, catalog.Default, purge.Options{Tracer: tracer.Tracer()})
//
// When telemetry.tracing.enabled is false the tracer is a noop.
package tracing
