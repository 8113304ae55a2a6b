// Package health runs named preflight checks against the components a purge
// depends on: the database, the model tables and the discovered purgers.
//
// # Usage
//
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("database", st.Ping)
//	checker.RegisterCheck("schema", func(ctx context.Context) error {
//	    return st.CheckSchema(ctx, catalog.Default.Models())
//	})
//
//	status := checker.Run(ctx)
//	if !status.Healthy() {
//	    // report status.Checks
//	}
//
// Checks run concurrently, each with its own timeout. Results are returned
// in registration order.
package health
