// Package purge implements the data retention sweep: finding the records of
// each model that may be permanently deleted, reporting them, and deleting
// them unless running dry.
//
// # Purgers and Policies
//
// A Purger binds one catalog model to its eligibility logic and returns a
// Retrieval, which is exactly one of:
//
//   - BulkQuery(cond): every record matching a store.Condition, counted and
//     deleted with one statement each
//   - Enumeration(fn): records yielded one by one, deleted individually
//
// The zero Retrieval is the only way to supply neither; the executor reports
// it as a configuration error (ErrNoRetrieval).
//
// Policies are reusable purgers without a model:
//
//   - AgePolicy{Field, AfterDays}: records whose field is older than the period
//   - PublicData{}: nothing is ever eligible
//   - UnreferencedOnly{}: records no relation field in the catalog points at;
//     references from records of the same model count only if that record
//     is kept, so an unused hierarchy goes in one run
//   - QueryFunc / EnumerateFunc: custom logic
//
// # Discovery
//
// Units come from three places:
//
//	// 1. A policy attached to a catalog model
//	catalog.MustRegister(&catalog.Model{
//	    Name:        "Semester",
//	    Table:       "coredata_semester",
//	    PurgePolicy: purge.PublicData{},
//	})
//
//	// 2. A purger registered by the owning package
//	func init() {
//	    purge.Register(LogEntryPurger{})
//	}
//
//	// 3. An age policy override from configuration
//	units, err := purge.Discover(catalog.Default, purge.DefaultRegistry, purge.DiscoverOptions{
//	    Overrides: []purge.Override{{Model: "LogEntry", Field: "datetime", AfterDays: 730}},
//	})
//
// # Running
//
//	exec := purge.NewExecutor(st, catalog.Default, purge.Options{})
//	report, err := exec.Run(ctx, units, commit)
//
// Every unit prints one "Purging <n> instances of <Model>" line, dry or not.
// Units are isolated: a failing unit prints "Skipping <Model>: <error>" and the
// run continues. Nothing spans units and failures are not retried; re-run the
// sweep instead.
package purge
