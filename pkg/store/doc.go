// Package store defines the storage interface used by the purge subsystem.
//
// # Conditions
//
// Eligibility is described with Condition values rather than backend
// queries, so a policy works unchanged against every backend:
//
//   - Before: field value older than a cutoff (age-based retention)
//   - Nothing: the empty set (public data)
//   - Unreferenced: primary key not referenced by any relation field, where a
//     self-reference counts only if the referencing record is itself kept
//   - Equals, Everything, All: building blocks for custom policies
//
// # Backends
//
//   - memory: in-memory tables, used by tests and dry demos
//   - sqlstore: SQL databases through sqlx and squirrel (sqlite3, sqlite, postgres)
package store
