// Package log holds the request and action log kept by the application.
package log

import (
	"fmt"

	"coursys/courselib/pkg/catalog"
	"coursys/courselib/pkg/purge"
	"coursys/courselib/pkg/store"
)

// RetentionDays is how long log entries are kept.
const RetentionDays = 365

// LogEntry records one user action.
var LogEntry = &catalog.Model{
	Name:   "LogEntry",
	Table:  "log_logentry",
	Fields: []string{"userid", "datetime", "description", "comment"},
	Schema: `CREATE TABLE IF NOT EXISTS log_logentry (
		id INTEGER PRIMARY KEY,
		userid INTEGER,
		datetime TIMESTAMP NOT NULL,
		description TEXT NOT NULL,
		comment TEXT
	)`,
}

// LogEntryPurger deletes log entries older than RetentionDays.
type LogEntryPurger struct{}

// ModelName implements purge.Purger.
func (LogEntryPurger) ModelName() string {
	return LogEntry.Name
}

// Retrieval implements purge.Purger.
func (LogEntryPurger) Retrieval(env *purge.Env) (purge.Retrieval, error) {
	return purge.BulkQuery(store.Before{
		Field:  "datetime",
		Cutoff: purge.Age(env.Now, RetentionDays),
	}), nil
}

func (LogEntryPurger) String() string {
	return fmt.Sprintf("log entries older than %dd", RetentionDays)
}

func init() {
	catalog.MustRegister(LogEntry)
	purge.Register(LogEntryPurger{})
}
