// Package otp holds two-factor authentication session state.
package otp

import (
	"coursys/courselib/pkg/catalog"
	"coursys/courselib/pkg/purge"
)

// SessionInfo records when a session last passed two-factor
// authentication. Entries are useless once the session itself has expired.
var SessionInfo = &catalog.Model{
	Name:   "SessionInfo",
	Table:  "otp_sessioninfo",
	Fields: []string{"session_key", "created", "last_auth", "last_2fa"},
	Schema: `CREATE TABLE IF NOT EXISTS otp_sessioninfo (
		id INTEGER PRIMARY KEY,
		session_key VARCHAR(40) NOT NULL UNIQUE,
		created TIMESTAMP NOT NULL,
		last_auth TIMESTAMP,
		last_2fa TIMESTAMP
	)`,
	PurgePolicy: purge.AgePolicy{Field: "created", AfterDays: 30},
}

func init() {
	catalog.MustRegister(SessionInfo)
}
