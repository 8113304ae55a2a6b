package logging

import (
	"regexp"
)

var (
	// user:password@ in URL-style DSNs (postgres://, file: URIs).
	urlPassword = regexp.MustCompile(`(://[^:/@\s]*):([^@\s]*)@`)

	// password=... in key/value DSNs (lib/pq "host=db password=secret").
	kvPassword = regexp.MustCompile(`(?i)\b(password|passwd|pwd)=('[^']*'|[^\s&]*)`)
)

// RedactDSN masks the password of a database connection string so it can
// be logged. DSNs without credentials are returned unchanged.
func RedactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	dsn = urlPassword.ReplaceAllString(dsn, "$1:***@")
	return kvPassword.ReplaceAllString(dsn, "$1=***")
}
