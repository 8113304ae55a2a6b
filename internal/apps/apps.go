// Package apps links the application packages into the binary. Importing
// it registers every app's models and purgers with catalog.Default and
// purge.DefaultRegistry.
package apps

import (
	_ "coursys/courselib/internal/apps/coredata"
	_ "coursys/courselib/internal/apps/log"
	_ "coursys/courselib/internal/apps/otp"
)

// Installed lists the linked application packages in load order.
var Installed = []string{
	"coredata",
	"log",
	"otp",
}
