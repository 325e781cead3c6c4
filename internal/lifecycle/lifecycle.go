// Package lifecycle holds process-wide drain state shared by the shutdown
// path and the health handler.
package lifecycle

import "sync/atomic"

var shuttingDown atomic.Bool

// SetShuttingDown marks the process as draining. main sets it on SIGTERM/SIGINT
// before stopping the server; /health then reports shutting-down with 503.
func SetShuttingDown(v bool) {
	shuttingDown.Store(v)
}

// IsShuttingDown reports whether the process is draining.
func IsShuttingDown() bool {
	return shuttingDown.Load()
}
