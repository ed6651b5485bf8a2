// Package shutdown holds the process-wide cooperative cancellation flag.
//
// Signal handlers call Request; long running steps poll IsRequested at safe
// boundaries (between stability samples, before each file or directory move)
// so an in-flight rename or copy always finishes before the caller sees
// ErrInterrupted.
package shutdown

import (
	"context"
	"sync/atomic"
)

var requested atomic.Bool

// Request marks shutdown as requested.
func Request() {
	requested.Store(true)
}

// IsRequested reports whether shutdown has been requested.
func IsRequested() bool {
	return requested.Load()
}

// Reset clears the flag. Tests use it for isolation.
func Reset() {
	requested.Store(false)
}

// Requested reports whether either the global flag is set or ctx is done.
func Requested(ctx context.Context) bool {
	if IsRequested() {
		return true
	}
	if ctx == nil {
		return false
	}
	return ctx.Err() != nil
}
