// Package core holds process-level helpers shared by hosts: crash-safe
// goroutine launching with optional error reporting.
package core

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/getsentry/sentry-go"
)

// cleanup is an optional host hook run before the process exits on a
// crash, e.g. restoring the terminal to a sane state
var cleanup func()

// SetCleanup installs a host cleanup hook invoked before crash exit
func SetCleanup(fn func()) {
	cleanup = fn
}

// InitReporting enables sentry crash reporting when a DSN is provided.
// An empty DSN leaves reporting disabled; a bad DSN is returned to the
// caller rather than aborting startup.
func InitReporting(dsn string) error {
	if dsn == "" {
		return nil
	}
	return sentry.Init(sentry.ClientOptions{Dsn: dsn})
}

// HandleCrash is the unified panic handler: it restores the host via the
// cleanup hook, reports the panic if reporting is enabled, prints the
// stack trace, and exits
func HandleCrash(r any) {
	if r == nil {
		return
	}

	if cleanup != nil {
		cleanup()
	}

	sentry.CurrentHub().Recover(r)
	sentry.Flush(2 * time.Second)

	fmt.Fprintf(os.Stderr, "\r\nCRASH DETECTED: %v\r\n", r)
	fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())
	os.Stderr.Sync()

	os.Exit(1)
}

// Go runs a function in a new goroutine with panic recovery.
// Use this instead of the 'go' keyword to ensure host cleanup on crash.
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				HandleCrash(r)
			}
		}()
		fn()
	}()
}
