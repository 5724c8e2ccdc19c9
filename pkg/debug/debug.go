// Package debug provides global debug logging flags
package debug

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Enabled controls whether debug logging is active
var Enabled bool

// Tracking controls whether per-frame detector logs are shown.
// Use --debug-tracking to enable these very verbose logs.
var Tracking bool

// Output receives debug lines. Tests swap it for a buffer.
var Output io.Writer = os.Stdout

// Configure sets both flags. Tracking implies Enabled.
func Configure(enabled, tracking bool) {
	Enabled = enabled || tracking
	Tracking = tracking
}

// Log prints a message only if debug mode is enabled
func Log(format string, args ...interface{}) {
	if Enabled {
		fmt.Fprintf(Output, format, args...)
	}
}

// TrackLog prints a message only if tracking debug mode is enabled
func TrackLog(format string, args ...interface{}) {
	if Tracking {
		fmt.Fprintf(Output, format, args...)
	}
}

// Elapsed logs a tracking line with the time since start, for
// per-frame latency of detector calls.
func Elapsed(label string, start time.Time) {
	if Tracking {
		fmt.Fprintf(Output, "⏱️  %s took %s\n", label, time.Since(start).Round(time.Microsecond))
	}
}
