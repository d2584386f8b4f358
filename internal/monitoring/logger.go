// Package monitoring holds the redirectable diagnostic logger. A full sweep
// emits a progress line per configuration and per failed repetition; tests
// mute it, and embedding tools can redirect it.
package monitoring

import "log"

// Logf is the diagnostic logger. It defaults to log.Printf but may be
// replaced by SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
