// Package monitoring holds the process-wide diagnostic logger used by the
// exposure pipeline and its command line driver.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but
// may be replaced by SetLogger. Tests or production code can redirect or
// mute it.
var Logf func(format string, v ...interface{}) = log.Printf

var verbose bool

// Debugf logs only when verbose mode is on. The pipeline uses it for
// per-segment progress that would drown batch output otherwise.
func Debugf(format string, v ...interface{}) {
	if verbose {
		Logf(format, v...)
	}
}

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetVerbose toggles Debugf output.
func SetVerbose(on bool) {
	verbose = on
}
