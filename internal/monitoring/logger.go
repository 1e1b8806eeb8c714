// Package monitoring holds the diagnostic logger shared by the analysis
// packages.
package monitoring

import (
	"fmt"
	"log"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// PathLogf logs a message prefixed with the "[src->dst]" label of a
// monitored path.
func PathLogf(src, dst, format string, v ...interface{}) {
	Logf("[%s->%s] %s", src, dst, fmt.Sprintf(format, v...))
}
