// Package debug provides simple conditional debugging output.
//
// Debug output goes to stderr with a [DEBUG] prefix so it can be filtered
// from pipeline logs. The global state is set once at startup, from the
// --debug flag or the LCPIPE_DEBUG environment variable.
package debug

import (
	"fmt"
	"os"
)

var (
	// Enabled indicates whether debug logging is enabled.
	Enabled bool

	debugPrefix = "[DEBUG] "
)

// Init sets the global enabled state. Call before using other functions.
func Init(enabled bool) {
	Enabled = enabled
}

// Printf prints a debug message if debug logging is enabled.
func Printf(format string, args ...interface{}) {
	if Enabled {
		fmt.Fprintf(os.Stderr, debugPrefix+format+"\n", args...)
	}
}

// Println prints a debug message if debug logging is enabled.
func Println(args ...interface{}) {
	if Enabled {
		fmt.Fprintln(os.Stderr, debugPrefix+fmt.Sprint(args...))
	}
}

// DumpValue dumps a labeled value if debug logging is enabled. Callers must
// not pass override values or credentials.
func DumpValue(label string, value interface{}) {
	if Enabled {
		fmt.Fprintf(os.Stderr, "%s%s: %+v\n", debugPrefix, label, value)
	}
}
