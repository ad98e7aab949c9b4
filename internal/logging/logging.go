// Package logging wraps glog for developer tracing. User-facing progress
// output goes through config.PrintInfo instead.
package logging

import (
	"flag"
	"strconv"

	"github.com/golang/glog"
)

// Verbosity levels used across the obfuscator.
const (
	LevelPipeline glog.Level = 3 // state transitions and pass boundaries
	LevelPass     glog.Level = 5 // per-node decisions inside a pass
)

// V reports whether tracing at the given level is enabled.
func V(level glog.Level) glog.Verbose {
	return glog.V(level)
}

// Infof logs unconditionally at info severity.
func Infof(format string, args ...interface{}) {
	glog.Infof(format, args...)
}

// Warningf records a warning in the glog sinks.
func Warningf(format string, args ...interface{}) {
	glog.Warningf(format, args...)
}

// InitLogging configures glog through its registered flags so cobra-based
// commands do not have to parse the standard flag set.
func InitLogging(logToStderr bool, verbose int) {
	if logToStderr {
		setFlag("logtostderr", "true")
	}
	if verbose > 0 {
		setFlag("v", strconv.Itoa(verbose))
	}
}

// Flush writes pending log entries.
func Flush() {
	glog.Flush()
}

func setFlag(name, value string) {
	if f := flag.Lookup(name); f != nil {
		_ = f.Value.Set(value)
	}
}
