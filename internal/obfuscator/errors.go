package obfuscator

import (
	"fmt"
)

// ConfigurationError reports a request the pipeline cannot be built for: a
// level outside the registered range, a level with no pass, or an unknown
// parser mode.
type ConfigurationError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s=%v: %s", e.Field, e.Value, e.Reason)
}

// ParseError reports source text the parser rejected. Err aggregates every
// diagnostic the parser produced.
type ParseError struct {
	Path string // empty for in-memory sources
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("parsing failed for %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("parsing failed: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IOError reports a failed read, write or directory creation.
type IOError struct {
	Op   string // "read", "write" or "mkdir"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("error during %s of %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
