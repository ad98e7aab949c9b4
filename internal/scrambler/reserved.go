package scrambler

import (
	"sort"
	"strings"

	"github.com/runstack/obfuscator/internal/config"
)

// --- Variables the PHP runtime populates inside local scopes ---
// (case-sensitive matching)
var runtimeVariables = []string{
	"php_errormsg",         // if track_errors is enabled
	"http_response_header", // set by HTTP stream wrappers
}

// superglobals is the closed set of language-defined superglobal names.
var superglobals = map[string]bool{
	"GLOBALS":  true,
	"_SERVER":  true,
	"_GET":     true,
	"_POST":    true,
	"_FILES":   true,
	"_COOKIE":  true,
	"_SESSION": true,
	"_REQUEST": true,
	"_ENV":     true,
}

// selfReference is the object context variable.
const selfReference = "this"

// ReservedWords is an immutable set of variable names that must never be
// renamed. Matching is exact, as PHP variable names are case-sensitive.
type ReservedWords struct {
	names map[string]bool
}

// DefaultReservedWords returns the base set: the variables the runtime
// creates on its own inside local scopes.
func DefaultReservedWords() *ReservedWords {
	r := &ReservedWords{names: make(map[string]bool, len(runtimeVariables))}
	for _, v := range runtimeVariables {
		r.names[v] = true
	}
	return r
}

// With returns a new set extended with custom names. The receiver is left
// untouched so one base set can serve several pipelines.
func (r *ReservedWords) With(custom ...string) *ReservedWords {
	out := &ReservedWords{names: make(map[string]bool, len(r.names)+len(custom))}
	for k := range r.names {
		out.names[k] = true
	}
	for _, c := range custom {
		c = strings.TrimPrefix(strings.TrimSpace(c), "$")
		if c != "" {
			out.names[c] = true
		}
	}
	return out
}

// IsReserved reports whether name is in the set.
func (r *ReservedWords) IsReserved(name string) bool {
	if r == nil {
		return false
	}
	return r.names[name]
}

// All lists every reserved word, sorted.
func (r *ReservedWords) All() []string {
	out := make([]string, 0, len(r.names))
	for k := range r.names {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// PreservationPolicy decides which variable names must keep their original
// spelling. It holds no mutable state.
type PreservationPolicy struct {
	reserved *ReservedWords
}

// NewPreservationPolicy builds a policy over the given reserved words. A nil
// set disables the reserved-word rule.
func NewPreservationPolicy(reserved *ReservedWords) *PreservationPolicy {
	return &PreservationPolicy{reserved: reserved}
}

// ShouldPreserve reports whether name (without the leading "$") must not be
// renamed under cfg.
func (p *PreservationPolicy) ShouldPreserve(name string, cfg config.LevelConfig) bool {
	switch {
	case name == selfReference:
		return true
	case IsGenerated(name):
		return true
	case cfg.PreserveSuperglobals && IsSuperglobal(name):
		return true
	case cfg.PreserveMagic && strings.HasPrefix(name, "__"):
		return true
	}
	return p.reserved.IsReserved(name)
}

// IsSuperglobal reports whether name is one of PHP's superglobals.
func IsSuperglobal(name string) bool {
	return superglobals[name]
}
