// Package phptest runs obfuscated output through a real PHP binary in tests.
// Every helper skips the calling test when no php binary is on PATH.
package phptest

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// PhpRunner provides utilities for running PHP in tests
type PhpRunner struct {
	T *testing.T
}

// NewPhpRunner creates a new PHP runner bound to t
func NewPhpRunner(t *testing.T) *PhpRunner {
	return &PhpRunner{T: t}
}

// Available reports whether a php binary can be found.
func Available() bool {
	_, err := exec.LookPath("php")
	return err == nil
}

// SkipIfPhpNotAvailable skips the test if PHP is not installed
func (r *PhpRunner) SkipIfPhpNotAvailable() {
	if !Available() {
		r.T.Skip("PHP not available, skipping")
	}
}

// writeTemp stores code in a temporary .php file and returns its path.
func (r *PhpRunner) writeTemp(code string) string {
	r.T.Helper()
	path := filepath.Join(r.T.TempDir(), "snippet.php")
	require.NoError(r.T, os.WriteFile(path, []byte(code), 0644))
	return path
}

// Lint runs php -l over code and fails the test on a syntax error.
func (r *PhpRunner) Lint(code string) {
	r.T.Helper()
	r.SkipIfPhpNotAvailable()

	output, err := exec.Command("php", "-l", r.writeTemp(code)).CombinedOutput()
	if err != nil || strings.Contains(string(output), "syntax error") {
		r.T.Errorf("PHP syntax validation failed:\nCode:\n%s\nError: %v\nOutput: %s", code, err, output)
	}
}

// Run executes code and returns its standard output and error combined.
func (r *PhpRunner) Run(code string) string {
	r.T.Helper()
	r.SkipIfPhpNotAvailable()

	output, err := exec.Command("php", r.writeTemp(code)).CombinedOutput()
	require.NoError(r.T, err, "php failed:\n%s\n%s", code, output)
	return string(output)
}

// RunBoth executes the original and the transformed code and returns both
// outputs for comparison.
func (r *PhpRunner) RunBoth(original, transformed string) (string, string) {
	r.T.Helper()
	return r.Run(original), r.Run(transformed)
}
