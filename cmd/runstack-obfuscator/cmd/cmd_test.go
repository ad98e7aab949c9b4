package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runstack/obfuscator/internal/config"
)

func init() {
	config.Testing = true
}

// resetFlags restores every flag to its default so commands can run again
// in the same process.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfg = nil
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

const somaSource = `<?php
// adds two numbers
function soma($a, $b) {
    $resultado = $a + $b;
    return $resultado;
}
`

func TestFileCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	writeTestFile(t, cfgPath, "silent: true\n")
	input := filepath.Join(dir, "soma.php")
	writeTestFile(t, input, somaSource)
	mappings := filepath.Join(dir, "out", "names.yaml")

	out, err := execute(t, "obfuscate", "file", input, "-c", cfgPath, "--level", "2", "--mappings", mappings)
	require.NoError(t, err)
	assert.Contains(t, out, "function soma($_0x41a7,")
	assert.NotContains(t, out, "$resultado")
	assert.NotContains(t, out, "adds two numbers")
	assert.FileExists(t, mappings)

	out, err = execute(t, "whatis", "$resultado", "-m", mappings)
	require.NoError(t, err)
	assert.Equal(t, input+": $resultado -> $_0xc4f5\n", out)

	_, err = execute(t, "whatis", "missing", "-m", mappings)
	assert.ErrorContains(t, err, "not found")
}

func TestFileCommandOutputAndDiff(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	writeTestFile(t, cfgPath, "silent: true\n")
	input := filepath.Join(dir, "soma.php")
	writeTestFile(t, input, somaSource)
	output := filepath.Join(dir, "dist", "soma.php")

	out, err := execute(t, "obfuscate", "file", input, "-c", cfgPath, "-o", output, "--diff")
	require.NoError(t, err)
	assert.Contains(t, out, "adds two numbers", "the removed comment shows up in the diff")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "adds two numbers")
	assert.Contains(t, string(data), "$resultado", "level 1 keeps variable names")
}

func TestFileCommandInvalidLevel(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	writeTestFile(t, cfgPath, "silent: true\n")
	input := filepath.Join(dir, "soma.php")
	writeTestFile(t, input, somaSource)

	_, err := execute(t, "obfuscate", "file", input, "-c", cfgPath, "--level", "9")
	assert.ErrorContains(t, err, "level")
}

func TestDirCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	writeTestFile(t, cfgPath, "silent: true\nlevel: 2\n")
	src := filepath.Join(dir, "src")
	writeTestFile(t, filepath.Join(src, "lib", "soma.php"), somaSource)
	writeTestFile(t, filepath.Join(src, "README.md"), "# docs\n")
	dist := filepath.Join(dir, "dist")
	mappings := filepath.Join(dir, "names.yaml")

	_, err := execute(t, "obfuscate", "dir", src, "-o", dist, "-c", cfgPath, "--mappings", mappings)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dist, "lib", "soma.php"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "$resultado")
	assert.FileExists(t, filepath.Join(dist, "README.md"))

	out, err := execute(t, "whatis", "_0x41a7", "-m", mappings)
	require.NoError(t, err)
	assert.Equal(t, "lib/soma.php: $a -> $_0x41a7\n", out)
}

func TestDirCommandRejectsNestedOutput(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	writeTestFile(t, cfgPath, "silent: true\n")
	src := filepath.Join(dir, "src")
	writeTestFile(t, filepath.Join(src, "a.php"), "<?php echo 1;")

	_, err := execute(t, "obfuscate", "dir", src, "-o", filepath.Join(src, "out"), "-c", cfgPath)
	assert.ErrorContains(t, err, "must not be inside")
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	_, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	loaded, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Level, loaded.Level)

	_, err = execute(t, "config", "init", path)
	assert.ErrorContains(t, err, "already exists")

	_, err = execute(t, "config", "init", path, "--force")
	assert.NoError(t, err)
}

func TestApplyFlagOverrides(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().AddFlagSet(rootCmd.PersistentFlags())
	resetFlags(rootCmd)
	require.NoError(t, cmd.Flags().Parse([]string{"--level", "2", "--preserve-magic=false", "--reserve", "token,secret"}))

	c := config.DefaultConfig()
	c.ReservedWords = []string{"kept"}
	applyFlagOverrides(c, cmd)

	assert.Equal(t, 2, c.Level)
	assert.False(t, c.PreserveMagic)
	assert.True(t, c.StripComments, "unchanged flags leave the config alone")
	assert.Equal(t, []string{"kept", "token", "secret"}, c.ReservedWords)
}

func TestWriteDiff(t *testing.T) {
	var buf bytes.Buffer
	writeDiff(&buf, "<?php\n// note\necho 1;\n", "<?php\necho 1;\n")
	assert.Contains(t, buf.String(), "\x1b[31m// note\n")
	assert.Contains(t, buf.String(), "echo 1;")
}

func TestConfigShow(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	writeTestFile(t, cfgPath, "silent: true\nreserved_words: [token]\n")

	out, err := execute(t, "config", "show", "-c", cfgPath, "--level", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "level: 2 (max 2)")
	assert.Contains(t, out, "1:strip-comments")
	assert.Contains(t, out, "2:rename-variables")
	assert.Contains(t, out, "reserved_words: [token]")
}
