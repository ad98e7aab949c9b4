package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	Testing = true
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfigMatchesDocumentedDefaults(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1, cfg.Level)
	assert.True(t, cfg.PreservePublic)
	assert.True(t, cfg.StripComments)
	assert.True(t, cfg.PreserveSuperglobals)
	assert.True(t, cfg.PreserveMagic)
	assert.Equal(t, ParserModePHP8, cfg.ParserMode)
}

func TestLoadConfigWithoutFileUsesDefaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer os.Chdir(wd)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig().LevelConfig(), cfg.LevelConfig())
	assert.Equal(t, []string{"php", "php5", "phtml"}, cfg.ObfuscatePhpExtensions)
	assert.Equal(t, 4, cfg.Workers)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfig(t, `
level: 2
strip_comments: false
preserve_magic: false
reserved_words:
  - keepMe
parser_mode: prefer_php7
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, LevelConfig{
		Level:                2,
		PreserveSuperglobals: true,
		PreserveMagic:        false,
		StripComments:        false,
	}, cfg.LevelConfig())
	assert.Equal(t, []string{"keepMe"}, cfg.ReservedWords)
	assert.Equal(t, ParserModePHP7, cfg.ParserMode)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoadConfigEnvironmentOverride(t *testing.T) {
	path := writeConfig(t, "level: 1\n")
	t.Setenv("RUNSTACK_LEVEL", "2")
	t.Setenv("RUNSTACK_PRESERVE_SUPERGLOBALS", "false")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Level)
	assert.False(t, cfg.PreserveSuperglobals)
}

func TestLoadConfigWithOverrides(t *testing.T) {
	path := writeConfig(t, "level: 1\nsilent: false\n")

	cfg, err := LoadConfigWithOverrides(path, map[string]interface{}{
		"level":  2,
		"silent": true,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Level)
	assert.True(t, cfg.Silent)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, SaveConfig(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	def := DefaultConfig()
	assert.Equal(t, def.LevelConfig(), cfg.LevelConfig())
	assert.Equal(t, def.ParserMode, cfg.ParserMode)
	assert.Equal(t, def.SkipPaths, cfg.SkipPaths)
	assert.Equal(t, def.Workers, cfg.Workers)
	assert.Empty(t, cfg.ReservedWords)
}
