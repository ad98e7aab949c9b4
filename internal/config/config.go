// Package config loads and holds the obfuscator configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Parser modes accepted by parser_mode.
const (
	ParserModePHP5 = "PREFER_PHP5"
	ParserModePHP7 = "PREFER_PHP7"
	ParserModePHP8 = "PREFER_PHP8"
)

// EnvPrefix is prepended to every environment override, e.g. RUNSTACK_LEVEL=2.
const EnvPrefix = "RUNSTACK"

// DefaultConfigFile is looked up in the working directory when no path is given.
const DefaultConfigFile = "config.yaml"

// LevelConfig is the immutable slice of the configuration the pipeline and
// its passes read. It is copied by value once the pipeline is constructed.
type LevelConfig struct {
	Level                int
	PreserveSuperglobals bool
	PreserveMagic        bool
	StripComments        bool
}

// Config holds all configuration settings for the obfuscator.
// Struct tags control how Viper maps config file keys and environment variables.
type Config struct {
	// Obfuscation settings
	Level                int      `yaml:"level" mapstructure:"level"`
	PreservePublic       bool     `yaml:"preserve_public" mapstructure:"preserve_public"` // advisory, reserved for higher levels
	StripComments        bool     `yaml:"strip_comments" mapstructure:"strip_comments"`
	PreserveSuperglobals bool     `yaml:"preserve_superglobals" mapstructure:"preserve_superglobals"`
	PreserveMagic        bool     `yaml:"preserve_magic" mapstructure:"preserve_magic"`
	ReservedWords        []string `yaml:"reserved_words" mapstructure:"reserved_words"` // extra names never renamed

	// General behavior
	ParserMode   string `yaml:"parser_mode" mapstructure:"parser_mode"`
	Silent       bool   `yaml:"silent" mapstructure:"silent"`
	DebugMode    bool   `yaml:"debug_mode" mapstructure:"debug_mode"`
	AbortOnError bool   `yaml:"abort_on_error" mapstructure:"abort_on_error"`

	// Directory mode
	ObfuscatePhpExtensions []string `yaml:"obfuscate_php_extensions" mapstructure:"obfuscate_php_extensions"`
	SkipPaths              []string `yaml:"skip" mapstructure:"skip"`
	Workers                int      `yaml:"workers" mapstructure:"workers"`
}

// defaults mirrors DefaultConfig for viper so every key is known to the
// environment binding.
var defaults = map[string]interface{}{
	"level":                    1,
	"preserve_public":          true,
	"strip_comments":           true,
	"preserve_superglobals":    true,
	"preserve_magic":           true,
	"reserved_words":           []string{},
	"parser_mode":              ParserModePHP8,
	"silent":                   false,
	"debug_mode":               false,
	"abort_on_error":           true,
	"obfuscate_php_extensions": []string{"php", "php5", "phtml"},
	"skip":                     []string{"vendor/*", ".git*"},
	"workers":                  4,
}

var (
	// Testing controls whether output is suppressed for testing purposes
	Testing bool
)

// PrintInfo prints informational output unless running under tests.
func PrintInfo(format string, args ...interface{}) {
	if !Testing {
		fmt.Printf(format, args...)
	}
}

// DefaultConfig returns a configuration with default settings.
func DefaultConfig() *Config {
	return &Config{
		Level:                  1,
		PreservePublic:         true,
		StripComments:          true,
		PreserveSuperglobals:   true,
		PreserveMagic:          true,
		ReservedWords:          []string{},
		ParserMode:             ParserModePHP8,
		AbortOnError:           true,
		ObfuscatePhpExtensions: []string{"php", "php5", "phtml"},
		SkipPaths:              []string{"vendor/*", ".git*"},
		Workers:                4,
	}
}

// LevelConfig returns the pipeline view of the configuration.
func (c *Config) LevelConfig() LevelConfig {
	return LevelConfig{
		Level:                c.Level,
		PreserveSuperglobals: c.PreserveSuperglobals,
		PreserveMagic:        c.PreserveMagic,
		StripComments:        c.StripComments,
	}
}

// LoadConfig reads configuration from file and environment variables and
// returns a filled Config struct. An empty path falls back to config.yaml in
// the working directory, which may be absent.
func LoadConfig(configPath string) (*Config, error) {
	return LoadConfigWithOverrides(configPath, nil)
}

// LoadConfigWithOverrides is LoadConfig with programmatic overrides applied
// last, keyed like the config file (e.g. "level": 2).
func LoadConfigWithOverrides(configPath string, overrides map[string]interface{}) (*Config, error) {
	v := newViper()

	explicit := configPath != ""
	if !explicit {
		configPath = DefaultConfigFile
	}

	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if ext := strings.TrimPrefix(filepath.Ext(configPath), "."); ext != "yaml" && ext != "yml" {
			v.SetConfigType("yaml")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configPath, err)
		}
	} else if os.IsNotExist(err) {
		if explicit {
			return nil, fmt.Errorf("specified config file not found: %s", configPath)
		}
	} else {
		return nil, fmt.Errorf("error checking config file %s: %w", configPath, err)
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error decoding configuration: %w", err)
	}
	cfg.ParserMode = strings.ToUpper(strings.TrimSpace(cfg.ParserMode))

	if v.ConfigFileUsed() != "" && !cfg.Silent {
		PrintInfo("Info: Loaded configuration from %s\n", v.ConfigFileUsed())
	}
	return cfg, nil
}

// SaveConfig writes the default configuration to a YAML file.
func SaveConfig(configPath string) error {
	yamlData, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("error marshalling default config: %w", err)
	}
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating directory for config file %s: %w", configPath, err)
	}
	if err := os.WriteFile(configPath, yamlData, 0644); err != nil {
		return fmt.Errorf("error writing config file %s: %w", configPath, err)
	}
	PrintInfo("Info: Saved default configuration to %s\n", configPath)
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	for key, value := range defaults {
		v.SetDefault(key, value)
		bindEnv(v, key)
	}
	return v
}

// Helper to explicitly bind environment variables, handling potential key mismatches
func bindEnv(v *viper.Viper, key string) {
	envKey := strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
	_ = v.BindEnv(key, EnvPrefix+"_"+envKey)
}
