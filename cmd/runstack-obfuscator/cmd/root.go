// Package cmd implements the command line interface for the application.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/runstack/obfuscator/internal/config"
	"github.com/runstack/obfuscator/internal/logging"
	"github.com/runstack/obfuscator/pkg/api"
)

// skipConfigAnnotation marks commands that run without loading a config.
const skipConfigAnnotation = "skip-config"

var (
	cfgFile string         // Variable to hold the config file path from the flag
	cfg     *config.Config // Global variable to hold the loaded configuration

	// Flag variables mapped to config fields for override
	silentMode           bool     // -> cfg.Silent
	abortOnError         bool     // -> cfg.AbortOnError
	level                int      // -> cfg.Level
	stripComments        bool     // -> cfg.StripComments
	preserveSuperglobals bool     // -> cfg.PreserveSuperglobals
	preserveMagic        bool     // -> cfg.PreserveMagic
	reservedWords        []string // appended to cfg.ReservedWords
	parserMode           string   // -> cfg.ParserMode
	workers              int      // -> cfg.Workers
	debugMode            bool     // -> cfg.DebugMode

	verbosity   int
	logToStderr bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "runstack-obfuscator",
	Short: "A CLI tool to obfuscate PHP code by level.",
	Long: `runstack-obfuscator makes PHP code harder to read while keeping its behavior.

Level 1 strips comments, level 2 also renames local variables to short
hexadecimal tokens.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[skipConfigAnnotation] == "true" {
			return nil
		}
		if cfg == nil { // Only load config once
			loadedCfg, err := config.LoadConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("error loading configuration: %w", err)
			}
			cfg = loadedCfg
			applyFlagOverrides(cfg, cmd)

			v := verbosity
			if cfg.DebugMode && v == 0 {
				v = int(logging.LevelPass)
			}
			logging.InitLogging(logToStderr || cfg.DebugMode, v)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Flush()
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// applyFlagOverrides applies command-line flag values to the config struct.
// Only overrides if the flag was explicitly set by the user via cmd.Flags().Changed().
func applyFlagOverrides(cfg *config.Config, cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("silent") {
		cfg.Silent = silentMode
	}
	if flags.Changed("abort-on-error") {
		cfg.AbortOnError = abortOnError
	}
	if flags.Changed("level") {
		cfg.Level = level
	}
	if flags.Changed("strip-comments") {
		cfg.StripComments = stripComments
	}
	if flags.Changed("preserve-superglobals") {
		cfg.PreserveSuperglobals = preserveSuperglobals
	}
	if flags.Changed("preserve-magic") {
		cfg.PreserveMagic = preserveMagic
	}
	if flags.Changed("reserve") {
		cfg.ReservedWords = append(cfg.ReservedWords, reservedWords...)
	}
	if flags.Changed("parser-mode") {
		cfg.ParserMode = parserMode
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("debug") {
		cfg.DebugMode = debugMode
	}
}

// newObfuscator builds the library facade from the loaded configuration.
func newObfuscator() (*api.Obfuscator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return api.NewObfuscatorFromConfig(cfg)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logging.Flush()
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")

	pf.BoolVarP(&silentMode, "silent", "s", false, "Suppress informational output (overrides config)")
	pf.BoolVar(&abortOnError, "abort-on-error", true, "Stop processing on the first error (overrides config)")
	pf.IntVarP(&level, "level", "l", 1, "Obfuscation level (overrides config)")
	pf.BoolVar(&stripComments, "strip-comments", true, "Enable/disable comment stripping (overrides config)")
	pf.BoolVar(&preserveSuperglobals, "preserve-superglobals", true, "Never rename $_GET, $GLOBALS and friends (overrides config)")
	pf.BoolVar(&preserveMagic, "preserve-magic", true, "Never rename variables starting with __ (overrides config)")
	pf.StringSliceVar(&reservedWords, "reserve", nil, "Extra variable names to keep (added to config)")
	pf.StringVar(&parserMode, "parser-mode", "", "PHP grammar: PREFER_PHP5, PREFER_PHP7 or PREFER_PHP8 (overrides config)")
	pf.IntVarP(&workers, "workers", "w", 4, "Concurrent files in directory mode (overrides config)")
	pf.BoolVar(&debugMode, "debug", false, "Trace pipeline decisions to stderr (overrides config)")
	pf.IntVarP(&verbosity, "verbose", "v", 0, "glog verbosity for developer tracing")
	pf.BoolVar(&logToStderr, "logtostderr", false, "Write glog output to stderr instead of files")

	rootCmd.AddCommand(obfuscateCmd)
	rootCmd.AddCommand(whatisCmd)
	rootCmd.AddCommand(configCmd)
}
