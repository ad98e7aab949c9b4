package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/runstack/obfuscator/internal/config"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration to a YAML file",
	Args:  cobra.MaximumNArgs(1),
	Annotations: map[string]string{
		skipConfigAnnotation: "true",
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		path := config.DefaultConfigFile
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil && !forceInit {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		}
		return config.SaveConfig(path)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration and available levels",
	RunE: func(cmd *cobra.Command, args []string) error {
		obf, err := newObfuscator()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "level: %d (max %d)\n", cfg.Level, obf.MaxLevel())
		for _, l := range obf.Engine.Levels() {
			fmt.Fprintf(out, "  %s\n", l)
		}
		fmt.Fprintf(out, "strip_comments: %t\n", cfg.StripComments)
		fmt.Fprintf(out, "preserve_superglobals: %t\n", cfg.PreserveSuperglobals)
		fmt.Fprintf(out, "preserve_magic: %t\n", cfg.PreserveMagic)
		fmt.Fprintf(out, "reserved_words: %v\n", cfg.ReservedWords)
		fmt.Fprintf(out, "parser_mode: %s\n", cfg.ParserMode)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
