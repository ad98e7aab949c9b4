package cmd

import (
	"github.com/spf13/cobra"
)

// obfuscateCmd represents the base command for obfuscation actions
var obfuscateCmd = &cobra.Command{
	Use:   "obfuscate",
	Short: "Obfuscates PHP code at the configured level",
	Long: `Provides subcommands to obfuscate individual files or entire directories.

Example:
  runstack-obfuscator obfuscate file input.php -o output.php --level 2
  runstack-obfuscator obfuscate dir ./src -o ./dist --mappings names.yaml`,
	Aliases: []string{"ob"},
}

func init() {
	obfuscateCmd.AddCommand(fileCmd)
	obfuscateCmd.AddCommand(dirCmd)
}
