package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runstack/obfuscator/pkg/api"
)

var whatisMappings string

// whatisCmd represents the whatis command
var whatisCmd = &cobra.Command{
	Use:   "whatis <name>",
	Short: "Looks up a variable name in a mapping file",
	Long: `Loads a mapping file written by "obfuscate --mappings" and prints every
entry where the given name is either the original or the generated name.

Example:
  runstack-obfuscator whatis _0x41a7 -m names.yaml`,
	Args: cobra.ExactArgs(1),
	Annotations: map[string]string{
		skipConfigAnnotation: "true",
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		name := args[0]

		mappings, err := api.LoadMappingFile(whatisMappings)
		if err != nil {
			return fmt.Errorf("error loading mappings: %w", err)
		}

		matches := mappings.Lookup(name)
		if len(matches) == 0 {
			return fmt.Errorf("name '%s' not found in %s", name, whatisMappings)
		}
		out := cmd.OutOrStdout()
		for _, m := range matches {
			fmt.Fprintf(out, "%s: $%s -> $%s\n", m.File, m.Original, m.Generated)
		}
		return nil
	},
}

func init() {
	whatisCmd.Flags().StringVarP(&whatisMappings, "mappings", "m", "", "Mapping file of a previous run (required)")
	_ = whatisCmd.MarkFlagRequired("mappings")
}
