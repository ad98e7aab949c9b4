package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/runstack/obfuscator/internal/config"
	"github.com/runstack/obfuscator/internal/obfuscator"
	"github.com/runstack/obfuscator/pkg/api"
)

var (
	outputFile   string // Flag variable for output file path
	showDiff     bool
	fileMappings string
)

// fileCmd represents the obfuscate file command
var fileCmd = &cobra.Command{
	Use:   "file <php_file_path>",
	Short: "Obfuscate a single PHP file",
	Long: `Reads a single PHP file, applies the passes of the configured level,
and outputs the result to stdout or a specified file.

With --diff the changes are printed instead of the obfuscated code.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		filePath := args[0]

		obf, err := newObfuscator()
		if err != nil {
			return err
		}

		original, err := os.ReadFile(filePath)
		if err != nil {
			return &api.IOError{Op: "read", Path: filePath, Err: err}
		}

		config.PrintInfo("Processing file: %s (level %d)\n", filePath, obf.Level())
		res, err := obf.Obfuscate(string(original))
		if err != nil {
			return fmt.Errorf("error processing file %s: %w", filePath, err)
		}

		if fileMappings != "" {
			m := api.NewMappingFile(res.Level)
			m.Add(filePath, res.Mappings)
			if err := m.Save(fileMappings); err != nil {
				return err
			}
			config.PrintInfo("Info: Wrote %d name mappings to %s\n", len(res.Mappings), fileMappings)
		}

		if outputFile != "" {
			if err := obfuscator.WriteOutput(outputFile, res.Output); err != nil {
				return err
			}
			config.PrintInfo("Info: Wrote output to file: %s\n", outputFile)
		}

		switch {
		case showDiff:
			writeDiff(cmd.OutOrStdout(), string(original), res.Output)
		case outputFile == "":
			fmt.Fprint(cmd.OutOrStdout(), res.Output)
		}
		return nil
	},
}

// writeDiff prints a line-level diff of before and after.
func writeDiff(w io.Writer, before, after string) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	fmt.Fprint(w, dmp.DiffPrettyText(diffs))
}

func init() {
	fileCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (default: stdout)")
	fileCmd.Flags().BoolVar(&showDiff, "diff", false, "Print the changes instead of the obfuscated code")
	fileCmd.Flags().StringVar(&fileMappings, "mappings", "", "Write the variable name mappings to this YAML file")
}
