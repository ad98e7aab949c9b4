package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/runstack/obfuscator/internal/config"
)

var (
	dirOutput   string
	dirMappings string
)

// dirCmd represents the obfuscate dir command
var dirCmd = &cobra.Command{
	Use:   "dir <source_directory>",
	Short: "Obfuscate every PHP file below a directory",
	Long: `Walks the source directory and writes a mirrored tree to the output directory.

Files whose extension is listed in obfuscate_php_extensions are obfuscated,
other files are copied and symlinks are recreated. Entries matching a skip
pattern are left out. Up to --workers files are processed at once.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		sourceDir := args[0]

		absSource, err := filepath.Abs(sourceDir)
		if err != nil {
			return fmt.Errorf("error resolving source directory %s: %w", sourceDir, err)
		}
		absOutput, err := filepath.Abs(dirOutput)
		if err != nil {
			return fmt.Errorf("error resolving output directory %s: %w", dirOutput, err)
		}
		if rel, err := filepath.Rel(absSource, absOutput); err == nil && (rel == "." || filepath.IsLocal(rel)) {
			return fmt.Errorf("output directory %s must not be inside the source directory", dirOutput)
		}

		obf, err := newObfuscator()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		config.PrintInfo("Info: Obfuscating %s -> %s (level %d)\n", absSource, absOutput, obf.Level())
		summary, err := obf.ObfuscateDirectoryContext(ctx, absSource, absOutput)
		if err != nil {
			return err
		}

		if dirMappings != "" {
			if err := summary.Mappings.Save(dirMappings); err != nil {
				return err
			}
			config.PrintInfo("Info: Wrote name mappings for %d files to %s\n", summary.Mappings.Len(), dirMappings)
		}
		if summary.Failures != nil {
			return fmt.Errorf("%d files failed: %w", len(summary.Failures.Errors), summary.Failures)
		}
		return nil
	},
}

func init() {
	dirCmd.Flags().StringVarP(&dirOutput, "output", "o", "", "Output directory (required)")
	dirCmd.Flags().StringVar(&dirMappings, "mappings", "", "Write the variable name mappings of all files to this YAML file")
	_ = dirCmd.MarkFlagRequired("output")
}
