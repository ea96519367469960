package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"teammatch/internal/adapter/fs"
	"teammatch/internal/usecase"
)

var importCmd = &cobra.Command{
	Use:   "import [path]",
	Short: "Import employees, projects and teams from YAML datasets",
	Long: `Import every *.yaml / *.yml dataset under the given path (or the single
file given) and embed whatever the import made pending. Re-importing the same
records is safe: unchanged text keeps its stored vector.

Examples:
  teammatch import .              # Import datasets in the current directory
  teammatch import data/acme.yaml # Import one file`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

var importNoEmbed bool

func init() {
	importCmd.Flags().BoolVar(&importNoEmbed, "no-embed", false, "store records without embedding them")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	path := rootDir
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	embed := a.embed
	if importNoEmbed {
		embed = nil
	}
	importUC := usecase.NewImportUseCase(a.store, fs.NewWalker(nil, nil), embed, log)

	fmt.Printf("Scanning %s...\n", path)
	start := time.Now()
	result, err := importUC.Import(ctx, path, newProgressBar("Embedding"))
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	a.publishIndexState()

	fmt.Printf("\nImport complete in %s:\n", formatDuration(time.Since(start)))
	fmt.Printf("  Files read:  %d\n", result.Files)
	fmt.Printf("  Employees:   %d\n", result.Employees)
	fmt.Printf("  Projects:    %d\n", result.Projects)
	fmt.Printf("  Teams:       %d\n", result.Teams)
	if result.Embedding != nil {
		printEmbedResult(result.Embedding)
	}

	if len(result.Errors) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
	return nil
}
