package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kevinaaaquil/bookstore/backend/service"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import books from an .xlsx or .csv file",
	Long: `Import books from a spreadsheet using the same validation and insert path as
POST /api/books/bulk-import. The report is printed as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: importBooks,
}

var importMode string

func init() {
	importCmd.Flags().StringVar(&importMode, "mode", "", "report or transaction (default BULK_IMPORT_MODE)")
	rootCmd.AddCommand(importCmd)
}

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

type fileImporter interface {
	ImportFile(ctx context.Context, r io.Reader, filename string) (*service.Report, error)
}

func importBooks(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Disconnect(context.Background())

	if importMode != "" {
		cfg.BulkImportMode = importMode
	}
	return runImport(ctx, cmd.OutOrStdout(), db, newImporter(ctx, cfg, db), f, filepath.Base(args[0]))
}

// runImport creates the indexes, so the unique ISBN index catches duplicates on a fresh database, then imports
// the file and prints the report.
func runImport(ctx context.Context, out io.Writer, db indexer, importer fileImporter, r io.Reader, name string) error {
	if err := db.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	report, importErr := importer.ImportFile(ctx, r, name)
	if report != nil {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	}
	if importErr != nil {
		return fmt.Errorf("import failed: %w", importErr)
	}
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d of %d rows were not imported", len(report.Failed), report.TotalRows)
	}
	return nil
}
