package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"codeintel/internal/export"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Index a source tree and write a SQLite snapshot",
	Long: `Index a source tree and replace the contents of a SQLite database with
the indexed files and their symbols. The snapshot is for external tools; the
engine never reads it back.

Examples:
  codeintel export
  codeintel export ./src --out=/tmp/snapshot.db`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Snapshot path (default: config export.path)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	out := cfg.Export.Path
	if exportOut != "" {
		out = exportOut
	}

	idx, _ := buildIndex(cmd.Context(), cfg)
	sum, err := export.WriteSQLite(cmd.Context(), idx, out)
	if err != nil {
		return fmt.Errorf("exporting snapshot: %w", err)
	}
	logger.Info("snapshot written", "path", out, "files", sum.Files, "symbols", sum.Symbols)

	return writeOutput(cmd.OutOrStdout(), &ExportResult{Path: out, Summary: sum}, OutputFormat(formatFlag))
}
