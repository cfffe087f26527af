package main

import (
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a source tree and print walk statistics",
	Long: `Walk a source tree, extract declarations from every readable text file
and report what was indexed. The index lives in memory; use export to keep
a snapshot.

Examples:
  codeintel index
  codeintel index ./src --format=json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	idx, stats := buildIndex(cmd.Context(), cfg)
	return writeOutput(cmd.OutOrStdout(), &IndexResult{
		Root:    cfg.Workspace.Root,
		Stats:   stats,
		Symbols: idx.SymbolCount(),
	}, OutputFormat(formatFlag))
}
