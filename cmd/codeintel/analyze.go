package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"codeintel/internal/analysis"
)

var (
	analyzeAt         []int
	analyzeCompletion bool
	analyzeHover      bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Print diagnostics for a file, with optional completions and hover",
	Long: `Run buffer analysis on one file. Diagnostics are always reported.
With --at=line,column (0-based), --completions and --hover also report what an
editor would show at that position.

Examples:
  codeintel analyze src/app.ts
  codeintel analyze src/app.ts --at=3,5 --completions --hover`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().IntSliceVar(&analyzeAt, "at", nil, "Position as line,column (0-based)")
	analyzeCmd.Flags().BoolVar(&analyzeCompletion, "completions", false, "Report completions at --at")
	analyzeCmd.Flags().BoolVar(&analyzeHover, "hover", false, "Report hover at --at")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]
	if (analyzeCompletion || analyzeHover) && len(analyzeAt) != 2 {
		return fmt.Errorf("--completions and --hover need --at=line,column")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	text := string(data)

	res := &AnalyzeResult{
		Path:        path,
		Diagnostics: analysis.Diagnostics(path, text),
	}
	if res.Diagnostics == nil {
		res.Diagnostics = []analysis.Diagnostic{}
	}
	if analyzeCompletion {
		res.Completions = analysis.Completions(text, analyzeAt[0], analyzeAt[1])
	}
	if analyzeHover {
		if h, ok := analysis.Hover(text, analyzeAt[0], analyzeAt[1]); ok {
			res.Hover = &h
		}
	}
	return writeOutput(cmd.OutOrStdout(), res, OutputFormat(formatFlag))
}
