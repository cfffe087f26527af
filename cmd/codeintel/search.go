package main

import (
	"github.com/spf13/cobra"
)

var (
	searchRoot   string
	symbolsRoot  string
	symbolsLimit int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "List files whose path or content contains a substring",
	Long: `Index the workspace and list every file whose path or content contains
the query, ignoring case. An empty query lists every indexed file.

Examples:
  codeintel search handleRequest
  codeintel search "" --root ./src`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var symbolsCmd = &cobra.Command{
	Use:   "symbols <name>",
	Short: "Find declarations whose name contains a substring",
	Long: `Index the workspace and list declarations whose name contains the query,
ignoring case.

Examples:
  codeintel symbols parse
  codeintel symbols Config --limit=20 --format=json`,
	Args: cobra.ExactArgs(1),
	RunE: runSymbols,
}

func init() {
	searchCmd.Flags().StringVar(&searchRoot, "root", "", "Workspace root (default: config root)")
	symbolsCmd.Flags().StringVar(&symbolsRoot, "root", "", "Workspace root (default: config root)")
	symbolsCmd.Flags().IntVar(&symbolsLimit, "limit", 0, "Maximum number of symbols (0 means no limit)")
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(symbolsCmd)
}

func rootArgs(root string) []string {
	if root == "" {
		return nil
	}
	return []string{root}
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(rootArgs(searchRoot))
	if err != nil {
		return err
	}

	idx, _ := buildIndex(cmd.Context(), cfg)
	res := &SearchResult{Query: args[0], Files: []string{}}
	for _, f := range idx.Search(args[0]) {
		res.Files = append(res.Files, f.Path)
	}
	return writeOutput(cmd.OutOrStdout(), res, OutputFormat(formatFlag))
}

func runSymbols(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(rootArgs(symbolsRoot))
	if err != nil {
		return err
	}

	idx, _ := buildIndex(cmd.Context(), cfg)
	res := &SymbolsResult{Query: args[0], Symbols: []SymbolHit{}}
	for _, m := range idx.FindSymbols(args[0]) {
		if symbolsLimit > 0 && len(res.Symbols) >= symbolsLimit {
			break
		}
		res.Symbols = append(res.Symbols, SymbolHit{
			Name:   m.Symbol.Name,
			Kind:   m.Symbol.Kind.String(),
			Path:   m.File.Path,
			Line:   m.Symbol.Line,
			Column: m.Symbol.Column,
		})
	}
	return writeOutput(cmd.OutOrStdout(), res, OutputFormat(formatFlag))
}
