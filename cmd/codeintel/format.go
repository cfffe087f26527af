package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"codeintel/internal/analysis"
	"codeintel/internal/export"
	"codeintel/internal/workspace"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// IndexResult is the output of the index command.
type IndexResult struct {
	Root    string              `json:"root"`
	Stats   workspace.WalkStats `json:"stats"`
	Symbols int                 `json:"symbols"`
}

// SearchResult is the output of the search command.
type SearchResult struct {
	Query string   `json:"query"`
	Files []string `json:"files"`
}

// SymbolHit is one row of the symbols command.
type SymbolHit struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Path   string `json:"path"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// SymbolsResult is the output of the symbols command.
type SymbolsResult struct {
	Query   string      `json:"query"`
	Symbols []SymbolHit `json:"symbols"`
}

// AnalyzeResult is the output of the analyze command.
type AnalyzeResult struct {
	Path        string                    `json:"path"`
	Diagnostics []analysis.Diagnostic     `json:"diagnostics"`
	Completions []analysis.CompletionItem `json:"completions,omitempty"`
	Hover       *analysis.HoverResult     `json:"hover,omitempty"`
}

// ExportResult is the output of the export command.
type ExportResult struct {
	Path    string         `json:"path"`
	Summary export.Summary `json:"summary"`
}

// writeOutput formats resp and writes it to w.
func writeOutput(w io.Writer, resp interface{}, format OutputFormat) error {
	var (
		out string
		err error
	)
	switch format {
	case FormatJSON:
		out, err = formatJSON(resp)
	case FormatHuman:
		out, err = formatHuman(resp)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data) + "\n", nil
}

func formatHuman(resp interface{}) (string, error) {
	var b strings.Builder

	switch v := resp.(type) {
	case *IndexResult:
		fmt.Fprintf(&b, "Indexed %s\n", v.Root)
		fmt.Fprintf(&b, "  files:   %d\n", v.Stats.Indexed)
		fmt.Fprintf(&b, "  symbols: %d\n", v.Symbols)
		fmt.Fprintf(&b, "  dirs:    %d\n", v.Stats.Dirs)
		fmt.Fprintf(&b, "  failed:  %d\n", v.Stats.Failed)
		fmt.Fprintf(&b, "  skipped: %d\n", v.Stats.Skipped)
	case *SearchResult:
		for _, f := range v.Files {
			b.WriteString(f + "\n")
		}
	case *SymbolsResult:
		for _, s := range v.Symbols {
			fmt.Fprintf(&b, "%s:%d:%d\t%s\t%s\n", s.Path, s.Line, s.Column, s.Kind, s.Name)
		}
	case *AnalyzeResult:
		for _, d := range v.Diagnostics {
			fmt.Fprintf(&b, "%s:%d:%d: %s: %s [%s]\n",
				v.Path, d.Range.Start.Line+1, d.Range.Start.Character, d.Severity, d.Message, d.Code)
		}
		for _, c := range v.Completions {
			fmt.Fprintf(&b, "completion: %s\t%s\n", c.Label, c.Detail)
		}
		if v.Hover != nil {
			fmt.Fprintf(&b, "hover: %s\n", v.Hover.Text)
		}
	case *ExportResult:
		fmt.Fprintf(&b, "Exported %d files and %d symbols to %s\n", v.Summary.Files, v.Summary.Symbols, v.Path)
	default:
		return formatJSON(resp)
	}
	return b.String(), nil
}
