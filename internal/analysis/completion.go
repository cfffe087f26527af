package analysis

import (
	"strings"
	"unicode/utf8"

	"codeintel/internal/symbols"
)

var keywordCompletions = []CompletionItem{
	{Label: "function", Detail: "Function declaration", Kind: CompletionKeyword},
	{Label: "const", Detail: "Constant", Kind: CompletionKeyword},
	{Label: "let", Detail: "Mutable variable", Kind: CompletionKeyword},
	{Label: "var", Detail: "Variable (not recommended)", Kind: CompletionKeyword},
	{Label: "if", Detail: "Conditional", Kind: CompletionKeyword},
	{Label: "else", Detail: "Conditional alternative", Kind: CompletionKeyword},
	{Label: "for", Detail: "For loop", Kind: CompletionKeyword},
	{Label: "while", Detail: "While loop", Kind: CompletionKeyword},
	{Label: "return", Detail: "Return a value", Kind: CompletionKeyword},
	{Label: "class", Detail: "Class", Kind: CompletionKeyword},
	{Label: "interface", Detail: "Interface", Kind: CompletionKeyword},
	{Label: "type", Detail: "Type alias", Kind: CompletionKeyword},
	{Label: "import", Detail: "Import a module", Kind: CompletionKeyword},
	{Label: "export", Detail: "Export", Kind: CompletionKeyword},
}

var consoleCompletions = []CompletionItem{
	{Label: "console.log", Detail: "Log a message to the console", Kind: CompletionMethod},
	{Label: "console.error", Detail: "Log an error to the console", Kind: CompletionMethod},
}

// Completions returns candidates for the cursor at (line, column). The prefix
// is the run of non-blank characters left of the cursor. Results are, in
// order: keywords starting with the prefix, the console methods when the
// prefix contains "console.", and every function declared in text whose name
// starts with the prefix. Nothing is deduplicated. A line outside the buffer
// yields no candidates; a column past the end of the line is clamped.
func Completions(text string, line, column int) []CompletionItem {
	lines := symbols.SplitLines(text)
	if line < 0 || line >= len(lines) {
		return nil
	}
	prefix := prefixAt(lines[line], column)

	var out []CompletionItem
	for _, kw := range keywordCompletions {
		if strings.HasPrefix(kw.Label, prefix) {
			out = append(out, kw)
		}
	}

	if strings.Contains(prefix, "console.") {
		out = append(out, consoleCompletions...)
	}

	for _, l := range lines {
		name, _, ok := symbols.FindDeclaration(l, "function")
		if ok && strings.HasPrefix(name, prefix) {
			out = append(out, CompletionItem{
				Label:  name,
				Detail: "Function defined in this file",
				Kind:   CompletionFunction,
			})
		}
	}
	return out
}

func prefixAt(line string, column int) string {
	end := clampColumn(line, column)
	start := end
	for start > 0 && !isSpace(line[start-1]) {
		start--
	}
	return line[start:end]
}

// clampColumn bounds column to the line and moves it back onto a rune start.
func clampColumn(line string, column int) int {
	if column < 0 {
		return 0
	}
	if column >= len(line) {
		return len(line)
	}
	for column > 0 && !utf8.RuneStart(line[column]) {
		column--
	}
	return column
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\v', '\f', '\r':
		return true
	}
	return false
}
