package analysis

import (
	"strings"

	"codeintel/internal/symbols"
)

type diagnosticRule struct {
	token    string
	width    int // highlighted bytes from the match start
	severity Severity
	code     string
	message  string
	tsOnly   bool
}

var diagnosticRules = []diagnosticRule{
	{token: "console.log", width: len("console.log"), severity: SeverityWarning, code: "no-console", message: "console.log call"},
	{token: "TODO", width: len("TODO"), severity: SeverityInfo, code: "todo", message: "TODO found"},
	{token: "FIXME", width: len("FIXME"), severity: SeverityInfo, code: "todo", message: "FIXME found"},
	{token: "any ", width: len("any"), severity: SeverityWarning, code: "no-any", message: "use of type 'any'", tsOnly: true},
}

// Diagnostics flags console.log calls, TODO and FIXME markers, and, when
// uri names a .ts file, uses of the any type. Every occurrence on every line
// is reported, in line order and then rule order.
func Diagnostics(uri, text string) []Diagnostic {
	isTS := strings.HasSuffix(uri, ".ts")

	var out []Diagnostic
	for lineNo, line := range symbols.SplitLines(text) {
		for _, rule := range diagnosticRules {
			if rule.tsOnly && !isTS {
				continue
			}
			for _, col := range occurrences(line, rule.token) {
				out = append(out, Diagnostic{
					Message:  rule.message,
					Severity: rule.severity,
					Range: Range{
						Start: Position{Line: lineNo, Character: col},
						End:   Position{Line: lineNo, Character: col + rule.width},
					},
					Code:   rule.code,
					Source: Source,
				})
			}
		}
	}
	return out
}

// occurrences returns the start offsets of every non-overlapping match of
// token in line.
func occurrences(line, token string) []int {
	var cols []int
	offset := 0
	for {
		i := strings.Index(line[offset:], token)
		if i < 0 {
			return cols
		}
		cols = append(cols, offset+i)
		offset += i + len(token)
	}
}
