package analysis

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"codeintel/internal/symbols"
)

var keywordHover = map[string]string{
	"function": "keyword: declares a function",
	"const":    "keyword: declares a constant",
	"let":      "keyword: declares a mutable variable",
}

const consoleHover = "console: the global console object"

// Hover explains the identifier under the cursor. It reports false when the
// line is outside the buffer or the character at column is not part of an
// identifier. The returned range covers the whole identifier.
func Hover(text string, line, column int) (HoverResult, bool) {
	lines := symbols.SplitLines(text)
	if line < 0 || line >= len(lines) {
		return HoverResult{}, false
	}
	l := lines[line]
	if column < 0 || column >= len(l) {
		return HoverResult{}, false
	}
	column = clampColumn(l, column)

	r, _ := utf8.DecodeRuneInString(l[column:])
	if !symbols.IsIdentRune(r) {
		return HoverResult{}, false
	}

	start := column
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(l[:start])
		if !symbols.IsIdentRune(r) {
			break
		}
		start -= size
	}
	end := column
	for end < len(l) {
		r, size := utf8.DecodeRuneInString(l[end:])
		if !symbols.IsIdentRune(r) {
			break
		}
		end += size
	}

	word := l[start:end]
	return HoverResult{
		Text: hoverText(word, strings.HasSuffix(l[:start], "console.")),
		Range: Range{
			Start: Position{Line: line, Character: start},
			End:   Position{Line: line, Character: end},
		},
	}, true
}

func hoverText(word string, consoleMember bool) string {
	if text, ok := keywordHover[word]; ok {
		return text
	}
	if word == "console" || consoleMember {
		return consoleHover
	}
	return fmt.Sprintf("symbol: `%s`", word)
}
