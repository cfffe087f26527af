package symbols

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Extractor scans one physical line and appends the symbols declared on it.
type Extractor interface {
	Name() string
	ExtractLine(line string, lineNo int, dst []Symbol) []Symbol
}

type keywordRule struct {
	keyword string
	kind    Kind
}

// keywordExtractor reports the first declaration per keyword per line.
type keywordExtractor struct {
	name  string
	rules []keywordRule
}

var (
	typeScriptLike Extractor = keywordExtractor{
		name: "typescript-like",
		rules: []keywordRule{
			{"function", KindFunction},
			{"class", KindClass},
			{"const", KindConstant},
			{"let", KindVariable},
			{"var", KindVariable},
		},
	}
	rustLike Extractor = keywordExtractor{
		name: "rust-like",
		rules: []keywordRule{
			{"fn", KindFunction},
			{"struct", KindClass},
		},
	}
	plaintext Extractor = plaintextExtractor{}
)

func (e keywordExtractor) Name() string { return e.name }

func (e keywordExtractor) ExtractLine(line string, lineNo int, dst []Symbol) []Symbol {
	for _, r := range e.rules {
		name, col, ok := FindDeclaration(line, r.keyword)
		if !ok {
			continue
		}
		dst = append(dst, Symbol{Name: name, Kind: r.kind, Line: lineNo, Column: col})
	}
	return dst
}

type plaintextExtractor struct{}

func (plaintextExtractor) Name() string { return "plaintext" }

func (plaintextExtractor) ExtractLine(_ string, _ int, dst []Symbol) []Symbol { return dst }

// Extract runs the language's extractor over every line of content.
func Extract(content string, lang Language) []Symbol {
	ex := lang.Extractor()
	if _, ok := ex.(plaintextExtractor); ok {
		return nil
	}

	var out []Symbol
	for i, line := range SplitLines(content) {
		out = ex.ExtractLine(line, i+1, out)
	}
	return out
}

// FindDeclaration locates the first occurrence of keyword followed by
// whitespace in line and returns the identifier that follows it together with
// the byte column where the identifier starts. ok is false when the keyword
// does not occur or is not followed by an identifier.
func FindDeclaration(line, keyword string) (name string, col int, ok bool) {
	pos := firstKeyword(line, keyword)
	if pos < 0 {
		return "", 0, false
	}

	start := pos + len(keyword)
	for start < len(line) && isBlank(line[start]) {
		start++
	}

	end := start
	for end < len(line) {
		r, size := utf8.DecodeRuneInString(line[end:])
		if !IsIdentRune(r) {
			break
		}
		end += size
	}

	if end == start {
		return "", 0, false
	}
	return line[start:end], start, true
}

// firstKeyword returns the offset of the first keyword occurrence that is
// immediately followed by a space or tab, or -1.
func firstKeyword(line, keyword string) int {
	offset := 0
	for {
		i := strings.Index(line[offset:], keyword)
		if i < 0 {
			return -1
		}
		at := offset + i
		next := at + len(keyword)
		if next < len(line) && isBlank(line[next]) {
			return at
		}
		offset = at + 1
	}
}

func isBlank(b byte) bool {
	return b == ' ' || b == '\t'
}

// IsIdentRune reports whether r may appear in an identifier: a letter, a
// digit or an underscore.
func IsIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// SplitLines splits text into physical lines. A trailing newline does not
// produce an extra empty line and a carriage return before the newline is
// dropped, so "a\r\nb\n" yields ["a", "b"].
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
