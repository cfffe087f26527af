// Package symbols classifies source files by language and extracts declaration
// sites with line-level keyword heuristics. It is not a parser: keywords inside
// string or comment literals are reported like any other occurrence.
package symbols

// Kind classifies an extracted symbol.
type Kind int

const (
	KindFunction Kind = iota
	KindClass
	KindVariable
	KindConstant
	KindModule
)

// String returns a short label for the symbol kind.
func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindClass:
		return "class"
	case KindVariable:
		return "variable"
	case KindConstant:
		return "constant"
	case KindModule:
		return "module"
	default:
		return "unknown"
	}
}

// Symbol is a named declaration site found in source text.
type Symbol struct {
	Name   string `json:"name"`
	Kind   Kind   `json:"kind"`
	Line   int    `json:"line"`   // 1-indexed line number
	Column int    `json:"column"` // 0-indexed byte offset of the name
}
