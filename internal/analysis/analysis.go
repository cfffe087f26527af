// Package analysis derives diagnostics, completions and hover text from a
// buffer's raw text using line-level heuristics.
//
// Every function takes the full current text of the buffer and holds no
// state between calls, so all of them are safe for concurrent use. Positions
// are 0-based lines and 0-based byte columns; ranges are half-open.
package analysis

// Position is a location in a buffer.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is the half-open span [Start, End).
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Severity orders diagnostics. The values match the editor protocol's.
type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityInfo
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

// Source tags every diagnostic produced by this package.
const Source = "codeintel"

// Diagnostic is one flagged pattern in a buffer.
type Diagnostic struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Range    Range    `json:"range"`
	Code     string   `json:"code"`
	Source   string   `json:"source"`
}

// CompletionKind tags a completion item. The values match the editor
// protocol's.
type CompletionKind int

const (
	CompletionMethod   CompletionKind = 2
	CompletionFunction CompletionKind = 3
	CompletionKeyword  CompletionKind = 14
)

// CompletionItem is one completion candidate.
type CompletionItem struct {
	Label  string         `json:"label"`
	Detail string         `json:"detail,omitempty"`
	Kind   CompletionKind `json:"kind,omitempty"`
}

// HoverResult is the text shown for the token under the cursor.
type HoverResult struct {
	Text  string `json:"text"`
	Range Range  `json:"range"`
}
