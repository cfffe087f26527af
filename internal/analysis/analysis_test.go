package analysis

import (
	"reflect"
	"strings"
	"sync"
	"testing"
)

func rng(line, start, end int) Range {
	return Range{Start: Position{Line: line, Character: start}, End: Position{Line: line, Character: end}}
}

func TestDiagnosticsConsoleLog(t *testing.T) {
	got := Diagnostics("file:///src/app.js", "console.log('x')\n")
	if len(got) != 1 {
		t.Fatalf("Diagnostics() returned %d results, want 1: %+v", len(got), got)
	}
	d := got[0]
	if d.Severity != SeverityWarning || d.Code != "no-console" || d.Source != Source {
		t.Errorf("diagnostic = %+v", d)
	}
	if d.Range != rng(0, 0, len("console.log")) {
		t.Errorf("range = %+v, want the console.log token on line 0", d.Range)
	}
}

func TestDiagnosticsTodo(t *testing.T) {
	got := Diagnostics("file:///src/app.js", "// TODO fix\n")
	if len(got) != 1 {
		t.Fatalf("Diagnostics() returned %d results, want 1: %+v", len(got), got)
	}
	d := got[0]
	if d.Severity != SeverityInfo || d.Code != "todo" {
		t.Errorf("diagnostic = %+v", d)
	}
	if !strings.Contains(d.Message, "TODO") {
		t.Errorf("message %q does not mention TODO", d.Message)
	}
	if d.Range != rng(0, 3, 7) {
		t.Errorf("range = %+v", d.Range)
	}
}

func TestDiagnostics(t *testing.T) {
	tests := []struct {
		name  string
		uri   string
		text  string
		codes []string
		rngs  []Range
	}{
		{
			name: "empty buffer",
			uri:  "file:///a.ts",
			text: "",
		},
		{
			name:  "several matches on one line",
			uri:   "file:///a.js",
			text:  "console.log(1); console.log(2) // TODO FIXME TODO",
			codes: []string{"no-console", "no-console", "todo", "todo", "todo"},
			rngs:  []Range{rng(0, 0, 11), rng(0, 16, 27), rng(0, 34, 38), rng(0, 45, 49), rng(0, 39, 44)},
		},
		{
			name:  "any in typescript",
			uri:   "file:///types.ts",
			text:  "let x: any = 1\nlet y: number\n",
			codes: []string{"no-any"},
			rngs:  []Range{rng(0, 7, 10)},
		},
		{
			name: "any outside typescript",
			uri:  "file:///types.js",
			text: "let x: any = 1\n",
		},
		{
			name: "any without trailing space",
			uri:  "file:///types.ts",
			text: "function f(): any\n",
		},
		{
			name:  "lines are counted from zero",
			uri:   "file:///a.ts",
			text:  "ok\r\nok\n  // FIXME later\n",
			codes: []string{"todo"},
			rngs:  []Range{rng(2, 5, 10)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diagnostics(tt.uri, tt.text)
			var codes []string
			var rngs []Range
			for _, d := range got {
				codes = append(codes, d.Code)
				rngs = append(rngs, d.Range)
			}
			if !reflect.DeepEqual(codes, tt.codes) {
				t.Errorf("codes = %v, want %v", codes, tt.codes)
			}
			if !reflect.DeepEqual(rngs, tt.rngs) {
				t.Errorf("ranges = %v, want %v", rngs, tt.rngs)
			}
		})
	}
}

func labels(items []CompletionItem) []string {
	var out []string
	for _, it := range items {
		out = append(out, it.Label)
	}
	return out
}

func TestCompletions(t *testing.T) {
	buffer := "function fetchData() {}\nfunction format(x) {}\nf"
	everything := append(labels(keywordCompletions), "fetchData", "format")

	tests := []struct {
		name   string
		text   string
		line   int
		column int
		want   []string
	}{
		{"keyword prefix", "co", 0, 2, []string{"const"}},
		{"column clamped", "co", 0, 99, []string{"const"}},
		{"prefix after indentation", "  le", 0, 4, []string{"let"}},
		{"prefix stops at cursor", "return", 0, 3, []string{"return"}},
		{"console methods", "console.", 0, 8, []string{"console.log", "console.error"}},
		{"keywords then functions", buffer, 2, 1, []string{"function", "for", "fetchData", "format"}},
		{"empty prefix", buffer, 2, 0, everything},
		{"line out of range", "co", 1, 0, nil},
		{"negative line", "co", -1, 0, nil},
		{"empty buffer", "", 0, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := labels(Completions(tt.text, tt.line, tt.column))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Completions() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompletionsNoDotItemsForPlainPrefix(t *testing.T) {
	for _, it := range Completions("co", 0, 2) {
		if it.Kind == CompletionMethod {
			t.Errorf("unexpected dot completion %q", it.Label)
		}
	}
}

func TestCompletionKinds(t *testing.T) {
	items := Completions("function go() {}\nconsole.", 1, 8)
	want := map[string]CompletionKind{
		"console.log":   CompletionMethod,
		"console.error": CompletionMethod,
	}
	for _, it := range items {
		if k, ok := want[it.Label]; ok && it.Kind != k {
			t.Errorf("%s kind = %d, want %d", it.Label, it.Kind, k)
		}
		if it.Detail == "" {
			t.Errorf("%s has no detail", it.Label)
		}
	}
}

func TestHover(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		line   int
		column int
		want   string
		rng    Range
		ok     bool
	}{
		{"let keyword", "let x = 1", 0, 0, keywordHover["let"], rng(0, 0, 3), true},
		{"inside keyword", "let x = 1", 0, 2, keywordHover["let"], rng(0, 0, 3), true},
		{"whitespace", "let x = 1", 0, 3, "", Range{}, false},
		{"punctuation", "let x = 1", 0, 6, "", Range{}, false},
		{"function keyword", "  function f() {}", 0, 4, keywordHover["function"], rng(0, 2, 10), true},
		{"const keyword", "const total = 1", 0, 1, keywordHover["const"], rng(0, 0, 5), true},
		{"generic symbol", "const total = 1", 0, 7, "symbol: `total`", rng(0, 6, 11), true},
		{"console object", "console.log('x')", 0, 2, consoleHover, rng(0, 0, 7), true},
		{"console member", "console.log('x')", 0, 9, consoleHover, rng(0, 8, 11), true},
		{"second line", "a\nlet b", 1, 4, "symbol: `b`", rng(1, 4, 5), true},
		{"unicode identifier", "let café = 1", 0, 8, "symbol: `café`", rng(0, 4, 9), true},
		{"column past end", "let", 0, 3, "", Range{}, false},
		{"negative column", "let", 0, -1, "", Range{}, false},
		{"line out of range", "let", 1, 0, "", Range{}, false},
		{"empty buffer", "", 0, 0, "", Range{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Hover(tt.text, tt.line, tt.column)
			if ok != tt.ok {
				t.Fatalf("Hover() ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if got.Text != tt.want {
				t.Errorf("Hover() text = %q, want %q", got.Text, tt.want)
			}
			if got.Range != tt.rng {
				t.Errorf("Hover() range = %+v, want %+v", got.Range, tt.rng)
			}
		})
	}
}

func TestSeverityString(t *testing.T) {
	if SeverityWarning.String() != "warning" || SeverityInfo.String() != "info" {
		t.Errorf("unexpected severity labels")
	}
	if Severity(0).String() != "unknown" {
		t.Errorf("Severity(0).String() = %s", Severity(0))
	}
}

func TestConcurrentCalls(t *testing.T) {
	text := "function main() {}\nconsole.log(main) // TODO\nlet m"
	wantDiags := Diagnostics("file:///x.ts", text)
	wantComps := Completions(text, 2, 5)
	wantHover, _ := Hover(text, 0, 10)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if got := Diagnostics("file:///x.ts", text); !reflect.DeepEqual(got, wantDiags) {
					t.Errorf("Diagnostics() = %+v", got)
					return
				}
				if got := Completions(text, 2, 5); !reflect.DeepEqual(got, wantComps) {
					t.Errorf("Completions() = %+v", got)
					return
				}
				if got, _ := Hover(text, 0, 10); got != wantHover {
					t.Errorf("Hover() = %+v", got)
					return
				}
			}
		}()
	}
	wg.Wait()
}
