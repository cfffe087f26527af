// Package workspace holds the in-memory index of a workspace's source files.
//
// An Index maps absolute paths to IndexedFile snapshots. Entries are built
// outside the lock and swapped in wholesale, so readers observe either the
// previous snapshot of a file or the new one, never a mix.
package workspace

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"codeintel/internal/logging"
	"codeintel/internal/symbols"
)

// ErrNotText is wrapped by IOError when a file is not valid UTF-8 text.
var ErrNotText = errors.New("content is not text")

// ErrNotRegular is wrapped by IOError when a path names a FIFO, socket,
// device or other non-regular file.
var ErrNotRegular = errors.New("not a regular file")

// IOError reports a file that could not be read into the index.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("indexing %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// IndexedFile is a snapshot of one file as of its last successful index.
// Values returned by the index share their Symbols slice and must be treated
// as read-only.
type IndexedFile struct {
	Path     string           `json:"path"`
	Content  string           `json:"-"`
	Language symbols.Language `json:"language"`
	Symbols  []symbols.Symbol `json:"symbols"`
}

// SymbolMatch pairs a symbol with the file that declares it.
type SymbolMatch struct {
	File   IndexedFile    `json:"file"`
	Symbol symbols.Symbol `json:"symbol"`
}

// ReadFunc is the filesystem read capability used by the index.
type ReadFunc func(path string) ([]byte, error)

// Index is the workspace index. The zero value is not usable; call New.
type Index struct {
	mu    sync.RWMutex
	files map[string]*IndexedFile

	readFile ReadFunc
	logger   *slog.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger used for walk diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(idx *Index) {
		if l != nil {
			idx.logger = l
		}
	}
}

// WithReadFunc replaces the default regular-file reader as the source of
// file bytes.
func WithReadFunc(fn ReadFunc) Option {
	return func(idx *Index) {
		if fn != nil {
			idx.readFile = fn
		}
	}
}

// New creates an empty index.
func New(opts ...Option) *Index {
	idx := &Index{
		files:    make(map[string]*IndexedFile),
		readFile: readRegularFile,
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// IndexFile reads path, classifies and scans it, and stores the result,
// replacing any previous entry for the same path. The returned error is
// always an *IOError; on failure the index is left unchanged.
func (idx *Index) IndexFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return &IOError{Path: path, Err: err}
	}

	data, err := idx.readFile(abs)
	if err != nil {
		return &IOError{Path: abs, Err: err}
	}
	if !isText(data) {
		return &IOError{Path: abs, Err: ErrNotText}
	}

	content := string(data)
	lang := symbols.Classify(abs)
	file := &IndexedFile{
		Path:     abs,
		Content:  content,
		Language: lang,
		Symbols:  symbols.Extract(content, lang),
	}

	idx.mu.Lock()
	idx.files[abs] = file
	idx.mu.Unlock()

	return nil
}

// readRegularFile reads path only if it resolves to a regular file. Opening
// a FIFO or device for reading can block indefinitely.
func readRegularFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, ErrNotRegular
	}
	return os.ReadFile(path)
}

// isText rejects content with NUL bytes or invalid UTF-8.
func isText(data []byte) bool {
	return bytes.IndexByte(data, 0) < 0 && utf8.Valid(data)
}

// Remove drops the entry for path. It reports whether an entry existed.
func (idx *Index) Remove(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.files[abs]; !ok {
		return false
	}
	delete(idx.files, abs)
	return true
}

// Search returns every file whose path or content contains query,
// ignoring case. Results are ordered by path.
func (idx *Index) Search(query string) []IndexedFile {
	q := strings.ToLower(query)

	idx.mu.RLock()
	var out []IndexedFile
	for _, f := range idx.files {
		if strings.Contains(strings.ToLower(f.Path), q) || strings.Contains(strings.ToLower(f.Content), q) {
			out = append(out, *f)
		}
	}
	idx.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// FindSymbols returns every symbol whose name contains name, ignoring case,
// paired with its file. Results are ordered by path, then by position in
// the file.
func (idx *Index) FindSymbols(name string) []SymbolMatch {
	n := strings.ToLower(name)

	idx.mu.RLock()
	var out []SymbolMatch
	for _, f := range idx.files {
		for _, sym := range f.Symbols {
			if strings.Contains(strings.ToLower(sym.Name), n) {
				out = append(out, SymbolMatch{File: *f, Symbol: sym})
			}
		}
	}
	idx.mu.RUnlock()

	// Stable keeps per-file extraction order for equal paths.
	sort.SliceStable(out, func(i, j int) bool { return out[i].File.Path < out[j].File.Path })
	return out
}

// Get returns the entry for path, if any.
func (idx *Index) Get(path string) (IndexedFile, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return IndexedFile{}, false
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	f, ok := idx.files[abs]
	if !ok {
		return IndexedFile{}, false
	}
	return *f, true
}

// Files returns the indexed paths in sorted order.
func (idx *Index) Files() []string {
	idx.mu.RLock()
	paths := make([]string, 0, len(idx.files))
	for p := range idx.files {
		paths = append(paths, p)
	}
	idx.mu.RUnlock()

	sort.Strings(paths)
	return paths
}

// Len returns the number of indexed files.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.files)
}

// SymbolCount returns the total number of symbols across all files.
func (idx *Index) SymbolCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := 0
	for _, f := range idx.files {
		n += len(f.Symbols)
	}
	return n
}
