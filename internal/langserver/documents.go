package langserver

import (
	"sort"
	"sync"

	"github.com/sourcegraph/go-lsp"
)

// Document is the latest text the editor sent for one open buffer.
type Document struct {
	URI        lsp.DocumentURI
	LanguageID string
	Version    int
	Text       string
}

// DocumentStore caches the text of open documents.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[lsp.DocumentURI]Document
}

// NewDocumentStore creates an empty store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[lsp.DocumentURI]Document)}
}

// Open records a newly opened document, replacing any previous text.
func (s *DocumentStore) Open(uri lsp.DocumentURI, languageID string, version int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[uri] = Document{URI: uri, LanguageID: languageID, Version: version, Text: text}
}

// Change replaces the text of uri. It reports whether the document was open;
// an unknown document is stored anyway.
func (s *DocumentStore) Change(uri lsp.DocumentURI, version int, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[uri]
	doc.URI = uri
	doc.Version = version
	doc.Text = text
	s.docs[uri] = doc
	return ok
}

// Close forgets uri and reports whether it was open.
func (s *DocumentStore) Close(uri lsp.DocumentURI) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[uri]; !ok {
		return false
	}
	delete(s.docs, uri)
	return true
}

// Get returns the cached document for uri.
func (s *DocumentStore) Get(uri lsp.DocumentURI) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[uri]
	return doc, ok
}

// Text returns the cached text for uri, or "" when it is not open.
func (s *DocumentStore) Text(uri lsp.DocumentURI) string {
	doc, _ := s.Get(uri)
	return doc.Text
}

// URIs returns the open document URIs in sorted order.
func (s *DocumentStore) URIs() []lsp.DocumentURI {
	s.mu.RLock()
	uris := make([]lsp.DocumentURI, 0, len(s.docs))
	for u := range s.docs {
		uris = append(uris, u)
	}
	s.mu.RUnlock()

	sort.Slice(uris, func(i, j int) bool { return uris[i] < uris[j] })
	return uris
}
