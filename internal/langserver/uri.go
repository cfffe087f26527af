package langserver

import (
	"net/url"
	"path/filepath"

	"github.com/sourcegraph/go-lsp"
)

// PathToURI converts an absolute filesystem path to a file:// URI.
func PathToURI(path string) lsp.DocumentURI {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return lsp.DocumentURI(u.String())
}

// URIToPath converts a file:// URI to a filesystem path. Any other scheme
// yields "".
func URIToPath(uri lsp.DocumentURI) string {
	u, err := url.Parse(string(uri))
	if err != nil || u.Scheme != "file" {
		return ""
	}
	return filepath.FromSlash(u.Path)
}
