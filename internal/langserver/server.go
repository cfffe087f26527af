// Package langserver serves the workspace index and buffer analysis to an
// editor over the Language Server Protocol.
package langserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"

	"codeintel/internal/analysis"
	"codeintel/internal/logging"
	"codeintel/internal/symbols"
	"codeintel/internal/workspace"
)

// MethodSearch is the non-standard request backed by Index.Search.
const MethodSearch = "codeintel/search"

// SearchParams is the payload of MethodSearch.
type SearchParams struct {
	Query string `json:"query"`
}

// Server handles LSP requests for one editor connection.
type Server struct {
	name    string
	version string
	index   *workspace.Index
	docs    *DocumentStore
	logger  *slog.Logger

	walkOpts    workspace.WalkOptions
	indexOnInit bool
	onRoot      func(ctx context.Context, root string)

	mu       sync.Mutex
	root     string
	shutdown bool
	bg       sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithIndexOnInitialize walks the workspace root in the background once the
// client sends initialize.
func WithIndexOnInitialize(opts workspace.WalkOptions) Option {
	return func(s *Server) {
		s.indexOnInit = true
		s.walkOpts = opts
	}
}

// WithRootHook is called with the workspace root after initialize, once any
// initial walk has finished.
func WithRootHook(fn func(ctx context.Context, root string)) Option {
	return func(s *Server) {
		s.onRoot = fn
	}
}

// NewServer creates a server over idx.
func NewServer(name, version string, idx *workspace.Index, opts ...Option) *Server {
	s := &Server{
		name:    name,
		version: version,
		index:   idx,
		docs:    NewDocumentStore(),
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Documents returns the server's open-document cache.
func (s *Server) Documents() *DocumentStore {
	return s.docs
}

// Root returns the workspace root received in initialize.
func (s *Server) Root() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root
}

// Wait blocks until background work started by initialize has finished.
func (s *Server) Wait() {
	s.bg.Wait()
}

// Serve speaks JSON-RPC with Content-Length framing over rwc until the
// client sends exit, the stream closes or ctx is cancelled.
// Background work receives a context that is cancelled when the connection
// ends.
func (s *Server) Serve(ctx context.Context, rwc io.ReadWriteCloser) error {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(connCtx, stream, jsonrpc2.HandlerWithError(s.handle).SuppressErrClosed())

	select {
	case <-conn.DisconnectNotify():
	case <-ctx.Done():
		conn.Close()
	}
	cancel()
	s.bg.Wait()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

func (s *Server) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	s.logger.Debug("received request", "method", req.Method, "notification", req.Notif)

	switch req.Method {
	case "initialize":
		var params lsp.InitializeParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
		return s.handleInitialize(ctx, &params), nil
	case "initialized":
		s.logger.Info("client initialized")
		return nil, nil
	case "shutdown":
		s.mu.Lock()
		s.shutdown = true
		s.mu.Unlock()
		s.logger.Info("shutdown requested", "open_documents", len(s.docs.URIs()))
		return nil, nil
	case "exit":
		return nil, conn.Close()
	}

	s.mu.Lock()
	down := s.shutdown
	s.mu.Unlock()
	if down {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidRequest, Message: "server is shutting down"}
	}

	switch req.Method {
	case "textDocument/didOpen":
		var params lsp.DidOpenTextDocumentParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
		doc := params.TextDocument
		s.docs.Open(doc.URI, doc.LanguageID, doc.Version, doc.Text)
		return nil, s.publishDiagnostics(ctx, conn, doc.URI, doc.Text)

	case "textDocument/didChange":
		var params lsp.DidChangeTextDocumentParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
		if len(params.ContentChanges) == 0 {
			return nil, nil
		}
		// Full sync: the last change carries the whole document.
		text := params.ContentChanges[len(params.ContentChanges)-1].Text
		uri := params.TextDocument.URI
		if !s.docs.Change(uri, params.TextDocument.Version, text) {
			s.logger.Debug("change for unopened document", "uri", uri)
		}
		return nil, s.publishDiagnostics(ctx, conn, uri, text)

	case "textDocument/didClose":
		var params lsp.DidCloseTextDocumentParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
		s.docs.Close(params.TextDocument.URI)
		return nil, conn.Notify(ctx, "textDocument/publishDiagnostics", lsp.PublishDiagnosticsParams{
			URI:         params.TextDocument.URI,
			Diagnostics: []lsp.Diagnostic{},
		})

	case "textDocument/completion":
		var params lsp.CompletionParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
		return s.handleCompletion(&params.TextDocumentPositionParams), nil

	case "textDocument/hover":
		var params lsp.TextDocumentPositionParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
		return s.handleHover(&params), nil

	case "workspace/symbol":
		var params lsp.WorkspaceSymbolParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
		return s.handleWorkspaceSymbol(&params), nil

	case MethodSearch:
		var params SearchParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
		files := s.index.Search(params.Query)
		paths := make([]string, len(files))
		for i, f := range files {
			paths[i] = f.Path
		}
		return paths, nil
	}

	if req.Notif {
		// $/cancelRequest, didSave and friends need no answer.
		return nil, nil
	}
	return nil, &jsonrpc2.Error{
		Code:    jsonrpc2.CodeMethodNotFound,
		Message: fmt.Sprintf("method not found: %s", req.Method),
	}
}

func unmarshalParams(req *jsonrpc2.Request, v interface{}) error {
	if req.Params == nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "missing params"}
	}
	if err := json.Unmarshal(*req.Params, v); err != nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: fmt.Sprintf("invalid params: %v", err)}
	}
	return nil
}

func (s *Server) handleInitialize(ctx context.Context, params *lsp.InitializeParams) lsp.InitializeResult {
	root := ""
	if params.RootURI != "" || params.RootPath != "" {
		root = URIToPath(params.Root())
	}

	s.mu.Lock()
	s.root = root
	s.mu.Unlock()
	s.logger.Info("initialize", "server", s.name, "version", s.version, "root", root)

	if root != "" && (s.indexOnInit || s.onRoot != nil) {
		s.bg.Add(1)
		go func() {
			defer s.bg.Done()
			if s.indexOnInit {
				stats := s.index.IndexDirectory(ctx, root, s.walkOpts)
				s.logger.Info("workspace indexed", "root", root,
					"files", stats.Indexed, "failed", stats.Failed, "symbols", s.index.SymbolCount())
			}
			if s.onRoot != nil {
				s.onRoot(ctx, root)
			}
		}()
	}

	full := lsp.TDSKFull
	return lsp.InitializeResult{
		Capabilities: lsp.ServerCapabilities{
			TextDocumentSync: &lsp.TextDocumentSyncOptionsOrKind{Kind: &full},
			HoverProvider:    true,
			CompletionProvider: &lsp.CompletionOptions{
				TriggerCharacters: []string{"."},
			},
			WorkspaceSymbolProvider: true,
		},
	}
}

func (s *Server) publishDiagnostics(ctx context.Context, conn *jsonrpc2.Conn, uri lsp.DocumentURI, text string) error {
	diags := analysis.Diagnostics(string(uri), text)
	out := make([]lsp.Diagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, lsp.Diagnostic{
			Range:    toRange(d.Range),
			Severity: lsp.DiagnosticSeverity(d.Severity),
			Code:     d.Code,
			Source:   d.Source,
			Message:  d.Message,
		})
	}
	return conn.Notify(ctx, "textDocument/publishDiagnostics", lsp.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: out,
	})
}

func (s *Server) handleCompletion(params *lsp.TextDocumentPositionParams) *lsp.CompletionList {
	text := s.docs.Text(params.TextDocument.URI)
	items := analysis.Completions(text, params.Position.Line, params.Position.Character)

	list := &lsp.CompletionList{Items: make([]lsp.CompletionItem, 0, len(items))}
	for _, it := range items {
		list.Items = append(list.Items, lsp.CompletionItem{
			Label:  it.Label,
			Kind:   lsp.CompletionItemKind(it.Kind),
			Detail: it.Detail,
		})
	}
	return list
}

func (s *Server) handleHover(params *lsp.TextDocumentPositionParams) *lsp.Hover {
	text := s.docs.Text(params.TextDocument.URI)
	res, ok := analysis.Hover(text, params.Position.Line, params.Position.Character)
	if !ok {
		return nil
	}
	r := toRange(res.Range)
	return &lsp.Hover{
		Contents: []lsp.MarkedString{lsp.RawMarkedString(res.Text)},
		Range:    &r,
	}
}

func (s *Server) handleWorkspaceSymbol(params *lsp.WorkspaceSymbolParams) []lsp.SymbolInformation {
	matches := s.index.FindSymbols(params.Query)
	if params.Limit > 0 && len(matches) > params.Limit {
		matches = matches[:params.Limit]
	}

	out := make([]lsp.SymbolInformation, 0, len(matches))
	for _, m := range matches {
		sym := m.Symbol
		line := sym.Line - 1
		out = append(out, lsp.SymbolInformation{
			Name: sym.Name,
			Kind: symbolKind(sym.Kind),
			Location: lsp.Location{
				URI: PathToURI(m.File.Path),
				Range: lsp.Range{
					Start: lsp.Position{Line: line, Character: sym.Column},
					End:   lsp.Position{Line: line, Character: sym.Column + len(sym.Name)},
				},
			},
		})
	}
	return out
}

func symbolKind(k symbols.Kind) lsp.SymbolKind {
	switch k {
	case symbols.KindFunction:
		return lsp.SKFunction
	case symbols.KindClass:
		return lsp.SKClass
	case symbols.KindConstant:
		return lsp.SKConstant
	case symbols.KindModule:
		return lsp.SKModule
	default:
		return lsp.SKVariable
	}
}

func toRange(r analysis.Range) lsp.Range {
	return lsp.Range{
		Start: lsp.Position{Line: r.Start.Line, Character: r.Start.Character},
		End:   lsp.Position{Line: r.End.Line, Character: r.End.Character},
	}
}
