package langserver

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"go.uber.org/zap"

	"github.com/home-assistant-blueprints/ha-config-lsp/internal/completion"
	"github.com/home-assistant-blueprints/ha-config-lsp/internal/document"
	errs "github.com/home-assistant-blueprints/ha-config-lsp/internal/errors"
)

const (
	// DefaultMaxDocuments limits how many open documents are cached.
	DefaultMaxDocuments = 100
	// DefaultRequestTimeout bounds a single completion or hover request.
	DefaultRequestTimeout = 30 * time.Second
)

// triggerCharacters open completion after a key's colon, a list dash or a space.
var triggerCharacters = []string{" ", ":", "-"}

// HandlerOptions configures a Handler.
type HandlerOptions struct {
	Name           string
	Version        string
	Logger         *zap.SugaredLogger
	MaxDocuments   int
	RequestTimeout time.Duration
	// OnExit is called when the client sends exit. clean is true when a
	// shutdown request came first.
	OnExit func(clean bool)
}

// Handler implements the LSP methods on top of a Service.
type Handler struct {
	service *Service
	ctx     context.Context
	opts    HandlerOptions
	logger  *zap.SugaredLogger

	documents map[string]string // URI → content
	mu        sync.RWMutex

	shutdownRequested atomic.Bool
}

// NewHandler creates a Handler. Requests run under ctx, so canceling it
// aborts in-flight lookups.
func NewHandler(ctx context.Context, service *Service, opts HandlerOptions) *Handler {
	if opts.MaxDocuments <= 0 {
		opts.MaxDocuments = DefaultMaxDocuments
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.Name == "" {
		opts.Name = "ha-config-lsp"
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{
		service:   service,
		ctx:       ctx,
		opts:      opts,
		logger:    logger,
		documents: make(map[string]string),
	}
}

// Protocol returns the glsp handler table for h.
func (h *Handler) Protocol() *protocol.Handler {
	return &protocol.Handler{
		Initialize:             h.Initialize,
		Initialized:            h.Initialized,
		Shutdown:               h.Shutdown,
		Exit:                   h.Exit,
		SetTrace:               h.SetTrace,
		TextDocumentDidOpen:    h.TextDocumentDidOpen,
		TextDocumentDidChange:  h.TextDocumentDidChange,
		TextDocumentDidClose:   h.TextDocumentDidClose,
		TextDocumentCompletion: h.TextDocumentCompletion,
		TextDocumentHover:      h.TextDocumentHover,
	}
}

// Initialize handles the LSP initialize request.
func (h *Handler) Initialize(_ *glsp.Context, params *protocol.InitializeParams) (any, error) {
	client := "unknown"
	if params != nil && params.ClientInfo != nil {
		client = params.ClientInfo.Name
	}
	h.logger.Infow("LSP client initializing", "client", client)

	syncKind := protocol.TextDocumentSyncKindFull
	openClose := true
	capabilities := protocol.ServerCapabilities{
		CompletionProvider: &protocol.CompletionOptions{
			TriggerCharacters: triggerCharacters,
		},
		HoverProvider: true,
		TextDocumentSync: &protocol.TextDocumentSyncOptions{
			OpenClose: &openClose,
			Change:    &syncKind,
		},
	}

	result := protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name: h.opts.Name,
		},
	}
	if h.opts.Version != "" {
		version := h.opts.Version
		result.ServerInfo.Version = &version
	}
	return result, nil
}

// Initialized is called after the client receives the initialize result.
func (h *Handler) Initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	h.logger.Infow("LSP client initialized")
	return nil
}

// Shutdown handles the LSP shutdown request.
func (h *Handler) Shutdown(_ *glsp.Context) error {
	h.shutdownRequested.Store(true)
	protocol.SetTraceValue(protocol.TraceValueOff)
	h.logger.Infow("LSP client shutting down")
	return nil
}

// Exit handles the LSP exit notification.
func (h *Handler) Exit(_ *glsp.Context) error {
	clean := h.shutdownRequested.Load()
	h.logger.Infow("LSP client exited", "clean", clean)
	if h.opts.OnExit != nil {
		h.opts.OnExit(clean)
	}
	return nil
}

// SetTrace handles $/setTrace.
func (h *Handler) SetTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

// TextDocumentDidOpen caches a newly opened document.
func (h *Handler) TextDocumentDidOpen(_ *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	uri := string(params.TextDocument.URI)

	// re-opening a known document never counts against the limit
	if _, exists := h.documents[uri]; !exists && len(h.documents) >= h.opts.MaxDocuments {
		h.logger.Warnw("Document cache limit reached, rejecting new document",
			"uri", uri,
			"current_count", len(h.documents),
			"max_allowed", h.opts.MaxDocuments,
		)
		return errs.ErrDocumentLimit(h.opts.MaxDocuments).WithPath(uri)
	}

	h.documents[uri] = params.TextDocument.Text
	h.logger.Debugw("Document opened",
		"uri", uri,
		"length", len(params.TextDocument.Text),
		"total_documents", len(h.documents),
	)
	return nil
}

// TextDocumentDidChange replaces a document's content.
func (h *Handler) TextDocumentDidChange(_ *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	uri := string(params.TextDocument.URI)
	if _, exists := h.documents[uri]; !exists {
		h.logger.Debugw("Change for unknown document ignored", "uri", uri)
		return nil
	}

	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			h.documents[uri] = c.Text
		case protocol.TextDocumentContentChangeEvent:
			// only sent by clients that ignore the advertised sync kind
			if c.Range == nil {
				h.documents[uri] = c.Text
			}
		}
	}

	h.logger.Debugw("Document changed", "uri", uri, "changes", len(params.ContentChanges))
	return nil
}

// TextDocumentDidClose drops a document from the cache.
func (h *Handler) TextDocumentDidClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	uri := string(params.TextDocument.URI)
	delete(h.documents, uri)
	h.logger.Debugw("Document closed", "uri", uri)
	return nil
}

// Document returns the cached content of uri.
func (h *Handler) Document(uri string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	text, ok := h.documents[uri]
	return text, ok
}

// TextDocumentCompletion offers completion candidates at a position.
func (h *Handler) TextDocumentCompletion(_ *glsp.Context, params *protocol.CompletionParams) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Errorw("Panic in completion handler",
				"panic", r,
				"uri", params.TextDocument.URI,
			)
			result = &protocol.CompletionList{Items: []protocol.CompletionItem{}}
			err = nil
		}
	}()

	uri := string(params.TextDocument.URI)
	text, ok := h.Document(uri)
	if !ok {
		return &protocol.CompletionList{Items: []protocol.CompletionItem{}}, nil
	}

	ctx, cancel := context.WithTimeout(h.ctx, h.opts.RequestTimeout)
	defer cancel()

	start := time.Now()
	candidates, err := h.service.Complete(ctx, uri, text, toPosition(params.Position))
	if err != nil {
		// incomplete so the client asks again once the source recovers
		h.logger.Warnw("Completion failed", "uri", uri, "error", err)
		return &protocol.CompletionList{IsIncomplete: true, Items: []protocol.CompletionItem{}}, nil
	}

	items := make([]protocol.CompletionItem, len(candidates))
	for i, c := range candidates {
		items[i] = toCompletionItem(c)
	}

	h.logger.Debugw("LSP completion result",
		"uri", uri,
		"count", len(items),
		"duration", time.Since(start),
	)
	return &protocol.CompletionList{Items: items}, nil
}

// TextDocumentHover returns markdown info for the node under the cursor.
func (h *Handler) TextDocumentHover(_ *glsp.Context, params *protocol.HoverParams) (result *protocol.Hover, err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Errorw("Panic in hover handler",
				"panic", r,
				"uri", params.TextDocument.URI,
			)
			result = nil
			err = nil
		}
	}()

	uri := string(params.TextDocument.URI)
	text, ok := h.Document(uri)
	if !ok {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(h.ctx, h.opts.RequestTimeout)
	defer cancel()

	info, err := h.service.Hover(ctx, uri, text, toPosition(params.Position))
	if err != nil {
		h.logger.Debugw("Hover failed", "uri", uri, "error", err)
		return nil, nil
	}
	if len(info) == 0 {
		return nil, nil
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: strings.Join(info, "\n\n"),
		},
	}, nil
}

func toPosition(p protocol.Position) document.Position {
	return document.Position{Line: int(p.Line), Character: int(p.Character)}
}

func toCompletionItem(c completion.Candidate) protocol.CompletionItem {
	item := protocol.CompletionItem{
		Label:      c.Label,
		Kind:       mapCompletionKind(c.Kind),
		Detail:     stringPtrOrNil(c.Detail),
		FilterText: stringPtrOrNil(c.FilterText),
		InsertText: stringPtrOrNil(c.InsertText),
	}
	if c.Documentation != "" {
		item.Documentation = protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: c.Documentation,
		}
	}
	return item
}

func stringPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func mapCompletionKind(kind completion.Kind) *protocol.CompletionItemKind {
	var k protocol.CompletionItemKind
	switch kind {
	case completion.KindVariable:
		k = protocol.CompletionItemKindVariable
	case completion.KindProperty:
		k = protocol.CompletionItemKindProperty
	case completion.KindValue:
		k = protocol.CompletionItemKindValue
	default:
		k = protocol.CompletionItemKindText
	}
	return &k
}
