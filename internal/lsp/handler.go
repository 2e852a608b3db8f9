// Package lsp adapts the core analyzer to the Language Server
// Protocol, grounded on the teacher's glsp-based handler
// (internal/lsp/handler.go): the same notification wiring and
// URI/path conversion, publishing this analyzer's diag.Diagnostic
// records instead of parser errors.
package lsp

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"cppcore/internal/check"
	"cppcore/internal/check/builtin"
	"cppcore/internal/diag"
	"cppcore/internal/driver"
	"cppcore/internal/settings"
)

// Handler implements the LSP server handlers for the core analyzer.
type Handler struct {
	mu       sync.RWMutex
	content  map[string]string
	settings settings.Settings
	registry *check.Registry
}

// NewHandler creates a Handler wired to a fresh check registry.
func NewHandler(st settings.Settings) *Handler {
	registry := check.NewRegistry()
	registry.Register(builtin.DivisionByZero)
	return &Handler{
		content:  make(map[string]string),
		settings: st,
		registry: registry,
	}
}

// Initialize responds to the LSP client's initialize request and
// advertises the server's capabilities.
func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Println("LSP Initialize called")

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
		},
	}, nil
}

// Initialized is called after the client receives the server's
// capabilities and completes initialization.
func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Println("LSP Initialized")
	return nil
}

// Shutdown handles the LSP shutdown request.
func (h *Handler) Shutdown(ctx *glsp.Context) error {
	log.Println("LSP Shutdown")
	return nil
}

// TextDocumentDidOpen handles file open notifications from the editor.
func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	return h.analyzeAndPublish(ctx, params.TextDocument.URI, params.TextDocument.Text)
}

// TextDocumentDidChange handles file change notifications from the editor.
func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}
	// TextDocumentSyncKindFull: the last change event carries the
	// entire new document text.
	last := params.ContentChanges[len(params.ContentChanges)-1]
	full, ok := last.(protocol.TextDocumentContentChangeEventWhole)
	if !ok {
		return nil
	}
	return h.analyzeAndPublish(ctx, params.TextDocument.URI, full.Text)
}

// TextDocumentDidClose handles file close notifications from the editor.
func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return fmt.Errorf("failed to convert URI %s: %w", params.TextDocument.URI, err)
	}

	h.mu.Lock()
	delete(h.content, path)
	h.mu.Unlock()
	return nil
}

// analyzeAndPublish runs the full core pipeline against one in-memory
// document and publishes the resulting diagnostics, converted to the
// LSP wire format.
func (h *Handler) analyzeAndPublish(ctx *glsp.Context, rawURI protocol.DocumentUri, content string) error {
	path, err := uriToPath(rawURI)
	if err != nil {
		return fmt.Errorf("failed to convert URI %s: %w", rawURI, err)
	}

	h.mu.Lock()
	h.content[path] = content
	h.mu.Unlock()

	reporter := diag.NewReporter()
	reporter.SetSource(path, content)
	resolver := &driver.FSIncludeResolver{IncludePaths: h.settings.IncludePaths}
	analyze := driver.NewPipeline(h.settings, resolver)

	ctu := driver.CTU{Path: path, Size: int64(len(content)), Content: content}
	analyze(ctu, h.registry, reporter)

	sendDiagnosticNotification(ctx, rawURI, toProtocolDiagnostics(reporter.Diagnostics()))
	return nil
}

func toProtocolDiagnostics(ds []diag.Diagnostic) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(ds))
	for _, d := range ds {
		line := uint32(0)
		if d.Primary.Line > 0 {
			line = uint32(d.Primary.Line - 1)
		}
		col := uint32(0)
		if d.Primary.Column > 0 {
			col = uint32(d.Primary.Column - 1)
		}
		out = append(out, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: line, Character: col},
				End:   protocol.Position{Line: line, Character: col + 1},
			},
			Severity: ptrSeverity(severityToProtocol(d.Severity)),
			Code:     &protocol.IntegerOrString{Value: d.ID},
			Source:   ptrString("cppcore"),
			Message:  d.Message,
		})
	}
	return out
}

func severityToProtocol(s diag.Severity) protocol.DiagnosticSeverity {
	switch s {
	case diag.SeverityError:
		return protocol.DiagnosticSeverityError
	case diag.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case diag.SeverityInformation, diag.SeverityDebug:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityHint
	}
}

// Convert URI to platform-local file path.
func uriToPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}

	path := u.Path
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path), nil
}

func sendDiagnosticNotification(ctx *glsp.Context, uri protocol.URI, diagnostics []protocol.Diagnostic) {
	diagnosticsJSON, err := json.MarshalIndent(diagnostics, "", "  ")
	if err != nil {
		fmt.Println("Failed to marshal diagnostics:", err)
		return
	}
	log.Println("Sending diagnostics:", string(diagnosticsJSON))

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func ptrBool(b bool) *bool { return &b }

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind { return &k }

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity { return &s }

func ptrString(s string) *string { return &s }
