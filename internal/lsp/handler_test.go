package lsp_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"cppcore/internal/lsp"
	"cppcore/internal/settings"
)

func TestTextDocumentDidOpenReportsZeroDivision(t *testing.T) {
	handler := lsp.NewHandler(settings.Default())

	var published []protocol.PublishDiagnosticsParams
	ctx := &glsp.Context{
		Notify: func(method string, params any) {
			if p, ok := params.(*protocol.PublishDiagnosticsParams); ok {
				published = append(published, *p)
			}
		},
	}

	source := "int f() { int x = 0; return 1 / x; }\n"
	err := handler.TextDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:  "file:///tmp/zerodiv.c",
			Text: source,
		},
	})
	require.NoError(t, err)
	require.Len(t, published, 1)
}

func TestTextDocumentDidCloseAfterOpenSucceeds(t *testing.T) {
	handler := lsp.NewHandler(settings.Default())
	ctx := &glsp.Context{Notify: func(string, any) {}}

	uri := protocol.DocumentUri("file:///tmp/forget.c")
	require.NoError(t, handler.TextDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Text: "int x;\n"},
	}))
	require.NoError(t, handler.TextDocumentDidClose(ctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}))
}
