package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/z3dk/z3dk/internal/rpc"
	"github.com/z3dk/z3dk/pkg/lsp"
	"github.com/z3dk/z3dk/pkg/sourcemap"
)

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Run the language server over stdio",
	RunE:  runLSP,
}

// lspHandler bridges internal/rpc's Handler interface to pkg/lsp's Server,
// mirroring the document-lifecycle method names the LSP spec uses.
type lspHandler struct {
	server *lsp.Server
	conn   *rpc.Conn
}

type textDocumentID struct {
	URI string `json:"uri"`
}

type position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

func (p position) toPos() lsp.Position {
	return lsp.Position{Line: p.Line, Column: p.Character}
}

type didOpenParams struct {
	TextDocument struct {
		URI     string `json:"uri"`
		Text    string `json:"text"`
		Version int    `json:"version"`
	} `json:"textDocument"`
}

type didChangeParams struct {
	TextDocument struct {
		URI     string `json:"uri"`
		Version int    `json:"version"`
	} `json:"textDocument"`
	ContentChanges []struct {
		Text string `json:"text"`
	} `json:"contentChanges"`
}

type didCloseParams struct {
	TextDocument struct {
		URI string `json:"uri"`
	} `json:"textDocument"`
}

type textDocumentPositionParams struct {
	TextDocument textDocumentID `json:"textDocument"`
	Position     position       `json:"position"`
}

type renameParams struct {
	TextDocument textDocumentID `json:"textDocument"`
	Position     position       `json:"position"`
	NewName      string         `json:"newName"`
}

type documentParams struct {
	TextDocument textDocumentID `json:"textDocument"`
}

type workspaceSymbolParams struct {
	Query string `json:"query"`
}

type executeCommandParams struct {
	Command string `json:"command"`
}

func (h *lspHandler) HandleRequest(method string, params json.RawMessage) (interface{}, *rpc.Error) {
	switch method {
	case "initialize":
		if err := h.server.Initialize(); err != nil {
			return nil, &rpc.Error{Code: rpc.ErrInvalidRequest, Message: err.Error()}
		}
		return map[string]interface{}{
			"capabilities": map[string]interface{}{
				"textDocumentSync":        1,
				"hoverProvider":           true,
				"definitionProvider":      true,
				"completionProvider":      map[string]interface{}{"triggerCharacters": lsp.CompletionTriggerCharacters},
				"referencesProvider":      true,
				"renameProvider":          true,
				"documentSymbolProvider":  true,
				"workspaceSymbolProvider": true,
				"semanticTokensProvider":  map[string]interface{}{"legend": map[string]interface{}{"tokenTypes": lsp.SemanticTokenTypes}},
				"inlayHintProvider":       true,
				"signatureHelpProvider":   map[string]interface{}{"triggerCharacters": []string{"(", ","}},
				"executeCommandProvider":  map[string]interface{}{"commands": []string{"z3dk.getBankUsage"}},
			},
		}, nil

	case "textDocument/didOpen":
		var p didOpenParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &rpc.Error{Code: rpc.ErrInvalidParams, Message: err.Error()}
		}
		h.server.DidOpen(p.TextDocument.URI, p.TextDocument.Text, p.TextDocument.Version)
		h.runDebounceTick()
		return nil, nil

	case "textDocument/didChange":
		var p didChangeParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &rpc.Error{Code: rpc.ErrInvalidParams, Message: err.Error()}
		}
		text := ""
		if len(p.ContentChanges) > 0 {
			text = p.ContentChanges[len(p.ContentChanges)-1].Text
		}
		h.server.DidChange(p.TextDocument.URI, text, p.TextDocument.Version)
		h.runDebounceTick()
		return nil, nil

	case "textDocument/didClose":
		var p didCloseParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &rpc.Error{Code: rpc.ErrInvalidParams, Message: err.Error()}
		}
		h.server.DidClose(p.TextDocument.URI)
		return nil, nil

	case "textDocument/hover":
		p, doc, rerr := h.documentAndPosition(params)
		if rerr != nil {
			return nil, rerr
		}
		text := h.server.Hover(doc, p.Position.toPos())
		if text == "" {
			return nil, nil
		}
		return map[string]interface{}{"contents": text}, nil

	case "textDocument/definition":
		p, doc, rerr := h.documentAndPosition(params)
		if rerr != nil {
			return nil, rerr
		}
		loc, ok := h.server.Definition(h.result(), doc, p.Position.toPos())
		if !ok {
			return nil, nil
		}
		return map[string]interface{}{"uri": loc.URI, "line": loc.Line}, nil

	case "textDocument/completion":
		p, doc, rerr := h.documentAndPosition(params)
		if rerr != nil {
			return nil, rerr
		}
		prefix := h.server.TokenPrefix(doc, p.Position.toPos())
		return h.server.Completion(doc, prefix), nil

	case "textDocument/references":
		p, doc, rerr := h.documentAndPosition(params)
		if rerr != nil {
			return nil, rerr
		}
		token := h.server.TokenAt(doc, p.Position.toPos())
		return h.server.References(token), nil

	case "textDocument/rename":
		var p renameParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &rpc.Error{Code: rpc.ErrInvalidParams, Message: err.Error()}
		}
		doc, ok := h.server.Documents[p.TextDocument.URI]
		if !ok {
			return nil, &rpc.Error{Code: rpc.ErrInvalidParams, Message: "unknown document: " + p.TextDocument.URI}
		}
		oldName := h.server.TokenAt(doc, p.Position.toPos())
		return h.server.Rename(oldName, p.NewName), nil

	case "textDocument/documentSymbol":
		var p documentParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &rpc.Error{Code: rpc.ErrInvalidParams, Message: err.Error()}
		}
		return h.server.DocumentSymbols(p.TextDocument.URI), nil

	case "workspace/symbol":
		var p workspaceSymbolParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &rpc.Error{Code: rpc.ErrInvalidParams, Message: err.Error()}
		}
		return h.server.WorkspaceSymbols(p.Query), nil

	case "textDocument/semanticTokens/full":
		var p documentParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &rpc.Error{Code: rpc.ErrInvalidParams, Message: err.Error()}
		}
		doc, ok := h.server.Documents[p.TextDocument.URI]
		if !ok {
			return nil, &rpc.Error{Code: rpc.ErrInvalidParams, Message: "unknown document: " + p.TextDocument.URI}
		}
		return h.server.SemanticTokens(doc), nil

	case "textDocument/inlayHint":
		var p documentParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &rpc.Error{Code: rpc.ErrInvalidParams, Message: err.Error()}
		}
		doc, ok := h.server.Documents[p.TextDocument.URI]
		if !ok {
			return nil, &rpc.Error{Code: rpc.ErrInvalidParams, Message: "unknown document: " + p.TextDocument.URI}
		}
		return h.server.InlayHints(doc), nil

	case "textDocument/signatureHelp":
		p, doc, rerr := h.documentAndPosition(params)
		if rerr != nil {
			return nil, rerr
		}
		help, ok := h.server.SignatureHelp(doc, p.Position.toPos())
		if !ok {
			return nil, nil
		}
		return help, nil

	case "workspace/executeCommand":
		var p executeCommandParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &rpc.Error{Code: rpc.ErrInvalidParams, Message: err.Error()}
		}
		switch p.Command {
		case "z3dk.getBankUsage":
			return h.server.GetBankUsage(h.result()), nil
		default:
			return nil, &rpc.Error{Code: rpc.ErrInvalidParams, Message: "unknown command: " + p.Command}
		}

	case "shutdown":
		if err := h.server.Shutdown(); err != nil {
			return nil, &rpc.Error{Code: rpc.ErrInvalidRequest, Message: err.Error()}
		}
		return nil, nil

	case "exit":
		os.Exit(0)
		return nil, nil

	default:
		return nil, &rpc.Error{Code: rpc.ErrMethodNotFound, Message: "method not found: " + method}
	}
}

// documentAndPosition unmarshals a textDocument+position request and looks
// up the named document, the shape every cursor-driven capability shares.
func (h *lspHandler) documentAndPosition(params json.RawMessage) (textDocumentPositionParams, *lsp.Document, *rpc.Error) {
	var p textDocumentPositionParams
	if err := json.Unmarshal(params, &p); err != nil {
		return p, nil, &rpc.Error{Code: rpc.ErrInvalidParams, Message: err.Error()}
	}
	doc, ok := h.server.Documents[p.TextDocument.URI]
	if !ok {
		return p, nil, &rpc.Error{Code: rpc.ErrInvalidParams, Message: "unknown document: " + p.TextDocument.URI}
	}
	return p, doc, nil
}

// result returns the most recent assembly result, or an empty one if
// analysis hasn't run yet.
func (h *lspHandler) result() *sourcemap.AssembleResult {
	if h.server.LastResult != nil {
		return h.server.LastResult
	}
	return &sourcemap.AssembleResult{}
}

// runDebounceTick advances the scheduler once; a real pump would do this
// on every idle iteration rather than synchronously after each document
// notification, but that requires an event loop external to the blocking
// Serve() read.
func (h *lspHandler) runDebounceTick() {
	h.server.Tick(time.Now().Add(lsp.DebounceWindow))
}

func runLSP(cmd *cobra.Command, args []string) error {
	conn := rpc.NewConn(os.Stdin, os.Stdout)
	handler := &lspHandler{server: lsp.NewServer(), conn: conn}
	return conn.Serve(handler)
}
