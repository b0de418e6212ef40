// Package lsp is the Language Server Protocol core: document lifecycle, a
// 500ms debounce scheduler, and the capability handlers a client drives
// over internal/rpc. One struct owns every bit of mutable state, and only
// the pump touches it.
package lsp

import (
	"time"

	"github.com/z3dk/z3dk/pkg/sourcemap"
	"github.com/z3dk/z3dk/pkg/sourceparser"
)

// Document is one open text buffer's full LSP-visible state.
type Document struct {
	URI           string
	Text          string
	Version       int
	Symbols       []sourceparser.SymbolEntry
	Includes      []sourceparser.IncludeEvent
	Diagnostics   []sourcemap.Diagnostic
	NeedsAnalysis bool
	LastChange    time.Time
}

// fastReparse runs the cheap symbol-only parse on every didChange so
// completion/hover/symbols stay responsive before the debounced full
// analysis catches up.
func (d *Document) fastReparse() {
	res := sourceparser.Parse(d.URI, d.Text)
	d.Symbols = res.Symbols
	d.Includes = res.Includes
}
