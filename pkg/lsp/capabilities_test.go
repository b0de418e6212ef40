package lsp

import (
	"strings"
	"testing"

	"github.com/z3dk/z3dk/pkg/address"
	"github.com/z3dk/z3dk/pkg/sourcemap"
)

func TestHoverLabel(t *testing.T) {
	s := NewServer()
	s.LabelMap["MyLabel"] = sourcemap.Label{Name: "MyLabel", Address: 0x8000}
	doc := &Document{Text: "  JSR MyLabel\n"}
	got := s.Hover(doc, Position{Line: 0, Column: 8})
	if !strings.Contains(got, "MyLabel") || !strings.Contains(got, "$008000") {
		t.Fatalf("unexpected hover text: %q", got)
	}
}

func TestHoverOpcode(t *testing.T) {
	s := NewServer()
	doc := &Document{Text: "  LDA #$00\n"}
	got := s.Hover(doc, Position{Line: 0, Column: 3})
	if !strings.Contains(got, "LDA") {
		t.Fatalf("expected opcode hover, got %q", got)
	}
}

func TestHoverDefine(t *testing.T) {
	s := NewServer()
	s.DefineMap["MAX_HP"] = sourcemap.Define{Name: "MAX_HP", Value: "20"}
	doc := &Document{Text: "!MAX_HP\n"}
	got := s.Hover(doc, Position{Line: 0, Column: 2})
	if got != "!MAX_HP = 20" {
		t.Fatalf("unexpected define hover: %q", got)
	}
}

func TestCompletionPrefixMatch(t *testing.T) {
	s := NewServer()
	items := s.Completion(nil, "LD")
	found := false
	for _, it := range items {
		if it.Label == "LDA" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected LDA in completions, got %v", items)
	}
}

func TestDocumentSymbolsFiltersByURI(t *testing.T) {
	s := NewServer()
	s.DidOpen("a.asm", "Foo:\n", 1)
	syms := s.DocumentSymbols("a.asm")
	if len(syms) == 0 || syms[0].Name != "Foo" {
		t.Fatalf("expected Foo symbol, got %v", syms)
	}
}

func TestWorkspaceSymbolsSubstringMatch(t *testing.T) {
	s := NewServer()
	s.WorkspaceSymbolNames["DrawSprite"] = true
	s.WorkspaceSymbolNames["ClearScreen"] = true
	got := s.WorkspaceSymbols("sprite")
	if len(got) != 1 || got[0] != "DrawSprite" {
		t.Fatalf("unexpected result: %v", got)
	}
}

func TestReferencesBoundaryRespectsAlphabet(t *testing.T) {
	s := NewServer()
	s.DidOpen("a.asm", "JSR Foo\nJSR FooBar\nJSR Foo\n", 1)
	refs := s.References("Foo")
	if len(refs) != 2 {
		t.Fatalf("expected 2 exact matches (not FooBar), got %v", refs)
	}
}

func TestRenameProducesOneEditPerMatch(t *testing.T) {
	s := NewServer()
	s.DidOpen("a.asm", "JSR Foo\nJSR Foo\n", 1)
	edit := s.Rename("Foo", "Bar")
	if len(edit.Edits) != 2 {
		t.Fatalf("expected 2 edits, got %v", edit.Edits)
	}
}

func TestSemanticTokensClassifyString(t *testing.T) {
	s := NewServer()
	doc := &Document{Text: `DB "hello"` + "\n"}
	tokens := s.SemanticTokens(doc)
	found := false
	for _, tok := range tokens {
		if tok.Type == "string" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a string token, got %v", tokens)
	}
}

func TestInlayHintsAppendLabelAfterHex(t *testing.T) {
	s := NewServer()
	s.AddressToLabel[address.Address(0x8000)] = "Start"
	doc := &Document{Text: "  JMP $8000\n"}
	hints := s.InlayHints(doc)
	found := false
	for _, h := range hints {
		if h.Text == " :Start" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected :Start inlay hint, got %v", hints)
	}
}

func TestSignatureHelpActiveParameter(t *testing.T) {
	s := NewServer()
	s.DidOpen("a.asm", "macro DrawSprite(x, y)\n  LDA x\nendmacro\n", 1)
	doc := &Document{Text: "DrawSprite(1, 2\n"}
	help, ok := s.SignatureHelp(doc, Position{Line: 0, Column: 14})
	if !ok {
		t.Fatalf("expected signature help match")
	}
	if help.ActiveParameter != 1 {
		t.Fatalf("expected active parameter 1 (after the comma), got %d", help.ActiveParameter)
	}
}

func TestGetBankUsageDeduplicates(t *testing.T) {
	s := NewServer()
	result := &sourcemap.AssembleResult{
		WrittenBlocks: []sourcemap.WrittenBlock{
			{SNESOffset: 0x8000, NumBytes: 0x10},
			{SNESOffset: 0x8000, NumBytes: 0x10},
			{SNESOffset: 0x9000, NumBytes: 0x10},
		},
	}
	got := s.GetBankUsage(result)
	if len(got) != 2 {
		t.Fatalf("expected 2 deduplicated blocks, got %v", got)
	}
}
