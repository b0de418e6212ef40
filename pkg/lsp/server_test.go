package lsp

import (
	"testing"
	"time"

	"github.com/z3dk/z3dk/pkg/sourcemap"
)

func TestLifecycleTransitions(t *testing.T) {
	s := NewServer()
	if err := s.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := s.Initialize(); err == nil {
		t.Fatalf("expected error re-initializing")
	}
	if err := s.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !s.Exit() {
		t.Fatalf("expected clean exit from ShuttingDown")
	}
}

func TestExitWithoutShutdownIsAbnormal(t *testing.T) {
	s := NewServer()
	s.Initialize()
	if s.Exit() {
		t.Fatalf("expected abnormal exit")
	}
}

func TestDidOpenCreatesDocumentAndAnalyzes(t *testing.T) {
	s := NewServer()
	s.DidOpen("main.asm", "MyLabel:\n  LDA #$00\n", 1)
	doc, ok := s.Documents["main.asm"]
	if !ok {
		t.Fatalf("expected document to exist")
	}
	if len(doc.Symbols) == 0 {
		t.Fatalf("expected symbols from fast reparse")
	}
	if doc.NeedsAnalysis {
		t.Fatalf("expected NeedsAnalysis cleared after initial analysis")
	}
}

func TestDidChangeMarksNeedsAnalysisAndRestartsDebounce(t *testing.T) {
	s := NewServer()
	s.DidOpen("main.asm", "Label:\n", 1)
	before := s.Documents["main.asm"].LastChange
	time.Sleep(time.Millisecond)
	s.DidChange("main.asm", "Other:\n", 2)
	doc := s.Documents["main.asm"]
	if !doc.NeedsAnalysis {
		t.Fatalf("expected NeedsAnalysis after didChange")
	}
	if !doc.LastChange.After(before) {
		t.Fatalf("expected LastChange to advance")
	}
}

func TestDidCloseDropsState(t *testing.T) {
	s := NewServer()
	s.DidOpen("main.asm", "Label:\n", 1)
	s.DidClose("main.asm")
	if _, ok := s.Documents["main.asm"]; ok {
		t.Fatalf("expected document state dropped")
	}
}

func TestTickSkipsWhenChangesAreRecent(t *testing.T) {
	s := NewServer()
	s.DidChange("main.asm", "Label:\n", 1)
	s.Tick(s.Documents["main.asm"].LastChange.Add(100 * time.Millisecond))
	if !s.Documents["main.asm"].NeedsAnalysis {
		t.Fatalf("expected NeedsAnalysis to remain set before the debounce window elapses")
	}
}

func TestTickAnalyzesAfterDebounceWindow(t *testing.T) {
	s := NewServer()
	s.DidChange("main.asm", "Label:\n", 1)
	s.Tick(s.Documents["main.asm"].LastChange.Add(DebounceWindow + time.Millisecond))
	if s.Documents["main.asm"].NeedsAnalysis {
		t.Fatalf("expected NeedsAnalysis cleared after the debounce window elapses")
	}
}

func TestMissingLabelSuppressionHeuristic(t *testing.T) {
	s := NewServer()
	s.WorkspaceSymbolNames["Oracle_Foo"] = true
	doc := &Document{URI: "main.asm"}
	diags := []sourcemap.Diagnostic{{Message: "Label 'Foo' wasn't found"}}
	got := s.suppressMissingLabel(diags, doc)
	if len(got) != 0 {
		t.Fatalf("expected suppression via Oracle_ prefix match, got %v", got)
	}
}

func TestMissingLabelSurvivesWhenUnknown(t *testing.T) {
	s := NewServer()
	doc := &Document{URI: "main.asm"}
	diags := []sourcemap.Diagnostic{{Message: "Label 'Unknown' wasn't found"}}
	got := s.suppressMissingLabel(diags, doc)
	if len(got) != 1 {
		t.Fatalf("expected diagnostic to survive, got %v", got)
	}
}

func TestMissingOrgSuppressedWhenParentPrecedesInclude(t *testing.T) {
	s := NewServer()
	s.DidOpen("sub.asm", "Label:\n  LDA #$00\n", 1)
	s.DidOpen("main.asm", "org $8000\nincsrc \"sub.asm\"\n", 1)

	diags := []sourcemap.Diagnostic{{Message: "Missing org or freespace command"}}
	got := s.suppressMissingOrg(diags, s.Documents["sub.asm"], "main.asm")
	if len(got) != 0 {
		t.Fatalf("expected suppression, got %v", got)
	}
}

func TestMissingOrgSurvivesWithNoOrgAnywhere(t *testing.T) {
	s := NewServer()
	s.DidOpen("sub.asm", "Label:\n", 1)
	s.DidOpen("main.asm", "incsrc \"sub.asm\"\n", 1)

	diags := []sourcemap.Diagnostic{{Message: "Missing org or freespace command"}}
	got := s.suppressMissingOrg(diags, s.Documents["sub.asm"], "main.asm")
	if len(got) != 1 {
		t.Fatalf("expected diagnostic to survive, got %v", got)
	}
}
