package workspace

import (
	"testing"

	"github.com/z3dk/z3dk/pkg/address"
)

func TestKnowledgeBaseBuiltinLookup(t *testing.T) {
	kb := NewKnowledgeBase()
	doc, ok := kb.Lookup(0x7E0010)
	if !ok || doc.Name != "ModuleIndex" {
		t.Fatalf("expected ModuleIndex doc, got %+v ok=%v", doc, ok)
	}
}

func TestKnowledgeBaseMirrorAwareLookup(t *testing.T) {
	kb := NewKnowledgeBase()
	mirrored := address.Address(0x7E0010).Mirror()
	doc, ok := kb.Lookup(mirrored)
	if !ok || doc.Name != "ModuleIndex" {
		t.Fatalf("expected mirror-aware lookup to find ModuleIndex, got %+v ok=%v", doc, ok)
	}
}

func TestKnowledgeBaseAddOverride(t *testing.T) {
	kb := NewKnowledgeBase()
	kb.Add(0x008001, RoutineDoc{Name: "Custom", Description: "project hook"})
	doc, ok := kb.Lookup(0x008001)
	if !ok || doc.Name != "Custom" {
		t.Fatalf("expected custom override, got %+v ok=%v", doc, ok)
	}
}

func TestIsRAMAddress(t *testing.T) {
	cases := map[uint32]bool{
		0x7E0000: true,
		0x7F1234: true,
		0x001000: true,
		0x808000: false,
		0xC08000: false,
	}
	for addr, want := range cases {
		if got := IsRAMAddress(addr); got != want {
			t.Errorf("IsRAMAddress(%06X) = %v, want %v", addr, got, want)
		}
	}
}
