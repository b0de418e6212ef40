package workspace

import "github.com/z3dk/z3dk/pkg/address"

// RoutineDoc is a static fact about a well-known Zelda 3 routine or RAM
// address, keyed by address in a fixed lookup table.
type RoutineDoc struct {
	Name        string
	Description string
}

// KnowledgeBase is a static address -> documentation lookup consulted by
// Hover.
type KnowledgeBase struct {
	entries map[address.Address]RoutineDoc
}

// NewKnowledgeBase returns the built-in table of known Zelda 3 routine and
// RAM addresses. Callers may add project-specific entries with Add.
func NewKnowledgeBase() *KnowledgeBase {
	kb := &KnowledgeBase{entries: make(map[address.Address]RoutineDoc)}
	for addr, doc := range builtinDocs {
		kb.entries[addr] = doc
	}
	return kb
}

// Add registers or overrides a documentation entry.
func (kb *KnowledgeBase) Add(addr address.Address, doc RoutineDoc) {
	kb.entries[addr] = doc
}

// Lookup returns the documentation for addr, mirror-aware (WRAM mirror
// bank $00-$3F/$80-$BF is folded to its $7E counterpart before lookup).
func (kb *KnowledgeBase) Lookup(addr address.Address) (RoutineDoc, bool) {
	doc, ok := kb.entries[addr]
	if ok {
		return doc, true
	}
	doc, ok = kb.entries[addr.Mirror()]
	return doc, ok
}

// builtinDocs seeds a handful of well-known Zelda 3 entry points and RAM
// locations; project-specific knowledge is layered on top via Add.
var builtinDocs = map[address.Address]RoutineDoc{
	0x7E0010: {Name: "ModuleIndex", Description: "Main game mode/module index"},
	0x7E0011: {Name: "SubModuleIndex", Description: "Submodule index within the current module"},
	0x7EF36F: {Name: "LinkHealthCurrent", Description: "Link's current health, in half-hearts"},
	0x7EF370: {Name: "LinkHealthMax", Description: "Link's maximum health, in half-hearts"},
	0x008000: {Name: "ResetVector", Description: "LoROM bank $00 code entry point"},
}
