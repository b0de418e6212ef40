package sourcemap

import (
	"testing"

	"github.com/z3dk/z3dk/pkg/address"
)

func TestFindEntryLastLessOrEqual(t *testing.T) {
	sm := &SourceMap{Entries: []Entry{
		{Address: address.Address(0x008000), FileID: 1, Line: 10},
		{Address: address.Address(0x008010), FileID: 1, Line: 20},
		{Address: address.Address(0x008020), FileID: 2, Line: 1},
	}}
	sm.Sort()

	e, ok := sm.FindEntry(address.Address(0x008015))
	if !ok || e.Line != 20 {
		t.Fatalf("expected entry at 0x008010 (line 20), got %+v ok=%v", e, ok)
	}

	_, ok = sm.FindEntry(address.Address(0x007FFF))
	if ok {
		t.Fatalf("address before first entry should not resolve")
	}

	e, ok = sm.FindEntry(address.Address(0x008020))
	if !ok || e.FileID != 2 {
		t.Fatalf("exact match should resolve to itself")
	}
}

func TestWrittenBlockOverlap(t *testing.T) {
	a := WrittenBlock{SNESOffset: 0x8000, NumBytes: 0x10}
	b := WrittenBlock{SNESOffset: 0x8008, NumBytes: 0x10}
	c := WrittenBlock{SNESOffset: 0x8010, NumBytes: 0x10}

	if !a.Overlaps(b) {
		t.Fatal("a and b should overlap")
	}
	if a.Overlaps(c) {
		t.Fatal("a and c are adjacent (half-open), should not overlap")
	}
}
