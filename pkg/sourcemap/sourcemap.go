// Package sourcemap holds the SourceMap data type (address -> source file
// + line) and the assembler collaborator contract types described by the
// spec's external-interfaces section. No concrete assembler is implemented
// here - it is explicitly out of scope - only the schema both the analysis
// engine and the LSP core are built against.
package sourcemap

import (
	"sort"

	"github.com/z3dk/z3dk/pkg/address"
)

// FileRef identifies one source file contributing to a SourceMap.
type FileRef struct {
	ID   int
	CRC  uint32
	Path string
}

// Entry maps one SNES address to a file/line pair.
type Entry struct {
	Address address.Address
	FileID  int
	Line    int
}

// SourceMap is the sorted-by-address entry list the assembler emits,
// together with the file table entries reference by ID.
type SourceMap struct {
	Files   []FileRef
	Entries []Entry // must be sorted by Address for FindEntry to work
}

// Sort orders Entries by Address, as FindEntry requires.
func (sm *SourceMap) Sort() {
	sort.Slice(sm.Entries, func(i, j int) bool { return sm.Entries[i].Address < sm.Entries[j].Address })
}

// FindEntry returns the last entry whose address is <= a, or false if a
// precedes every entry.
func (sm *SourceMap) FindEntry(a address.Address) (Entry, bool) {
	entries := sm.Entries
	i := sort.Search(len(entries), func(i int) bool { return entries[i].Address > a })
	if i == 0 {
		return Entry{}, false
	}
	return entries[i-1], true
}

// File looks up a FileRef by ID.
func (sm *SourceMap) File(id int) (FileRef, bool) {
	for _, f := range sm.Files {
		if f.ID == id {
			return f, true
		}
	}
	return FileRef{}, false
}

// FileByPath looks up a FileRef by its source path.
func (sm *SourceMap) FileByPath(path string) (FileRef, bool) {
	for _, f := range sm.Files {
		if f.Path == path {
			return f, true
		}
	}
	return FileRef{}, false
}

// AddressForLine returns the address of the last entry for fileID whose
// line is <= line, or false if no such entry exists.
func (sm *SourceMap) AddressForLine(fileID, line int) (address.Address, bool) {
	var best Entry
	found := false
	for _, e := range sm.Entries {
		if e.FileID != fileID || e.Line > line {
			continue
		}
		if !found || e.Line > best.Line {
			best = e
			found = true
		}
	}
	return best.Address, found
}
