// Package symbols implements the Symbol Index: parsing of Mesen MLB, WLA
// SYM, and CSV label files into an address-to-names multimap, and the
// mirror-aware lookup every consumer (disassembler, linter, LSP hover) uses.
package symbols

import "github.com/z3dk/z3dk/pkg/address"

// Index is a multi-valued map of address -> ordered label names. Iteration
// order of names at one address is insertion order (several symbols may
// alias a single address); AddressOrder preserves first-seen address order.
type Index struct {
	names        map[address.Address][]string
	addressOrder []address.Address
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{names: make(map[address.Address][]string)}
}

// AddLabel registers name at addr. A no-op for an empty name. Duplicate
// names at the same address are retained (not de-duplicated) in insertion
// order, matching the historical permissiveness of these file formats.
func (idx *Index) AddLabel(addr address.Address, name string) {
	if name == "" {
		return
	}
	if _, ok := idx.names[addr]; !ok {
		idx.addressOrder = append(idx.addressOrder, addr)
	}
	idx.names[addr] = append(idx.names[addr], name)
}

// Lookup returns the labels registered at addr, probing both addr and its
// $800000 mirror, in that order. Returns nil, false if neither resolves.
func (idx *Index) Lookup(addr address.Address) ([]string, bool) {
	if names, ok := idx.names[addr]; ok {
		return names, true
	}
	if names, ok := idx.names[addr.Mirror()]; ok {
		return names, true
	}
	return nil, false
}

// First returns the first-registered label at addr (mirror-aware), used to
// build an address_to_label_map that keeps insertion-order stability.
func (idx *Index) First(addr address.Address) (string, bool) {
	names, ok := idx.Lookup(addr)
	if !ok || len(names) == 0 {
		return "", false
	}
	return names[0], true
}

// Addresses returns every registered address in first-seen order.
func (idx *Index) Addresses() []address.Address {
	return idx.addressOrder
}

// Len returns the number of distinct addresses with at least one label.
func (idx *Index) Len() int {
	return len(idx.addressOrder)
}

// All returns a snapshot copy of the full multimap.
func (idx *Index) All() map[address.Address][]string {
	out := make(map[address.Address][]string, len(idx.names))
	for a, names := range idx.names {
		cp := make([]string, len(names))
		copy(cp, names)
		out[a] = cp
	}
	return out
}
