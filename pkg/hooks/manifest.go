// Package hooks loads a JSON hook manifest: named, addressed annotations the
// disassembler stitches into its output and the linter cross-checks writes
// against.
package hooks

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/z3dk/z3dk/pkg/address"
	"github.com/z3dk/z3dk/pkg/zerr"
)

// Entry is one hook manifest record.
type Entry struct {
	Address    address.Address
	Size       int
	Name       string
	Kind       string
	Target     string
	Source     string
	Note       string
	Module     string
	AbiClass   string
	ExpectedM  int // 0, 8, or 16
	ExpectedX  int // 0, 8, or 16
	SkipAbi    bool
}

// Manifest is a hook list keyed by address; multiple hooks may share one.
type Manifest struct {
	byAddress map[address.Address][]*Entry
}

// New returns an empty Manifest.
func New() *Manifest {
	return &Manifest{byAddress: make(map[address.Address][]*Entry)}
}

// Addresses returns every address with at least one registered hook.
func (m *Manifest) Addresses() []address.Address {
	out := make([]address.Address, 0, len(m.byAddress))
	for addr := range m.byAddress {
		out = append(out, addr)
	}
	return out
}

// At returns the hooks registered at addr (mirror-aware), if any.
func (m *Manifest) At(addr address.Address) ([]*Entry, bool) {
	if e, ok := m.byAddress[addr]; ok {
		return e, true
	}
	if e, ok := m.byAddress[addr.Mirror()]; ok {
		return e, true
	}
	return nil, false
}

type hookJSON struct {
	Address   json.RawMessage `json:"address"`
	Size      int             `json:"size"`
	Name      string          `json:"name"`
	Kind      string          `json:"kind"`
	Target    string          `json:"target"`
	Source    string          `json:"source"`
	Note      string          `json:"note"`
	Module    string          `json:"module"`
	AbiClass  string          `json:"abi_class"`
	ExpectedM int             `json:"expected_m"`
	ExpectedX int             `json:"expected_x"`
	SkipAbi   bool            `json:"skip_abi"`
}

type manifestJSON struct {
	Hooks []hookJSON `json:"hooks"`
}

// Load parses a hooks.json file. A missing file is not an error when path is
// empty; otherwise an unreadable or unparsable file is an IoError.
func Load(path string) (*Manifest, error) {
	m := New()
	if path == "" {
		return m, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &zerr.IoError{Path: path, Err: err}
	}

	var doc manifestJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &zerr.IoError{Path: path, Err: err}
	}

	for _, h := range doc.Hooks {
		addr, ok := parseAddress(h.Address)
		if !ok {
			continue
		}
		e := &Entry{
			Address:   addr,
			Size:      h.Size,
			Name:      h.Name,
			Kind:      h.Kind,
			Target:    h.Target,
			Source:    h.Source,
			Note:      h.Note,
			Module:    h.Module,
			AbiClass:  h.AbiClass,
			ExpectedM: h.ExpectedM,
			ExpectedX: h.ExpectedX,
			SkipAbi:   h.SkipAbi,
		}
		m.byAddress[addr] = append(m.byAddress[addr], e)
	}
	return m, nil
}

// parseAddress accepts a JSON string ("0x008000" or "$008000") or a JSON
// number.
func parseAddress(raw json.RawMessage) (address.Address, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		asString = strings.TrimPrefix(asString, "$")
		asString = strings.TrimPrefix(asString, "0x")
		asString = strings.TrimPrefix(asString, "0X")
		v, err := strconv.ParseUint(asString, 16, 32)
		if err != nil {
			return 0, false
		}
		return address.Address(v), true
	}
	var asNumber float64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return address.Address(uint32(asNumber)), true
	}
	return 0, false
}
