package symbols

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/z3dk/z3dk/pkg/address"
	"github.com/z3dk/z3dk/pkg/zerr"
)

// acceptedMLBTypes lists the Mesen label-file type prefixes this index
// understands; every other prefix is ignored.
var acceptedMLBTypes = map[string]bool{
	"SnesPrgRom":     true,
	"PRG":            true,
	"SnesWorkRam":    true,
	"SnesSaveRam":    true,
}

// LoadMLB parses a Mesen .mlb file into idx. A missing file is not an error
// when path is empty; otherwise an unreadable file is an IoError. Malformed
// or unrecognized lines are silently skipped.
func LoadMLB(idx *Index, path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return &zerr.IoError{Path: path, Err: err}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		parseMLBLine(idx, line)
	}
	return nil
}

func parseMLBLine(idx *Index, line string) {
	parts := strings.SplitN(line, ":", 4)
	if len(parts) < 3 {
		return
	}
	typ, hexAddr, name := parts[0], parts[1], parts[2]
	if !acceptedMLBTypes[typ] {
		return
	}
	raw, err := strconv.ParseUint(hexAddr, 16, 32)
	if err != nil {
		return
	}

	var addr address.Address
	switch typ {
	case "SnesPrgRom", "PRG":
		addr = address.PCToSNESLoROM(int(raw))
	case "SnesWorkRam":
		addr = address.Address(0x7E0000 + raw)
	case "SnesSaveRam":
		addr = address.Address(0x700000 + raw)
	}
	idx.AddLabel(addr, name)
}
