package symbols

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/z3dk/z3dk/pkg/address"
	"github.com/z3dk/z3dk/pkg/zerr"
)

// LoadSYM parses a WLA-DX .sym file's [labels] section into idx. Other
// sections are skipped. Same missing/unreadable-file policy as LoadMLB.
func LoadSYM(idx *Index, path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return &zerr.IoError{Path: path, Err: err}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	inLabels := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			inLabels = strings.EqualFold(line, "[labels]")
			continue
		}
		if !inLabels {
			continue
		}
		parseSYMLine(idx, line)
	}
	return nil
}

// parseSYMLine parses "bank:offset label" lines.
func parseSYMLine(idx *Index, line string) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return
	}
	addr, ok := parseBankOffset(fields[0])
	if !ok {
		return
	}
	idx.AddLabel(addr, fields[1])
}

// parseBankOffset parses a "bank:offset" token, tolerating a leading '$'.
func parseBankOffset(tok string) (address.Address, bool) {
	tok = strings.TrimPrefix(tok, "$")
	parts := strings.SplitN(tok, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	bank, err1 := strconv.ParseUint(strings.TrimPrefix(parts[0], "$"), 16, 8)
	offset, err2 := strconv.ParseUint(strings.TrimPrefix(parts[1], "$"), 16, 16)
	if err1 != nil || err2 != nil {
		return 0, false
	}
	return address.New(uint8(bank), uint16(offset)), true
}
