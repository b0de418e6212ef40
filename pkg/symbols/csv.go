package symbols

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/z3dk/z3dk/pkg/address"
	"github.com/z3dk/z3dk/pkg/zerr"
)

// LoadCSV parses a header+rows CSV file with columns "address,label" into
// idx. Address may be "bank:offset", optionally '$'-prefixed and quoted.
// Same missing/unreadable-file policy as LoadMLB.
func LoadCSV(idx *Index, path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return &zerr.IoError{Path: path, Err: err}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	addrCol, labelCol := -1, -1
	header := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := splitCSVLine(line)
		if header {
			header = false
			for i, h := range fields {
				switch strings.ToLower(strings.TrimSpace(unquote(h))) {
				case "address":
					addrCol = i
				case "label":
					labelCol = i
				}
			}
			continue
		}
		if addrCol < 0 || labelCol < 0 || addrCol >= len(fields) || labelCol >= len(fields) {
			continue
		}
		addrTok := unquote(strings.TrimSpace(fields[addrCol]))
		name := unquote(strings.TrimSpace(fields[labelCol]))
		addrTok = strings.TrimPrefix(addrTok, "$")

		var addr uint32
		if strings.Contains(addrTok, ":") {
			a, ok := parseBankOffset(addrTok)
			if !ok {
				continue
			}
			addr = uint32(a)
		} else {
			v, err := strconv.ParseUint(addrTok, 16, 32)
			if err != nil {
				continue
			}
			addr = uint32(v)
		}
		idx.AddLabel(address.Address(addr), name)
	}
	return nil
}

func splitCSVLine(line string) []string {
	return strings.Split(line, ",")
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
