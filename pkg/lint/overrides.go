package lint

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/z3dk/z3dk/pkg/address"
	"github.com/z3dk/z3dk/pkg/widthstate"
)

var (
	assumeCommentRe = regexp.MustCompile(`(?i);\s*assume\b(.*)`)
	assumeMRe       = regexp.MustCompile(`(?i)\bm:(\d+)\b`)
	assumeXRe       = regexp.MustCompile(`(?i)\bx:(\d+)\b`)
)

// ExtractStateOverrides scans text line by line for "; assume m:8 x:16"
// comments and resolves each to a StateOverride via lineToAddress, which
// maps a 1-based source line to the SNES address it assembles to. Lines
// with no resolvable address, or an "assume" comment naming neither m nor
// x, are skipped.
func ExtractStateOverrides(text string, lineToAddress func(line int) (address.Address, bool)) []StateOverride {
	var overrides []StateOverride
	for i, line := range strings.Split(text, "\n") {
		m := assumeCommentRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		addr, ok := lineToAddress(i + 1)
		if !ok {
			continue
		}

		ov := StateOverride{Address: addr}
		if mm := assumeMRe.FindStringSubmatch(m[1]); mm != nil {
			if w, ok := parseAssumeWidth(mm[1]); ok {
				ov.MWidth, ov.MSet = w, true
			}
		}
		if xm := assumeXRe.FindStringSubmatch(m[1]); xm != nil {
			if w, ok := parseAssumeWidth(xm[1]); ok {
				ov.XWidth, ov.XSet = w, true
			}
		}
		if ov.MSet || ov.XSet {
			overrides = append(overrides, ov)
		}
	}
	return overrides
}

func parseAssumeWidth(s string) (widthstate.Width, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	switch n {
	case 8:
		return widthstate.Width8, true
	case 16:
		return widthstate.Width16, true
	default:
		return 0, false
	}
}
