// Package workspace holds everything the LSP core and CLI share about one
// open project: its z3dk.toml configuration, the static Zelda knowledge
// base consulted by hover, an optional live-emulator link, and VCS
// ignore-path queries.
package workspace

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/z3dk/z3dk/pkg/address"
	"github.com/z3dk/z3dk/pkg/lint"
	"github.com/z3dk/z3dk/pkg/zerr"
)

// Config is the parsed contents of a z3dk.toml file: a deliberately
// simplified "key = value" grammar (comments with '#', quoted strings,
// "[ ... ]" arrays) rather than general TOML - see DESIGN.md for why a
// real TOML library was rejected for this grammar.
type Config struct {
	IncludePaths []string
	Defines      map[string]string
	Main         []string
	StdIncludes  string
	StdDefines   string
	Mapper       string
	ROMPath      string
	ROMSize      int

	Symbols     string
	SymbolsPath string

	WarnUnknownWidth      bool
	WarnBranchOutsideBank bool
	WarnOrgCollision      bool
	WarnUnauthorizedHook  bool
	WarnUnusedSymbols     bool

	ProhibitedMemoryRanges []lint.MemoryRange

	LspLogEnabled bool
	LspLogPath    string
}

// defaultConfig returns a Config with every lint toggle enabled, matching
// the CLI's own flag defaults; a z3dk.toml only needs to name the toggles
// it wants to turn off.
func defaultConfig() *Config {
	return &Config{
		Defines:               make(map[string]string),
		WarnUnknownWidth:      true,
		WarnBranchOutsideBank: true,
		WarnOrgCollision:      true,
		WarnUnauthorizedHook:  true,
		WarnUnusedSymbols:     true,
	}
}

// ParseConfig reads a z3dk.toml document from text. path is used only to
// annotate errors. A malformed value for a recognized key is a
// ConfigError; a key this grammar doesn't recognize is silently ignored.
func ParseConfig(path, text string) (*Config, error) {
	cfg := defaultConfig()

	scanner := bufio.NewScanner(strings.NewReader(text))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := stripConfigComment(scanner.Text())
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, &zerr.ConfigError{Path: path, Err: fmt.Errorf("line %d: expected 'key = value', got %q", lineNo, line)}
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if err := applyConfigKey(cfg, key, value, lineNo); err != nil {
			return nil, &zerr.ConfigError{Path: path, Err: err}
		}
	}
	return cfg, nil
}

func applyConfigKey(cfg *Config, key, value string, lineNo int) error {
	switch key {
	case "include_paths":
		cfg.IncludePaths = parseStringArray(value)
	case "defines":
		for _, item := range parseStringArray(value) {
			name, val, ok := strings.Cut(item, "=")
			if !ok {
				cfg.Defines[item] = ""
				continue
			}
			cfg.Defines[strings.TrimSpace(name)] = strings.TrimSpace(val)
		}
	case "main", "main_files":
		cfg.Main = append(cfg.Main, parseStringArray(value)...)
	case "std_includes":
		cfg.StdIncludes = unquote(value)
	case "std_defines":
		cfg.StdDefines = unquote(value)
	case "mapper":
		mapper := strings.ToLower(unquote(value))
		if mapper != "lorom" {
			return fmt.Errorf("unsupported mapper %q (only lorom is supported)", mapper)
		}
		cfg.Mapper = mapper
	case "rom_path":
		cfg.ROMPath = unquote(value)
	case "rom_size":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("rom_size must be an integer: %w", err)
		}
		cfg.ROMSize = n
	case "symbols":
		cfg.Symbols = strings.ToLower(unquote(value))
	case "symbols_path":
		cfg.SymbolsPath = unquote(value)
	case "warn_unknown_width":
		b, err := parseConfigBool(value)
		if err != nil {
			return err
		}
		cfg.WarnUnknownWidth = b
	case "warn_branch_outside_bank":
		b, err := parseConfigBool(value)
		if err != nil {
			return err
		}
		cfg.WarnBranchOutsideBank = b
	case "warn_org_collision":
		b, err := parseConfigBool(value)
		if err != nil {
			return err
		}
		cfg.WarnOrgCollision = b
	case "warn_unauthorized_hook":
		b, err := parseConfigBool(value)
		if err != nil {
			return err
		}
		cfg.WarnUnauthorizedHook = b
	case "warn_unused_symbols":
		b, err := parseConfigBool(value)
		if err != nil {
			return err
		}
		cfg.WarnUnusedSymbols = b
	case "prohibited_memory_ranges":
		ranges, err := parseMemoryRanges(value)
		if err != nil {
			return err
		}
		cfg.ProhibitedMemoryRanges = ranges
	case "lsp_log_enabled":
		b, err := parseConfigBool(value)
		if err != nil {
			return err
		}
		cfg.LspLogEnabled = b
	case "lsp_log_path":
		cfg.LspLogPath = unquote(value)
	default:
		// Unrecognized keys are ignored so a z3dk.toml can carry
		// forward-compatible or tool-specific entries this grammar
		// doesn't know about yet.
	}
	return nil
}

func parseConfigBool(value string) (bool, error) {
	b, err := strconv.ParseBool(unquote(value))
	if err != nil {
		return false, fmt.Errorf("expected true/false, got %q", value)
	}
	return b, nil
}

// parseMemoryRanges parses a ["start-end:reason", …] array into
// lint.MemoryRange values. start/end are bare hex SNES addresses
// (an optional leading "$" or "0x" is tolerated).
func parseMemoryRanges(value string) ([]lint.MemoryRange, error) {
	var ranges []lint.MemoryRange
	for _, item := range parseStringArray(value) {
		addrs, reason, _ := strings.Cut(item, ":")
		startStr, endStr, ok := strings.Cut(addrs, "-")
		if !ok {
			return nil, fmt.Errorf("prohibited_memory_ranges entry %q: expected \"start-end:reason\"", item)
		}
		start, err := parseHexAddress(startStr)
		if err != nil {
			return nil, fmt.Errorf("prohibited_memory_ranges entry %q: %w", item, err)
		}
		end, err := parseHexAddress(endStr)
		if err != nil {
			return nil, fmt.Errorf("prohibited_memory_ranges entry %q: %w", item, err)
		}
		ranges = append(ranges, lint.MemoryRange{Start: start, End: end, Reason: strings.TrimSpace(reason)})
	}
	return ranges, nil
}

func parseHexAddress(s string) (address.Address, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid hex address %q: %w", s, err)
	}
	return address.Address(v), nil
}

// stripConfigComment removes a trailing '#' comment, respecting quoted
// strings the same way asm source comments respect them.
func stripConfigComment(line string) string {
	inString := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\\' && inString:
			i++
		case c == '"':
			inString = !inString
		case c == '#' && !inString:
			return line[:i]
		}
	}
	return line
}

// parseStringArray parses a "[ a, "b c", d ]" or bare "a" value into its
// elements, unquoting each.
func parseStringArray(value string) []string {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]") {
		inner := value[1 : len(value)-1]
		var out []string
		for _, part := range strings.Split(inner, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			out = append(out, unquote(part))
		}
		return out
	}
	if value == "" {
		return nil
	}
	return []string{unquote(value)}
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
