package lsp

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/z3dk/z3dk/pkg/address"
	"github.com/z3dk/z3dk/pkg/opcode"
	"github.com/z3dk/z3dk/pkg/sourcemap"
	"github.com/z3dk/z3dk/pkg/sourceparser"
)

// Position is a zero-based line/column pair, as LSP uses.
type Position struct {
	Line   int
	Column int
}

// Location identifies a position within a specific document.
type Location struct {
	URI  string
	Line int
}

// tokenAlphabet is the token-character set used by completion boundary
// detection, references, and rename: letters, digits, and the asm-specific
// punctuation that can appear inside an identifier.
const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_.!@"

func isTokenChar(b byte) bool {
	return strings.IndexByte(tokenAlphabet, b) >= 0
}

// tokenAt extracts the maximal token-alphabet run containing column in
// line (both zero-based column indices into line).
func tokenAt(line string, column int) (string, int, int) {
	if column < 0 || column > len(line) {
		return "", 0, 0
	}
	start := column
	for start > 0 && isTokenChar(line[start-1]) {
		start--
	}
	end := column
	for end < len(line) && isTokenChar(line[end]) {
		end++
	}
	return line[start:end], start, end
}

func lineAt(text string, lineNo int) string {
	lines := strings.Split(text, "\n")
	if lineNo < 0 || lineNo >= len(lines) {
		return ""
	}
	return lines[lineNo]
}

// TokenAt returns the identifier-like token under pos in doc, or "" if pos
// doesn't sit inside one. Shared by the transport layer's References and
// Rename dispatch, which only have a cursor position to work with.
func (s *Server) TokenAt(doc *Document, pos Position) string {
	line := lineAt(doc.Text, pos.Line)
	token, _, _ := tokenAt(line, pos.Column)
	return token
}

// TokenPrefix returns the token-alphabet run immediately before pos in doc,
// for completion matching against a partially typed identifier.
func (s *Server) TokenPrefix(doc *Document, pos Position) string {
	line := lineAt(doc.Text, pos.Line)
	end := pos.Column
	if end > len(line) {
		end = len(line)
	}
	start := end
	for start > 0 && isTokenChar(line[start-1]) {
		start--
	}
	return line[start:end]
}

// Hover returns the hover text for the token under pos in doc, or "" if
// nothing applies.
func (s *Server) Hover(doc *Document, pos Position) string {
	line := lineAt(doc.Text, pos.Line)
	token, _, _ := tokenAt(line, pos.Column)
	if token == "" {
		return ""
	}

	if label, ok := s.LabelMap[token]; ok {
		var b strings.Builder
		fmt.Fprintf(&b, "%s: %s\n", label.Name, address.Address(label.Address))
		if doc, ok := s.Knowledge.Lookup(address.Address(label.Address)); ok {
			fmt.Fprintf(&b, "%s - %s\n", doc.Name, doc.Description)
		}
		if IsRAMAddressFromLocal(label.Address) && s.Emulator != nil {
			if v, ok := s.Emulator.ReadByte(label.Address); ok {
				fmt.Fprintf(&b, "Live Value: $%02X\n", v)
			}
		}
		return b.String()
	}

	if def, ok := s.DefineMap[strings.TrimPrefix(token, "!")]; ok {
		if def.Value != "" {
			return fmt.Sprintf("!%s = %s", def.Name, def.Value)
		}
		return fmt.Sprintf("!%s", def.Name)
	}

	if mnemonic, info, ok := opcodeInfo(token); ok {
		return fmt.Sprintf("%s: %s", mnemonic, info)
	}

	if strings.HasPrefix(token, "$") {
		if addr, ok := parseHexToken(token); ok {
			if doc, ok := s.Knowledge.Lookup(addr); ok {
				return fmt.Sprintf("%s - %s", doc.Name, doc.Description)
			}
		}
	}

	return ""
}

// IsRAMAddressFromLocal adapts workspace.IsRAMAddress's uint32 signature
// for label.Address's uint32 representation (kept as a thin indirection so
// Hover doesn't need to import workspace's RAM predicate under two names).
func IsRAMAddressFromLocal(addr uint32) bool {
	bank := addr >> 16
	offset := addr & 0xFFFF
	return bank == 0x7E || bank == 0x7F || offset < 0x2000
}

func opcodeInfo(token string) (mnemonic, info string, ok bool) {
	upper := strings.ToUpper(token)
	for op := 0; op < 256; op++ {
		if opcode.Mnemonic(byte(op)) == upper {
			return upper, fmt.Sprintf("65816 instruction, mode=%v", opcode.Mode(byte(op))), true
		}
	}
	return "", "", false
}

func parseHexToken(token string) (address.Address, bool) {
	n, err := strconv.ParseUint(strings.TrimPrefix(token, "$"), 16, 32)
	if err != nil {
		return 0, false
	}
	return address.Address(n), true
}

// Definition resolves the token under pos to its source location. An
// include path quoted under the cursor resolves to that file's start;
// otherwise a label resolves via the first source-map entry at its
// address.
func (s *Server) Definition(result *sourcemap.AssembleResult, doc *Document, pos Position) (Location, bool) {
	line := lineAt(doc.Text, pos.Line)
	lower := strings.ToLower(strings.TrimSpace(line))
	if strings.HasPrefix(lower, "incsrc") || strings.HasPrefix(lower, "include") || strings.HasPrefix(lower, "incdir") {
		if start := strings.IndexByte(line, '"'); start >= 0 {
			if end := strings.IndexByte(line[start+1:], '"'); end >= 0 {
				path := line[start+1 : start+1+end]
				return Location{URI: path, Line: 0}, true
			}
		}
	}

	token, _, _ := tokenAt(line, pos.Column)
	label, ok := s.LabelMap[token]
	if !ok {
		return Location{}, false
	}
	for _, e := range result.SourceMap.Entries {
		if uint32(e.Address) == label.Address {
			if file, ok := result.SourceMap.File(e.FileID); ok {
				return Location{URI: file.Path, Line: e.Line}, true
			}
		}
	}
	return Location{}, false
}

// CompletionItem is one completion candidate.
type CompletionItem struct {
	Label string
	Kind  string
}

var directives = []string{
	"namespace", "pushns", "popns", "struct", "endstruct", "macro", "endmacro",
	"incsrc", "include", "incdir", "org", "freespace",
}

var mnemonics65816 = func() []string {
	seen := map[string]bool{}
	var out []string
	for op := 0; op < 256; op++ {
		m := opcode.Mnemonic(byte(op))
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out
}()

// CompletionTriggerCharacters are the characters that invoke completion
// mid-token.
var CompletionTriggerCharacters = []string{"!", ".", "@"}

// Completion returns every candidate whose label case-insensitively starts
// with prefix, drawn from directives, workspace symbols, local
// labels/defines/macros, and CPU mnemonics.
func (s *Server) Completion(doc *Document, prefix string) []CompletionItem {
	lowerPrefix := strings.ToLower(prefix)
	var items []CompletionItem

	matchAppend := func(name, kind string) {
		if strings.HasPrefix(strings.ToLower(name), lowerPrefix) {
			items = append(items, CompletionItem{Label: name, Kind: kind})
		}
	}

	for _, d := range directives {
		matchAppend(d, "directive")
	}
	for name := range s.WorkspaceSymbolNames {
		matchAppend(name, "symbol")
	}
	if doc != nil {
		for _, sym := range doc.Symbols {
			matchAppend(sym.Name, sym.Kind.String())
		}
	}
	for _, m := range mnemonics65816 {
		matchAppend(m, "instruction")
	}

	return items
}

// DocumentSymbols returns every symbol whose URI matches uri or is empty.
func (s *Server) DocumentSymbols(uri string) []sourceparser.SymbolEntry {
	doc, ok := s.Documents[uri]
	if !ok {
		return nil
	}
	var out []sourceparser.SymbolEntry
	for _, sym := range doc.Symbols {
		if sym.URI == "" || sym.URI == uri {
			out = append(out, sym)
		}
	}
	return out
}

// WorkspaceSymbols returns every known symbol name containing query
// (case-insensitive).
func (s *Server) WorkspaceSymbols(query string) []string {
	lowerQuery := strings.ToLower(query)
	var out []string
	for name := range s.WorkspaceSymbolNames {
		if strings.Contains(strings.ToLower(name), lowerQuery) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// References scans every open document for occurrences of token, bounded
// by the token alphabet on both sides.
func (s *Server) References(token string) []Location {
	var out []Location
	for uri, doc := range s.Documents {
		for lineNo, line := range strings.Split(doc.Text, "\n") {
			for range findTokenOccurrences(line, token) {
				out = append(out, Location{URI: uri, Line: lineNo + 1})
			}
		}
	}
	return out
}

// TextEdit is one replacement within a document, used by Rename.
type TextEdit struct {
	URI     string
	Line    int
	Column  int
	OldText string
	NewText string
}

// WorkspaceEdit is the result of Rename: one TextEdit per match.
type WorkspaceEdit struct {
	Edits []TextEdit
}

// Rename builds a WorkspaceEdit renaming every occurrence of oldName to
// newName across every open document.
func (s *Server) Rename(oldName, newName string) WorkspaceEdit {
	var edits []TextEdit
	for uri, doc := range s.Documents {
		for lineNo, line := range strings.Split(doc.Text, "\n") {
			for _, col := range findTokenOccurrences(line, oldName) {
				edits = append(edits, TextEdit{
					URI: uri, Line: lineNo + 1, Column: col + 1,
					OldText: oldName, NewText: newName,
				})
			}
		}
	}
	return WorkspaceEdit{Edits: edits}
}

// findTokenOccurrences returns the starting columns of every exact match
// of token in line whose left/right neighbors are not token-alphabet
// characters (so "Foo" doesn't match inside "FooBar").
func findTokenOccurrences(line, token string) []int {
	if token == "" {
		return nil
	}
	var cols []int
	for i := 0; i+len(token) <= len(line); i++ {
		if line[i:i+len(token)] != token {
			continue
		}
		if i > 0 && isTokenChar(line[i-1]) {
			continue
		}
		right := i + len(token)
		if right < len(line) && isTokenChar(line[right]) {
			continue
		}
		cols = append(cols, i)
	}
	return cols
}

// SemanticToken is one classified span within a document.
type SemanticToken struct {
	Line, Column, Length int
	Type                 string
}

// SemanticTokenTypes is the fixed token-type legend.
var SemanticTokenTypes = []string{
	"function", "macro", "variable", "keyword", "string", "number", "operator", "register",
}

// SemanticTokens classifies every recognizable span in doc, in ascending
// (line, column) order.
func (s *Server) SemanticTokens(doc *Document) []SemanticToken {
	var tokens []SemanticToken
	for lineNo, line := range strings.Split(doc.Text, "\n") {
		tokens = append(tokens, classifyLine(line, lineNo)...)
	}
	return tokens
}

func classifyLine(line string, lineNo int) []SemanticToken {
	var out []SemanticToken
	i := 0
	for i < len(line) {
		c := line[i]
		switch {
		case c == '"':
			j := i + 1
			for j < len(line) {
				if line[j] == '\\' {
					j += 2
					continue
				}
				if line[j] == '"' {
					j++
					break
				}
				j++
			}
			out = append(out, SemanticToken{Line: lineNo, Column: i, Length: j - i, Type: "string"})
			i = j
		case c == '$' || c == '%' || (c >= '0' && c <= '9'):
			j := i + 1
			for j < len(line) && isHexOrIdentChar(line[j]) {
				j++
			}
			out = append(out, SemanticToken{Line: lineNo, Column: i, Length: j - i, Type: "number"})
			i = j
		case isTokenChar(c):
			j := i
			for j < len(line) && isTokenChar(line[j]) {
				j++
			}
			out = append(out, SemanticToken{Line: lineNo, Column: i, Length: j - i, Type: classifyWord(line[i:j])})
			i = j
		default:
			i++
		}
	}
	return out
}

func isHexOrIdentChar(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') || c == '_'
}

func classifyWord(word string) string {
	upper := strings.ToUpper(word)
	for op := 0; op < 256; op++ {
		if opcode.Mnemonic(byte(op)) == upper {
			return "keyword"
		}
	}
	switch upper {
	case "A", "X", "Y", "S", "P", "D", "DB", "PB":
		return "register"
	}
	if strings.HasPrefix(word, "!") {
		return "variable"
	}
	return "function"
}

// InlayHint is one inline annotation appended after a position.
type InlayHint struct {
	Line, Column int
	Text         string
}

// InlayHints produces two hint kinds: a "$HEX ... :label" suffix after
// any hex literal resolvable via address_to_label_map, and "param:"
// prefixes at a macro call's argument boundaries.
func (s *Server) InlayHints(doc *Document) []InlayHint {
	var hints []InlayHint
	for lineNo, line := range strings.Split(doc.Text, "\n") {
		hints = append(hints, s.hexLabelHints(line, lineNo)...)
		hints = append(hints, s.macroParamHints(line, lineNo)...)
	}
	return hints
}

func (s *Server) hexLabelHints(line string, lineNo int) []InlayHint {
	var hints []InlayHint
	for i := 0; i < len(line); i++ {
		if line[i] != '$' {
			continue
		}
		j := i + 1
		for j < len(line) && isHexOrIdentChar(line[j]) {
			j++
		}
		if n, err := strconv.ParseUint(line[i+1:j], 16, 32); err == nil {
			if label, ok := s.AddressToLabel[address.Address(n)]; ok {
				hints = append(hints, InlayHint{Line: lineNo, Column: j, Text: " :" + label})
			}
		}
		i = j
	}
	return hints
}

// macroParamHints finds macro-invocation-shaped calls ("Name(a, b)") and
// proposes "param:" labels from the matching macro's captured parameter
// list.
func (s *Server) macroParamHints(line string, lineNo int) []InlayHint {
	open := strings.IndexByte(line, '(')
	if open < 0 {
		return nil
	}
	name, start, _ := tokenAt(line, open)
	_ = start
	if name == "" {
		return nil
	}

	var params []string
	for _, doc := range s.Documents {
		for _, sym := range doc.Symbols {
			if sym.Name == name && len(sym.Parameters) > 0 {
				params = sym.Parameters
				break
			}
		}
	}
	if len(params) == 0 {
		return nil
	}

	argStarts := splitBalancedArgs(line, open)
	var hints []InlayHint
	for i, col := range argStarts {
		if i >= len(params) {
			break
		}
		hints = append(hints, InlayHint{Line: lineNo, Column: col, Text: params[i] + ":"})
	}
	return hints
}

// splitBalancedArgs returns the column just after '(' and after each
// top-level ',' inside the parenthesized call starting at openParen,
// respecting nested parens and quoted strings.
func splitBalancedArgs(line string, openParen int) []int {
	starts := []int{openParen + 1}
	depth := 1
	inString := false
	for i := openParen + 1; i < len(line) && depth > 0; i++ {
		c := line[i]
		switch {
		case c == '\\' && inString:
			i++
		case c == '"':
			inString = !inString
		case inString:
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == ',' && depth == 1:
			starts = append(starts, i+1)
		}
	}
	return starts
}

// SignatureHelp is the macro-call signature shown while the cursor sits
// inside its parentheses.
type SignatureHelp struct {
	Label           string
	Parameters      []string
	ActiveParameter int
}

// SignatureHelp returns the macro signature active at pos, or ok=false if
// the cursor isn't inside a recognized macro call.
func (s *Server) SignatureHelp(doc *Document, pos Position) (SignatureHelp, bool) {
	line := lineAt(doc.Text, pos.Line)
	open := strings.LastIndexByte(line[:min(pos.Column, len(line))], '(')
	if open < 0 {
		return SignatureHelp{}, false
	}
	name, _, _ := tokenAt(line, open)
	if name == "" {
		return SignatureHelp{}, false
	}

	var params []string
	for _, d := range s.Documents {
		for _, sym := range d.Symbols {
			if sym.Name == name && sym.Kind == sourceparser.KindMacro {
				params = sym.Parameters
			}
		}
	}
	if params == nil {
		return SignatureHelp{}, false
	}

	active := 0
	for i := open + 1; i < pos.Column && i < len(line); i++ {
		if line[i] == ',' {
			active++
		}
	}

	return SignatureHelp{
		Label:           name + "(" + strings.Join(params, ", ") + ")",
		Parameters:      params,
		ActiveParameter: active,
	}, true
}

// GetBankUsage implements the "z3dk.getBankUsage" workspace command: the
// deduplicated written blocks across every open document's latest
// analysis.
func (s *Server) GetBankUsage(result *sourcemap.AssembleResult) []sourcemap.WrittenBlock {
	seen := make(map[sourcemap.WrittenBlock]bool)
	var out []sourcemap.WrittenBlock
	for _, b := range result.WrittenBlocks {
		if seen[b] {
			continue
		}
		seen[b] = true
		out = append(out, b)
	}
	return out
}
