package lsp

import (
	"strings"
	"time"

	"github.com/z3dk/z3dk/pkg/address"
	"github.com/z3dk/z3dk/pkg/graph"
	"github.com/z3dk/z3dk/pkg/hooks"
	"github.com/z3dk/z3dk/pkg/lint"
	"github.com/z3dk/z3dk/pkg/sourcemap"
	"github.com/z3dk/z3dk/pkg/sourceparser"
	"github.com/z3dk/z3dk/pkg/widthstate"
	"github.com/z3dk/z3dk/pkg/workspace"
)

// LifecycleState tracks the LSP's own state machine, independent of any
// one document's state.
type LifecycleState int

const (
	Uninitialized LifecycleState = iota
	Initialized
	ShuttingDown
	Exited
)

// DebounceWindow is the idle period after the newest change before a full
// re-analysis pass runs.
const DebounceWindow = 500 * time.Millisecond

// Server owns every piece of mutable LSP state; only the message pump
// (ProcessTick / handlers) may touch it.
type Server struct {
	State LifecycleState

	Documents map[string]*Document
	Graph     *graph.ProjectGraph
	Config    *workspace.Config
	Knowledge *workspace.KnowledgeBase
	Emulator  *workspace.EmulatorLink
	Assembler sourcemap.Assembler
	Hooks     *hooks.Manifest

	// LastResult is the most recent assembly result from any document's
	// analysis pass, kept around so capability handlers invoked between
	// Tick calls (Definition, GetBankUsage) have something to read.
	LastResult *sourcemap.AssembleResult

	WorkspaceSymbolNames map[string]bool

	LabelMap       map[string]sourcemap.Label
	DefineMap      map[string]sourcemap.Define
	AddressToLabel map[address.Address]string
}

// NewServer builds an uninitialized Server.
func NewServer() *Server {
	return &Server{
		State:                Uninitialized,
		Documents:            make(map[string]*Document),
		Graph:                graph.New(),
		Knowledge:            workspace.NewKnowledgeBase(),
		WorkspaceSymbolNames: make(map[string]bool),
		LabelMap:             make(map[string]sourcemap.Label),
		DefineMap:            make(map[string]sourcemap.Define),
		AddressToLabel:       make(map[address.Address]string),
	}
}

// Initialize transitions Uninitialized -> Initialized; any other starting
// state is a protocol error per the lifecycle rules.
func (s *Server) Initialize() error {
	if s.State != Uninitialized {
		return errLifecycle("initialize", s.State)
	}
	s.State = Initialized
	return nil
}

// Shutdown transitions Initialized -> ShuttingDown.
func (s *Server) Shutdown() error {
	if s.State != Initialized {
		return errLifecycle("shutdown", s.State)
	}
	s.State = ShuttingDown
	return nil
}

// Exit reports whether this is a clean exit (only true from ShuttingDown)
// and always moves to Exited.
func (s *Server) Exit() (clean bool) {
	clean = s.State == ShuttingDown
	s.State = Exited
	return clean
}

// DidOpen creates a document's state and runs its first full analysis
// immediately (not debounced - opening a file should show diagnostics
// right away).
func (s *Server) DidOpen(uri, text string, version int) {
	doc := &Document{URI: uri, Text: text, Version: version, LastChange: time.Now()}
	doc.fastReparse()
	s.Documents[uri] = doc
	s.registerIncludes(doc)
	s.analyzeDocument(doc)
}

// DidChange replaces a document's text, runs the fast reparse, marks it
// (and its include-graph root) for re-analysis, and records the change
// time - restarting the debounce window.
func (s *Server) DidChange(uri, text string, version int) {
	doc, ok := s.Documents[uri]
	if !ok {
		doc = &Document{URI: uri}
		s.Documents[uri] = doc
	}
	doc.Text = text
	doc.Version = version
	doc.LastChange = time.Now()
	doc.fastReparse()
	doc.NeedsAnalysis = true
	s.registerIncludes(doc)

	root := s.Graph.SelectRoot(uri, s.preferredRoots())
	if rootDoc, ok := s.Documents[root]; ok {
		rootDoc.NeedsAnalysis = true
	}
}

// DidClose publishes empty diagnostics (the caller is responsible for the
// actual publish call) and drops the document's state.
func (s *Server) DidClose(uri string) {
	delete(s.Documents, uri)
}

func (s *Server) registerIncludes(doc *Document) {
	for _, inc := range doc.Includes {
		s.Graph.RegisterDependency(doc.URI, inc.RawPath)
	}
}

func (s *Server) preferredRoots() map[string]bool {
	m := make(map[string]bool, len(s.mainCandidates()))
	for _, name := range s.mainCandidates() {
		m[name] = true
	}
	return m
}

func (s *Server) mainCandidates() []string {
	if s.Config == nil {
		return nil
	}
	return s.Config.Main
}

// Tick runs the debounce scheduler: if the newest LastChange across all
// open documents is older than DebounceWindow, every document with
// NeedsAnalysis is re-analyzed. This is the only place full analysis runs.
func (s *Server) Tick(now time.Time) {
	newest := s.newestChange()
	if newest.IsZero() || now.Sub(newest) < DebounceWindow {
		return
	}
	for _, doc := range s.snapshotDocuments() {
		if doc.NeedsAnalysis {
			s.analyzeDocument(doc)
		}
	}
}

func (s *Server) newestChange() time.Time {
	var newest time.Time
	for _, doc := range s.Documents {
		if doc.LastChange.After(newest) {
			newest = doc.LastChange
		}
	}
	return newest
}

// snapshotDocuments returns a stable slice of the currently open
// documents, so re-analysis is not affected by concurrent modification of
// the map it iterates (the pump is single-threaded, but the snapshot also
// documents the idempotence requirement).
func (s *Server) snapshotDocuments() []*Document {
	docs := make([]*Document, 0, len(s.Documents))
	for _, d := range s.Documents {
		docs = append(docs, d)
	}
	return docs
}

// analyzeDocument runs the full analysis pipeline for doc.
func (s *Server) analyzeDocument(doc *Document) {
	root := s.Graph.SelectRoot(doc.URI, s.preferredRoots())

	var result *sourcemap.AssembleResult
	if s.Assembler != nil {
		opts := s.assembleOptionsFor(root)
		res, err := s.Assembler.Assemble(opts)
		if err == nil {
			result = res
		}
	}
	if result == nil {
		result = &sourcemap.AssembleResult{}
	}

	diags := append([]sourcemap.Diagnostic(nil), result.Diagnostics...)
	diags = append(diags, lint.Run(result, s.lintOptions(result))...)

	diags = filterByDocument(result, diags, doc.URI)
	diags = s.suppressMissingLabel(diags, doc)
	diags = s.suppressMissingOrg(diags, doc, root)

	doc.Diagnostics = diags
	doc.NeedsAnalysis = false

	s.rebuildMaps(result)
	s.LastResult = result
}

// assembleOptionsFor builds the assembler collaborator's options for an
// entry point, overlaying every open document's in-memory text so unsaved
// edits are reflected.
func (s *Server) assembleOptionsFor(entryURI string) sourcemap.AssembleOptions {
	opts := sourcemap.AssembleOptions{PatchPath: entryURI}
	if s.Config != nil {
		opts.IncludePaths = s.Config.IncludePaths
		opts.Defines = s.Config.Defines
		opts.StdIncludesPath = s.Config.StdIncludes
		opts.StdDefinesPath = s.Config.StdDefines
	}
	for uri, doc := range s.Documents {
		opts.MemoryFiles = append(opts.MemoryFiles, sourcemap.MemoryFile{Path: uri, Contents: doc.Text})
	}
	return opts
}

// lintOptions builds the analysis engine's options from the workspace
// configuration (defaulting every toggle on when no config was loaded, to
// match the CLI's own defaults) plus whatever hook manifest and per-line
// "; assume" overrides are currently known.
func (s *Server) lintOptions(result *sourcemap.AssembleResult) lint.Options {
	opts := lint.Options{
		DefaultM:              widthstate.Width8,
		DefaultX:              widthstate.Width8,
		CheckORGCollisions:    true,
		WarnUnknownWidth:      true,
		WarnBranchOutsideBank: true,
		WarnUnauthorizedHook:  true,
		CheckMemoryProtection: true,
		WarnUnusedSymbols:     true,
	}

	if s.Config != nil {
		opts.CheckORGCollisions = s.Config.WarnOrgCollision
		opts.WarnUnknownWidth = s.Config.WarnUnknownWidth
		opts.WarnBranchOutsideBank = s.Config.WarnBranchOutsideBank
		opts.WarnUnauthorizedHook = s.Config.WarnUnauthorizedHook
		opts.WarnUnusedSymbols = s.Config.WarnUnusedSymbols
		opts.MemoryRanges = s.Config.ProhibitedMemoryRanges
		opts.CheckMemoryProtection = len(opts.MemoryRanges) > 0
	}

	if s.Hooks != nil {
		known := make(map[address.Address]bool)
		for _, addr := range s.Hooks.Addresses() {
			known[addr] = true
		}
		opts.KnownHooks = known
	} else {
		opts.WarnUnauthorizedHook = false
	}

	opts.StateOverrides = s.stateOverrides(result)
	return opts
}

// stateOverrides extracts every "; assume m:8 x:16" comment from each open
// document's text, resolving the comment's line to an address via result's
// SourceMap.
func (s *Server) stateOverrides(result *sourcemap.AssembleResult) []lint.StateOverride {
	var overrides []lint.StateOverride
	for uri, doc := range s.Documents {
		file, ok := result.SourceMap.FileByPath(uri)
		if !ok {
			continue
		}
		lineToAddress := func(line int) (address.Address, bool) {
			return result.SourceMap.AddressForLine(file.ID, line)
		}
		overrides = append(overrides, lint.ExtractStateOverrides(doc.Text, lineToAddress)...)
	}
	return overrides
}

// filterByDocument keeps only diagnostics whose source refers to uri.
func filterByDocument(result *sourcemap.AssembleResult, diags []sourcemap.Diagnostic, uri string) []sourcemap.Diagnostic {
	var out []sourcemap.Diagnostic
	for _, d := range diags {
		if d.Filename == "" || d.Filename == uri {
			out = append(out, d)
			continue
		}
		if file, ok := result.SourceMap.FileByPath(uri); ok && d.Filename == file.Path {
			out = append(out, d)
		}
	}
	return out
}

// suppressMissingLabel drops "Label 'X' wasn't found" diagnostics when X
// (with or without a leading "Oracle_", or the suffix after the first
// '_') resolves against either the workspace symbol set or doc's own
// symbols.
func (s *Server) suppressMissingLabel(diags []sourcemap.Diagnostic, doc *Document) []sourcemap.Diagnostic {
	docNames := make(map[string]bool, len(doc.Symbols))
	for _, sym := range doc.Symbols {
		docNames[sym.Name] = true
	}

	var out []sourcemap.Diagnostic
	for _, d := range diags {
		label, ok := extractMissingLabel(d.Message)
		if !ok {
			out = append(out, d)
			continue
		}
		if s.labelKnown(label, docNames) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func (s *Server) labelKnown(label string, docNames map[string]bool) bool {
	candidates := []string{label}
	if strings.HasPrefix(label, "Oracle_") {
		candidates = append(candidates, strings.TrimPrefix(label, "Oracle_"))
	} else {
		candidates = append(candidates, "Oracle_"+label)
	}
	if idx := strings.Index(label, "_"); idx >= 0 {
		candidates = append(candidates, label[idx+1:])
	}
	for _, c := range candidates {
		if s.WorkspaceSymbolNames[c] || docNames[c] {
			return true
		}
	}
	return false
}

// extractMissingLabel recognizes a "Label 'X' wasn't found" diagnostic
// message and returns X.
func extractMissingLabel(message string) (string, bool) {
	const prefix = "Label '"
	const suffix = "' wasn't found"
	if !strings.HasPrefix(message, prefix) || !strings.HasSuffix(message, suffix) {
		return "", false
	}
	return message[len(prefix) : len(message)-len(suffix)], true
}

// suppressMissingOrg drops a "Missing org or freespace command" diagnostic
// for doc iff doc itself has no org/freespace but a parent in the project
// graph includes it at a point preceded by one.
func (s *Server) suppressMissingOrg(diags []sourcemap.Diagnostic, doc *Document, root string) []sourcemap.Diagnostic {
	if documentHasOrgOrFreespace(doc.Text) {
		return diags
	}
	if !s.parentPrecedesIncludeWithOrg(doc.URI) {
		return diags
	}

	var out []sourcemap.Diagnostic
	for _, d := range diags {
		if strings.Contains(d.Message, "Missing org or freespace command") {
			continue
		}
		out = append(out, d)
	}
	return out
}

func documentHasOrgOrFreespace(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "org ") || strings.Contains(lower, "freespace")
}

// parentPrecedesIncludeWithOrg checks every known parent of uri for an
// org/freespace directive occurring, in source order, before the
// incsrc/include line that pulls uri in - respecting pushpc/pullpc scope
// is approximated here by a simple line-order check, since a full
// push/pull stack is a known limitation documented separately.
func (s *Server) parentPrecedesIncludeWithOrg(uri string) bool {
	for parentURI, parent := range s.Documents {
		if parentURI == uri {
			continue
		}
		includeLine := -1
		for _, inc := range parent.Includes {
			if inc.RawPath == uri || strings.HasSuffix(uri, inc.RawPath) {
				includeLine = inc.Line
				break
			}
		}
		if includeLine < 0 {
			continue
		}
		if parentHasOrgBefore(parent.Text, includeLine) {
			return true
		}
	}
	return false
}

func parentHasOrgBefore(text string, beforeLine int) bool {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i+1 >= beforeLine {
			break
		}
		lower := strings.ToLower(strings.TrimSpace(line))
		if strings.HasPrefix(lower, "org ") || strings.HasPrefix(lower, "freespace") {
			return true
		}
	}
	return false
}

// rebuildMaps replaces label_map/define_map/address_to_label_map wholesale
// (never mutated in place, per the shared-resource policy).
func (s *Server) rebuildMaps(result *sourcemap.AssembleResult) {
	labelMap := make(map[string]sourcemap.Label, len(result.Labels))
	addrMap := make(map[address.Address]string, len(result.Labels))
	for _, l := range result.Labels {
		labelMap[l.Name] = l
		addr := address.Address(l.Address)
		if _, ok := addrMap[addr]; !ok {
			addrMap[addr] = l.Name
		}
		s.WorkspaceSymbolNames[l.Name] = true
	}
	defineMap := make(map[string]sourcemap.Define, len(result.Defines))
	for _, d := range result.Defines {
		defineMap[d.Name] = d
	}

	s.LabelMap = labelMap
	s.DefineMap = defineMap
	s.AddressToLabel = addrMap
}

type lifecycleError struct {
	op    string
	state LifecycleState
}

func (e *lifecycleError) Error() string {
	return "lsp: " + e.op + " not valid from current lifecycle state"
}

func errLifecycle(op string, state LifecycleState) error {
	return &lifecycleError{op: op, state: state}
}

// ParseSource exposes sourceparser.Parse for callers that only have raw
// text (e.g. tests building a Document without going through DidOpen).
func ParseSource(uri, text string) []sourceparser.SymbolEntry {
	return sourceparser.Parse(uri, text).Symbols
}
