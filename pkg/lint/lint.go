// Package lint is the analysis engine: it consumes an AssembleResult
// produced by the assembler collaborator and re-runs the same byte-level
// decode the disassembler does, but to emit diagnostics instead of text.
package lint

import (
	"fmt"
	"sort"

	"github.com/z3dk/z3dk/pkg/address"
	"github.com/z3dk/z3dk/pkg/opcode"
	"github.com/z3dk/z3dk/pkg/sourcemap"
	"github.com/z3dk/z3dk/pkg/widthstate"
)

// MemoryRange is a prohibited write span for the memory-protection pass.
type MemoryRange struct {
	Start  address.Address
	End    address.Address
	Reason string
}

// StateOverride pins the M/X widths at a specific address, as extracted
// from an "; assume m:8 x:16" comment.
type StateOverride struct {
	Address address.Address
	MWidth  widthstate.Width
	MSet    bool
	XWidth  widthstate.Width
	XSet    bool
}

// Options configures which passes run and their parameters.
type Options struct {
	DefaultM widthstate.Width
	DefaultX widthstate.Width

	CheckORGCollisions    bool
	WarnUnknownWidth      bool
	WarnBranchOutsideBank bool
	WarnUnauthorizedHook  bool
	CheckMemoryProtection bool
	WarnUnusedSymbols     bool

	KnownHooks     map[address.Address]bool
	MemoryRanges   []MemoryRange
	StateOverrides []StateOverride
}

// Run executes every enabled pass against result and returns the
// accumulated diagnostics, in addition to whatever diagnostics the
// assembler itself reported.
func Run(result *sourcemap.AssembleResult, opts Options) []sourcemap.Diagnostic {
	var diags []sourcemap.Diagnostic

	if opts.CheckORGCollisions {
		diags = append(diags, checkORGCollisions(result)...)
	}

	diags = append(diags, decodeWrittenBlocks(result, opts)...)

	if opts.WarnUnauthorizedHook && opts.KnownHooks != nil {
		diags = append(diags, checkAuthorizedHooks(result, opts)...)
	}

	if opts.CheckMemoryProtection {
		diags = append(diags, checkMemoryProtection(result, opts)...)
	}

	if opts.WarnUnusedSymbols {
		diags = append(diags, checkUnusedSymbols(result)...)
	}

	return diags
}

// checkORGCollisions is pass 1: sort written blocks by start and report an
// error for every overlap between consecutive ranges.
func checkORGCollisions(result *sourcemap.AssembleResult) []sourcemap.Diagnostic {
	blocks := append([]sourcemap.WrittenBlock(nil), result.WrittenBlocks...)
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].SNESOffset < blocks[j].SNESOffset })

	var diags []sourcemap.Diagnostic
	for i := 1; i < len(blocks); i++ {
		if blocks[i-1].Overlaps(blocks[i]) {
			diags = append(diags, locate(result, address.Address(blocks[i].SNESOffset), sourcemap.SeverityError,
				fmt.Sprintf("write at $%06X overlaps previous write ending at $%06X", blocks[i].SNESOffset, blocks[i-1].End())))
		}
	}
	return diags
}

// decodeWrittenBlocks is pass 2+3: for each written block, replay the byte
// stream with the same width-inference the disassembler uses, resetting to
// Options' configured defaults at the start of each block, and emit the
// unknown-width and branch-range warnings.
func decodeWrittenBlocks(result *sourcemap.AssembleResult, opts Options) []sourcemap.Diagnostic {
	var diags []sourcemap.Diagnostic
	overrides := indexOverrides(opts.StateOverrides)

	for _, block := range result.WrittenBlocks {
		state := widthstate.New(opts.DefaultM, opts.DefaultX)
		pc := block.PCOffset
		snes := block.SNESOffset
		end := pc + block.NumBytes

		for pc < end {
			cur := address.Address(snes)
			if ov, ok := overrides[cur]; ok {
				if ov.MSet {
					state.MWidth, state.MKnown = ov.MWidth, true
				}
				if ov.XSet {
					state.XWidth, state.XKnown = ov.XWidth, true
				}
			}

			if pc >= len(result.ROMData) {
				break
			}
			op := result.ROMData[pc]
			mode := opcode.Mode(op)

			mWidth, xWidth := state.Resolved(opts.DefaultM, opts.DefaultX)
			operandSize := opcode.OperandSize(mode, int(mWidth), int(xWidth))

			if pc+1+operandSize > len(result.ROMData) {
				break
			}

			if opts.WarnUnknownWidth {
				if mode == opcode.ImmediateM && !state.MKnown {
					diags = append(diags, locate(result, cur, sourcemap.SeverityWarning,
						"immediate operand width depends on unknown M flag state"))
				}
				if mode == opcode.ImmediateX && !state.XKnown {
					diags = append(diags, locate(result, cur, sourcemap.SeverityWarning,
						"immediate operand width depends on unknown X flag state"))
				}
			}

			operand := result.ROMData[pc+1 : pc+1+operandSize]
			mnemonic := opcode.Mnemonic(op)

			if opts.WarnBranchOutsideBank && mode == opcode.Relative8 && len(operand) == 1 {
				disp := int8(operand[0])
				bankLocal := 0x8000 + int(snes%0x8000)
				target := bankLocal + 2 + int(disp)
				if target < 0x8000 || target > 0xFFFF {
					diags = append(diags, locate(result, cur, sourcemap.SeverityWarning,
						"relative branch target falls outside the current bank"))
				}
			}

			state = applyFlagInference(state, mnemonic, operand)

			pc += 1 + operandSize
			snes += 1 + operandSize
		}
	}
	return diags
}

// applyFlagInference mirrors the disassembler's REP/SEP/XCE transitions,
// with PLP/RTI marking both widths unknown (same PLPOrRTI call - the
// linter and disassembler share the exact semantics, differing only in
// how they later resolve "unknown").
func applyFlagInference(state widthstate.State, mnemonic string, operand []byte) widthstate.State {
	switch mnemonic {
	case "REP":
		if len(operand) >= 1 {
			state = state.REP(operand[0])
		}
	case "SEP":
		if len(operand) >= 1 {
			state = state.SEP(operand[0])
		}
	case "XCE":
		state = state.XCE()
	case "PLP", "RTI":
		state = state.PLPOrRTI()
	}
	return state
}

// checkAuthorizedHooks is pass 4: every written block whose start doesn't
// coincide with a known hook address produces a warning.
func checkAuthorizedHooks(result *sourcemap.AssembleResult, opts Options) []sourcemap.Diagnostic {
	var diags []sourcemap.Diagnostic
	for _, block := range result.WrittenBlocks {
		start := address.Address(block.SNESOffset)
		if !opts.KnownHooks[start] {
			diags = append(diags, locate(result, start, sourcemap.SeverityWarning,
				fmt.Sprintf("write at $%06X does not coincide with an authorized hook", block.SNESOffset)))
		}
	}
	return diags
}

// checkMemoryProtection is pass 5: written spans intersecting any
// configured MemoryRange produce an error.
func checkMemoryProtection(result *sourcemap.AssembleResult, opts Options) []sourcemap.Diagnostic {
	var diags []sourcemap.Diagnostic
	for _, block := range result.WrittenBlocks {
		for _, rng := range opts.MemoryRanges {
			if address.Address(block.SNESOffset) < rng.End && rng.Start < address.Address(block.End()) {
				diags = append(diags, locate(result, address.Address(block.SNESOffset), sourcemap.SeverityError,
					fmt.Sprintf("write at $%06X intersects protected range: %s", block.SNESOffset, rng.Reason)))
			}
		}
	}
	return diags
}

// checkUnusedSymbols is pass 6: every assembler-reported label never
// referenced in the assembled source produces a warning.
func checkUnusedSymbols(result *sourcemap.AssembleResult) []sourcemap.Diagnostic {
	var diags []sourcemap.Diagnostic
	for _, label := range result.Labels {
		if label.Used {
			continue
		}
		diags = append(diags, locate(result, address.Address(label.Address), sourcemap.SeverityWarning,
			fmt.Sprintf("label %q is never referenced", label.Name)))
	}
	return diags
}

// locate builds a Diagnostic placed via FindEntry(source_map, snes); if no
// entry exists, Filename/Line/Column are left zero.
func locate(result *sourcemap.AssembleResult, snes address.Address, sev sourcemap.Severity, message string) sourcemap.Diagnostic {
	d := sourcemap.Diagnostic{Severity: sev, Message: message}
	entry, ok := result.SourceMap.FindEntry(snes)
	if !ok {
		return d
	}
	if file, ok := result.SourceMap.File(entry.FileID); ok {
		d.Filename = file.Path
	}
	d.Line = entry.Line
	d.Column = 1
	return d
}

func indexOverrides(overrides []StateOverride) map[address.Address]StateOverride {
	m := make(map[address.Address]StateOverride, len(overrides))
	for _, o := range overrides {
		m[o.Address] = o
	}
	return m
}
