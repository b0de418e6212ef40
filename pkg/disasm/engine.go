// Package disasm is the disassembly engine: a bank-by-bank linear decoder
// that reconstructs re-assemblable 65816 source from raw ROM bytes,
// inferring M/X processor widths and annotating output with registered
// labels and hooks as it goes.
package disasm

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/z3dk/z3dk/pkg/address"
	"github.com/z3dk/z3dk/pkg/hooks"
	"github.com/z3dk/z3dk/pkg/opcode"
	"github.com/z3dk/z3dk/pkg/symbols"
	"github.com/z3dk/z3dk/pkg/widthstate"
	"github.com/z3dk/z3dk/pkg/zerr"
)

// Options configures one disassembly run. Only LoROM mapping is supported.
type Options struct {
	ROM          []byte
	Labels       *symbols.Index // may be nil
	Hooks        *hooks.Manifest // may be nil
	BankStart    int
	BankEnd      int // exclusive
	DefaultM     widthstate.Width
	DefaultX     widthstate.Width
	OutDir       string
}

// Engine runs a disassembly per Options.
type Engine struct {
	opts Options
	rom  []byte
}

// New builds an Engine. The ROM's copier header, if present, is stripped.
func New(opts Options) *Engine {
	rom := address.StripHeader(opts.ROM)
	return &Engine{opts: opts, rom: rom}
}

// BankResult is one bank's disassembled text plus its output path.
type BankResult struct {
	Bank int
	Path string
	Text string
}

// Run disassembles every configured bank, writing "bank_XX.asm" files to
// OutDir (if non-empty) and returning the text of each.
func (e *Engine) Run() ([]BankResult, error) {
	var results []BankResult
	for bank := e.opts.BankStart; bank < e.opts.BankEnd; bank++ {
		text := e.disassembleBank(bank)
		name := fmt.Sprintf("bank_%02x.asm", bank)
		res := BankResult{Bank: bank, Path: name, Text: text}
		if e.opts.OutDir != "" {
			full := filepath.Join(e.opts.OutDir, name)
			if err := os.WriteFile(full, []byte(text), 0o644); err != nil {
				return nil, &zerr.IoError{Path: full, Err: err}
			}
			res.Path = full
		}
		results = append(results, res)
	}
	return results, nil
}

// disassembleBank implements the decoder loop for a single bank.
func (e *Engine) disassembleBank(bank int) string {
	var out strings.Builder
	fmt.Fprintf(&out, "; bank %02X\n", bank)

	bankStart := address.BankStartLoROM(uint8(bank))
	fmt.Fprintf(&out, "org $%06X\n\n", uint32(bankStart))

	state := widthstate.New(e.opts.DefaultM, e.opts.DefaultX)

	pc := bank * 0x8000
	end := pc + 0x8000
	if end > len(e.rom) {
		end = len(e.rom)
	}

	for pc < end {
		snes := address.PCToSNESLoROM(pc)

		e.emitLabels(&out, snes)
		e.emitHooks(&out, snes)

		op := e.rom[pc]
		mode := opcode.Mode(op)
		operandSize := opcode.OperandSize(mode, int(state.MWidth), int(state.XWidth))

		if pc+1+operandSize > end {
			fmt.Fprintf(&out, "  db $%02X\n", e.rom[pc])
			pc++
			continue
		}

		operand := e.rom[pc+1 : pc+1+operandSize]
		mnemonic := opcode.Mnemonic(op)
		operandText := formatOperand(mode, snes, operandSize, operand, state.MWidth, state.XWidth, e.opts.Labels)
		out.WriteString(formatInstructionLine(mnemonic, operandText))
		out.WriteString("\n")

		state = applyFlagInference(state, mnemonic, operand)

		pc += 1 + operandSize
	}

	return out.String()
}

// applyFlagInference updates widthstate after emitting one instruction.
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

// emitLabels writes any labels registered at snes (mirror-aware), each as
// "name:\n".
func (e *Engine) emitLabels(out *strings.Builder, snes address.Address) {
	if e.opts.Labels == nil {
		return
	}
	names, ok := e.opts.Labels.Lookup(snes)
	if !ok {
		return
	}
	for _, name := range names {
		out.WriteString(name)
		out.WriteString(":\n")
	}
}

// emitHooks writes a "; HOOK ..." comment line for every hook at snes.
func (e *Engine) emitHooks(out *strings.Builder, snes address.Address) {
	if e.opts.Hooks == nil {
		return
	}
	entries, ok := e.opts.Hooks.At(snes)
	if !ok {
		return
	}
	for _, h := range entries {
		out.WriteString(formatHookComment(h))
		out.WriteString("\n")
	}
}
