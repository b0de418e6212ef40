package disasm

import (
	"fmt"
	"strings"

	"github.com/z3dk/z3dk/pkg/address"
	"github.com/z3dk/z3dk/pkg/hooks"
	"github.com/z3dk/z3dk/pkg/opcode"
	"github.com/z3dk/z3dk/pkg/symbols"
	"github.com/z3dk/z3dk/pkg/widthstate"
)

// formatOperand renders the operand text (without the leading mnemonic or
// separating space) for one instruction.
func formatOperand(mode opcode.AddressingMode, snes address.Address, operandSize int, operand []byte, mWidth, xWidth widthstate.Width, labels *symbols.Index) string {
	switch mode {
	case opcode.Implied, opcode.Accumulator:
		return ""
	case opcode.Immediate8:
		return fmt.Sprintf("#$%02X", operand[0])
	case opcode.Immediate16:
		return fmt.Sprintf("#$%04X", le16(operand))
	case opcode.ImmediateM:
		return formatImmediateWidth(operand, mWidth)
	case opcode.ImmediateX:
		return formatImmediateWidth(operand, xWidth)
	case opcode.Relative8:
		return formatRelative(snes, operandSize, int(int8(operand[0])), labels)
	case opcode.Relative16:
		return formatRelative(snes, operandSize, int(int16(le16(operand))), labels)
	case opcode.DirectPage:
		return fmt.Sprintf("$%02X", operand[0])
	case opcode.DirectPageIndexedX:
		return fmt.Sprintf("$%02X,X", operand[0])
	case opcode.DirectPageIndexedY:
		return fmt.Sprintf("$%02X,Y", operand[0])
	case opcode.DirectPageIndirect:
		return fmt.Sprintf("($%02X)", operand[0])
	case opcode.DirectPageIndirectLong:
		return fmt.Sprintf("[$%02X]", operand[0])
	case opcode.DirectPageIndexedIndirectX:
		return fmt.Sprintf("($%02X,X)", operand[0])
	case opcode.DirectPageIndirectIndexedY:
		return fmt.Sprintf("($%02X),Y", operand[0])
	case opcode.DirectPageIndirectLongIndexedY:
		return fmt.Sprintf("[$%02X],Y", operand[0])
	case opcode.StackRelative:
		return fmt.Sprintf("$%02X,S", operand[0])
	case opcode.StackRelativeIndirectIndexedY:
		return fmt.Sprintf("($%02X,S),Y", operand[0])
	case opcode.Absolute:
		return formatAbsolute(snes, operand, labels, "")
	case opcode.AbsoluteIndexedX:
		return formatAbsolute(snes, operand, labels, ",X")
	case opcode.AbsoluteIndexedY:
		return formatAbsolute(snes, operand, labels, ",Y")
	case opcode.AbsoluteIndirect:
		return fmt.Sprintf("($%04X)", le16(operand))
	case opcode.AbsoluteIndirectLong:
		return fmt.Sprintf("[$%04X]", le16(operand))
	case opcode.AbsoluteIndexedIndirect:
		return fmt.Sprintf("($%04X,X)", le16(operand))
	case opcode.AbsoluteLong:
		return formatAbsoluteLong(operand, labels, "")
	case opcode.AbsoluteLongIndexedX:
		return formatAbsoluteLong(operand, labels, ",X")
	case opcode.BlockMove:
		return fmt.Sprintf("$%02X,$%02X", operand[0], operand[1])
	default:
		return ""
	}
}

func le16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

func formatImmediateWidth(operand []byte, width widthstate.Width) string {
	if width == widthstate.Width16 {
		return fmt.Sprintf("#$%04X", le16(operand))
	}
	return fmt.Sprintf("#$%02X", operand[0])
}

// formatRelative computes the branch target and substitutes a registered
// label name when one resolves (mirror-aware).
func formatRelative(snes address.Address, operandSize, signedOffset int, labels *symbols.Index) string {
	bank := uint32(snes) & 0xFF0000
	target16 := (uint32(int(snes.Offset()) + 1 + operandSize + signedOffset)) & 0xFFFF
	target := address.Address(bank | target16)
	if labels != nil {
		if name, ok := labels.First(target); ok {
			return name
		}
	}
	return target.String()
}

// formatAbsolute resolves a 2-byte absolute operand: same-bank first, then
// the $7E/$7F WRAM mirrors, falling back to the raw 16-bit hex value.
func formatAbsolute(snes address.Address, operand []byte, labels *symbols.Index, suffix string) string {
	value := le16(operand)
	bank := uint32(snes) & 0xFF0000
	if labels != nil {
		if name, ok := labels.First(address.Address(bank | uint32(value))); ok {
			return name + suffix
		}
		if name, ok := labels.First(address.Address(0x7E0000 | uint32(value))); ok {
			return name + suffix
		}
		if name, ok := labels.First(address.Address(0x7F0000 | uint32(value))); ok {
			return name + suffix
		}
	}
	return fmt.Sprintf("$%04X%s", value, suffix)
}

// formatAbsoluteLong resolves a 3-byte long operand via direct lookup only.
func formatAbsoluteLong(operand []byte, labels *symbols.Index, suffix string) string {
	value := uint32(operand[0]) | uint32(operand[1])<<8 | uint32(operand[2])<<16
	if labels != nil {
		if name, ok := labels.First(address.Address(value)); ok {
			return name + suffix
		}
	}
	return fmt.Sprintf("$%06X%s", value, suffix)
}

// formatInstructionLine renders "  MNEMONIC operand" (no trailing newline),
// omitting the operand separator for zero-operand instructions.
func formatInstructionLine(mnemonic, operand string) string {
	if operand == "" {
		return "  " + mnemonic
	}
	return "  " + mnemonic + " " + operand
}

// formatHookComment renders one hook entry as a trailing "; HOOK ..." comment.
func formatHookComment(h *hooks.Entry) string {
	var b strings.Builder
	b.WriteString("; HOOK")
	if h.Name != "" {
		b.WriteString(" " + h.Name)
	}
	if h.Kind != "" {
		b.WriteString(" [" + h.Kind + "]")
	}
	if h.Target != "" {
		b.WriteString(" -> " + h.Target)
	}
	if h.Source != "" {
		b.WriteString(" (" + h.Source + ")")
	}
	if h.Module != "" {
		b.WriteString(" module=" + h.Module)
	}
	if h.AbiClass != "" {
		b.WriteString(" abi=" + h.AbiClass)
	}
	if h.ExpectedM != 0 {
		b.WriteString(fmt.Sprintf(" m=%d", h.ExpectedM))
	}
	if h.ExpectedX != 0 {
		b.WriteString(fmt.Sprintf(" x=%d", h.ExpectedX))
	}
	if h.SkipAbi {
		b.WriteString(" skip_abi")
	}
	if h.Size != 0 {
		b.WriteString(fmt.Sprintf(" size=%d", h.Size))
	}
	if h.Note != "" {
		b.WriteString(" ; " + h.Note)
	}
	return b.String()
}
