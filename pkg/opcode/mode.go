// Package opcode is the static 256-entry 65816 opcode table: mnemonic and
// addressing mode per byte value, and the operand-size function shared by
// the disassembler, the analysis engine, and LSP semantic-token
// classification.
package opcode

// AddressingMode enumerates every 65816 operand shape.
type AddressingMode int

const (
	Implied AddressingMode = iota
	Accumulator
	Immediate8                     // #$NN - always one byte (e.g. COP, WDM operand, REP/SEP mask)
	Immediate16                    // #$NNNN - always two bytes (e.g. PEA)
	ImmediateM                     // #$NN or #$NNNN, width follows M flag
	ImmediateX                     // #$NN or #$NNNN, width follows X flag
	Relative8                      // branch, signed 8-bit displacement
	Relative16                     // BRL, signed 16-bit displacement
	DirectPage                     // dp
	DirectPageIndexedX             // dp,X
	DirectPageIndexedY             // dp,Y
	DirectPageIndirect             // (dp)
	DirectPageIndirectLong         // [dp]
	DirectPageIndexedIndirectX     // (dp,X)
	DirectPageIndirectIndexedY     // (dp),Y
	DirectPageIndirectLongIndexedY // [dp],Y
	StackRelative                  // sr,S
	StackRelativeIndirectIndexedY  // (sr,S),Y
	Absolute                       // addr
	AbsoluteIndexedX               // addr,X
	AbsoluteIndexedY               // addr,Y
	AbsoluteIndirect               // (addr)
	AbsoluteIndirectLong           // [addr]
	AbsoluteIndexedIndirect        // (addr,X)
	AbsoluteLong                   // long
	AbsoluteLongIndexedX           // long,X
	BlockMove                      // src,dest bank bytes (MVN/MVP)
)

// OperandSize returns the number of operand bytes a mode occupies given the
// current M and X widths (1 = 8-bit, 2 = 16-bit). Only ImmediateM and
// ImmediateX depend on the runtime flags; every other mode is fixed.
func OperandSize(mode AddressingMode, mWidth, xWidth int) int {
	switch mode {
	case Implied, Accumulator:
		return 0
	case Immediate8:
		return 1
	case Immediate16:
		return 2
	case ImmediateM:
		return mWidth
	case ImmediateX:
		return xWidth
	case Relative8:
		return 1
	case Relative16:
		return 2
	case DirectPage, DirectPageIndexedX, DirectPageIndexedY,
		DirectPageIndirect, DirectPageIndirectLong,
		DirectPageIndexedIndirectX, DirectPageIndirectIndexedY,
		DirectPageIndirectLongIndexedY:
		return 1
	case StackRelative, StackRelativeIndirectIndexedY:
		return 1
	case Absolute, AbsoluteIndexedX, AbsoluteIndexedY,
		AbsoluteIndirect, AbsoluteIndirectLong, AbsoluteIndexedIndirect:
		return 2
	case AbsoluteLong, AbsoluteLongIndexedX:
		return 3
	case BlockMove:
		return 2
	default:
		return 0
	}
}
