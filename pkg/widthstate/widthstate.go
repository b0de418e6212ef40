// Package widthstate tracks the 65816's variable M/X processor flag widths
// across a linear instruction stream, shared by the disassembler and the
// analysis engine so both tools infer operand sizes the same way.
package widthstate

// Width is 1 for an 8-bit register/operand, 2 for 16-bit.
type Width int

const (
	Width8  Width = 1
	Width16 Width = 2
)

// REP/SEP mask bits for the M and X flags.
const (
	MaskM = 0x20
	MaskX = 0x10
)

// State is the current M/X width knowledge. MKnown/XKnown track whether the
// corresponding width is certain (false after PLP/RTI, or at stream start if
// the engine default is advisory only).
type State struct {
	MWidth  Width
	XWidth  Width
	MKnown  bool
	XKnown  bool
}

// New builds a State from configured default widths, marked known.
func New(defaultM, defaultX Width) State {
	return State{MWidth: defaultM, XWidth: defaultX, MKnown: true, XKnown: true}
}

// Resolved returns the widths to use for sizing when the caller wants
// unknown widths replaced by a configured default: an unknown width still
// sizes off the default but warns if configured to. Unknown-ness never
// propagates past this call.
//
// The disassembler instead reads MWidth/XWidth directly: PLPOrRTI never
// changes the stored width, only the Known flags, so the raw fields
// already carry "fall back to the previous known value" without needing
// a configured default at all.
func (s State) Resolved(defaultM, defaultX Width) (m, x Width) {
	m, x = s.MWidth, s.XWidth
	if !s.MKnown {
		m = defaultM
	}
	if !s.XKnown {
		x = defaultX
	}
	return m, x
}

// REP applies a REP #mask instruction: each set bit among {M, X} clears the
// corresponding width to 16-bit, and marks it known.
func (s State) REP(mask byte) State {
	if mask&MaskM != 0 {
		s.MWidth, s.MKnown = Width16, true
	}
	if mask&MaskX != 0 {
		s.XWidth, s.XKnown = Width16, true
	}
	return s
}

// SEP applies a SEP #mask instruction: each set bit among {M, X} sets the
// corresponding width to 8-bit, and marks it known.
func (s State) SEP(mask byte) State {
	if mask&MaskM != 0 {
		s.MWidth, s.MKnown = Width8, true
	}
	if mask&MaskX != 0 {
		s.XWidth, s.XKnown = Width8, true
	}
	return s
}

// XCE resets both widths to 8-bit and marks both known (native/emulation
// swap forces 8-bit index registers on the 65816).
func (s State) XCE() State {
	s.MWidth, s.XWidth = Width8, Width8
	s.MKnown, s.XKnown = true, true
	return s
}

// PLPOrRTI marks both widths unknown; callers fall back to a default for
// sizing (see Resolved) but should flag the uncertainty if warnings are on.
func (s State) PLPOrRTI() State {
	s.MKnown, s.XKnown = false, false
	return s
}
