package disasm

import (
	"strings"
	"testing"

	"github.com/z3dk/z3dk/pkg/address"
	"github.com/z3dk/z3dk/pkg/symbols"
	"github.com/z3dk/z3dk/pkg/widthstate"
)

func runBank0(t *testing.T, rom []byte, labels *symbols.Index) string {
	t.Helper()
	e := New(Options{
		ROM:       rom,
		Labels:    labels,
		BankStart: 0,
		BankEnd:   1,
		DefaultM:  widthstate.Width8,
		DefaultX:  widthstate.Width8,
	})
	results, err := e.Run()
	if err != nil {
		t.Fatal(err)
	}
	return results[0].Text
}

// Flag inference: SEP/REP switch the operand width of subsequent LDA
// immediates.
func TestFlagInferenceScenario(t *testing.T) {
	rom := make([]byte, 0x8000)
	copy(rom, []byte{0xE2, 0x30, 0xA9, 0x01, 0xC2, 0x30, 0xA9, 0x00, 0x00})
	text := runBank0(t, rom, nil)

	wantLines := []string{
		"  SEP #$30",
		"  LDA #$01",
		"  REP #$30",
		"  LDA #$0000",
	}
	for _, want := range wantLines {
		if !strings.Contains(text, want) {
			t.Fatalf("expected line %q in:\n%s", want, text)
		}
	}
}

// Label substitution on a branch target.
func TestLabelSubstitutionOnBranch(t *testing.T) {
	rom := make([]byte, 0x8000)
	copy(rom, []byte{0x10, 0x05}) // BPL +5, from $008000 -> target $008007
	labels := symbols.NewIndex()
	labels.AddLabel(address.New(0x00, 0x8007), "End")

	text := runBank0(t, rom, labels)
	if !strings.Contains(text, "  BPL End") {
		t.Fatalf("expected branch to resolve to label, got:\n%s", text)
	}
}

// Mirror lookup on an absolute operand.
func TestMirrorLookupOnAbsolute(t *testing.T) {
	rom := make([]byte, 0x8000)
	copy(rom, []byte{0xAD, 0x10, 0x00}) // LDA $0010
	labels := symbols.NewIndex()
	labels.AddLabel(address.Address(0x7E0010), "label_name")

	text := runBank0(t, rom, labels)
	if !strings.Contains(text, "  LDA label_name") {
		t.Fatalf("expected WRAM-mirror resolution, got:\n%s", text)
	}
}

// Bank-end truncation when an operand's bytes run past the bank boundary.
func TestBankEndTruncation(t *testing.T) {
	rom := make([]byte, 0x8000)
	rom[0x7FFF] = 0xAD // LDA absolute, needs 2 operand bytes, none remain
	e := New(Options{
		ROM: rom, BankStart: 0, BankEnd: 1,
		DefaultM: widthstate.Width8, DefaultX: widthstate.Width8,
	})
	results, err := e.Run()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(strings.TrimRight(results[0].Text, "\n"), "db $AD") {
		t.Fatalf("expected trailing db $AD, got:\n%s", results[0].Text)
	}
}

func TestOutputHeader(t *testing.T) {
	rom := make([]byte, 0x8000)
	text := runBank0(t, rom, nil)
	if !strings.HasPrefix(text, "; bank 00\norg $008000\n\n") {
		t.Fatalf("unexpected header:\n%s", text)
	}
}

func TestBlockMoveSizeTwoRegardlessOfWidth(t *testing.T) {
	rom := make([]byte, 0x8000)
	copy(rom, []byte{0x54, 0x01, 0x02}) // MVN 01,02
	text := runBank0(t, rom, nil)
	if !strings.Contains(text, "  MVN $01,$02") {
		t.Fatalf("expected MVN operand, got:\n%s", text)
	}
}
