package symbols

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/z3dk/z3dk/pkg/address"
)

func writeTemp(t *testing.T, name, contents string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadMLBAcceptedTypes(t *testing.T) {
	p := writeTemp(t, "labels.mlb", "; a comment\n"+
		"SnesPrgRom:000000:Start:entry point\n"+
		"SnesWorkRam:0010:Counter\n"+
		"SomeOtherType:000001:Ignored\n"+
		"# also a comment\n")

	idx := NewIndex()
	if err := LoadMLB(idx, p); err != nil {
		t.Fatal(err)
	}
	if _, ok := idx.Lookup(address.New(0x80, 0x8000)); !ok {
		t.Fatalf("expected Start label at PC 0 -> SNES bank-mirror lookup to resolve")
	}
	if names, ok := idx.Lookup(address.Address(0x7E0010)); !ok || names[0] != "Counter" {
		t.Fatalf("expected Counter at $7E0010, got %v ok=%v", names, ok)
	}
	if idx.Len() != 2 {
		t.Fatalf("expected 2 addresses registered (unknown type skipped), got %d", idx.Len())
	}
}

func TestLoadMLBMissingPathIsNotError(t *testing.T) {
	idx := NewIndex()
	if err := LoadMLB(idx, ""); err != nil {
		t.Fatalf("empty path should not be an error: %v", err)
	}
}

func TestLoadMLBUnreadableIsIoError(t *testing.T) {
	idx := NewIndex()
	err := LoadMLB(idx, filepath.Join(t.TempDir(), "does-not-exist.mlb"))
	if err == nil {
		t.Fatal("expected IoError for missing-but-nonempty path")
	}
}

func TestLoadSYMLabelsSection(t *testing.T) {
	p := writeTemp(t, "labels.sym", "[defines]\n"+
		"00:0000 SomeDefine\n"+
		"[labels]\n"+
		"00:8000 Start\n"+
		"80:8000 StartMirror\n")

	idx := NewIndex()
	if err := LoadSYM(idx, p); err != nil {
		t.Fatal(err)
	}
	if idx.Len() != 2 {
		t.Fatalf("expected only [labels] section entries, got %d addrs", idx.Len())
	}
	names, ok := idx.Lookup(address.New(0x00, 0x8000))
	if !ok || len(names) != 1 || names[0] != "Start" {
		t.Fatalf("expected Start at 00:8000, got %v", names)
	}
}

func TestLoadCSVQuotedAndDollarPrefixed(t *testing.T) {
	p := writeTemp(t, "labels.csv", "address,label\n"+
		"\"$008000\",\"Start\"\n"+
		"7E:0010,Counter\n")

	idx := NewIndex()
	if err := LoadCSV(idx, p); err != nil {
		t.Fatal(err)
	}
	if _, ok := idx.Lookup(address.New(0x00, 0x8000)); !ok {
		t.Fatalf("expected $008000 resolved")
	}
	if _, ok := idx.Lookup(address.New(0x7E, 0x0010)); !ok {
		t.Fatalf("expected 7E:0010 resolved")
	}
}

func TestMirrorLookupSymmetric(t *testing.T) {
	idx := NewIndex()
	idx.AddLabel(address.New(0x00, 0x8000), "Start")
	if _, ok := idx.Lookup(address.New(0x80, 0x8000)); !ok {
		t.Fatal("mirror lookup should resolve")
	}
}

func TestDuplicateNamesRetainedInsertionOrder(t *testing.T) {
	idx := NewIndex()
	idx.AddLabel(address.New(0, 0x8000), "A")
	idx.AddLabel(address.New(0, 0x8000), "B")
	idx.AddLabel(address.New(0, 0x8000), "A")
	names, _ := idx.Lookup(address.New(0, 0x8000))
	want := []string{"A", "B", "A"}
	for i, w := range want {
		if names[i] != w {
			t.Fatalf("got %v want %v", names, want)
		}
	}
}

func TestAddLabelEmptyNameNoop(t *testing.T) {
	idx := NewIndex()
	idx.AddLabel(address.New(0, 0x8000), "")
	if idx.Len() != 0 {
		t.Fatalf("empty name should be a no-op")
	}
}
