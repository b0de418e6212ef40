package hooks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/z3dk/z3dk/pkg/address"
)

func TestLoadHookManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hooks.json")
	body := `{
		"hooks": [
			{"address": "0x008000", "size": 3, "name": "Hook1", "kind": "jsl", "expected_m": 8},
			{"address": "$008000", "name": "Hook2"},
			{"address": 32769, "name": "Hook3"}
		]
	}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	entries, ok := m.At(address.Address(0x008000))
	if !ok || len(entries) != 2 {
		t.Fatalf("expected two hooks sharing $008000, got %v", entries)
	}
	if entries[0].Name != "Hook1" || entries[0].ExpectedM != 8 {
		t.Fatalf("unexpected first hook: %+v", entries[0])
	}

	entries2, ok := m.At(address.Address(0x008001))
	if !ok || len(entries2) != 1 || entries2[0].Name != "Hook3" {
		t.Fatalf("expected decimal-address hook, got %v", entries2)
	}
}

func TestLoadHookManifestMissingPathIsNotError(t *testing.T) {
	m, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m.At(0); ok {
		t.Fatalf("empty manifest should have no entries")
	}
}

func TestLoadHookManifestUnreadableIsIoError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("expected IoError")
	}
}
