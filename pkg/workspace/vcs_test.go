package workspace

import "testing"

func TestIgnoreSetMatches(t *testing.T) {
	s := NewIgnoreSet([]string{"build/", "out.asm"})
	if !s.Matches("build/bank_00.asm") {
		t.Fatalf("expected build/ prefix match")
	}
	if !s.Matches("out.asm") {
		t.Fatalf("expected exact file match")
	}
	if s.Matches("main.asm") {
		t.Fatalf("did not expect main.asm to match")
	}
}

func TestIgnoredPathsNonGitDirReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	if got := IgnoredPaths(dir); got != nil {
		t.Fatalf("expected nil for non-git dir, got %v", got)
	}
}
