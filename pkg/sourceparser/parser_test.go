package sourceparser

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStripAsmCommentRespectsQuotes(t *testing.T) {
	cases := map[string]string{
		`LDA #$01 ; comment`:         `LDA #$01 `,
		`DB "a;b" ; trailing`:        `DB "a;b" `,
		`DB "escaped \" quote"`:      `DB "escaped \" quote"`,
		`no comment here`:            `no comment here`,
	}
	for in, want := range cases {
		if got := StripAsmComment(in); got != want {
			t.Errorf("StripAsmComment(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseLabelAndNamespace(t *testing.T) {
	src := "namespace Foo\nMyLabel:\n  LDA #$00\nnamespace off\nOther:\n"
	res := Parse("file.asm", src)

	names := symbolNames(res)
	if !contains(names, "Foo_MyLabel") {
		t.Fatalf("expected namespaced label, got %v", names)
	}
	if !contains(names, "Other") {
		t.Fatalf("expected un-namespaced label after 'namespace off', got %v", names)
	}
}

func TestParsePushPopNamespace(t *testing.T) {
	src := "pushns A\npushns B\nInner:\npopns\nOuter:\npopns\nTop:\n"
	res := Parse("f.asm", src)
	names := symbolNames(res)
	if !contains(names, "A_B_Inner") {
		t.Fatalf("expected A_B_Inner, got %v", names)
	}
	if !contains(names, "A_Outer") {
		t.Fatalf("expected A_Outer after one popns, got %v", names)
	}
	if !contains(names, "Top") {
		t.Fatalf("expected Top after both popns, got %v", names)
	}
}

func TestParseStructFields(t *testing.T) {
	src := "struct Sprite\n.x: db\n.y: db\nendstruct\n"
	res := Parse("f.asm", src)
	names := symbolNames(res)
	if !contains(names, "Sprite") || !contains(names, "Sprite.x") || !contains(names, "Sprite.y") {
		t.Fatalf("expected struct + fields, got %v", names)
	}
}

func TestParseMacroWithParams(t *testing.T) {
	src := "macro DrawSprite(x, y)\n  LDA x\nendmacro\n"
	res := Parse("f.asm", src)
	for _, s := range res.Symbols {
		if s.Name == "DrawSprite" {
			if len(s.Parameters) != 2 || s.Parameters[0] != "x" || s.Parameters[1] != "y" {
				t.Fatalf("expected params [x y], got %v", s.Parameters)
			}
			return
		}
	}
	t.Fatalf("macro symbol not found in %v", res.Symbols)
}

func TestParseBangDefine(t *testing.T) {
	src := "!MyDefine = $10\n!OtherFlag\n"
	res := Parse("f.asm", src)
	names := symbolNames(res)
	if !contains(names, "MyDefine") || !contains(names, "OtherFlag") {
		t.Fatalf("expected bang-defines, got %v", names)
	}
}

func TestParseDataAndConstant(t *testing.T) {
	src := "MAX_HP = 20\nTable db $01, $02\n"
	res := Parse("f.asm", src)
	var kinds = map[string]SymbolKind{}
	for _, s := range res.Symbols {
		kinds[s.Name] = s.Kind
	}
	if kinds["MAX_HP"] != KindConstant {
		t.Fatalf("expected MAX_HP constant, got %v", kinds)
	}
	if kinds["Table"] != KindData {
		t.Fatalf("expected Table data, got %v", kinds)
	}
}

func TestParseIncludeDirectives(t *testing.T) {
	src := "incsrc \"sub/file.asm\"\nincdir \"libs\"\ninclude \"other.asm\"\n"
	res := Parse("f.asm", src)
	if len(res.Includes) != 2 {
		t.Fatalf("expected 2 include events, got %v", res.Includes)
	}
	if len(res.IncludePaths) != 1 || res.IncludePaths[0] != "libs" {
		t.Fatalf("expected incdir captured, got %v", res.IncludePaths)
	}
}

func TestResolveIncludePath(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "base")
	os.MkdirAll(sub, 0o755)
	target := filepath.Join(sub, "a.asm")
	os.WriteFile(target, []byte(""), 0o644)

	got, ok := ResolveIncludePath("a.asm", sub, nil)
	if !ok || got != target {
		t.Fatalf("expected base_dir resolution, got %q ok=%v", got, ok)
	}

	incDir := filepath.Join(dir, "lib")
	os.MkdirAll(incDir, 0o755)
	libTarget := filepath.Join(incDir, "b.asm")
	os.WriteFile(libTarget, []byte(""), 0o644)

	got, ok = ResolveIncludePath("b.asm", sub, []string{incDir})
	if !ok || got != libTarget {
		t.Fatalf("expected include_paths resolution, got %q ok=%v", got, ok)
	}

	if _, ok := ResolveIncludePath("missing.asm", sub, []string{incDir}); ok {
		t.Fatalf("expected no resolution for missing file")
	}
}

func symbolNames(res *ParseResult) []string {
	var names []string
	for _, s := range res.Symbols {
		names = append(names, s.Name)
	}
	return names
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
