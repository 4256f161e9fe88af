package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckSourcePathAllowsNestedUnderRoot(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	r := New(root)

	checked, err := r.CheckSourcePath(sub)
	if err != nil {
		t.Fatalf("CheckSourcePath(%q): %v", sub, err)
	}
	if checked == "" {
		t.Fatalf("CheckSourcePath returned an empty path")
	}
}

func TestCheckSourcePathRejectsOutsideRoot(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	r := New(root)

	if _, err := r.CheckSourcePath(outside); err == nil {
		t.Fatalf("CheckSourcePath should reject a path outside every allowed root")
	}
}

func TestCheckSourcePathUnrestrictedWhenNoRoots(t *testing.T) {
	r := New()
	anywhere := t.TempDir()
	if _, err := r.CheckSourcePath(anywhere); err != nil {
		t.Fatalf("an unrestricted resolver should allow any path, got: %v", err)
	}
}

func TestReadFileAndReadDir(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	r := New(root)
	content, err := r.ReadFile(filepath.Join(root, "a.txt"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if content != "hello" {
		t.Fatalf("ReadFile = %q, want %q", content, "hello")
	}

	entries, err := r.ReadDir(root)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Name != "a.txt" || entries[0].Type != "regular" {
		t.Fatalf("entries[0] = %+v, want a.txt/regular (sorted first)", entries[0])
	}
	if entries[1].Name != "sub" || entries[1].Type != "directory" {
		t.Fatalf("entries[1] = %+v, want sub/directory", entries[1])
	}
}

func TestFindFileSearchesPrefixesInOrder(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	target := filepath.Join(second, "pkg.nix")
	if err := os.WriteFile(target, []byte("{}"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r := New()
	found, err := r.FindFile([]string{first, second}, "pkg.nix")
	if err != nil {
		t.Fatalf("FindFile: %v", err)
	}
	if found != target {
		t.Fatalf("FindFile = %q, want %q", found, target)
	}

	if _, err := r.FindFile([]string{first}, "pkg.nix"); err == nil {
		t.Fatalf("FindFile should fail when no prefix contains the file")
	}
}
