package safeio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteReadRemove(t *testing.T) {
	fsys, err := New(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := fsys.WriteFile("p1/f1", []byte("hello")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := fsys.ReadFile("p1/f1")
	if err != nil || string(got) != "hello" {
		t.Fatalf("ReadFile = %q, %v", got, err)
	}
	if err := fsys.WriteFile("p1/f1", []byte("again")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	entries, err := fsys.ReadDir("p1")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "f1" {
		t.Fatalf("entries = %v, want only f1 (no temp leftovers)", entries)
	}
	if err := fsys.Remove("p1/f1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := fsys.Remove("p1/f1"); err != nil {
		t.Fatalf("Remove missing: %v", err)
	}
	if _, err := fsys.ReadFile("p1/f1"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("ReadFile after remove err = %v", err)
	}
}

func TestRejectsEscapes(t *testing.T) {
	dir := t.TempDir()
	fsys, err := New(filepath.Join(dir, "root"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, p := range []string{"../x", "a/../../x", filepath.Join(dir, "x")} {
		if err := fsys.WriteFile(p, []byte("x")); !errors.Is(err, ErrOutsideRoot) {
			t.Fatalf("WriteFile(%q) err = %v, want ErrOutsideRoot", p, err)
		}
	}
	if err := fsys.RemoveAll("."); err == nil {
		t.Fatalf("RemoveAll(.) should refuse the root")
	}
}

func TestRejectsSymlinkOutside(t *testing.T) {
	dir := t.TempDir()
	outside := filepath.Join(dir, "outside")
	if err := os.MkdirAll(outside, 0o755); err != nil {
		t.Fatal(err)
	}
	root := filepath.Join(dir, "root")
	fsys, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := os.Symlink(outside, filepath.Join(root, "link")); err != nil {
		t.Skipf("symlink unsupported: %v", err)
	}
	if err := fsys.WriteFile("link/f", []byte("x")); !errors.Is(err, ErrOutsideRoot) {
		t.Fatalf("WriteFile through symlink err = %v", err)
	}
}

func TestMissingDirReadsEmpty(t *testing.T) {
	fsys, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	entries, err := fsys.ReadDir("nope")
	if err != nil || len(entries) != 0 {
		t.Fatalf("ReadDir(nope) = %v, %v", entries, err)
	}
}
