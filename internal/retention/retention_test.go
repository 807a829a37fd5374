package retention

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("touch %s: %v", path, err)
	}
}

func TestMarkAndFlush(t *testing.T) {
	root := t.TempDir()
	tr := New(root)

	if err := tr.Mark("sp1"); err != nil {
		t.Fatalf("Mark: %v", err)
	}
	if err := tr.Mark("SP2"); err != nil {
		t.Fatalf("Mark: %v", err)
	}
	// Idempotent.
	if err := tr.Mark("sp1"); err != nil {
		t.Fatalf("Mark twice: %v", err)
	}

	set, err := tr.MarkedSet()
	if err != nil {
		t.Fatalf("MarkedSet: %v", err)
	}
	if len(set) != 2 {
		t.Fatalf("expected 2 markers, got %d", len(set))
	}
	if !tr.Marked("sp2") {
		t.Error("Marked must be case-insensitive on ids")
	}

	if err := tr.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	set, _ = tr.MarkedSet()
	if len(set) != 0 {
		t.Errorf("Flush left %d markers behind", len(set))
	}
}

func TestFlush_OnFreshRepository(t *testing.T) {
	tr := New(t.TempDir())
	if err := tr.Flush(); err != nil {
		t.Fatalf("Flush on missing marker dir: %v", err)
	}
}

func TestCleanup_DeletesExactlyUnmarked(t *testing.T) {
	root := t.TempDir()
	tr := New(root)

	touch(t, filepath.Join(root, "sp1.exe"))
	touch(t, filepath.Join(root, "sp1.cva"))
	touch(t, filepath.Join(root, "sp9.exe"))
	touch(t, filepath.Join(root, "sp9.cva"))
	touch(t, filepath.Join(root, "README.txt")) // no package id, untouched

	if err := tr.Mark("sp1"); err != nil {
		t.Fatalf("Mark: %v", err)
	}

	deleted, err := tr.Cleanup()
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 deletions, got %d", deleted)
	}

	for _, kept := range []string{"sp1.exe", "sp1.cva", "README.txt"} {
		if _, err := os.Stat(filepath.Join(root, kept)); err != nil {
			t.Errorf("%s should have survived cleanup: %v", kept, err)
		}
	}
	for _, gone := range []string{"sp9.exe", "sp9.cva"} {
		if _, err := os.Stat(filepath.Join(root, gone)); !os.IsNotExist(err) {
			t.Errorf("%s should have been deleted", gone)
		}
	}
}

func TestCleanup_EmptyMarkerSetDeletesAllArtifacts(t *testing.T) {
	root := t.TempDir()
	tr := New(root)
	touch(t, filepath.Join(root, "sp42.exe"))

	deleted, err := tr.Cleanup()
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deletion, got %d", deleted)
	}
}
