package unionfs

import (
	"testing"

	"github.com/spf13/afero"
)

func TestRenameFileAcrossLayers(t *testing.T) {
	e, writable, readable := newTestEngine(t)
	afero.WriteFile(readable, "/old.txt", []byte("hello"), 0644)

	if err := e.Rename("/old.txt", "/new.txt"); err != nil {
		t.Fatalf("rename: %v", err)
	}

	if e.Exists("/old.txt") {
		t.Fatal("expected /old.txt to no longer be visible")
	}
	data, err := e.ReadFile("/new.txt")
	if err != nil || string(data) != "hello" {
		t.Fatalf("expected /new.txt to hold the renamed content, got %q, err %v", data, err)
	}
	if _, err := writable.Stat("/old.txt"); err == nil {
		t.Fatal("rename of a readable-only file must not materialize the old path on writable")
	}
	if !e.wlog.IsWhitedOut("/old.txt") {
		t.Fatal("expected /old.txt whited out after rename")
	}
}

func TestRenameDirectoryRecursesFromReadable(t *testing.T) {
	e, writable, readable := newTestEngine(t)
	afero.WriteFile(readable, "/src/a.txt", []byte("a"), 0644)
	afero.WriteFile(readable, "/src/sub/b.txt", []byte("b"), 0644)

	if err := e.Rename("/src", "/dst"); err != nil {
		t.Fatalf("rename dir: %v", err)
	}

	for _, p := range []string{"/dst/a.txt", "/dst/sub/b.txt"} {
		if !e.Exists(p) {
			t.Fatalf("expected %s to exist after directory rename", p)
		}
	}
	if e.Exists("/src") {
		t.Fatal("expected /src to no longer be visible after rename")
	}
	if _, err := writable.Stat("/dst/a.txt"); err != nil {
		t.Fatalf("expected renamed file copied onto writable: %v", err)
	}
}

func TestRenameDirectoryMergeMovesWritableResidentChildren(t *testing.T) {
	e, writable, readable := newTestEngine(t)
	afero.WriteFile(readable, "/src/a.txt", []byte("a"), 0644)
	if err := readable.MkdirAll("/dst", 0755); err != nil {
		t.Fatalf("setup /dst: %v", err)
	}
	// Stub /src onto writable with a child of its own, independent of
	// readable's a.txt, before the directory merge runs.
	if err := e.WriteFile("/src/new.txt", []byte("new"), 0644); err != nil {
		t.Fatalf("write new.txt: %v", err)
	}

	if err := e.Rename("/src", "/dst"); err != nil {
		t.Fatalf("rename: %v", err)
	}

	for _, p := range []string{"/dst/a.txt", "/dst/new.txt"} {
		if !e.Exists(p) {
			t.Fatalf("expected %s to exist after merge-rename", p)
		}
	}
	if e.Exists("/src") {
		t.Fatal("expected /src to no longer be visible after rename")
	}
	if _, err := writable.Stat("/src"); err == nil {
		t.Fatal("expected /src's now-empty writable entry removed, not left orphaned alongside a whiteout")
	}
	if !e.wlog.IsWhitedOut("/src") {
		t.Fatal("expected /src whited out since it remains visible on readable")
	}
}

func TestRenameFailsWhenTargetDirNonEmpty(t *testing.T) {
	e, _, readable := newTestEngine(t)
	afero.WriteFile(readable, "/src/a.txt", []byte("a"), 0644)
	afero.WriteFile(readable, "/dst/existing.txt", []byte("b"), 0644)

	err := e.Rename("/src", "/dst")
	if !IsNotEmpty(err) {
		t.Fatalf("expected ErrNotEmpty, got %v", err)
	}
}

func TestRenameOntoExistingFileOverwrites(t *testing.T) {
	e, _, readable := newTestEngine(t)
	afero.WriteFile(readable, "/a.txt", []byte("aaa"), 0644)
	afero.WriteFile(readable, "/b.txt", []byte("bbb"), 0644)

	if err := e.Rename("/a.txt", "/b.txt"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	data, err := e.ReadFile("/b.txt")
	if err != nil || string(data) != "aaa" {
		t.Fatalf("expected /b.txt overwritten with /a.txt's content, got %q, err %v", data, err)
	}
}
