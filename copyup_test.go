package unionfs

import (
	"testing"

	"github.com/spf13/afero"
)

func newTestEngine(t *testing.T) (*Engine, afero.Fs, afero.Fs) {
	t.Helper()
	writable := afero.NewMemMapFs()
	readable := afero.NewMemMapFs()
	e, err := New(writable, readable)
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}
	if err := e.InitializeSync(); err != nil {
		t.Fatalf("failed to initialize engine: %v", err)
	}
	return e, writable, readable
}

func TestCopyUpOnWriteLeavesReadableUntouched(t *testing.T) {
	e, writable, readable := newTestEngine(t)
	afero.WriteFile(readable, "/config.txt", []byte("original"), 0644)

	if err := e.WriteFile("/config.txt", []byte("modified"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, err := afero.ReadFile(writable, "/config.txt")
	if err != nil || string(data) != "modified" {
		t.Fatalf("expected writable layer to hold the modified content, got %q, err %v", data, err)
	}
	data, err = afero.ReadFile(readable, "/config.txt")
	if err != nil || string(data) != "original" {
		t.Fatalf("expected readable layer to still hold the original, got %q, err %v", data, err)
	}
}

func TestCopyUpOnChmodMaterializesParents(t *testing.T) {
	e, writable, readable := newTestEngine(t)
	afero.WriteFile(readable, "/deep/nested/file.txt", []byte("x"), 0644)

	if err := e.Chmod("/deep/nested/file.txt", 0600); err != nil {
		t.Fatalf("chmod: %v", err)
	}

	info, err := writable.Stat("/deep/nested/file.txt")
	if err != nil {
		t.Fatalf("expected file copied up onto writable, got %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Fatalf("expected mode 0600 after chmod, got %v", info.Mode().Perm())
	}
	if _, err := writable.Stat("/deep"); err != nil {
		t.Fatalf("expected parent directories materialized on writable: %v", err)
	}
}

func TestRecreateUndeletesWhitedOutPath(t *testing.T) {
	e, _, readable := newTestEngine(t)
	afero.WriteFile(readable, "/f.txt", []byte("content"), 0644)

	if err := e.Unlink("/f.txt"); err != nil {
		t.Fatalf("unlink: %v", err)
	}
	if e.Exists("/f.txt") {
		t.Fatal("expected /f.txt hidden after whiteout")
	}

	if err := e.WriteFile("/f.txt", []byte("recreated"), 0644); err != nil {
		t.Fatalf("recreate: %v", err)
	}
	if e.wlog.IsWhitedOut("/f.txt") {
		t.Fatal("expected whiteout cleared after recreating the path")
	}
	data, err := e.ReadFile("/f.txt")
	if err != nil || string(data) != "recreated" {
		t.Fatalf("expected recreated content, got %q, err %v", data, err)
	}
}

func TestStatWidensModeForReadableOnlyEntries(t *testing.T) {
	e, _, readable := newTestEngine(t)
	afero.WriteFile(readable, "/ro.txt", []byte("x"), 0400)

	info, err := e.Stat("/ro.txt")
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode()&0o222 == 0 {
		t.Fatalf("expected widened mode to report writable bits, got %v", info.Mode())
	}
}
