package unionfs

import (
	"io"
	"os"
	"testing"

	"github.com/spf13/afero"
)

func TestOverlayFileFlushesOnClose(t *testing.T) {
	e, writable, readable := newTestEngine(t)
	afero.WriteFile(readable, "/ro.txt", []byte("original"), 0644)

	f, err := e.Open("/ro.txt", os.O_RDWR, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := f.(*OverlayFile); !ok {
		t.Fatalf("expected an *OverlayFile for a readable-only open, got %T", f)
	}

	if _, err := f.Write([]byte("CHANGED")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := afero.ReadFile(writable, "/ro.txt")
	if err != nil {
		t.Fatalf("expected flush to writable on close: %v", err)
	}
	if string(data) != "CHANGEDl" {
		// Write at position 0 overwrites the first 7 bytes of "original",
		// leaving its trailing "l" in place.
		t.Fatalf("unexpected flushed content: %q", data)
	}
}

func TestOverlayFileCleanCloseDoesNotFlush(t *testing.T) {
	e, writable, readable := newTestEngine(t)
	afero.WriteFile(readable, "/ro.txt", []byte("original"), 0644)

	f, err := e.Open("/ro.txt", os.O_RDONLY, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "original" {
		t.Fatalf("expected original content, got %q", data)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := writable.Stat("/ro.txt"); err == nil {
		t.Fatal("expected an unmodified OverlayFile not to copy up on close")
	}
}

func TestOverlayFileSeekAndReadAt(t *testing.T) {
	e, _, readable := newTestEngine(t)
	afero.WriteFile(readable, "/ro.txt", []byte("0123456789"), 0644)

	f, err := e.Open("/ro.txt", os.O_RDWR, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	buf := make([]byte, 3)
	n, err := f.ReadAt(buf, 5)
	if err != nil || n != 3 || string(buf) != "567" {
		t.Fatalf("expected ReadAt(5) to return \"567\", got %q, n=%d, err=%v", buf, n, err)
	}

	pos, err := f.Seek(2, io.SeekStart)
	if err != nil || pos != 2 {
		t.Fatalf("seek: pos=%d err=%v", pos, err)
	}
}
