package unionfs

import (
	"bytes"
	"io"
	"os"
	"time"
)

// OverlayFile is the buffered handle returned when a readable-layer
// file is opened with a no-op-on-exists flag and hasn't been copied up
// yet. Reads and writes mutate an in-memory buffer; Sync/Close flush
// the buffer to the writable layer (via CopyUp's write path) only if
// the buffer was actually written to.
type OverlayFile struct {
	engine *Engine
	path   string
	flag   int

	buf   *bytes.Buffer
	pos   int64
	dirty bool
	mode  os.FileMode
	mtime time.Time
	closed bool
}

// newOverlayFile constructs an OverlayFile seeded from the readable
// layer's content, with mode and mtime cloned from info and owner write
// permission added when flag opens for writing. The mode the caller
// passed to Open is not used. Stat always reports the buffer length as
// the size.
func newOverlayFile(e *Engine, path string, flag int, info os.FileInfo) (*OverlayFile, error) {
	data, err := e.readable.ReadFile(path)
	if err != nil {
		return nil, pathErr("open", path, err)
	}
	mode := info.Mode()
	if flag&(os.O_WRONLY|os.O_RDWR) != 0 {
		mode |= 0o200
	}
	return &OverlayFile{
		engine: e,
		path:   path,
		flag:   flag,
		buf:    bytes.NewBuffer(append([]byte(nil), data...)),
		mode:   mode,
		mtime:  info.ModTime(),
	}, nil
}

func (f *OverlayFile) Name() string { return f.path }

func (f *OverlayFile) Read(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}
	buf := f.buf.Bytes()
	if f.pos >= int64(len(buf)) {
		return 0, io.EOF
	}
	n := copy(p, buf[f.pos:])
	f.pos += int64(n)
	return n, nil
}

func (f *OverlayFile) ReadAt(p []byte, off int64) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}
	buf := f.buf.Bytes()
	if off >= int64(len(buf)) {
		return 0, io.EOF
	}
	n := copy(p, buf[off:])
	var err error
	if n < len(p) {
		err = io.EOF
	}
	return n, err
}

func (f *OverlayFile) Write(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}
	buf := f.buf.Bytes()
	end := f.pos + int64(len(p))
	if end > int64(len(buf)) {
		grown := make([]byte, end)
		copy(grown, buf)
		buf = grown
	} else {
		buf = append([]byte(nil), buf...)
	}
	copy(buf[f.pos:end], p)
	f.buf = bytes.NewBuffer(buf)
	f.pos = end
	f.dirty = true
	return len(p), nil
}

func (f *OverlayFile) WriteAt(p []byte, off int64) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}
	buf := f.buf.Bytes()
	end := off + int64(len(p))
	if end > int64(len(buf)) {
		grown := make([]byte, end)
		copy(grown, buf)
		buf = grown
	} else {
		buf = append([]byte(nil), buf...)
	}
	copy(buf[off:end], p)
	f.buf = bytes.NewBuffer(buf)
	f.dirty = true
	return len(p), nil
}

func (f *OverlayFile) WriteString(s string) (int, error) { return f.Write([]byte(s)) }

func (f *OverlayFile) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, os.ErrClosed
	}
	switch whence {
	case io.SeekStart:
		f.pos = offset
	case io.SeekCurrent:
		f.pos += offset
	case io.SeekEnd:
		f.pos = int64(f.buf.Len()) + offset
	}
	if f.pos < 0 {
		f.pos = 0
	}
	return f.pos, nil
}

func (f *OverlayFile) Truncate(size int64) error {
	if f.closed {
		return os.ErrClosed
	}
	buf := f.buf.Bytes()
	if int64(len(buf)) == size {
		return nil
	}
	resized := make([]byte, size)
	copy(resized, buf)
	f.buf = bytes.NewBuffer(resized)
	f.dirty = true
	return nil
}

func (f *OverlayFile) Stat() (os.FileInfo, error) {
	return overlayFileInfo{name: f.path, size: int64(f.buf.Len()), mode: f.mode, mtime: f.mtime}, nil
}

func (f *OverlayFile) Readdir(int) ([]os.FileInfo, error) { return nil, ErrNotDirectory }
func (f *OverlayFile) Readdirnames(int) ([]string, error) { return nil, ErrNotDirectory }

// Sync flushes the buffer to the writable layer if dirty, per
// spec.md §4.6: a clean OverlayFile is equivalent to the read-only
// source and need not be flushed.
func (f *OverlayFile) Sync() error {
	if !f.dirty {
		return nil
	}
	if err := f.engine.ensureParentDirs(f.path); err != nil {
		return err
	}
	if err := f.engine.writable.WriteFile(f.path, f.buf.Bytes(), f.mode); err != nil {
		return pathErr("sync", f.path, err)
	}
	f.engine.cache.invalidate(f.path)
	if f.engine.wlog.IsWhitedOut(f.path) {
		if err := f.engine.wlog.RecordUndelete(f.path); err != nil {
			return err
		}
	}
	f.dirty = false
	return nil
}

// Close implies Sync, per spec.md §4.6.
func (f *OverlayFile) Close() error {
	if f.closed {
		return os.ErrClosed
	}
	err := f.Sync()
	f.closed = true
	return err
}

type overlayFileInfo struct {
	name  string
	size  int64
	mode  os.FileMode
	mtime time.Time
}

func (i overlayFileInfo) Name() string       { return i.name }
func (i overlayFileInfo) Size() int64        { return i.size }
func (i overlayFileInfo) Mode() os.FileMode  { return i.mode }
func (i overlayFileInfo) ModTime() time.Time { return i.mtime }
func (i overlayFileInfo) IsDir() bool        { return false }
func (i overlayFileInfo) Sys() interface{}   { return nil }
