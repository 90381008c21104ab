package unionfs

import (
	"io"
	"os"
	"path"
)

// unionDir is the afero.File returned when Open resolves to a
// directory that doesn't (yet) exist on the writable layer: the
// directory itself needs no copy-up to be read, since readdir already
// merges writable and readable transparently (spec.md §4.5's "no-op on
// exists" branch never requires the directory to be materialized just
// to list it).
type unionDir struct {
	engine  *Engine
	path    string
	entries []os.FileInfo
	offset  int
	closed  bool
}

func newUnionDir(e *Engine, p string) (*unionDir, error) {
	return &unionDir{engine: e, path: p}, nil
}

func (d *unionDir) Name() string { return path.Base(d.path) }

func (d *unionDir) Close() error {
	d.closed = true
	return nil
}

func (d *unionDir) Read([]byte) (int, error)       { return 0, ErrIsDirectory }
func (d *unionDir) ReadAt([]byte, int64) (int, error) { return 0, ErrIsDirectory }
func (d *unionDir) Write([]byte) (int, error)      { return 0, ErrIsDirectory }
func (d *unionDir) WriteAt([]byte, int64) (int, error) { return 0, ErrIsDirectory }
func (d *unionDir) WriteString(string) (int, error) { return 0, ErrIsDirectory }
func (d *unionDir) Truncate(int64) error           { return ErrIsDirectory }
func (d *unionDir) Sync() error                    { return nil }

func (d *unionDir) Stat() (os.FileInfo, error) {
	if d.closed {
		return nil, os.ErrClosed
	}
	return d.engine.Stat(d.path)
}

func (d *unionDir) Seek(offset int64, whence int) (int64, error) {
	if d.closed {
		return 0, os.ErrClosed
	}
	if err := d.load(); err != nil {
		return 0, err
	}
	switch whence {
	case io.SeekStart:
		d.offset = int(offset)
	case io.SeekCurrent:
		d.offset += int(offset)
	case io.SeekEnd:
		d.offset = len(d.entries) + int(offset)
	}
	if d.offset < 0 {
		d.offset = 0
	}
	return int64(d.offset), nil
}

func (d *unionDir) Readdir(count int) ([]os.FileInfo, error) {
	if d.closed {
		return nil, os.ErrClosed
	}
	if err := d.load(); err != nil {
		return nil, err
	}
	if d.offset >= len(d.entries) {
		if count > 0 {
			return nil, io.EOF
		}
		return nil, nil
	}
	end := len(d.entries)
	if count > 0 {
		end = d.offset + count
		if end > len(d.entries) {
			end = len(d.entries)
		}
	}
	result := d.entries[d.offset:end]
	d.offset = end
	return result, nil
}

func (d *unionDir) Readdirnames(count int) ([]string, error) {
	infos, err := d.Readdir(count)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name()
	}
	return names, nil
}

func (d *unionDir) load() error {
	if d.entries != nil {
		return nil
	}
	entries, err := d.engine.ReadDir(d.path)
	if err != nil {
		return err
	}
	d.entries = entries
	return nil
}
