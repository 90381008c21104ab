package unionfs

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/absfs/absfs"
	"github.com/spf13/afero"
)

// absFSAdapter wraps an Engine to implement absfs.Filer with correct types.
type absFSAdapter struct {
	engine *Engine
}

var _ absfs.Filer = (*absFSAdapter)(nil)

// FileSystem returns an absfs.FileSystem view of this Engine. The
// returned FileSystem maintains its own working-directory state and
// provides the full absfs.FileSystem convenience surface (Open,
// Create, MkdirAll, RemoveAll, Truncate, ...) on top of the union.
//
// Example:
//
//	e, _ := unionfs.New(overlay, base)
//	e.InitializeSync()
//	fs := e.FileSystem()
//	fs.Chdir("/app")
//	file, err := fs.Open("config.yml")
func (e *Engine) FileSystem() absfs.FileSystem {
	adapter := &absFSAdapter{engine: e}
	return absfs.ExtendFiler(adapter)
}

// Filer returns the bare absfs.Filer, for callers that want to build
// their own absfs.FileSystem wrapping rather than use Engine.FileSystem.
func (e *Engine) Filer() absfs.Filer {
	return &absFSAdapter{engine: e}
}

// toVirtualPath converts an OS path to a virtual path (forward slashes).
func toVirtualPath(p string) string {
	return filepath.ToSlash(p)
}

func (a *absFSAdapter) OpenFile(name string, flag int, perm os.FileMode) (absfs.File, error) {
	file, err := a.engine.Open(toVirtualPath(name), flag, perm)
	if err != nil {
		return nil, err
	}
	return absfs.ExtendSeekable(&unionFile{File: file}), nil
}

func (a *absFSAdapter) Mkdir(name string, perm os.FileMode) error {
	return a.engine.Mkdir(toVirtualPath(name), perm)
}

func (a *absFSAdapter) Remove(name string) error {
	name = toVirtualPath(name)
	info, err := a.engine.Stat(name)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return a.engine.Rmdir(name)
	}
	return a.engine.Unlink(name)
}

func (a *absFSAdapter) Rename(oldpath, newpath string) error {
	return a.engine.Rename(toVirtualPath(oldpath), toVirtualPath(newpath))
}

func (a *absFSAdapter) Stat(name string) (os.FileInfo, error) {
	return a.engine.Stat(toVirtualPath(name))
}

func (a *absFSAdapter) Chmod(name string, mode os.FileMode) error {
	return a.engine.Chmod(toVirtualPath(name), mode)
}

func (a *absFSAdapter) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return a.engine.Utimes(toVirtualPath(name), atime, mtime)
}

func (a *absFSAdapter) Chown(name string, uid, gid int) error {
	return a.engine.Chown(toVirtualPath(name), uid, gid)
}

// Separator reports the OS-specific path separator for absfs
// compatibility. The union itself always works in forward slashes
// internally; reporting the OS separator here lets absfs.ExtendFiler
// do the right path normalization at its boundary.
func (a *absFSAdapter) Separator() uint8 {
	return filepath.Separator
}

func (a *absFSAdapter) ListSeparator() uint8 {
	return filepath.ListSeparator
}

// Truncate changes the size of the named file, copying it up first if
// it currently only exists on the readable layer.
func (a *absFSAdapter) Truncate(name string, size int64) error {
	e := a.engine
	name = cleanPath(toVirtualPath(name))

	info, err := e.Stat(name)
	if err != nil {
		return pathErr("truncate", name, err)
	}
	if info.IsDir() {
		return pathErr("truncate", name, ErrIsDirectory)
	}
	if !e.writable.Exists(name) {
		if err := e.copyUp(name); err != nil {
			return err
		}
	}

	file, err := e.writable.Open(name, os.O_WRONLY, 0)
	if err != nil {
		return pathErr("truncate", name, err)
	}
	defer file.Close()

	tf, ok := file.(interface{ Truncate(int64) error })
	if !ok {
		return pathErr("truncate", name, ErrInvalidArgument)
	}
	if err := tf.Truncate(size); err != nil {
		return pathErr("truncate", name, err)
	}
	e.cache.invalidate(name)
	return nil
}

// unionFile wraps an afero.File to provide the absfs.Seekable surface.
type unionFile struct {
	afero.File
}

var _ io.Reader = (*unionFile)(nil)
var _ io.Writer = (*unionFile)(nil)
var _ io.Seeker = (*unionFile)(nil)
var _ io.Closer = (*unionFile)(nil)

func (f *unionFile) Name() string { return f.File.Name() }

func (f *unionFile) Stat() (os.FileInfo, error) { return f.File.Stat() }

func (f *unionFile) Sync() error {
	if syncer, ok := f.File.(interface{ Sync() error }); ok {
		return syncer.Sync()
	}
	return nil
}

func (f *unionFile) ReadAt(p []byte, off int64) (n int, err error) {
	if ra, ok := f.File.(io.ReaderAt); ok {
		return ra.ReadAt(p, off)
	}
	if seeker, ok := f.File.(io.Seeker); ok {
		if _, err := seeker.Seek(off, io.SeekStart); err != nil {
			return 0, err
		}
		return f.File.Read(p)
	}
	return 0, &os.PathError{Op: "readat", Path: f.File.Name(), Err: os.ErrInvalid}
}

func (f *unionFile) WriteAt(p []byte, off int64) (n int, err error) {
	if wa, ok := f.File.(io.WriterAt); ok {
		return wa.WriteAt(p, off)
	}
	if seeker, ok := f.File.(io.Seeker); ok {
		if _, err := seeker.Seek(off, io.SeekStart); err != nil {
			return 0, err
		}
		return f.File.Write(p)
	}
	return 0, &os.PathError{Op: "writeat", Path: f.File.Name(), Err: os.ErrInvalid}
}

func (f *unionFile) WriteString(s string) (n int, err error) {
	return f.File.Write([]byte(s))
}

func (f *unionFile) Truncate(size int64) error {
	if tf, ok := f.File.(interface{ Truncate(int64) error }); ok {
		return tf.Truncate(size)
	}
	return &os.PathError{Op: "truncate", Path: f.File.Name(), Err: os.ErrInvalid}
}
