package unionfs

import (
	"io"
	"os"
	"time"

	"github.com/spf13/afero"
)

// ReadFile and WriteFile round out Engine's surface so it satisfies
// Layer in its own right (spec.md §4.2: the engine is recursively a
// Layer, so a SerializingWrapper can wrap either a backing layer or a
// whole Engine). Both are expressed in terms of Open, the same way
// afero.ReadFile/afero.WriteFile are expressed in terms of OpenFile.
func (e *Engine) ReadFile(name string) ([]byte, error) {
	f, err := e.Open(name, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (e *Engine) WriteFile(name string, data []byte, perm os.FileMode) error {
	f, err := e.Open(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return pathErr("write", name, err)
	}
	return f.Close()
}

// Chtimes is Utimes under the name Layer requires.
func (e *Engine) Chtimes(name string, atime, mtime time.Time) error {
	return e.Utimes(name, atime, mtime)
}

// The Async family below is what a SerializingWrapper actually
// serializes (§4.2): every one of them runs its synchronous
// counterpart on a fresh goroutine and delivers the result to cb. None
// of them take any lock — that's the wrapper's job, not the engine's
// (Engine has no Mutex of its own); an unwrapped Engine's Async methods simply run concurrently,
// same as its sync methods always could.

func (e *Engine) StatAsync(name string, cb func(os.FileInfo, error)) {
	go func() { cb(e.Stat(name)) }()
}

func (e *Engine) OpenAsync(name string, flag int, perm os.FileMode, cb func(afero.File, error)) {
	go func() { cb(e.Open(name, flag, perm)) }()
}

func (e *Engine) ReadFileAsync(name string, cb func([]byte, error)) {
	go func() { cb(e.ReadFile(name)) }()
}

func (e *Engine) WriteFileAsync(name string, data []byte, perm os.FileMode, cb func(error)) {
	go func() { cb(e.WriteFile(name, data, perm)) }()
}

func (e *Engine) UnlinkAsync(name string, cb func(error)) {
	go func() { cb(e.Unlink(name)) }()
}

func (e *Engine) RmdirAsync(name string, cb func(error)) {
	go func() { cb(e.Rmdir(name)) }()
}

func (e *Engine) MkdirAsync(name string, perm os.FileMode, cb func(error)) {
	go func() { cb(e.Mkdir(name, perm)) }()
}

func (e *Engine) RenameAsync(oldname, newname string, cb func(error)) {
	go func() { cb(e.Rename(oldname, newname)) }()
}

func (e *Engine) ReadDirAsync(name string, cb func([]os.FileInfo, error)) {
	go func() { cb(e.ReadDir(name)) }()
}

func (e *Engine) ExistsAsync(name string, cb func(bool)) {
	go func() { cb(e.Exists(name)) }()
}

func (e *Engine) ChmodAsync(name string, mode os.FileMode, cb func(error)) {
	go func() { cb(e.Chmod(name, mode)) }()
}

func (e *Engine) ChownAsync(name string, uid, gid int, cb func(error)) {
	go func() { cb(e.Chown(name, uid, gid)) }()
}

func (e *Engine) ChtimesAsync(name string, atime, mtime time.Time, cb func(error)) {
	go func() { cb(e.Chtimes(name, atime, mtime)) }()
}

// UtimesAsync mirrors Utimes under its spec.md name, alongside
// ChtimesAsync which satisfies the Layer interface.
func (e *Engine) UtimesAsync(name string, atime, mtime time.Time, cb func(error)) {
	e.ChtimesAsync(name, atime, mtime, cb)
}

// StatSync, ExistsSync, and friends are plain aliases: an Engine's
// top-level entry points are already synchronous to the caller unless
// reached through a SerializingWrapper, per spec.md §4.5's Go
// realization note.
func (e *Engine) StatSync(name string) (os.FileInfo, error)            { return e.Stat(name) }
func (e *Engine) ExistsSync(name string) bool                          { return e.Exists(name) }
func (e *Engine) ReadDirSync(name string) ([]os.FileInfo, error)       { return e.ReadDir(name) }
func (e *Engine) OpenSync(name string, flag int, perm os.FileMode) (afero.File, error) {
	return e.Open(name, flag, perm)
}
func (e *Engine) ReadFileSync(name string) ([]byte, error)             { return e.ReadFile(name) }
func (e *Engine) WriteFileSync(name string, data []byte, perm os.FileMode) error {
	return e.WriteFile(name, data, perm)
}
func (e *Engine) UnlinkSync(name string) error           { return e.Unlink(name) }
func (e *Engine) RmdirSync(name string) error            { return e.Rmdir(name) }
func (e *Engine) MkdirSync(name string, perm os.FileMode) error { return e.Mkdir(name, perm) }
func (e *Engine) RenameSync(oldname, newname string) error { return e.Rename(oldname, newname) }
func (e *Engine) ChmodSync(name string, mode os.FileMode) error { return e.Chmod(name, mode) }
func (e *Engine) ChownSync(name string, uid, gid int) error     { return e.Chown(name, uid, gid) }
func (e *Engine) UtimesSync(name string, atime, mtime time.Time) error {
	return e.Utimes(name, atime, mtime)
}
