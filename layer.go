package unionfs

import (
	"os"
	"time"

	"github.com/spf13/afero"
)

// Layer is the abstraction a backing filesystem must satisfy to serve
// as either the writable or the readable side of an Engine. It mirrors
// a single afero.Fs, but exposes both synchronous and asynchronous
// variants of every operation, plus the capability queries the Engine
// needs to answer its own capability methods.
//
// Layer implementations are external collaborators: this package
// ships exactly one (aferoLayer, wrapping any afero.Fs), and treats
// every other detail of how a layer stores bytes as out of scope.
type Layer interface {
	Stat(name string) (os.FileInfo, error)
	StatAsync(name string, cb func(os.FileInfo, error))

	Open(name string, flag int, perm os.FileMode) (afero.File, error)
	OpenAsync(name string, flag int, perm os.FileMode, cb func(afero.File, error))

	ReadFile(name string) ([]byte, error)
	ReadFileAsync(name string, cb func([]byte, error))

	WriteFile(name string, data []byte, perm os.FileMode) error
	WriteFileAsync(name string, data []byte, perm os.FileMode, cb func(error))

	Unlink(name string) error
	UnlinkAsync(name string, cb func(error))

	Rmdir(name string) error
	RmdirAsync(name string, cb func(error))

	Mkdir(name string, perm os.FileMode) error
	MkdirAsync(name string, perm os.FileMode, cb func(error))

	Rename(oldname, newname string) error
	RenameAsync(oldname, newname string, cb func(error))

	ReadDir(name string) ([]os.FileInfo, error)
	ReadDirAsync(name string, cb func([]os.FileInfo, error))

	Exists(name string) bool
	ExistsAsync(name string, cb func(bool))

	Chmod(name string, mode os.FileMode) error
	ChmodAsync(name string, mode os.FileMode, cb func(error))

	Chown(name string, uid, gid int) error
	ChownAsync(name string, uid, gid int, cb func(error))

	Chtimes(name string, atime, mtime time.Time) error
	ChtimesAsync(name string, atime, mtime time.Time, cb func(error))

	IsReadOnly() bool
	SupportsSynch() bool
	SupportsLinks() bool
	SupportsProps() bool
}

// aferoLayer adapts any afero.Fs to the Layer interface. Its Async
// methods run the corresponding sync method on a new goroutine and
// invoke cb with the result; afero.Fs itself has no native asynchrony,
// so this is the only honest realization of "async" for a backing
// layer. The asynchrony the spec actually cares about — serializing
// top-level Engine operations — lives in Mutex/SerializingWrapper, one
// level up.
type aferoLayer struct {
	fs       afero.Fs
	readOnly bool
}

// NewAferoLayer wraps fs as a Layer. readOnly marks the layer as
// read-only for capability-reporting purposes; it does not itself
// prevent writes (afero.Fs implementations that are genuinely
// read-only already reject them).
func NewAferoLayer(fs afero.Fs, readOnly bool) Layer {
	return &aferoLayer{fs: fs, readOnly: readOnly}
}

func (l *aferoLayer) Stat(name string) (os.FileInfo, error) { return l.fs.Stat(name) }
func (l *aferoLayer) StatAsync(name string, cb func(os.FileInfo, error)) {
	go func() { cb(l.Stat(name)) }()
}

func (l *aferoLayer) Open(name string, flag int, perm os.FileMode) (afero.File, error) {
	return l.fs.OpenFile(name, flag, perm)
}
func (l *aferoLayer) OpenAsync(name string, flag int, perm os.FileMode, cb func(afero.File, error)) {
	go func() { cb(l.Open(name, flag, perm)) }()
}

func (l *aferoLayer) ReadFile(name string) ([]byte, error) {
	return afero.ReadFile(l.fs, name)
}
func (l *aferoLayer) ReadFileAsync(name string, cb func([]byte, error)) {
	go func() { cb(l.ReadFile(name)) }()
}

func (l *aferoLayer) WriteFile(name string, data []byte, perm os.FileMode) error {
	return afero.WriteFile(l.fs, name, data, perm)
}
func (l *aferoLayer) WriteFileAsync(name string, data []byte, perm os.FileMode, cb func(error)) {
	go func() { cb(l.WriteFile(name, data, perm)) }()
}

func (l *aferoLayer) Unlink(name string) error { return l.fs.Remove(name) }
func (l *aferoLayer) UnlinkAsync(name string, cb func(error)) {
	go func() { cb(l.Unlink(name)) }()
}

func (l *aferoLayer) Rmdir(name string) error { return l.fs.Remove(name) }
func (l *aferoLayer) RmdirAsync(name string, cb func(error)) {
	go func() { cb(l.Rmdir(name)) }()
}

func (l *aferoLayer) Mkdir(name string, perm os.FileMode) error { return l.fs.Mkdir(name, perm) }
func (l *aferoLayer) MkdirAsync(name string, perm os.FileMode, cb func(error)) {
	go func() { cb(l.Mkdir(name, perm)) }()
}

func (l *aferoLayer) Rename(oldname, newname string) error { return l.fs.Rename(oldname, newname) }
func (l *aferoLayer) RenameAsync(oldname, newname string, cb func(error)) {
	go func() { cb(l.Rename(oldname, newname)) }()
}

func (l *aferoLayer) ReadDir(name string) ([]os.FileInfo, error) {
	return afero.ReadDir(l.fs, name)
}
func (l *aferoLayer) ReadDirAsync(name string, cb func([]os.FileInfo, error)) {
	go func() { cb(l.ReadDir(name)) }()
}

func (l *aferoLayer) Exists(name string) bool {
	ok, err := afero.Exists(l.fs, name)
	return err == nil && ok
}
func (l *aferoLayer) ExistsAsync(name string, cb func(bool)) {
	go func() { cb(l.Exists(name)) }()
}

func (l *aferoLayer) Chmod(name string, mode os.FileMode) error { return l.fs.Chmod(name, mode) }
func (l *aferoLayer) ChmodAsync(name string, mode os.FileMode, cb func(error)) {
	go func() { cb(l.Chmod(name, mode)) }()
}

func (l *aferoLayer) Chown(name string, uid, gid int) error { return l.fs.Chown(name, uid, gid) }
func (l *aferoLayer) ChownAsync(name string, uid, gid int, cb func(error)) {
	go func() { cb(l.Chown(name, uid, gid)) }()
}

func (l *aferoLayer) Chtimes(name string, atime, mtime time.Time) error {
	return l.fs.Chtimes(name, atime, mtime)
}
func (l *aferoLayer) ChtimesAsync(name string, atime, mtime time.Time, cb func(error)) {
	go func() { cb(l.Chtimes(name, atime, mtime)) }()
}

func (l *aferoLayer) IsReadOnly() bool { return l.readOnly }

// SupportsSynch is true for every aferoLayer: the sync path is the only
// native path afero.Fs has.
func (l *aferoLayer) SupportsSynch() bool { return true }

// SupportsLinks is always false: Non-goals (spec.md §1) exclude hard
// and symbolic links from the union regardless of what the backing
// afero.Fs itself can do.
func (l *aferoLayer) SupportsLinks() bool { return false }

// SupportsProps reports whether the wrapped afero.Fs can change
// ownership, which is the only "extended property" afero.Fs exposes.
func (l *aferoLayer) SupportsProps() bool {
	_, ok := l.fs.(interface {
		Chown(string, int, int) error
	})
	return ok
}
