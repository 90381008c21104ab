package unionfs

import (
	"os"
	"time"

	"github.com/spf13/afero"
)

// SerializingWrapper wraps a Layer — a backing layer, or an Engine
// itself, since Engine satisfies Layer — and forces every Async call
// through a single Mutex, one at a time, in arrival order. Sync calls
// are rejected outright while any Async call holds the lock: the
// wrapper models a single logical executor that cannot be reentered
// from its own synchronous surface while it's mid-operation, matching
// spec.md §4.2.
type SerializingWrapper struct {
	inner Layer
	mu    *Mutex
}

// NewSerializingWrapper wraps inner. The returned wrapper itself
// satisfies Layer, so it can be nested or passed anywhere a Layer is
// expected.
func NewSerializingWrapper(inner Layer) *SerializingWrapper {
	return &SerializingWrapper{inner: inner, mu: NewMutex()}
}

// IsLocked reports whether an Async call currently holds the lock.
func (w *SerializingWrapper) IsLocked() bool { return w.mu.IsLocked() }

func (w *SerializingWrapper) rejectIfLocked() error {
	if w.mu.IsLocked() {
		return ErrInvalidSyncCall
	}
	return nil
}

func (w *SerializingWrapper) Stat(name string) (os.FileInfo, error) {
	if err := w.rejectIfLocked(); err != nil {
		return nil, err
	}
	return w.inner.Stat(name)
}

func (w *SerializingWrapper) StatAsync(name string, cb func(os.FileInfo, error)) {
	w.mu.Lock(func() {
		w.inner.StatAsync(name, func(info os.FileInfo, err error) {
			w.mu.Unlock()
			cb(info, err)
		})
	})
}

func (w *SerializingWrapper) Open(name string, flag int, perm os.FileMode) (afero.File, error) {
	if err := w.rejectIfLocked(); err != nil {
		return nil, err
	}
	return w.inner.Open(name, flag, perm)
}

func (w *SerializingWrapper) OpenAsync(name string, flag int, perm os.FileMode, cb func(afero.File, error)) {
	w.mu.Lock(func() {
		w.inner.OpenAsync(name, flag, perm, func(f afero.File, err error) {
			w.mu.Unlock()
			cb(f, err)
		})
	})
}

func (w *SerializingWrapper) ReadFile(name string) ([]byte, error) {
	if err := w.rejectIfLocked(); err != nil {
		return nil, err
	}
	return w.inner.ReadFile(name)
}

func (w *SerializingWrapper) ReadFileAsync(name string, cb func([]byte, error)) {
	w.mu.Lock(func() {
		w.inner.ReadFileAsync(name, func(data []byte, err error) {
			w.mu.Unlock()
			cb(data, err)
		})
	})
}

func (w *SerializingWrapper) WriteFile(name string, data []byte, perm os.FileMode) error {
	if err := w.rejectIfLocked(); err != nil {
		return err
	}
	return w.inner.WriteFile(name, data, perm)
}

func (w *SerializingWrapper) WriteFileAsync(name string, data []byte, perm os.FileMode, cb func(error)) {
	w.mu.Lock(func() {
		w.inner.WriteFileAsync(name, data, perm, func(err error) {
			w.mu.Unlock()
			cb(err)
		})
	})
}

func (w *SerializingWrapper) Unlink(name string) error {
	if err := w.rejectIfLocked(); err != nil {
		return err
	}
	return w.inner.Unlink(name)
}

func (w *SerializingWrapper) UnlinkAsync(name string, cb func(error)) {
	w.mu.Lock(func() {
		w.inner.UnlinkAsync(name, func(err error) {
			w.mu.Unlock()
			cb(err)
		})
	})
}

func (w *SerializingWrapper) Rmdir(name string) error {
	if err := w.rejectIfLocked(); err != nil {
		return err
	}
	return w.inner.Rmdir(name)
}

func (w *SerializingWrapper) RmdirAsync(name string, cb func(error)) {
	w.mu.Lock(func() {
		w.inner.RmdirAsync(name, func(err error) {
			w.mu.Unlock()
			cb(err)
		})
	})
}

func (w *SerializingWrapper) Mkdir(name string, perm os.FileMode) error {
	if err := w.rejectIfLocked(); err != nil {
		return err
	}
	return w.inner.Mkdir(name, perm)
}

func (w *SerializingWrapper) MkdirAsync(name string, perm os.FileMode, cb func(error)) {
	w.mu.Lock(func() {
		w.inner.MkdirAsync(name, perm, func(err error) {
			w.mu.Unlock()
			cb(err)
		})
	})
}

func (w *SerializingWrapper) Rename(oldname, newname string) error {
	if err := w.rejectIfLocked(); err != nil {
		return err
	}
	return w.inner.Rename(oldname, newname)
}

func (w *SerializingWrapper) RenameAsync(oldname, newname string, cb func(error)) {
	w.mu.Lock(func() {
		w.inner.RenameAsync(oldname, newname, func(err error) {
			w.mu.Unlock()
			cb(err)
		})
	})
}

func (w *SerializingWrapper) ReadDir(name string) ([]os.FileInfo, error) {
	if err := w.rejectIfLocked(); err != nil {
		return nil, err
	}
	return w.inner.ReadDir(name)
}

func (w *SerializingWrapper) ReadDirAsync(name string, cb func([]os.FileInfo, error)) {
	w.mu.Lock(func() {
		w.inner.ReadDirAsync(name, func(entries []os.FileInfo, err error) {
			w.mu.Unlock()
			cb(entries, err)
		})
	})
}

func (w *SerializingWrapper) Exists(name string) bool {
	if w.mu.IsLocked() {
		return false
	}
	return w.inner.Exists(name)
}

func (w *SerializingWrapper) ExistsAsync(name string, cb func(bool)) {
	w.mu.Lock(func() {
		w.inner.ExistsAsync(name, func(ok bool) {
			w.mu.Unlock()
			cb(ok)
		})
	})
}

func (w *SerializingWrapper) Chmod(name string, mode os.FileMode) error {
	if err := w.rejectIfLocked(); err != nil {
		return err
	}
	return w.inner.Chmod(name, mode)
}

func (w *SerializingWrapper) ChmodAsync(name string, mode os.FileMode, cb func(error)) {
	w.mu.Lock(func() {
		w.inner.ChmodAsync(name, mode, func(err error) {
			w.mu.Unlock()
			cb(err)
		})
	})
}

func (w *SerializingWrapper) Chown(name string, uid, gid int) error {
	if err := w.rejectIfLocked(); err != nil {
		return err
	}
	return w.inner.Chown(name, uid, gid)
}

func (w *SerializingWrapper) ChownAsync(name string, uid, gid int, cb func(error)) {
	w.mu.Lock(func() {
		w.inner.ChownAsync(name, uid, gid, func(err error) {
			w.mu.Unlock()
			cb(err)
		})
	})
}

func (w *SerializingWrapper) Chtimes(name string, atime, mtime time.Time) error {
	if err := w.rejectIfLocked(); err != nil {
		return err
	}
	return w.inner.Chtimes(name, atime, mtime)
}

func (w *SerializingWrapper) ChtimesAsync(name string, atime, mtime time.Time, cb func(error)) {
	w.mu.Lock(func() {
		w.inner.ChtimesAsync(name, atime, mtime, func(err error) {
			w.mu.Unlock()
			cb(err)
		})
	})
}

func (w *SerializingWrapper) IsReadOnly() bool     { return w.inner.IsReadOnly() }
func (w *SerializingWrapper) SupportsSynch() bool  { return w.inner.SupportsSynch() }
func (w *SerializingWrapper) SupportsLinks() bool  { return w.inner.SupportsLinks() }
func (w *SerializingWrapper) SupportsProps() bool  { return w.inner.SupportsProps() }
