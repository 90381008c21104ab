package unionfs

import (
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// widenMode clones info with its mode bits or'd with 0o222 (write
// permission for user/group/other), preserving the file-type high
// bits. Per spec.md §4.5, a file visible only through the readable
// layer is reported as writable through the union even though the
// readable layer itself may be read-only — the write would simply
// trigger a copy-up.
type widenedFileInfo struct {
	os.FileInfo
	mode os.FileMode
}

func (w widenedFileInfo) Mode() os.FileMode { return w.mode }

func widenMode(info os.FileInfo) os.FileInfo {
	return widenedFileInfo{FileInfo: info, mode: info.Mode() | 0o222}
}

// Stat resolves name through the union: writable first, then — if
// absent there and not whited-out — readable, with its mode widened to
// report writability.
func (e *Engine) Stat(name string) (os.FileInfo, error) {
	if err := e.requireInitialized(); err != nil {
		return nil, pathErr("stat", name, err)
	}
	return e.stat(cleanPath(name))
}

func (e *Engine) stat(name string) (os.FileInfo, error) {
	if info, ok := e.cache.getStat(name); ok {
		return info, nil
	}
	if e.cache.isNegative(name) {
		return nil, pathErr("stat", name, ErrNotFound)
	}

	info, err := e.writable.Stat(name)
	if err == nil {
		e.cache.putStat(name, info)
		return info, nil
	}
	if !IsNotFound(err) {
		return nil, pathErr("stat", name, err)
	}

	if e.wlog.IsWhitedOut(name) {
		e.cache.putNegative(name)
		return nil, pathErr("stat", name, ErrNotFound)
	}

	info, err = e.readable.Stat(name)
	if err != nil {
		if IsNotFound(err) {
			e.cache.putNegative(name)
		}
		return nil, pathErr("stat", name, err)
	}
	widened := widenMode(info)
	e.cache.putStat(name, widened)
	return widened, nil
}

// Lstat is identical to Stat: the union never follows symlinks because
// SupportsLinks is always false (spec.md Non-goals).
func (e *Engine) Lstat(name string) (os.FileInfo, error) { return e.Stat(name) }

// Exists reports whether name is visible through the union.
func (e *Engine) Exists(name string) bool {
	_, err := e.Stat(name)
	return err == nil
}

// ReadDir lists name's directory entries, merging writable and
// readable, preferring writable on name collisions, and dropping any
// entry whited-out at "{name}/{entry}".
func (e *Engine) ReadDir(name string) ([]os.FileInfo, error) {
	if err := e.requireInitialized(); err != nil {
		return nil, pathErr("readdir", name, err)
	}
	name = cleanPath(name)

	info, err := e.stat(name)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, pathErr("readdir", name, ErrNotDirectory)
	}

	wEntries, err := e.writable.ReadDir(name)
	if err != nil && !IsNotFound(err) {
		return nil, pathErr("readdir", name, err)
	}
	rEntries, err := e.readable.ReadDir(name)
	if err != nil && !IsNotFound(err) {
		return nil, pathErr("readdir", name, err)
	}

	seen := make(map[string]bool, len(wEntries)+len(rEntries))
	var merged []os.FileInfo
	for _, entries := range [][]os.FileInfo{wEntries, rEntries} {
		for _, entry := range entries {
			if seen[entry.Name()] {
				continue
			}
			if e.wlog.IsWhitedOut(path.Join(name, entry.Name())) {
				continue
			}
			seen[entry.Name()] = true
			merged = append(merged, entry)
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		return strings.ToLower(merged[i].Name()) < strings.ToLower(merged[j].Name())
	})
	return merged, nil
}

// Open resolves the path-exists/path-not-exists action implied by flag
// and routes to writable, readable (via OverlayFile), or copy-up, per
// spec.md §4.5.
func (e *Engine) Open(name string, flag int, mode os.FileMode) (afero.File, error) {
	if err := e.requireInitialized(); err != nil {
		return nil, pathErr("open", name, err)
	}
	name = cleanPath(name)

	visible := e.Exists(name)
	truncate := flag&os.O_TRUNC != 0
	excl := flag&os.O_EXCL != 0
	create := flag&os.O_CREATE != 0

	if visible {
		if excl && create {
			return nil, pathErr("open", name, ErrExist)
		}
		if truncate {
			if err := e.ensureParentDirs(name); err != nil {
				return nil, err
			}
			e.cache.invalidate(name)
			f, err := e.writable.Open(name, flag, mode)
			if err != nil {
				return nil, pathErr("open", name, err)
			}
			if e.wlog.IsWhitedOut(name) {
				if err := e.wlog.RecordUndelete(name); err != nil {
					return nil, err
				}
			}
			return f, nil
		}
		// No-op-on-exists: use existing content.
		if e.writable.Exists(name) {
			return e.writable.Open(name, flag, mode)
		}
		info, err := e.stat(name)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			return newUnionDir(e, name)
		}
		return newOverlayFile(e, name, flag, info)
	}

	if !create {
		return nil, pathErr("open", name, ErrNotFound)
	}
	if err := e.ensureParentDirs(name); err != nil {
		return nil, err
	}
	e.cache.invalidate(name)
	f, err := e.writable.Open(name, flag, mode)
	if err != nil {
		return nil, pathErr("open", name, err)
	}
	if e.wlog.IsWhitedOut(name) {
		if err := e.wlog.RecordUndelete(name); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// Unlink removes name. If present on writable it is removed there;
// if the path remains visible (present on readable, not yet
// whited-out) a whiteout is recorded. If name exists only on
// readable, a whiteout is recorded directly.
func (e *Engine) Unlink(name string) error {
	if err := e.requireInitialized(); err != nil {
		return pathErr("unlink", name, err)
	}
	name = cleanPath(name)

	if !e.Exists(name) {
		return pathErr("unlink", name, ErrNotFound)
	}

	onWritable := e.writable.Exists(name)
	if onWritable {
		if err := e.writable.Unlink(name); err != nil {
			return pathErr("unlink", name, err)
		}
		e.cache.invalidate(name)
		if !e.readable.Exists(name) {
			return nil
		}
	}

	if err := e.wlog.RecordDelete(name); err != nil {
		return err
	}
	e.cache.invalidate(name)
	return nil
}

// Rmdir removes an empty directory, following the same
// writable-then-whiteout shape as Unlink but requiring the union view
// of the directory to be empty before recording the whiteout.
func (e *Engine) Rmdir(name string) error {
	if err := e.requireInitialized(); err != nil {
		return pathErr("rmdir", name, err)
	}
	name = cleanPath(name)

	if !e.Exists(name) {
		return pathErr("rmdir", name, ErrNotFound)
	}

	if e.writable.Exists(name) {
		if err := e.writable.Rmdir(name); err != nil {
			return pathErr("rmdir", name, err)
		}
		e.cache.invalidate(name)
	}

	if !e.readable.Exists(name) {
		return nil
	}

	entries, err := e.ReadDir(name)
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return pathErr("rmdir", name, ErrNotEmpty)
	}

	if err := e.wlog.RecordDelete(name); err != nil {
		return err
	}
	e.cache.invalidate(name)
	return nil
}

// Mkdir creates a directory on the writable layer, failing with
// already-exists if the path is already visible. A stale whiteout for
// name is cleared explicitly, even though writable-first resolution
// would already mask it.
func (e *Engine) Mkdir(name string, mode os.FileMode) error {
	if err := e.requireInitialized(); err != nil {
		return pathErr("mkdir", name, err)
	}
	name = cleanPath(name)

	if e.Exists(name) {
		return pathErr("mkdir", name, ErrExist)
	}

	if err := e.ensureParentDirs(name); err != nil {
		return err
	}
	if err := e.writable.Mkdir(name, mode); err != nil {
		return pathErr("mkdir", name, err)
	}
	if e.wlog.IsWhitedOut(name) {
		if err := e.wlog.RecordUndelete(name); err != nil {
			return err
		}
	}
	e.cache.invalidate(name)
	return nil
}

// Chmod, Chown and Utimes share the same copy-up-then-apply shape.
func (e *Engine) Chmod(name string, mode os.FileMode) error {
	if err := e.requireAttrChange(name); err != nil {
		return pathErr("chmod", name, err)
	}
	name = cleanPath(name)
	if err := e.writable.Chmod(name, mode); err != nil {
		return pathErr("chmod", name, err)
	}
	e.cache.invalidate(name)
	return nil
}

func (e *Engine) Chown(name string, uid, gid int) error {
	if err := e.requireAttrChange(name); err != nil {
		return pathErr("chown", name, err)
	}
	name = cleanPath(name)
	if err := e.writable.Chown(name, uid, gid); err != nil {
		return pathErr("chown", name, err)
	}
	e.cache.invalidate(name)
	return nil
}

func (e *Engine) Utimes(name string, atime, mtime time.Time) error {
	if err := e.requireAttrChange(name); err != nil {
		return pathErr("utimes", name, err)
	}
	name = cleanPath(name)
	if err := e.writable.Chtimes(name, atime, mtime); err != nil {
		return pathErr("utimes", name, err)
	}
	e.cache.invalidate(name)
	return nil
}

// requireAttrChange asserts initialization, resolves name, and copies
// it up if it only exists on the readable layer, leaving the caller to
// apply its specific attribute change to the writable layer.
func (e *Engine) requireAttrChange(name string) error {
	if err := e.requireInitialized(); err != nil {
		return err
	}
	name = cleanPath(name)
	if !e.Exists(name) {
		return ErrNotFound
	}
	if !e.writable.Exists(name) {
		return e.copyUp(name)
	}
	return nil
}
