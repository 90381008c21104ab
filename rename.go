package unionfs

import (
	"os"
	"path"
)

// Rename implements the cross-layer rename algorithm of spec.md §4.5:
// directories are recursively rewritten into the writable layer when
// the source directory hasn't been copied up yet, and whiteouts are
// recorded for every path vacated on the readable side.
func (e *Engine) Rename(oldPath, newPath string) error {
	if err := e.requireInitialized(); err != nil {
		return pathErr("rename", oldPath, err)
	}
	oldPath = cleanPath(oldPath)
	newPath = cleanPath(newPath)

	if oldPath == newPath {
		return nil
	}

	oldInfo, err := e.stat(oldPath)
	if err != nil {
		return pathErr("rename", oldPath, ErrNotFound)
	}

	newInfo, newErr := e.stat(newPath)
	newExists := newErr == nil

	if oldInfo.IsDir() {
		return e.renameDir(oldPath, newPath, newExists, newInfo)
	}
	return e.renameFile(oldPath, newPath, newExists, newInfo)
}

func (e *Engine) renameDir(oldPath, newPath string, newExists bool, newInfo os.FileInfo) error {
	if newExists {
		if !newInfo.IsDir() {
			return pathErr("rename", newPath, ErrNotDirectory)
		}
		entries, err := e.ReadDir(newPath)
		if err != nil {
			return err
		}
		if len(entries) > 0 {
			return pathErr("rename", newPath, ErrNotEmpty)
		}
		return e.renameChildrenInto(oldPath, newPath)
	}

	if e.writable.Exists(oldPath) {
		if err := e.ensureParentDirs(newPath); err != nil {
			return err
		}
		if err := e.writable.Rename(oldPath, newPath); err != nil {
			return pathErr("rename", oldPath, err)
		}
		e.cache.invalidateTree(oldPath)
		e.cache.invalidateTree(newPath)
		return e.whiteoutVacatedDir(oldPath)
	}

	if err := e.ensureParentDirs(newPath); err != nil {
		return err
	}
	if err := e.writable.Mkdir(newPath, 0o777); err != nil && !IsExist(err) {
		return pathErr("rename", newPath, err)
	}
	e.cache.invalidate(newPath)
	return e.renameChildrenInto(oldPath, newPath)
}

// renameChildrenInto recursively renames every child oldDir has through
// the union — writable and readable merged, exactly as ReadDir reports
// them — into newDir, materializing newDir on writable as a side effect
// of each child's own ensureParentDirs, then whiteouts oldDir itself
// once it's empty. oldDir may itself already have an independent
// writable-resident presence (e.g. a file created under it before this
// rename ran); enumerating via the merged view, not readable alone, is
// what guarantees every such child is actually moved.
func (e *Engine) renameChildrenInto(oldDir, newDir string) error {
	children, err := e.ReadDir(oldDir)
	if err != nil && !IsNotFound(err) {
		return pathErr("rename", oldDir, err)
	}
	for _, child := range children {
		oldChild := path.Join(oldDir, child.Name())
		newChild := path.Join(newDir, child.Name())
		if err := e.Rename(oldChild, newChild); err != nil {
			return err
		}
	}
	return e.whiteoutVacatedDir(oldDir)
}

// whiteoutVacatedDir finishes vacating p once its children (if any) have
// already been moved out. If p still has a writable-side entry — left
// behind, now empty, because its children were removed individually
// rather than via a whole-directory Rename — that entry is removed
// first, so p is never simultaneously whited out and present on
// writable (spec.md §3 Invariant 3). A whiteout is then recorded only if
// p remains visible on readable.
func (e *Engine) whiteoutVacatedDir(p string) error {
	if e.writable.Exists(p) {
		if err := e.writable.Rmdir(p); err != nil {
			return pathErr("rename", p, err)
		}
		e.cache.invalidate(p)
	}
	if !e.readable.Exists(p) || e.wlog.IsWhitedOut(p) {
		return nil
	}
	if err := e.wlog.RecordDelete(p); err != nil {
		return err
	}
	e.cache.invalidate(p)
	return nil
}

func (e *Engine) renameFile(oldPath, newPath string, newExists bool, newInfo os.FileInfo) error {
	if newExists && newInfo.IsDir() {
		return pathErr("rename", newPath, ErrIsDirectory)
	}

	oldInfo, err := e.stat(oldPath)
	if err != nil {
		return pathErr("rename", oldPath, err)
	}
	data, err := e.readFileUnion(oldPath)
	if err != nil {
		return err
	}
	if err := e.writeFileEnsuringParents(newPath, data, oldInfo.Mode()); err != nil {
		return err
	}
	e.cache.invalidate(newPath)
	if e.wlog.IsWhitedOut(newPath) {
		if err := e.wlog.RecordUndelete(newPath); err != nil {
			return err
		}
	}

	return e.Unlink(oldPath)
}

// readFileUnion reads p's content through the union: writable if
// present, else readable.
func (e *Engine) readFileUnion(p string) ([]byte, error) {
	if e.writable.Exists(p) {
		data, err := e.writable.ReadFile(p)
		if err != nil {
			return nil, pathErr("rename", p, err)
		}
		return data, nil
	}
	data, err := e.readable.ReadFile(p)
	if err != nil {
		return nil, pathErr("rename", p, err)
	}
	return data, nil
}
