package unionfs

import (
	"os"
	"path"
)

// ensureParentDirs walks upward from parent(p) until it finds an
// ancestor that already exists on the writable layer (or reaches
// root), then creates the missing ancestors top-down on the writable
// layer, taking each one's mode from the union view. If an ancestor
// exists on neither layer, the walk stops at the first writable-present
// ancestor (or root) regardless, and that ancestor and everything below
// it are not created; the caller's own writable operation then fails
// with not-found unless the writable layer creates missing parents
// itself, exactly as spec.md §4.4 and the Open Questions in §9 describe.
func (e *Engine) ensureParentDirs(p string) error {
	dir := path.Dir(p)
	if dir == "/" || dir == "." {
		return nil
	}

	var missing []string
	for dir != "/" && dir != "." {
		if e.writable.Exists(dir) {
			break
		}
		missing = append(missing, dir)
		dir = path.Dir(dir)
	}

	// missing is deepest-first; create top-down.
	for i := len(missing) - 1; i >= 0; i-- {
		ancestor := missing[i]
		info, err := e.statUnion(ancestor)
		if err != nil {
			if IsNotFound(err) {
				return nil
			}
			return pathErr("mkdir", ancestor, err)
		}
		if err := e.writable.Mkdir(ancestor, info.Mode()); err != nil && !IsExist(err) {
			return pathErr("mkdir", ancestor, err)
		}
		e.cache.invalidate(ancestor)
	}
	return nil
}

// copyUp promotes path from the readable layer onto the writable
// layer. Precondition: path exists on readable and not on writable.
func (e *Engine) copyUp(p string) error {
	info, err := e.readable.Stat(p)
	if err != nil {
		return pathErr("copyup", p, err)
	}

	if err := e.ensureParentDirs(p); err != nil {
		return err
	}

	if info.IsDir() {
		if err := e.writable.Mkdir(p, info.Mode()); err != nil && !IsExist(err) {
			return pathErr("copyup", p, err)
		}
	} else {
		data, err := e.readable.ReadFile(p)
		if err != nil {
			return pathErr("copyup", p, err)
		}
		if err := e.writeFileEnsuringParents(p, data, info.Mode()); err != nil {
			return err
		}
	}

	// The path just materialized on the writable layer; any whiteout
	// recorded for it is now stale.
	if e.wlog.IsWhitedOut(p) {
		if err := e.wlog.RecordUndelete(p); err != nil {
			return err
		}
	}
	return nil
}

// writeFileEnsuringParents writes data to the writable layer at p,
// creating parent directories first. It is the "standard write path"
// referenced by spec.md §4.4's copyUp description.
func (e *Engine) writeFileEnsuringParents(p string, data []byte, mode os.FileMode) error {
	if err := e.ensureParentDirs(p); err != nil {
		return err
	}
	if err := e.writable.WriteFile(p, data, mode); err != nil {
		return pathErr("write", p, err)
	}
	return nil
}
