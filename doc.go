/*
Package unionfs implements a copy-on-write union filesystem: a
read-only layer and a writable layer composed into one namespace, with
lazy copy-up on first write and a persistent whiteout log recording
deletions of entries that only exist on the read-only side.

# Overview

An Engine composes exactly two afero.Fs-backed layers: writable (on
top) and readable (on the bottom). Reads resolve writable first, then
readable; writes always land on writable. The result behaves like a
single filesystem even though deletions of readable-only entries can't
actually remove anything from a read-only layer.

# Basic Usage

	package main

	import (
	    "github.com/coweave/unionfs"
	    "github.com/spf13/afero"
	)

	func main() {
	    base := afero.NewOsFs()
	    overlay := afero.NewMemMapFs()

	    e, err := unionfs.New(overlay, base)
	    if err != nil {
	        panic(err)
	    }
	    if err := e.InitializeSync(); err != nil {
	        panic(err)
	    }

	    data, err := e.ReadFile("/etc/config.yml") // falls through to base
	    err = e.WriteFile("/etc/custom.yml", []byte("key: value"), 0644) // lands on overlay

	    f, err := e.Open("/etc/config.yml", os.O_RDWR, 0)
	    f.Write([]byte("modified")) // buffered in memory
	    f.Close()                   // copies the buffer up to overlay
	}

# Copy-on-Write

Modifying a file that only exists on the readable layer copies it to
the writable layer first, so the readable layer is never mutated:

	afero.WriteFile(base, "/config.txt", []byte("original"), 0644)

	e, _ := unionfs.New(overlay, base)
	e.InitializeSync()

	e.WriteFile("/config.txt", []byte("modified"), 0644) // triggers copy-up

	data, _ := e.ReadFile("/config.txt")          // "modified"
	data, _ = afero.ReadFile(base, "/config.txt") // "original", untouched

# Whiteouts

Deleting a readable-only path appends a record to an append-only log at
/.deletedFiles.log on the writable layer rather than touching the
readable layer (which may genuinely be unwritable — a read-only mount,
an embedded asset bundle, a remote blob store). The log is replayed
into an in-memory set on Engine.Initialize, so whiteouts survive
process restarts without needing per-entry marker files:

	afero.WriteFile(base, "/file.txt", []byte("content"), 0644)

	e.Unlink("/file.txt")                  // appends "d/file.txt\n" to the log
	_, err := e.Stat("/file.txt")          // not found, through the union
	_, err = base.Stat("/file.txt")        // still exists on the readable layer

Recreating a whited-out path appends an undelete record instead of
rewriting history, which keeps the log append-only and makes recovery a
single linear scan.

# Directory Merging

Reading a directory merges writable and readable entries, preferring
writable on name collisions and dropping anything recorded as
whited-out at that child path.

# Asynchronous Operations

Every Engine operation has a callback-based Async twin (StatAsync,
OpenAsync, RenameAsync, ...) alongside its ordinary blocking form.
Wrapping an Engine (or a single Layer) in a SerializingWrapper forces
all of its Async calls through one FIFO queue and rejects synchronous
calls outright while an Async call is in flight — useful for callers
that need operations on a shared Engine to never interleave, without
reaching for a global lock of their own.

# Compatibility

Engine.FileSystem() exposes an absfs.FileSystem view with its own
working-directory state, for code written against the absfs ecosystem
rather than directly against Engine.

# Limitations

  - Exactly two layers: one writable, one readable. Stacking more than
    one read-only layer is out of scope; compose multiple readable
    afero.Fs values into one (e.g. via afero.CopyOnWriteFs, or a
    caller-supplied Layer) if that's needed.
  - Hard and symbolic links are not supported; SupportsLinks always
    reports false.
  - File locking behavior is whatever the backing afero.Fs provides.
*/
package unionfs
