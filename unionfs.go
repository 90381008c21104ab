package unionfs

import (
	"os"
	"path"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"
)

// Engine is the union filesystem: it composes a writable layer and a
// readable layer into one namespace, routing mutations to writable
// (copying up from readable on first touch) and resolving reads
// through both, masking deletions recorded in its WhiteoutLog.
type Engine struct {
	writable Layer
	readable Layer
	wlog     *WhiteoutLog
	cache    *Cache

	initialized atomic.Bool
	initMu      sync.Mutex
	initWaiters []func(error)

	copyBufferSize int
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithStatCache enables stat/negative caching on the Engine, mirroring
// the teacher's WithStatCache option.
func WithStatCache(enabled bool, ttl, negativeTTL time.Duration, maxEntries int) Option {
	return func(e *Engine) {
		e.cache = newCache(enabled, ttl, negativeTTL, maxEntries)
	}
}

// WithCopyBufferSize records a copy buffer size on the Engine. Copy-up
// reads and writes each file whole and does not consult this value.
func WithCopyBufferSize(size int) Option {
	return func(e *Engine) { e.copyBufferSize = size }
}

// New constructs an Engine over a writable afero.Fs and a readable
// afero.Fs. Per spec.md §3, writable must not be read-only. afero.Fs
// has no uniform "am I read-only" query, so New does not detect it: it
// marks writable as not read-only and readable as read-only. Callers
// that need to state a layer's read-only flag use NewWithLayers.
func New(writable afero.Fs, readable afero.Fs, opts ...Option) (*Engine, error) {
	return NewWithLayers(NewAferoLayer(writable, false), NewAferoLayer(readable, true), opts...)
}

// NewWithLayers constructs an Engine directly from Layer
// implementations, for callers that need a Layer other than
// aferoLayer. writable.IsReadOnly() must be false.
func NewWithLayers(writable, readable Layer, opts ...Option) (*Engine, error) {
	if writable.IsReadOnly() {
		return nil, pathErr("unionfs.New", "", ErrInvalidArgument)
	}

	e := &Engine{
		writable:       writable,
		readable:       readable,
		cache:          newCache(false, 0, 0, 0),
		copyBufferSize: 32 * 1024,
	}
	e.wlog = NewWhiteoutLog(writable)
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Initialize recovers the whiteout log and marks the Engine ready for
// use. Every other public operation fails with ErrNotInitialized until
// this completes successfully. Concurrent Initialize calls before the
// first completes are all notified with the same result; calling it
// again after success is a no-op that invokes cb immediately.
func (e *Engine) Initialize(cb func(error)) {
	if e.initialized.Load() {
		cb(nil)
		return
	}

	e.initMu.Lock()
	first := len(e.initWaiters) == 0
	e.initWaiters = append(e.initWaiters, cb)
	e.initMu.Unlock()

	if !first {
		return
	}

	e.wlog.Initialize(func(err error) {
		e.initMu.Lock()
		waiters := e.initWaiters
		e.initWaiters = nil
		e.initMu.Unlock()

		if err == nil {
			e.initialized.Store(true)
		}
		for _, waiter := range waiters {
			waiter(err)
		}
	})
}

// InitializeSync is the blocking equivalent of Initialize.
func (e *Engine) InitializeSync() error {
	done := make(chan error, 1)
	e.Initialize(func(err error) { done <- err })
	return <-done
}

// requireInitialized is the assertion every public operation other
// than Initialize must pass.
func (e *Engine) requireInitialized() error {
	if !e.initialized.Load() {
		return ErrNotInitialized
	}
	return nil
}

// GetOverlayedFileSystems returns the two layers backing this Engine.
func (e *Engine) GetOverlayedFileSystems() (writable, readable Layer) {
	return e.writable, e.readable
}

// IsReadOnly is always false: a union engine always has a writable
// layer by construction.
func (e *Engine) IsReadOnly() bool { return false }

// SupportsLinks is always false: hard and symbolic links are an
// explicit Non-goal (spec.md §1).
func (e *Engine) SupportsLinks() bool { return false }

// SupportsSynch reports whether both layers support synchronous
// operation.
func (e *Engine) SupportsSynch() bool {
	return e.writable.SupportsSynch() && e.readable.SupportsSynch()
}

// SupportsProps reports whether both layers support extended
// properties (ownership).
func (e *Engine) SupportsProps() bool {
	return e.writable.SupportsProps() && e.readable.SupportsProps()
}

// statUnion resolves p through the union with no mode-widening applied,
// for internal callers (ensureParentDirs) that need the raw
// type/mode of whichever layer currently owns the path.
func (e *Engine) statUnion(p string) (os.FileInfo, error) {
	if info, err := e.writable.Stat(p); err == nil {
		return info, nil
	} else if !IsNotFound(err) {
		return nil, err
	}
	if e.wlog.IsWhitedOut(p) {
		return nil, ErrNotFound
	}
	return e.readable.Stat(p)
}

// cleanPath cleans a forward-slash virtual path and makes it absolute,
// matching the teacher's cleanPath helper. It does not convert other
// separators.
func cleanPath(p string) string {
	cleaned := path.Clean(p)
	if cleaned == "" || cleaned[0] != '/' {
		cleaned = "/" + cleaned
	}
	return cleaned
}
