package unionfs

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func newTestWrapper(t *testing.T) *SerializingWrapper {
	t.Helper()
	e, err := New(afero.NewMemMapFs(), afero.NewMemMapFs())
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}
	if err := e.InitializeSync(); err != nil {
		t.Fatalf("failed to initialize engine: %v", err)
	}
	return NewSerializingWrapper(e)
}

// holdingLayer delays the moment an Async call's own callback fires,
// so a test can observe the wrapper mid-critical-section: the wrapper
// unlocks right before invoking the caller's callback, so the hold has
// to sit inside the inner call, not around it.
type holdingLayer struct {
	Layer
	entered chan struct{}
	release chan struct{}
}

func (h *holdingLayer) StatAsync(name string, cb func(os.FileInfo, error)) {
	h.Layer.StatAsync(name, func(info os.FileInfo, err error) {
		close(h.entered)
		<-h.release
		cb(info, err)
	})
}

func TestSerializingWrapperRejectsSyncWhileLocked(t *testing.T) {
	e, _, _ := newTestEngine(t)
	held := &holdingLayer{Layer: e, entered: make(chan struct{}), release: make(chan struct{})}
	w := NewSerializingWrapper(held)

	done := make(chan struct{})
	w.StatAsync("/does-not-matter", func(os.FileInfo, error) { close(done) })

	<-held.entered
	if _, err := w.Stat("/a.txt"); err != ErrInvalidSyncCall {
		t.Fatalf("expected ErrInvalidSyncCall while locked, got %v", err)
	}
	close(held.release)
	<-done

	if w.IsLocked() {
		t.Fatal("expected wrapper unlocked once the Async call's callback has fired")
	}
}

func TestSerializingWrapperSerializesAsyncCalls(t *testing.T) {
	w := newTestWrapper(t)

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	wg.Add(3)

	record := func(i int) {
		mu.Lock()
		order = append(order, i)
		mu.Unlock()
		wg.Done()
	}

	w.WriteFileAsync("/1.txt", []byte("1"), 0644, func(error) { record(0) })
	w.WriteFileAsync("/2.txt", []byte("2"), 0644, func(error) { record(1) })
	w.WriteFileAsync("/3.txt", []byte("3"), 0644, func(error) { record(2) })

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async calls never completed")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 {
		t.Fatalf("expected 3 completions, got %d", len(order))
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("expected arrival-ordered completions [0 1 2], got %v", order)
		}
	}
}

func TestSerializingWrapperUnlocksAfterAsyncCall(t *testing.T) {
	w := newTestWrapper(t)
	done := make(chan struct{})
	w.WriteFileAsync("/x.txt", []byte("x"), 0644, func(error) { close(done) })
	<-done

	if w.IsLocked() {
		t.Fatal("wrapper should be unlocked once its Async callback has fired")
	}
	if _, err := w.Stat("/x.txt"); err != nil {
		t.Fatalf("expected sync Stat to succeed once unlocked, got %v", err)
	}
}
