package unionfs

import (
	"sync"
	"testing"
	"time"
)

func TestMutexGrantsImmediatelyWhenFree(t *testing.T) {
	m := NewMutex()
	done := make(chan struct{})
	m.Lock(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter never scheduled on a free mutex")
	}
	if !m.IsLocked() {
		t.Fatal("expected mutex to be locked after Lock's waiter ran")
	}
}

func TestMutexQueuesFIFO(t *testing.T) {
	m := NewMutex()
	var order []int
	var mu sync.Mutex
	record := func(i int) { mu.Lock(); order = append(order, i); mu.Unlock() }

	var wg sync.WaitGroup
	wg.Add(3)
	m.Lock(func() {
		record(0)
		m.Lock(func() { record(1); m.Unlock(); wg.Done() })
		m.Lock(func() { record(2); m.Unlock(); wg.Done() })
		m.Unlock()
		wg.Done()
	})
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Fatalf("expected FIFO order [0 1 2], got %v", order)
	}
}

func TestMutexUnlockWithoutLockPanics(t *testing.T) {
	m := NewMutex()
	defer func() {
		if recover() == nil {
			t.Fatal("expected Unlock on a free mutex to panic")
		}
	}()
	m.Unlock()
}

func TestMutexIsLockedReflectsState(t *testing.T) {
	m := NewMutex()
	if m.IsLocked() {
		t.Fatal("new mutex should not be locked")
	}
	released := make(chan struct{})
	m.Lock(func() {
		if !m.IsLocked() {
			t.Error("mutex should report locked while a waiter holds it")
		}
		m.Unlock()
		close(released)
	})
	<-released
	if m.IsLocked() {
		t.Fatal("mutex should report unlocked after its sole waiter unlocked it")
	}
}
