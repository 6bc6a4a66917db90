package app

import (
	"sync"
	"testing"
	"time"
)

func TestIDLockSerializesPerID(t *testing.T) {
	locks := newIDLock()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("a1b2c3d4")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("counter = %d, want 50", counter)
	}
}

func TestIDLockIndependentIDs(t *testing.T) {
	locks := newIDLock()

	// Holding one id's lock must not block another id.
	unlockA := locks.Lock("a1b2c3d4")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock("b2c3d4e5")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("independent id blocked behind another id's lock")
	}
}
