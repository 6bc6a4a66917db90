package app

import "sync"

// idLock serializes mutations per workflow id: all state-store writes for a
// given id go through its lock, while different ids proceed in parallel.
type idLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newIDLock() *idLock {
	return &idLock{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for id, creating it on first use. Locks are never
// reclaimed; the id space is small (bounded by the slot capacity times
// history) and each entry is a single mutex.
func (l *idLock) Lock(id string) func() {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
