package app

import "sync"

// keyedMutex serializes work per string key. The score recompute for a
// (user, dimension) pair and the ranking recompute for a user must each be
// mutually exclusive with themselves: two concurrent submissions reading the
// same comparison log and racing their replace-upserts would let one
// overwrite the other with stale rows.
//
// Mutexes are created on first use and kept for the process lifetime; the
// key space (users x dimensions) is small enough that no eviction is needed.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it if needed, and returns the
// matching unlock function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
