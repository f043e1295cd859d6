package occupancy

import (
	"sync"
)

// keyedMutex hands out one mutex per room so admission decisions for a
// room are serialized while different rooms never contend. Entries are
// reference counted and removed once the last holder unlocks, so the
// map does not grow with the number of rooms ever seen.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uint]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[uint]*lockEntry)}
}

// Lock acquires the mutex for the given key and returns the matching
// unlock func.
func (k *keyedMutex) Lock(key uint) func() {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &lockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
