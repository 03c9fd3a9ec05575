package qdrant

import (
	"sort"
	"sync"
)

// keyedLock serializes work per key. Locking a set of keys acquires them in
// sorted order so overlapping sets cannot deadlock.
type keyedLock struct {
	mu    sync.Mutex
	locks map[string]*keyEntry
}

type keyEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedLock() *keyedLock {
	return &keyedLock{locks: make(map[string]*keyEntry)}
}

func (k *keyedLock) lock(keys []string) func() {
	uniq := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		uniq = append(uniq, key)
	}
	sort.Strings(uniq)

	held := make([]*keyEntry, 0, len(uniq))
	for _, key := range uniq {
		k.mu.Lock()
		e := k.locks[key]
		if e == nil {
			e = &keyEntry{}
			k.locks[key] = e
		}
		e.refs++
		k.mu.Unlock()
		e.mu.Lock()
		held = append(held, e)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
			k.mu.Lock()
			held[i].refs--
			if held[i].refs == 0 {
				delete(k.locks, uniq[i])
			}
			k.mu.Unlock()
		}
	}
}

func (k *keyedLock) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
