package qdrant

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeyedLockSerializesOverlappingSets(t *testing.T) {
	k := newKeyedLock()
	var inside int32
	var maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			keys := []string{"b", "a"}
			if i%2 == 0 {
				keys = []string{"a", "c", "a"}
			}
			unlock := k.lock(keys)
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}(i)
	}
	wg.Wait()
	if maxInside != 1 {
		t.Fatalf("overlapping holders: want=1 got=%d", maxInside)
	}
	if k.size() != 0 {
		t.Fatalf("entries after release: want=0 got=%d", k.size())
	}
}

func TestKeyedLockDistinctKeysProceed(t *testing.T) {
	k := newKeyedLock()
	unlockA := k.lock([]string{"a"})
	done := make(chan struct{})
	go func() {
		unlockB := k.lock([]string{"b"})
		unlockB()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("lock on distinct key blocked")
	}
	unlockA()
}
