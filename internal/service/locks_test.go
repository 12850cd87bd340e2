package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOwnerLocksSerializeOverlappingKeySets(t *testing.T) {
	locks := newOwnerLocks()

	// Half the goroutines name the keys in reverse order; sorted acquisition
	// must keep them deadlock-free while still serializing the counter.
	const workers = 32
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			keys := []string{"owner-a", "owner-b"}
			if i%2 == 1 {
				keys = []string{"owner-b", "owner-a"}
			}
			release := locks.acquire(keys...)
			counter++
			release()
		}(i)
	}
	wg.Wait()
	require.Equal(t, workers, counter)
}

func TestOwnerLocksIgnoreEmptyAndDuplicateKeys(t *testing.T) {
	locks := newOwnerLocks()

	release := locks.acquire("", "owner-a", "owner-a")
	release()

	// A second acquisition of the same key must succeed after release.
	release = locks.acquire("owner-a")
	release()
}

func TestOwnerLocksIndependentKeysDoNotBlock(t *testing.T) {
	locks := newOwnerLocks()

	releaseA := locks.acquire("owner-a")
	defer releaseA()

	done := make(chan struct{})
	go func() {
		release := locks.acquire("owner-b")
		release()
		close(done)
	}()
	<-done
}
