package service

import (
	"sort"
	"sync"
)

// ownerLocks serializes commits per owner while unrelated owners commit in
// parallel. Keys are always acquired in sorted order so a swap touching two
// owners cannot deadlock against the reverse swap.
type ownerLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newOwnerLocks() *ownerLocks {
	return &ownerLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks every key and returns the matching release function.
func (l *ownerLocks) acquire(keys ...string) func() {
	unique := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, key)
	}
	sort.Strings(unique)

	held := make([]*sync.Mutex, 0, len(unique))
	for _, key := range unique {
		l.mu.Lock()
		mu, ok := l.locks[key]
		if !ok {
			mu = &sync.Mutex{}
			l.locks[key] = mu
		}
		l.mu.Unlock()
		mu.Lock()
		held = append(held, mu)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
