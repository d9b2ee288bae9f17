package sync

import (
	"fmt"
	"sort"
	base "sync"
)

const (
	hashEntriesPerLock = 200
)

// StripedLock is a partitioned locking mechanism that consistently maps a key
// space to a set of locks. This provides concurrent data access while also
// limiting the total memory footprint.
type StripedLock struct {
	locks    []base.RWMutex
	hashRing *ring
}

// NewStripedLock returns a new StripedLock with a static number of stripes.
func NewStripedLock(stripes uint) *StripedLock {
	if stripes == 0 {
		stripes = 1
	}

	names := make([]string, stripes)
	for i := range names {
		names[i] = fmt.Sprintf("lock%d", i)
	}

	return &StripedLock{
		locks:    make([]base.RWMutex, stripes),
		hashRing: newRing(names, hashEntriesPerLock),
	}
}

// Get gets the lock for a key
func (l *StripedLock) Get(key []byte) *base.RWMutex {
	return &l.locks[l.stripe(key)]
}

// LockAll acquires the stripes for every provided key and returns a function
// that releases them. A stripe is write locked if any writable key maps to it,
// and read locked otherwise.
//
// Stripes are always acquired in ascending index order, so callers with
// overlapping key sets cannot deadlock each other.
func (l *StripedLock) LockAll(writable, readonly [][]byte) (unlock func()) {
	exclusive := make(map[int]bool)
	for _, key := range readonly {
		stripe := l.stripe(key)
		if _, ok := exclusive[stripe]; !ok {
			exclusive[stripe] = false
		}
	}
	for _, key := range writable {
		exclusive[l.stripe(key)] = true
	}

	stripes := make([]int, 0, len(exclusive))
	for stripe := range exclusive {
		stripes = append(stripes, stripe)
	}
	sort.Ints(stripes)

	for _, stripe := range stripes {
		if exclusive[stripe] {
			l.locks[stripe].Lock()
		} else {
			l.locks[stripe].RLock()
		}
	}

	return func() {
		for i := len(stripes) - 1; i >= 0; i-- {
			stripe := stripes[i]
			if exclusive[stripe] {
				l.locks[stripe].Unlock()
			} else {
				l.locks[stripe].RUnlock()
			}
		}
	}
}

func (l *StripedLock) stripe(key []byte) int {
	return l.hashRing.stripe(key)
}
