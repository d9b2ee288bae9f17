package sync

import (
	"fmt"
	"sync"
	base "sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripedLock_HappyPath(t *testing.T) {
	workerCount := 256
	operationCount := 100000

	l := NewStripedLock(4)

	var workerWg base.WaitGroup
	startChan := make(chan struct{}, 0)
	data := make([]int, workerCount)

	for i := 0; i < workerCount; i++ {
		workerWg.Add(1)

		go func(workerID int) {
			defer workerWg.Done()

			var opWg sync.WaitGroup
			key := []byte(fmt.Sprintf("worker%d", workerID))
			for j := 0; j < operationCount; j++ {
				opWg.Add(1)

				go func() {
					defer opWg.Done()

					select {
					case <-startChan:
					}

					mu := l.Get([]byte(key))
					mu.Lock()
					data[workerID]++
					mu.Unlock()
				}()
			}
			opWg.Wait()
		}(i)
	}

	close(startChan)
	workerWg.Wait()

	for _, val := range data {
		assert.EqualValues(t, operationCount, val)
	}
}

func TestStripedLock_LockAll(t *testing.T) {
	workerCount := 64
	operationCount := 1000

	l := NewStripedLock(8)

	// Every worker moves a unit between two shared counters, with the key
	// order flipped on alternating workers.
	keys := [][]byte{[]byte("account-a"), []byte("account-b")}
	balances := map[string]int{
		"account-a": workerCount * operationCount,
		"account-b": 0,
	}

	var wg base.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)

		go func(workerID int) {
			defer wg.Done()

			writable := [][]byte{keys[0], keys[1]}
			if workerID%2 == 1 {
				writable = [][]byte{keys[1], keys[0]}
			}

			for j := 0; j < operationCount; j++ {
				unlock := l.LockAll(writable, nil)
				balances["account-a"]--
				balances["account-b"]++
				unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, balances["account-a"])
	assert.Equal(t, workerCount*operationCount, balances["account-b"])
}

func TestStripedLock_LockAllSharedReaders(t *testing.T) {
	l := NewStripedLock(1)

	// With a single stripe both keys collide. Readers can still share it.
	unlock1 := l.LockAll(nil, [][]byte{[]byte("a")})
	unlock2 := l.LockAll(nil, [][]byte{[]byte("b")})
	unlock2()
	unlock1()

	// A key listed as both writable and readonly is locked once, exclusively.
	unlock := l.LockAll([][]byte{[]byte("a")}, [][]byte{[]byte("a"), []byte("b")})
	assert.False(t, l.Get([]byte("a")).TryRLock())
	unlock()
	assert.True(t, l.Get([]byte("a")).TryLock())
	l.Get([]byte("a")).Unlock()
}
