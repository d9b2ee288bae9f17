package ledger

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/emirpasic/gods/sets/hashset"
	"github.com/mr-tron/base58"
)

const (
	signatureFilterErrRate = 0.01
)

// signatureFilter tracks the signatures of committed transactions. The bloom
// filter answers most lookups for unseen signatures, and the exact set resolves
// its false positives.
type signatureFilter struct {
	mu    sync.RWMutex
	bloom *bloom.BloomFilter
	seen  *hashset.Set
}

func newSignatureFilter(estimatedSize uint) *signatureFilter {
	if estimatedSize == 0 {
		estimatedSize = defaultSignatureFilterSize
	}

	return &signatureFilter{
		bloom: bloom.NewWithEstimates(estimatedSize, signatureFilterErrRate),
		seen:  hashset.New(),
	}
}

func (f *signatureFilter) contains(signature []byte) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.bloom.Test(signature) {
		return false
	}
	return f.seen.Contains(base58.Encode(signature))
}

func (f *signatureFilter) add(signature []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.bloom.Add(signature)
	f.seen.Add(base58.Encode(signature))
}
