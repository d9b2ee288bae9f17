package ledger

import (
	"crypto/sha256"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignatureFilter(t *testing.T) {
	filter := newSignatureFilter(100)

	var signatures [][]byte
	for i := 0; i < 1000; i++ {
		h := sha256.Sum256([]byte(fmt.Sprintf("signature%d", i)))
		signatures = append(signatures, h[:])
	}

	for _, signature := range signatures[:500] {
		assert.False(t, filter.contains(signature))
		filter.add(signature)
		assert.True(t, filter.contains(signature))
	}

	// The filter is intentionally overfilled, so its bloom will report false
	// positives that the exact set must reject.
	for _, signature := range signatures[500:] {
		assert.False(t, filter.contains(signature))
	}
	for _, signature := range signatures[:500] {
		assert.True(t, filter.contains(signature))
	}
}
