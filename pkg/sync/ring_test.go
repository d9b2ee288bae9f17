package sync

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRing_Consistency(t *testing.T) {
	names := stripeNames("lock", 64)
	r := newRing(names, 200)
	other := newRing(names, 200)

	for i := 0; i < 256; i++ {
		key := []byte(fmt.Sprintf("key%d", i))
		stripe := r.stripe(key)
		require.True(t, stripe >= 0 && stripe < 64)

		assert.Equal(t, stripe, r.stripe(key))
		assert.Equal(t, stripe, other.stripe(key))
	}
}

func TestRing_Distribution(t *testing.T) {
	stripes := 5
	iterations := 500000
	marginOfError := 0.1
	expectedFrequency := iterations / stripes

	r := newRing(stripeNames("entry", stripes), 200)

	hits := make(map[int]int)
	for i := 0; i < iterations; i++ {
		hits[r.stripe([]byte(fmt.Sprintf("key%d", i)))]++
	}

	assert.Len(t, hits, stripes)
	for stripe, count := range hits {
		assert.True(t, math.Abs(float64(count-expectedFrequency)) <= marginOfError*float64(expectedFrequency), "stripe %d has %d hits", stripe, count)
	}
}

func TestRing_SingleStripe(t *testing.T) {
	r := newRing(stripeNames("lock", 1), 1)
	for i := 0; i < 100; i++ {
		assert.Equal(t, 0, r.stripe([]byte(fmt.Sprintf("key%d", i))))
	}
}

func stripeNames(prefix string, count int) []string {
	names := make([]string, count)
	for i := range names {
		names[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return names
}
