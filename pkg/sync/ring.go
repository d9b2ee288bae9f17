package sync

import (
	"encoding/binary"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/spaolacci/murmur3"
)

// ring consistently maps keys onto stripe indexes. Each named stripe owns
// pointsPerStripe positions on a murmur3 hash circle.
type ring struct {
	points *treemap.Map

	// first is the stripe owning the lowest point, used when a key hashes past
	// the last point and wraps around
	first int
}

// newRing places the stripe at index i of names onto the ring. A stripe's
// points are derived from the hash of its name, so the layout only depends on
// the names and pointsPerStripe.
func newRing(names []string, pointsPerStripe uint) *ring {
	points := treemap.NewWith(utils.Int64Comparator)

	for stripe, name := range names {
		nameHash, _ := murmur3.Sum128([]byte(name))

		var seed [12]byte
		binary.LittleEndian.PutUint64(seed[:8], nameHash)
		for i := uint(0); i < pointsPerStripe; i++ {
			binary.LittleEndian.PutUint32(seed[8:], uint32(i))
			point, _ := murmur3.Sum128(seed[:])
			points.Put(int64(point), stripe)
		}
	}

	r := &ring{points: points}
	if _, first := points.Min(); first != nil {
		r.first = first.(int)
	}
	return r
}

// stripe returns the stripe owning the first point at or after the key's hash.
func (r *ring) stripe(key []byte) int {
	hash, _ := murmur3.Sum128(key)
	if _, stripe := r.points.Ceiling(int64(hash)); stripe != nil {
		return stripe.(int)
	}
	return r.first
}
