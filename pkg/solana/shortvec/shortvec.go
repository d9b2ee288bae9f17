// Package shortvec implements the compact-u16 length prefix used by the
// transaction wire format.
package shortvec

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

const maxEncodedLen = 3

var (
	ErrLenTooLarge  = errors.Errorf("len exceeds %d", math.MaxUint16)
	ErrNonCanonical = errors.New("non-canonical shortvec encoding")
	ErrOverflow     = errors.Errorf("shortvec exceeds %d bytes", maxEncodedLen)
)

// EncodeLen writes val as a compact-u16 and returns the number of bytes
// written.
func EncodeLen(w io.ByteWriter, val int) (int, error) {
	if val < 0 || val > math.MaxUint16 {
		return 0, ErrLenTooLarge
	}

	n := 0
	for {
		b := byte(val & 0x7f)
		val >>= 7
		if val != 0 {
			b |= 0x80
		}

		if err := w.WriteByte(b); err != nil {
			return n, err
		}
		n++

		if val == 0 {
			return n, nil
		}
	}
}

// DecodeLen reads a compact-u16. Encodings with trailing zero groups or more
// than three bytes are rejected.
func DecodeLen(r io.ByteReader) (int, error) {
	var val int
	for i := 0; i < maxEncodedLen; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}

		if i > 0 && b == 0 {
			return 0, ErrNonCanonical
		}

		val |= int(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			if val > math.MaxUint16 {
				return 0, ErrLenTooLarge
			}
			return val, nil
		}
	}
	return 0, ErrOverflow
}
