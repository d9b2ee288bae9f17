package binary

import (
	"crypto/ed25519"
	"encoding/binary"
)

// Helpers for fixed layout account and instruction data. Every Put/Get call
// advances offset by the number of bytes it covers, including unset optional
// values, so that layouts stay fixed size.
//
// Optional values are prefixed by an optionSize byte tag. Only the first tag
// byte is meaningful: 1 when the value is present.

func PutKey32(dst []byte, src []byte, offset *int) {
	copy(dst[*offset:*offset+ed25519.PublicKeySize], src)
	*offset += ed25519.PublicKeySize
}

func PutUint64(dst []byte, v uint64, offset *int) {
	binary.LittleEndian.PutUint64(dst[*offset:], v)
	*offset += 8
}

func PutUint8(dst []byte, v uint8, offset *int) {
	dst[*offset] = v
	*offset++
}

func PutBool(dst []byte, v bool, offset *int) {
	var b uint8
	if v {
		b = 1
	}
	PutUint8(dst, b, offset)
}

func PutOptionalKey32(dst []byte, src []byte, offset *int, optionSize int) {
	if putTag(dst, len(src) > 0, offset, optionSize) {
		copy(dst[*offset:], src)
	}
	*offset += ed25519.PublicKeySize
}

func PutOptionalUint64(dst []byte, v *uint64, offset *int, optionSize int) {
	if putTag(dst, v != nil, offset, optionSize) {
		binary.LittleEndian.PutUint64(dst[*offset:], *v)
	}
	*offset += 8
}

func GetKey32(src []byte, dst *ed25519.PublicKey, offset *int) {
	key := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(key, src[*offset:])
	*dst = key
	*offset += ed25519.PublicKeySize
}

func GetUint64(src []byte, dst *uint64, offset *int) {
	*dst = binary.LittleEndian.Uint64(src[*offset:])
	*offset += 8
}

func GetUint8(src []byte, dst *uint8, offset *int) {
	*dst = src[*offset]
	*offset++
}

func GetBool(src []byte, dst *bool, offset *int) {
	*dst = src[*offset] == 1
	*offset++
}

func GetOptionalKey32(src []byte, dst *ed25519.PublicKey, offset *int, optionSize int) {
	if getTag(src, offset, optionSize) {
		key := make(ed25519.PublicKey, ed25519.PublicKeySize)
		copy(key, src[*offset:])
		*dst = key
	}
	*offset += ed25519.PublicKeySize
}

func GetOptionalUint64(src []byte, dst **uint64, offset *int, optionSize int) {
	if getTag(src, offset, optionSize) {
		v := binary.LittleEndian.Uint64(src[*offset:])
		*dst = &v
	}
	*offset += 8
}

func putTag(dst []byte, present bool, offset *int, optionSize int) bool {
	if present {
		dst[*offset] = 1
	}
	*offset += optionSize
	return present
}

func getTag(src []byte, offset *int, optionSize int) bool {
	present := src[*offset] == 1
	*offset += optionSize
	return present
}
