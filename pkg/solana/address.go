package solana

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"math"

	"github.com/jdgcs/ed25519/edwards25519"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

const (
	maxSeeds      = 16
	maxSeedLength = 32

	programAddressMarker = "ProgramDerivedAddress"
)

var (
	ErrTooManySeeds          = errors.New("too many seeds")
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")

	ErrInvalidPublicKey   = errors.New("invalid public key")
	ErrNoProgramAddress   = errors.New("unable to find a viable program address bump seed")
	ErrInvalidAddressSize = errors.New("invalid address size")
)

var (
	programHashCtor = sha256.New
)

// CreateProgramAddress derives the program address for program and seeds.
// Program addresses must not lie on the ed25519 curve, so that no private key
// exists for them. Seeds that hash onto the curve yield ErrInvalidPublicKey.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L158
func CreateProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	if len(seeds) > maxSeeds {
		return nil, ErrTooManySeeds
	}
	for _, seed := range seeds {
		if len(seed) > maxSeedLength {
			return nil, ErrMaxSeedLengthExceeded
		}
	}

	h := programHashCtor()
	for _, seed := range seeds {
		if _, err := h.Write(seed); err != nil {
			return nil, errors.Wrap(err, "failed to hash seed")
		}
	}
	if _, err := h.Write(program); err != nil {
		return nil, errors.Wrap(err, "failed to hash program")
	}
	if _, err := h.Write([]byte(programAddressMarker)); err != nil {
		return nil, errors.Wrap(err, "failed to hash marker")
	}

	address := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(address, h.Sum(nil))
	if IsOnCurve(address) {
		return nil, ErrInvalidPublicKey
	}
	return address, nil
}

// IsOnCurve reports whether key decompresses to a point on the ed25519 curve.
// crypto/ed25519 doesn't expose point decompression, so edwards25519 is used.
func IsOnCurve(key []byte) bool {
	if len(key) != ed25519.PublicKeySize {
		return false
	}

	var compressed [32]byte
	copy(compressed[:], key)

	var point edwards25519.ExtendedGroupElement
	return point.FromBytes(&compressed)
}

// FindProgramAddressAndBump searches bump seeds downward from 255 and returns
// the first off curve address along with its bump.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L234
func FindProgramAddressAndBump(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, uint8, error) {
	withBump := append(append(make([][]byte, 0, len(seeds)+1), seeds...), nil)
	for bump := math.MaxUint8; bump > 0; bump-- {
		withBump[len(seeds)] = []byte{byte(bump)}

		address, err := CreateProgramAddress(program, withBump...)
		switch err {
		case nil:
			return address, uint8(bump), nil
		case ErrInvalidPublicKey:
		default:
			return nil, 0, err
		}
	}

	return nil, 0, ErrNoProgramAddress
}

func FindProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	address, _, err := FindProgramAddressAndBump(program, seeds...)
	return address, err
}

// IsProgramAddress reports whether address is the program address for the
// provided seeds, which must already include the bump.
func IsProgramAddress(address, program ed25519.PublicKey, seeds ...[]byte) bool {
	expected, err := CreateProgramAddress(program, seeds...)
	if err != nil {
		return false
	}
	return bytes.Equal(expected, address)
}

// ParseAddress decodes a base58 encoded 32 byte address.
func ParseAddress(value string) (ed25519.PublicKey, error) {
	decoded, err := base58.Decode(value)
	if err != nil {
		return nil, errors.Wrap(err, "invalid base58 address")
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, ErrInvalidAddressSize
	}
	return decoded, nil
}

// MustParseAddress is ParseAddress for package level constants.
func MustParseAddress(value string) ed25519.PublicKey {
	address, err := ParseAddress(value)
	if err != nil {
		panic(err)
	}
	return address
}
