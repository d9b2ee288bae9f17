package escrow

import (
	"crypto/ed25519"
	"strconv"

	"github.com/mr-tron/base58"

	"github.com/code-payments/custody-server/pkg/solana/binary"
)

const escrowAccountDiscriminator = 1

const EscrowAccountSize = (1 + // discriminator
	8 + // seed
	32 + // maker
	32 + // mint_a
	32 + // mint_b
	8 + // receive
	1) // bump

// EscrowAccount is an open offer to swap Amount of MintA, held in the escrow
// vault, for Receive of MintB.
type EscrowAccount struct {
	Seed    uint64
	Maker   ed25519.PublicKey
	MintA   ed25519.PublicKey
	MintB   ed25519.PublicKey
	Receive uint64
	Bump    uint8
}

func (obj *EscrowAccount) ToString() string {
	var maker, mintA, mintB string

	if obj.Maker != nil {
		maker = base58.Encode(obj.Maker)
	}
	if obj.MintA != nil {
		mintA = base58.Encode(obj.MintA)
	}
	if obj.MintB != nil {
		mintB = base58.Encode(obj.MintB)
	}

	return "EscrowAccount{" +
		"  seed='" + strconv.FormatUint(obj.Seed, 10) + "'" +
		", maker='" + maker + "'" +
		", mint_a='" + mintA + "'" +
		", mint_b='" + mintB + "'" +
		", receive='" + strconv.FormatUint(obj.Receive, 10) + "'" +
		", bump='" + strconv.Itoa(int(obj.Bump)) + "'" +
		"}"
}

func (obj *EscrowAccount) Marshal() []byte {
	data := make([]byte, EscrowAccountSize)

	var offset int

	binary.PutUint8(data, escrowAccountDiscriminator, &offset)
	binary.PutUint64(data, obj.Seed, &offset)
	binary.PutKey32(data, obj.Maker, &offset)
	binary.PutKey32(data, obj.MintA, &offset)
	binary.PutKey32(data, obj.MintB, &offset)
	binary.PutUint64(data, obj.Receive, &offset)
	binary.PutUint8(data, obj.Bump, &offset)

	return data
}

func (obj *EscrowAccount) Unmarshal(data []byte) error {
	if len(data) != EscrowAccountSize {
		return ErrInvalidAccountData
	}

	var offset int
	var discriminator uint8

	binary.GetUint8(data, &discriminator, &offset)
	if discriminator != escrowAccountDiscriminator {
		return ErrInvalidAccountData
	}

	binary.GetUint64(data, &obj.Seed, &offset)
	binary.GetKey32(data, &obj.Maker, &offset)
	binary.GetKey32(data, &obj.MintA, &offset)
	binary.GetKey32(data, &obj.MintB, &offset)
	binary.GetUint64(data, &obj.Receive, &offset)
	binary.GetUint8(data, &obj.Bump, &offset)

	return nil
}
