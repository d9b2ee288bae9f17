package escrow

import (
	"crypto/ed25519"

	"github.com/code-payments/custody-server/pkg/solana"
	"github.com/code-payments/custody-server/pkg/solana/binary"
	"github.com/code-payments/custody-server/pkg/solana/token"
)

var (
	escrowPrefix = []byte("escrow")
)

type GetEscrowAddressArgs struct {
	Maker ed25519.PublicKey
	Seed  uint64
}

type GetVaultAddressArgs struct {
	Escrow ed25519.PublicKey
	Mint   ed25519.PublicKey
}

func GetEscrowAddress(args *GetEscrowAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		escrowPrefix,
		args.Maker,
		seedBytes(args.Seed),
	)
}

// GetVaultAddress is the associated token account of the escrow for the
// offered mint.
func GetVaultAddress(args *GetVaultAddressArgs) (ed25519.PublicKey, error) {
	return token.GetAssociatedAccount(args.Escrow, args.Mint)
}

func escrowSignerSeeds(maker ed25519.PublicKey, seed uint64, bump uint8) [][]byte {
	return [][]byte{escrowPrefix, maker, seedBytes(seed), {bump}}
}

func seedBytes(seed uint64) []byte {
	b := make([]byte, 8)
	var offset int
	binary.PutUint64(b, seed, &offset)
	return b
}
