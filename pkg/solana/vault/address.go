package vault

import (
	"crypto/ed25519"

	"github.com/code-payments/custody-server/pkg/solana"
)

var (
	vaultPrefix = []byte("vault")
)

type GetVaultAddressArgs struct {
	Owner ed25519.PublicKey
}

// GetVaultAddress derives the single vault an owner can hold. The vault is a
// plain system account whose lamport balance is the vault balance.
func GetVaultAddress(args *GetVaultAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		vaultPrefix,
		args.Owner,
	)
}

func vaultSignerSeeds(owner ed25519.PublicKey, bump uint8) [][]byte {
	return [][]byte{vaultPrefix, owner, {bump}}
}
