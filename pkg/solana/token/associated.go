package token

import (
	"crypto/ed25519"

	"github.com/code-payments/custody-server/pkg/solana"
)

// AssociatedTokenAccountProgramKey is the associated token account program.
var AssociatedTokenAccountProgramKey = solana.MustParseAddress("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")

// GetAssociatedAccount derives the canonical holding account of wallet for
// mint. Escrow vaults are the associated accounts of the escrow record.
//
// Reference: https://spl.solana.com/associated-token-account#finding-the-associated-token-account-address
func GetAssociatedAccount(wallet, mint ed25519.PublicKey) (ed25519.PublicKey, error) {
	return solana.FindProgramAddress(AssociatedTokenAccountProgramKey, wallet, ProgramKey, mint)
}
