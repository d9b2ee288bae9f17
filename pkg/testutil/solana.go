package testutil

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/code-payments/custody-server/pkg/solana"
)

func GenerateSolanaKeypair(t *testing.T) ed25519.PrivateKey {
	_, p, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return p
}

func GenerateSolanaKeys(t *testing.T, n int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, n)
	for i := 0; i < n; i++ {
		p, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = p
	}
	return keys
}

// PublicKey returns the public half of a generated keypair.
func PublicKey(key ed25519.PrivateKey) ed25519.PublicKey {
	return key.Public().(ed25519.PublicKey)
}

// NewSignedTransaction builds a transaction paid for by the first signer, with
// a random blockhash so identical instructions still produce unique
// signatures.
func NewSignedTransaction(t *testing.T, signers []ed25519.PrivateKey, instructions ...solana.Instruction) solana.Transaction {
	txn := solana.NewTransaction(PublicKey(signers[0]), instructions...)

	var blockhash solana.Blockhash
	_, err := rand.Read(blockhash[:])
	require.NoError(t, err)
	txn.SetBlockhash(blockhash)

	require.NoError(t, txn.Sign(signers...))
	return txn
}
