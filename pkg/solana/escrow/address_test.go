package escrow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/custody-server/pkg/solana"
	"github.com/code-payments/custody-server/pkg/solana/token"
	"github.com/code-payments/custody-server/pkg/testutil"
)

func TestGetEscrowAddress(t *testing.T) {
	makers := testutil.GenerateSolanaKeys(t, 2)

	address, bump, err := GetEscrowAddress(&GetEscrowAddressArgs{Maker: makers[0], Seed: 1})
	require.NoError(t, err)
	assert.False(t, solana.IsOnCurve(address))
	assert.True(t, solana.IsProgramAddress(address, PROGRAM_ID, escrowSignerSeeds(makers[0], 1, bump)...))
	assert.False(t, solana.IsProgramAddress(address, PROGRAM_ID, escrowSignerSeeds(makers[0], 2, bump)...))

	signer, err := solana.CreateProgramAddress(PROGRAM_ID, escrowSignerSeeds(makers[0], 1, bump)...)
	require.NoError(t, err)
	assert.EqualValues(t, address, signer)

	otherSeed, _, err := GetEscrowAddress(&GetEscrowAddressArgs{Maker: makers[0], Seed: 2})
	require.NoError(t, err)
	assert.NotEqual(t, address, otherSeed)

	otherMaker, _, err := GetEscrowAddress(&GetEscrowAddressArgs{Maker: makers[1], Seed: 1})
	require.NoError(t, err)
	assert.NotEqual(t, address, otherMaker)

	mint := testutil.GenerateSolanaKeys(t, 1)[0]
	vault, err := GetVaultAddress(&GetVaultAddressArgs{Escrow: address, Mint: mint})
	require.NoError(t, err)

	expected, err := token.GetAssociatedAccount(address, mint)
	require.NoError(t, err)
	assert.EqualValues(t, expected, vault)
}

func TestSeedBytes(t *testing.T) {
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0}, seedBytes(1))
	assert.Equal(t, []byte{0xef, 0xcd, 0xab, 0x89, 0x67, 0x45, 0x23, 0x01}, seedBytes(0x0123456789abcdef))
}
