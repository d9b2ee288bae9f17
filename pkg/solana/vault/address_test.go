package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/custody-server/pkg/solana"
	"github.com/code-payments/custody-server/pkg/testutil"
)

func TestGetVaultAddress(t *testing.T) {
	owners := testutil.GenerateSolanaKeys(t, 2)

	address, bump, err := GetVaultAddress(&GetVaultAddressArgs{Owner: owners[0]})
	require.NoError(t, err)

	again, againBump, err := GetVaultAddress(&GetVaultAddressArgs{Owner: owners[0]})
	require.NoError(t, err)
	assert.EqualValues(t, address, again)
	assert.Equal(t, bump, againBump)

	other, _, err := GetVaultAddress(&GetVaultAddressArgs{Owner: owners[1]})
	require.NoError(t, err)
	assert.NotEqual(t, address, other)

	assert.False(t, solana.IsOnCurve(address))
	assert.True(t, solana.IsProgramAddress(address, PROGRAM_ID, vaultSignerSeeds(owners[0], bump)...))
	assert.False(t, solana.IsProgramAddress(address, PROGRAM_ID, vaultSignerSeeds(owners[1], bump)...))

	signer, err := solana.CreateProgramAddress(PROGRAM_ID, vaultSignerSeeds(owners[0], bump)...)
	require.NoError(t, err)
	assert.EqualValues(t, address, signer)
}
