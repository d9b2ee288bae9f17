package escrow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/custody-server/pkg/testutil"
)

func TestEscrowAccount_Marshal(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 3)

	expected := &EscrowAccount{
		Seed:    1234,
		Maker:   keys[0],
		MintA:   keys[1],
		MintB:   keys[2],
		Receive: 5678,
		Bump:    254,
	}

	data := expected.Marshal()
	require.Len(t, data, EscrowAccountSize)
	assert.EqualValues(t, 114, EscrowAccountSize)
	assert.EqualValues(t, escrowAccountDiscriminator, data[0])

	var actual EscrowAccount
	require.NoError(t, actual.Unmarshal(data))
	assert.Equal(t, expected, &actual)

	assert.Contains(t, expected.ToString(), "seed='1234'")

	assert.Equal(t, ErrInvalidAccountData, actual.Unmarshal(data[:EscrowAccountSize-1]))

	data[0] = 0
	assert.Equal(t, ErrInvalidAccountData, actual.Unmarshal(data))
}
