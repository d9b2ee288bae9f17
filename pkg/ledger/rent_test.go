package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRent_MinimumBalance(t *testing.T) {
	rent := Rent{
		LamportsPerByteYear: defaultRentLamportsPerByteYear,
		ExemptionThreshold:  defaultRentExemptionThreshold,
	}

	// Values match the Solana mainnet rent sysvar
	assert.EqualValues(t, 890_880, rent.MinimumBalance(0))
	assert.EqualValues(t, 2_039_280, rent.MinimumBalance(165))
	assert.EqualValues(t, 1_461_600, rent.MinimumBalance(82))

	assert.True(t, rent.IsExempt(890_880, 0))
	assert.False(t, rent.IsExempt(890_879, 0))
}
