package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/custody-server/pkg/testutil"
)

func TestDepositInstruction(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 2)

	ixn := NewDepositInstruction(
		&DepositInstructionAccounts{Owner: keys[0], Vault: keys[1]},
		&DepositInstructionArgs{Amount: 42},
	)
	assert.EqualValues(t, PROGRAM_ID, ixn.Program)
	assert.Equal(t, []byte{0, 42, 0, 0, 0, 0, 0, 0, 0}, ixn.Data)
	require.Len(t, ixn.Accounts, 3)
	assert.True(t, ixn.Accounts[0].IsSigner)
	assert.True(t, ixn.Accounts[0].IsWritable)
	assert.False(t, ixn.Accounts[1].IsSigner)
	assert.True(t, ixn.Accounts[1].IsWritable)
	assert.False(t, ixn.Accounts[2].IsWritable)

	args, accounts, err := DepositInstructionFromBinary(ixn)
	require.NoError(t, err)
	assert.EqualValues(t, 42, args.Amount)
	assert.EqualValues(t, keys[0], accounts.Owner)
	assert.EqualValues(t, keys[1], accounts.Vault)

	wrongProgram := ixn
	wrongProgram.Program = keys[0]
	_, _, err = DepositInstructionFromBinary(wrongProgram)
	assert.Equal(t, ErrInvalidProgram, err)

	truncated := ixn
	truncated.Data = ixn.Data[:5]
	_, _, err = DepositInstructionFromBinary(truncated)
	assert.Equal(t, ErrInvalidInstructionData, err)

	withdraw := NewWithdrawInstruction(&WithdrawInstructionAccounts{Owner: keys[0], Vault: keys[1]})
	_, _, err = DepositInstructionFromBinary(withdraw)
	assert.Equal(t, ErrInvalidInstructionData, err)
}

func TestWithdrawInstruction(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 2)

	ixn := NewWithdrawInstruction(&WithdrawInstructionAccounts{Owner: keys[0], Vault: keys[1]})
	assert.Equal(t, []byte{1}, ixn.Data)

	accounts, err := WithdrawInstructionFromBinary(ixn)
	require.NoError(t, err)
	assert.EqualValues(t, keys[0], accounts.Owner)
	assert.EqualValues(t, keys[1], accounts.Vault)

	missingAccount := ixn
	missingAccount.Accounts = ixn.Accounts[:2]
	_, err = WithdrawInstructionFromBinary(missingAccount)
	assert.Equal(t, ErrInvalidInstructionData, err)

	wrongDiscriminator := ixn
	wrongDiscriminator.Data = []byte{0}
	_, err = WithdrawInstructionFromBinary(wrongDiscriminator)
	assert.Equal(t, ErrInvalidInstructionData, err)
}
