package vault_test

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/custody-server/pkg/ledger"
	"github.com/code-payments/custody-server/pkg/ledger/memory"
	"github.com/code-payments/custody-server/pkg/program"
	"github.com/code-payments/custody-server/pkg/solana"
	"github.com/code-payments/custody-server/pkg/solana/vault"
	"github.com/code-payments/custody-server/pkg/testutil"
)

const (
	fee = 5000
	sol = 1_000_000_000
)

type testEnv struct {
	ctx  context.Context
	bank *ledger.Bank
}

func setup(t *testing.T) *testEnv {
	bank := ledger.NewBank(memory.New(), ledger.WithEnvConfigs())
	bank.RegisterProgram(vault.PROGRAM_ID, ledger.ProcessorFunc(vault.Process))

	return &testEnv{
		ctx:  context.Background(),
		bank: bank,
	}
}

func (e *testEnv) wallet(t *testing.T, lamports uint64) ed25519.PrivateKey {
	key := testutil.GenerateSolanaKeypair(t)
	require.NoError(t, e.bank.Airdrop(e.ctx, testutil.PublicKey(key), lamports))
	return key
}

func (e *testEnv) balance(t *testing.T, address ed25519.PublicKey) uint64 {
	balance, err := e.bank.GetBalance(e.ctx, address)
	require.NoError(t, err)
	return balance
}

func vaultAddress(t *testing.T, owner ed25519.PublicKey) ed25519.PublicKey {
	address, _, err := vault.GetVaultAddress(&vault.GetVaultAddressArgs{Owner: owner})
	require.NoError(t, err)
	return address
}

func (e *testEnv) deposit(t *testing.T, owner ed25519.PrivateKey, amount uint64) error {
	ixn := vault.NewDepositInstruction(
		&vault.DepositInstructionAccounts{
			Owner: testutil.PublicKey(owner),
			Vault: vaultAddress(t, testutil.PublicKey(owner)),
		},
		&vault.DepositInstructionArgs{Amount: amount},
	)
	_, err := e.bank.Execute(e.ctx, testutil.NewSignedTransaction(t, []ed25519.PrivateKey{owner}, ixn))
	return err
}

func (e *testEnv) withdraw(t *testing.T, owner ed25519.PrivateKey) error {
	ixn := vault.NewWithdrawInstruction(&vault.WithdrawInstructionAccounts{
		Owner: testutil.PublicKey(owner),
		Vault: vaultAddress(t, testutil.PublicKey(owner)),
	})
	_, err := e.bank.Execute(e.ctx, testutil.NewSignedTransaction(t, []ed25519.PrivateKey{owner}, ixn))
	return err
}

func TestVault_DepositWithdraw(t *testing.T) {
	env := setup(t)

	owner := env.wallet(t, 10*sol)
	ownerKey := testutil.PublicKey(owner)
	address := vaultAddress(t, ownerKey)

	require.NoError(t, env.deposit(t, owner, sol))
	assert.EqualValues(t, sol, env.balance(t, address))
	assert.EqualValues(t, 9*sol-fee, env.balance(t, ownerKey))

	require.NoError(t, env.withdraw(t, owner))

	_, err := env.bank.GetAccount(env.ctx, address)
	assert.Equal(t, ledger.ErrAccountNotFound, err)
	assert.EqualValues(t, 10*sol-2*fee, env.balance(t, ownerKey))
}

func TestVault_RepeatedCycles(t *testing.T) {
	env := setup(t)

	owner := env.wallet(t, 10*sol)
	ownerKey := testutil.PublicKey(owner)
	address := vaultAddress(t, ownerKey)

	for i := uint64(1); i <= 3; i++ {
		before := env.balance(t, ownerKey)

		require.NoError(t, env.deposit(t, owner, i*sol))
		assert.EqualValues(t, i*sol, env.balance(t, address))

		require.NoError(t, env.withdraw(t, owner))
		_, err := env.bank.GetAccount(env.ctx, address)
		assert.Equal(t, ledger.ErrAccountNotFound, err)

		assert.EqualValues(t, before-2*fee, env.balance(t, ownerKey))
	}
}

func TestVault_DepositIntoFundedVault(t *testing.T) {
	env := setup(t)

	owner := env.wallet(t, 10*sol)
	ownerKey := testutil.PublicKey(owner)
	address := vaultAddress(t, ownerKey)

	require.NoError(t, env.deposit(t, owner, sol))
	before := env.balance(t, ownerKey)

	for _, amount := range []uint64{1, sol, 2 * sol} {
		err := env.deposit(t, owner, amount)
		testutil.AssertInstructionError(t, err, 0, program.ErrVaultAlreadyExists)
	}

	assert.EqualValues(t, sol, env.balance(t, address))
	assert.EqualValues(t, before, env.balance(t, ownerKey))
}

func TestVault_WithdrawEmptyVault(t *testing.T) {
	env := setup(t)

	owner := env.wallet(t, 10*sol)
	ownerKey := testutil.PublicKey(owner)

	testutil.AssertInstructionError(t, env.withdraw(t, owner), 0, program.ErrInvalidAmount)

	require.NoError(t, env.deposit(t, owner, sol))
	require.NoError(t, env.withdraw(t, owner))

	testutil.AssertInstructionError(t, env.withdraw(t, owner), 0, program.ErrInvalidAmount)
	assert.EqualValues(t, 10*sol-2*fee, env.balance(t, ownerKey))
}

func TestVault_DepositBelowThreshold(t *testing.T) {
	env := setup(t)

	owner := env.wallet(t, 10*sol)
	ownerKey := testutil.PublicKey(owner)
	threshold := env.bank.Rent(env.ctx).MinimumBalance(0)

	for _, amount := range []uint64{0, 1, threshold - 1, threshold} {
		testutil.AssertInstructionError(t, env.deposit(t, owner, amount), 0, program.ErrInvalidAmount)
	}

	assert.EqualValues(t, 10*sol, env.balance(t, ownerKey))
	assert.EqualValues(t, 0, env.balance(t, vaultAddress(t, ownerKey)))

	require.NoError(t, env.deposit(t, owner, threshold+1))
	assert.EqualValues(t, threshold+1, env.balance(t, vaultAddress(t, ownerKey)))
}

func TestVault_InsufficientFunds(t *testing.T) {
	env := setup(t)

	owner := env.wallet(t, 2*sol)

	testutil.AssertInstructionError(t, env.deposit(t, owner, 5*sol), 0, program.ErrInsufficientFunds)
	assert.EqualValues(t, 2*sol, env.balance(t, testutil.PublicKey(owner)))
}

func TestVault_Unauthorized(t *testing.T) {
	env := setup(t)

	owner := env.wallet(t, 10*sol)
	ownerKey := testutil.PublicKey(owner)
	attacker := env.wallet(t, 10*sol)
	attackerKey := testutil.PublicKey(attacker)

	require.NoError(t, env.deposit(t, owner, sol))

	// The owner is listed but doesn't sign
	ixn := vault.NewWithdrawInstruction(&vault.WithdrawInstructionAccounts{
		Owner: ownerKey,
		Vault: vaultAddress(t, ownerKey),
	})
	ixn.Accounts[0].IsSigner = false

	_, err := env.bank.Execute(env.ctx, testutil.NewSignedTransaction(t, []ed25519.PrivateKey{attacker}, ixn))
	testutil.AssertInstructionError(t, err, 0, program.ErrUnauthorized)

	// The attacker signs for someone else's vault
	ixn = vault.NewWithdrawInstruction(&vault.WithdrawInstructionAccounts{
		Owner: attackerKey,
		Vault: vaultAddress(t, ownerKey),
	})

	_, err = env.bank.Execute(env.ctx, testutil.NewSignedTransaction(t, []ed25519.PrivateKey{attacker}, ixn))
	testutil.AssertInstructionError(t, err, 0, program.ErrAddressMismatch)

	assert.EqualValues(t, sol, env.balance(t, vaultAddress(t, ownerKey)))
	assert.EqualValues(t, 10*sol, env.balance(t, attackerKey))
}

func TestVault_InvalidInstruction(t *testing.T) {
	env := setup(t)

	owner := env.wallet(t, 10*sol)
	ownerKey := testutil.PublicKey(owner)

	for _, data := range [][]byte{nil, {2}, {0, 1, 2}} {
		ixn := solana.NewInstruction(
			vault.PROGRAM_ID,
			data,
			solana.NewAccountMeta(ownerKey, true),
			solana.NewAccountMeta(vaultAddress(t, ownerKey), false),
			solana.NewReadonlyAccountMeta(vault.SYSTEM_PROGRAM_ID, false),
		)

		_, err := env.bank.Execute(env.ctx, testutil.NewSignedTransaction(t, []ed25519.PrivateKey{owner}, ixn))
		testutil.AssertInstructionError(t, err, 0, program.ErrInvalidInstruction)
	}
}
