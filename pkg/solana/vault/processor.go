package vault

import (
	"github.com/code-payments/custody-server/pkg/ledger"
	"github.com/code-payments/custody-server/pkg/program"
	"github.com/code-payments/custody-server/pkg/solana"
)

// Process executes a vault instruction. Every precondition is checked before
// the single lamport transfer each instruction makes.
func Process(ic ledger.InvokeContext, ixn solana.Instruction) error {
	if len(ixn.Data) == 0 {
		return program.ErrInvalidInstruction
	}

	switch instructionType(ixn.Data[0]) {
	case instructionTypeDeposit:
		return processDeposit(ic, ixn)
	case instructionTypeWithdraw:
		return processWithdraw(ic, ixn)
	default:
		return program.ErrInvalidInstruction
	}
}

func processDeposit(ic ledger.InvokeContext, ixn solana.Instruction) error {
	args, accounts, err := DepositInstructionFromBinary(ixn)
	if err != nil {
		return program.ErrInvalidInstruction
	}
	if err := program.RequireProgram(ixn.Accounts[2].PublicKey, SYSTEM_PROGRAM_ID); err != nil {
		return err
	}

	if err := program.RequireSigner(ic, accounts.Owner); err != nil {
		return err
	}

	address, _, err := GetVaultAddress(&GetVaultAddressArgs{Owner: accounts.Owner})
	if err != nil {
		return program.ErrAddressMismatch
	}
	if err := program.RequireAddress(accounts.Vault, address); err != nil {
		return err
	}

	vault, err := ic.Account(accounts.Vault)
	if err != nil {
		return err
	}
	if vault.Lamports > 0 {
		return program.ErrVaultAlreadyExists
	}

	if args.Amount <= ic.Rent().MinimumBalance(0) {
		return program.ErrInvalidAmount
	}

	owner, err := ic.Account(accounts.Owner)
	if err != nil {
		return err
	}
	if owner.Lamports < args.Amount {
		return program.ErrInsufficientFunds
	}

	return ic.TransferLamports(accounts.Owner, accounts.Vault, args.Amount, nil)
}

func processWithdraw(ic ledger.InvokeContext, ixn solana.Instruction) error {
	accounts, err := WithdrawInstructionFromBinary(ixn)
	if err != nil {
		return program.ErrInvalidInstruction
	}
	if err := program.RequireProgram(ixn.Accounts[2].PublicKey, SYSTEM_PROGRAM_ID); err != nil {
		return err
	}

	if err := program.RequireSigner(ic, accounts.Owner); err != nil {
		return err
	}

	address, bump, err := GetVaultAddress(&GetVaultAddressArgs{Owner: accounts.Owner})
	if err != nil {
		return program.ErrAddressMismatch
	}
	if err := program.RequireAddress(accounts.Vault, address); err != nil {
		return err
	}

	vault, err := ic.Account(accounts.Vault)
	if err != nil {
		return err
	}
	if vault.Lamports == 0 {
		return program.ErrInvalidAmount
	}

	// Draining the vault closes it
	return ic.TransferLamports(
		accounts.Vault,
		accounts.Owner,
		vault.Lamports,
		vaultSignerSeeds(accounts.Owner, bump),
	)
}
