package vault

import (
	"bytes"
	"crypto/ed25519"

	"github.com/code-payments/custody-server/pkg/solana"
)

const (
	WithdrawInstructionSize = 1 // discriminator
)

type WithdrawInstructionAccounts struct {
	Owner ed25519.PublicKey
	Vault ed25519.PublicKey
}

func NewWithdrawInstruction(accounts *WithdrawInstructionAccounts) solana.Instruction {
	return solana.Instruction{
		Program: PROGRAM_ID,

		// Instruction args
		Data: []byte{byte(instructionTypeWithdraw)},

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Owner,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.Vault,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  SYSTEM_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}

func WithdrawInstructionFromBinary(ixn solana.Instruction) (*WithdrawInstructionAccounts, error) {
	if !bytes.Equal(ixn.Program, PROGRAM_ID) {
		return nil, ErrInvalidProgram
	}
	if len(ixn.Data) != WithdrawInstructionSize || len(ixn.Accounts) != 3 {
		return nil, ErrInvalidInstructionData
	}
	if instructionType(ixn.Data[0]) != instructionTypeWithdraw {
		return nil, ErrInvalidInstructionData
	}

	return &WithdrawInstructionAccounts{
		Owner: ixn.Accounts[0].PublicKey,
		Vault: ixn.Accounts[1].PublicKey,
	}, nil
}
