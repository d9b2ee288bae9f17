package vault

import (
	"bytes"
	"crypto/ed25519"

	"github.com/code-payments/custody-server/pkg/solana"
	"github.com/code-payments/custody-server/pkg/solana/binary"
)

const (
	DepositInstructionArgsSize = 8 // amount

	DepositInstructionSize = (1 + // discriminator
		DepositInstructionArgsSize) // args
)

type DepositInstructionArgs struct {
	Amount uint64
}

type DepositInstructionAccounts struct {
	Owner ed25519.PublicKey
	Vault ed25519.PublicKey
}

func NewDepositInstruction(
	accounts *DepositInstructionAccounts,
	args *DepositInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte, DepositInstructionSize)

	binary.PutUint8(data, uint8(instructionTypeDeposit), &offset)
	binary.PutUint64(data, args.Amount, &offset)

	return solana.Instruction{
		Program: PROGRAM_ID,

		// Instruction args
		Data: data,

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

func DepositInstructionFromBinary(ixn solana.Instruction) (*DepositInstructionArgs, *DepositInstructionAccounts, error) {
	var offset int
	var discriminator uint8

	if !bytes.Equal(ixn.Program, PROGRAM_ID) {
		return nil, nil, ErrInvalidProgram
	}
	if len(ixn.Data) != DepositInstructionSize || len(ixn.Accounts) != 3 {
		return nil, nil, ErrInvalidInstructionData
	}

	binary.GetUint8(ixn.Data, &discriminator, &offset)
	if instructionType(discriminator) != instructionTypeDeposit {
		return nil, nil, ErrInvalidInstructionData
	}

	var args DepositInstructionArgs
	var accounts DepositInstructionAccounts

	// Instruction Args
	binary.GetUint64(ixn.Data, &args.Amount, &offset)

	// Instruction Accounts
	accounts.Owner = ixn.Accounts[0].PublicKey
	accounts.Vault = ixn.Accounts[1].PublicKey

	return &args, &accounts, nil
}
