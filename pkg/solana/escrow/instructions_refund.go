package escrow

import (
	"bytes"
	"crypto/ed25519"

	"github.com/code-payments/custody-server/pkg/solana"
)

const (
	RefundInstructionSize = 1 // discriminator

	refundInstructionAccountCount = 8
)

type RefundInstructionAccounts struct {
	Maker     ed25519.PublicKey
	Escrow    ed25519.PublicKey
	MintA     ed25519.PublicKey
	Vault     ed25519.PublicKey
	MakerAtaA ed25519.PublicKey
}

func NewRefundInstruction(accounts *RefundInstructionAccounts) solana.Instruction {
	return solana.Instruction{
		Program: PROGRAM_ID,

		// Instruction args
		Data: []byte{byte(instructionTypeRefund)},

		// Instruction accounts
		Accounts: append([]solana.AccountMeta{
			{
				PublicKey:  accounts.Maker,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.Escrow,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.MintA,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Vault,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.MakerAtaA,
				IsWritable: true,
				IsSigner:   false,
			},
		}, programAccountMetas()...),
	}
}

func RefundInstructionFromBinary(ixn solana.Instruction) (*RefundInstructionAccounts, error) {
	if !bytes.Equal(ixn.Program, PROGRAM_ID) {
		return nil, ErrInvalidProgram
	}
	if len(ixn.Data) != RefundInstructionSize || len(ixn.Accounts) != refundInstructionAccountCount {
		return nil, ErrInvalidInstructionData
	}
	if instructionType(ixn.Data[0]) != instructionTypeRefund {
		return nil, ErrInvalidInstructionData
	}

	return &RefundInstructionAccounts{
		Maker:     ixn.Accounts[0].PublicKey,
		Escrow:    ixn.Accounts[1].PublicKey,
		MintA:     ixn.Accounts[2].PublicKey,
		Vault:     ixn.Accounts[3].PublicKey,
		MakerAtaA: ixn.Accounts[4].PublicKey,
	}, nil
}
