package escrow

import (
	"bytes"
	"crypto/ed25519"

	"github.com/code-payments/custody-server/pkg/solana"
)

const (
	TakeInstructionSize = 1 // discriminator

	takeInstructionAccountCount = 12
)

type TakeInstructionAccounts struct {
	Taker     ed25519.PublicKey
	Maker     ed25519.PublicKey
	Escrow    ed25519.PublicKey
	MintA     ed25519.PublicKey
	MintB     ed25519.PublicKey
	Vault     ed25519.PublicKey
	TakerAtaA ed25519.PublicKey
	TakerAtaB ed25519.PublicKey
	MakerAtaB ed25519.PublicKey
}

func NewTakeInstruction(accounts *TakeInstructionAccounts) solana.Instruction {
	return solana.Instruction{
		Program: PROGRAM_ID,

		// Instruction args
		Data: []byte{byte(instructionTypeTake)},

		// Instruction accounts
		Accounts: append([]solana.AccountMeta{
			{
				PublicKey:  accounts.Taker,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.Maker,
				IsWritable: true,
				IsSigner:   false,
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
				PublicKey:  accounts.MintB,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Vault,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.TakerAtaA,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.TakerAtaB,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.MakerAtaB,
				IsWritable: true,
				IsSigner:   false,
			},
		}, programAccountMetas()...),
	}
}

func TakeInstructionFromBinary(ixn solana.Instruction) (*TakeInstructionAccounts, error) {
	if !bytes.Equal(ixn.Program, PROGRAM_ID) {
		return nil, ErrInvalidProgram
	}
	if len(ixn.Data) != TakeInstructionSize || len(ixn.Accounts) != takeInstructionAccountCount {
		return nil, ErrInvalidInstructionData
	}
	if instructionType(ixn.Data[0]) != instructionTypeTake {
		return nil, ErrInvalidInstructionData
	}

	return &TakeInstructionAccounts{
		Taker:     ixn.Accounts[0].PublicKey,
		Maker:     ixn.Accounts[1].PublicKey,
		Escrow:    ixn.Accounts[2].PublicKey,
		MintA:     ixn.Accounts[3].PublicKey,
		MintB:     ixn.Accounts[4].PublicKey,
		Vault:     ixn.Accounts[5].PublicKey,
		TakerAtaA: ixn.Accounts[6].PublicKey,
		TakerAtaB: ixn.Accounts[7].PublicKey,
		MakerAtaB: ixn.Accounts[8].PublicKey,
	}, nil
}
