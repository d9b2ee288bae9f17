package escrow

import (
	"bytes"
	"crypto/ed25519"

	"github.com/code-payments/custody-server/pkg/solana"
	"github.com/code-payments/custody-server/pkg/solana/binary"
)

const (
	MakeInstructionArgsSize = (8 + // seed
		8 + // receive
		8) // amount

	MakeInstructionSize = (1 + // discriminator
		MakeInstructionArgsSize) // args

	makeInstructionAccountCount = 9
)

type MakeInstructionArgs struct {
	Seed    uint64
	Receive uint64
	Amount  uint64
}

type MakeInstructionAccounts struct {
	Maker     ed25519.PublicKey
	Escrow    ed25519.PublicKey
	MintA     ed25519.PublicKey
	MintB     ed25519.PublicKey
	MakerAtaA ed25519.PublicKey
	Vault     ed25519.PublicKey
}

func NewMakeInstruction(
	accounts *MakeInstructionAccounts,
	args *MakeInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte, MakeInstructionSize)

	binary.PutUint8(data, uint8(instructionTypeMake), &offset)
	binary.PutUint64(data, args.Seed, &offset)
	binary.PutUint64(data, args.Receive, &offset)
	binary.PutUint64(data, args.Amount, &offset)

	return solana.Instruction{
		Program: PROGRAM_ID,

		// Instruction args
		Data: data,

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
				PublicKey:  accounts.MintB,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.MakerAtaA,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Vault,
				IsWritable: true,
				IsSigner:   false,
			},
		}, programAccountMetas()...),
	}
}

func MakeInstructionFromBinary(ixn solana.Instruction) (*MakeInstructionArgs, *MakeInstructionAccounts, error) {
	var offset int
	var discriminator uint8

	if !bytes.Equal(ixn.Program, PROGRAM_ID) {
		return nil, nil, ErrInvalidProgram
	}
	if len(ixn.Data) != MakeInstructionSize || len(ixn.Accounts) != makeInstructionAccountCount {
		return nil, nil, ErrInvalidInstructionData
	}

	binary.GetUint8(ixn.Data, &discriminator, &offset)
	if instructionType(discriminator) != instructionTypeMake {
		return nil, nil, ErrInvalidInstructionData
	}

	var args MakeInstructionArgs
	var accounts MakeInstructionAccounts

	// Instruction Args
	binary.GetUint64(ixn.Data, &args.Seed, &offset)
	binary.GetUint64(ixn.Data, &args.Receive, &offset)
	binary.GetUint64(ixn.Data, &args.Amount, &offset)

	// Instruction Accounts
	accounts.Maker = ixn.Accounts[0].PublicKey
	accounts.Escrow = ixn.Accounts[1].PublicKey
	accounts.MintA = ixn.Accounts[2].PublicKey
	accounts.MintB = ixn.Accounts[3].PublicKey
	accounts.MakerAtaA = ixn.Accounts[4].PublicKey
	accounts.Vault = ixn.Accounts[5].PublicKey

	return &args, &accounts, nil
}
