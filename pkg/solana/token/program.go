package token

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/code-payments/custody-server/pkg/solana"
)

// ProgramKey is the SPL token program.
var ProgramKey = solana.MustParseAddress("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

// Command is the first byte of token instruction data. Only the commands the
// ledger executes natively are named.
type Command byte

const (
	CommandTransfer     Command = 3
	CommandCloseAccount Command = 9

	CommandUnknown = Command(math.MaxUint8)
)

// SPL token custom error codes, reported by the ledger's token backstops.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/error.rs
const (
	ErrorNotRentExempt       solana.CustomError = 0
	ErrorInsufficientFunds   solana.CustomError = 1
	ErrorInvalidMint         solana.CustomError = 2
	ErrorMintMismatch        solana.CustomError = 3
	ErrorOwnerMismatch       solana.CustomError = 4
	ErrorAlreadyInUse        solana.CustomError = 6
	ErrorUninitializedState  solana.CustomError = 9
	ErrorNonNativeHasBalance solana.CustomError = 11
	ErrorInvalidInstruction  solana.CustomError = 12
	ErrorOverflow            solana.CustomError = 14
)

const (
	transferDataSize     = 1 + 8
	closeAccountDataSize = 1
)

func GetCommand(i solana.Instruction) (Command, error) {
	if !bytes.Equal(i.Program, ProgramKey) {
		return CommandUnknown, solana.ErrIncorrectProgram
	}
	if len(i.Data) == 0 {
		return CommandUnknown, errors.New("token instruction missing data")
	}
	return Command(i.Data[0]), nil
}

// Transfer moves amount tokens between two holding accounts of the same mint.
//
// Accounts: source (w), destination (w), owner (s).
func Transfer(source, dest, owner ed25519.PublicKey, amount uint64) solana.Instruction {
	data := make([]byte, transferDataSize)
	data[0] = byte(CommandTransfer)
	binary.LittleEndian.PutUint64(data[1:], amount)

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(source, false),
		solana.NewAccountMeta(dest, false),
		solana.NewReadonlyAccountMeta(owner, true),
	)
}

type DecompiledTransfer struct {
	Source      ed25519.PublicKey
	Destination ed25519.PublicKey
	Owner       ed25519.PublicKey
	Amount      uint64
}

func DecompileTransfer(i solana.Instruction) (*DecompiledTransfer, error) {
	if err := checkInstruction(i, CommandTransfer, transferDataSize); err != nil {
		return nil, err
	}

	return &DecompiledTransfer{
		Source:      i.Accounts[0].PublicKey,
		Destination: i.Accounts[1].PublicKey,
		Owner:       i.Accounts[2].PublicKey,
		Amount:      binary.LittleEndian.Uint64(i.Data[1:]),
	}, nil
}

// CloseAccount closes an empty holding account, sending its lamports to dest.
//
// Accounts: account (w), destination (w), owner (s).
func CloseAccount(account, dest, owner ed25519.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		ProgramKey,
		[]byte{byte(CommandCloseAccount)},
		solana.NewAccountMeta(account, false),
		solana.NewAccountMeta(dest, false),
		solana.NewReadonlyAccountMeta(owner, true),
	)
}

type DecompiledCloseAccount struct {
	Account     ed25519.PublicKey
	Destination ed25519.PublicKey
	Owner       ed25519.PublicKey
}

func DecompileCloseAccount(i solana.Instruction) (*DecompiledCloseAccount, error) {
	if err := checkInstruction(i, CommandCloseAccount, closeAccountDataSize); err != nil {
		return nil, err
	}

	return &DecompiledCloseAccount{
		Account:     i.Accounts[0].PublicKey,
		Destination: i.Accounts[1].PublicKey,
		Owner:       i.Accounts[2].PublicKey,
	}, nil
}

// checkInstruction validates the shape shared by Transfer and CloseAccount:
// three accounts and fixed size data led by the command byte.
func checkInstruction(i solana.Instruction, command Command, dataSize int) error {
	if !bytes.Equal(i.Program, ProgramKey) {
		return solana.ErrIncorrectProgram
	}
	if len(i.Data) != dataSize || Command(i.Data[0]) != command {
		return solana.ErrIncorrectInstruction
	}
	if len(i.Accounts) != 3 {
		return errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	return nil
}
