package program

import (
	"fmt"

	"github.com/code-payments/custody-server/pkg/solana"
)

// Error is a custom program error shared by the custody programs. Codes start
// at 0x1770, matching the offset Anchor programs use.
type Error uint32

const (
	// Deposit into a vault that is already funded
	ErrVaultAlreadyExists Error = iota + 0x1770

	// Amount is at or below the allowed minimum
	ErrInvalidAmount

	// Mint is invalid or doesn't match the expected mint
	ErrInvalidMint

	// Account doesn't match its derived address
	ErrAddressMismatch

	// Missing signature, or signer isn't the account's authority
	ErrUnauthorized

	// Escrow record doesn't exist
	ErrNotFound

	// Source balance doesn't cover the transfer
	ErrInsufficientFunds

	// Escrow record already exists
	ErrEscrowAlreadyExists

	// Instruction data or accounts couldn't be decoded
	ErrInvalidInstruction
)

var errorNames = map[Error]string{
	ErrVaultAlreadyExists:  "VaultAlreadyExists",
	ErrInvalidAmount:       "InvalidAmount",
	ErrInvalidMint:         "InvalidMint",
	ErrAddressMismatch:     "AddressMismatch",
	ErrUnauthorized:        "Unauthorized",
	ErrNotFound:            "NotFound",
	ErrInsufficientFunds:   "InsufficientFunds",
	ErrEscrowAlreadyExists: "EscrowAlreadyExists",
	ErrInvalidInstruction:  "InvalidInstruction",
}

func (e Error) Name() string {
	if name, ok := errorNames[e]; ok {
		return name
	}
	return "Unknown"
}

func (e Error) Error() string {
	return fmt.Sprintf("%s (custom program error: %#x)", e.Name(), uint32(e))
}

// CustomError implements solana.ProgramError
func (e Error) CustomError() solana.CustomError {
	return solana.CustomError(e)
}
