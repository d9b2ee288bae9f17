package program

import (
	"bytes"
	"crypto/ed25519"

	"github.com/code-payments/custody-server/pkg/ledger"
	"github.com/code-payments/custody-server/pkg/solana"
)

// RequireSigner ensures address signed the instruction.
func RequireSigner(ic ledger.InvokeContext, address ed25519.PublicKey) error {
	if !ic.IsSigner(address) {
		return ErrUnauthorized
	}
	return nil
}

// RequireAddress ensures a supplied account matches its expected address.
func RequireAddress(actual, expected ed25519.PublicKey) error {
	if !bytes.Equal(actual, expected) {
		return ErrAddressMismatch
	}
	return nil
}

// RequireProgramAddress ensures address is the program address derived from
// seeds, which must include the bump.
func RequireProgramAddress(address, program ed25519.PublicKey, seeds ...[]byte) error {
	if !solana.IsProgramAddress(address, program, seeds...) {
		return ErrAddressMismatch
	}
	return nil
}

// RequireProgram ensures a program account slot holds the expected program.
func RequireProgram(actual, expected ed25519.PublicKey) error {
	if !bytes.Equal(actual, expected) {
		return solana.InstructionErrorIncorrectProgramID
	}
	return nil
}

// RequireAccounts ensures the instruction carries the expected number of
// accounts.
func RequireAccounts(ixn solana.Instruction, count int) error {
	if len(ixn.Accounts) != count {
		return ErrInvalidInstruction
	}
	return nil
}
