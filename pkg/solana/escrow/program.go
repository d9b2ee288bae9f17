package escrow

import (
	"crypto/ed25519"
	"errors"

	"github.com/code-payments/custody-server/pkg/solana"
	"github.com/code-payments/custody-server/pkg/solana/system"
	"github.com/code-payments/custody-server/pkg/solana/token"
)

var (
	ErrInvalidProgram         = errors.New("invalid program id")
	ErrInvalidAccountData     = errors.New("unexpected account data")
	ErrInvalidInstructionData = errors.New("unexpected instruction data")
)

var (
	PROGRAM_ADDRESS = solana.MustParseAddress("HxNiQf4aPmf7XsRY8rkS8CysAsukpYm1HJZKMxPjWSZ")
	PROGRAM_ID      = ed25519.PublicKey(PROGRAM_ADDRESS)
)

var (
	SYSTEM_PROGRAM_ID               = system.ProgramKey
	SPL_TOKEN_PROGRAM_ID            = token.ProgramKey
	SPL_ASSOCIATED_TOKEN_PROGRAM_ID = token.AssociatedTokenAccountProgramKey
)

type instructionType uint8

const (
	instructionTypeMake instructionType = iota
	instructionTypeTake
	instructionTypeRefund
)

func programAccountMetas() []solana.AccountMeta {
	return []solana.AccountMeta{
		{
			PublicKey:  SYSTEM_PROGRAM_ID,
			IsWritable: false,
			IsSigner:   false,
		},
		{
			PublicKey:  SPL_TOKEN_PROGRAM_ID,
			IsWritable: false,
			IsSigner:   false,
		},
		{
			PublicKey:  SPL_ASSOCIATED_TOKEN_PROGRAM_ID,
			IsWritable: false,
			IsSigner:   false,
		},
	}
}
