package vault

import (
	"crypto/ed25519"
	"errors"

	"github.com/code-payments/custody-server/pkg/solana"
	"github.com/code-payments/custody-server/pkg/solana/system"
)

var (
	ErrInvalidProgram         = errors.New("invalid program id")
	ErrInvalidInstructionData = errors.New("unexpected instruction data")
)

var (
	PROGRAM_ADDRESS = solana.MustParseAddress("E4PbsC24K1iVvEsi2Z2hz1RdaaZdFvjUBFfUkAXnTbdZ")
	PROGRAM_ID      = ed25519.PublicKey(PROGRAM_ADDRESS)
)

var (
	SYSTEM_PROGRAM_ID = system.ProgramKey
)

type instructionType uint8

const (
	instructionTypeDeposit instructionType = iota
	instructionTypeWithdraw
)
