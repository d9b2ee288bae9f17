package ledger

import (
	"github.com/code-payments/custody-server/pkg/solana"
	"github.com/code-payments/custody-server/pkg/solana/system"
	"github.com/code-payments/custody-server/pkg/solana/token"
)

// processSystemInstruction handles the subset of the system program used by
// wallets: lamport transfers.
func processSystemInstruction(ic InvokeContext, ixn solana.Instruction) error {
	transfer, err := system.DecompileTransfer(ixn)
	if err != nil {
		return solana.InstructionErrorInvalidInstructionData
	}

	return ic.TransferLamports(transfer.From, transfer.To, transfer.Lamports, nil)
}

// processTokenInstruction handles token transfers and holding account closes.
func processTokenInstruction(ic InvokeContext, ixn solana.Instruction) error {
	command, err := token.GetCommand(ixn)
	if err != nil {
		return token.ErrorInvalidInstruction
	}

	switch command {
	case token.CommandTransfer:
		transfer, err := token.DecompileTransfer(ixn)
		if err != nil {
			return token.ErrorInvalidInstruction
		}
		if !ic.IsSigner(transfer.Owner) {
			return solana.InstructionErrorMissingRequiredSignature
		}
		return ic.TransferTokens(transfer.Source, transfer.Destination, transfer.Owner, transfer.Amount, nil)
	case token.CommandCloseAccount:
		closeAccount, err := token.DecompileCloseAccount(ixn)
		if err != nil {
			return token.ErrorInvalidInstruction
		}
		if !ic.IsSigner(closeAccount.Owner) {
			return solana.InstructionErrorMissingRequiredSignature
		}
		return ic.CloseHoldingAccount(closeAccount.Account, closeAccount.Destination, closeAccount.Owner, nil)
	default:
		return token.ErrorInvalidInstruction
	}
}
