package custody

import (
	"github.com/code-payments/custody-server/pkg/ledger"
	"github.com/code-payments/custody-server/pkg/solana/escrow"
	"github.com/code-payments/custody-server/pkg/solana/vault"
)

// NewBank returns a ledger with the vault and escrow programs registered.
func NewBank(store ledger.Store, configProvider ledger.ConfigProvider) *ledger.Bank {
	bank := ledger.NewBank(store, configProvider)
	bank.RegisterProgram(vault.PROGRAM_ID, ledger.ProcessorFunc(vault.Process))
	bank.RegisterProgram(escrow.PROGRAM_ID, ledger.ProcessorFunc(escrow.Process))
	return bank
}
