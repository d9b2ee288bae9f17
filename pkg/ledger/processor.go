package ledger

import (
	"github.com/code-payments/custody-server/pkg/solana"
)

// Processor executes instructions addressed to a single program.
type Processor interface {
	Process(ic InvokeContext, ixn solana.Instruction) error
}

// ProcessorFunc adapts a function into a Processor.
type ProcessorFunc func(ic InvokeContext, ixn solana.Instruction) error

func (f ProcessorFunc) Process(ic InvokeContext, ixn solana.Instruction) error {
	return f(ic, ixn)
}
