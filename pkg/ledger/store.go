package ledger

import (
	"context"

	"github.com/code-payments/custody-server/pkg/database/query"
)

type Store interface {
	// Get gets an account by address. ErrAccountNotFound is returned when the
	// account doesn't exist.
	Get(ctx context.Context, address string) (*Account, error)

	// GetProgramAccounts gets all accounts owned by the provided program.
	GetProgramAccounts(ctx context.Context, owner string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*Account, error)

	// Commit atomically persists the provided accounts. Each account's version
	// must match what is stored, otherwise ErrStaleAccount is returned and no
	// account is modified. Accounts with zero lamports are removed. On success,
	// the provided records are updated to reflect the stored state.
	Commit(ctx context.Context, accounts ...*Account) error

	// Count returns the number of existing accounts.
	Count(ctx context.Context) (uint64, error)
}
