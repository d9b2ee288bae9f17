package ledger

import (
	"bytes"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrInvalidAccount  = errors.New("invalid account")
	ErrStaleAccount    = errors.New("account state is stale")
)

// Account is the persisted state of a single ledger address. An account with
// zero lamports does not exist.
type Account struct {
	Id uint64

	Address  string
	Owner    string
	Lamports uint64
	Data     []byte

	// Version is incremented on every commit. A zero version indicates the
	// account was not loaded from the store.
	Version uint64

	LastUpdatedAt time.Time
}

func (a *Account) Exists() bool {
	return a.Lamports > 0
}

func (a *Account) IsOwnedBy(program string) bool {
	return a.Exists() && a.Owner == program
}

func (a *Account) Validate() error {
	if len(a.Address) == 0 {
		return errors.New("address is required")
	}

	if a.Lamports > 0 && len(a.Owner) == 0 {
		return errors.New("owner is required for a funded account")
	}

	if a.Lamports == 0 && len(a.Data) > 0 {
		return errors.New("data cannot be set on a closed account")
	}

	return nil
}

func (a *Account) Clone() *Account {
	var data []byte
	if a.Data != nil {
		data = make([]byte, len(a.Data))
		copy(data, a.Data)
	}

	return &Account{
		Id:            a.Id,
		Address:       a.Address,
		Owner:         a.Owner,
		Lamports:      a.Lamports,
		Data:          data,
		Version:       a.Version,
		LastUpdatedAt: a.LastUpdatedAt,
	}
}

func (a *Account) CopyTo(dst *Account) {
	dst.Id = a.Id
	dst.Address = a.Address
	dst.Owner = a.Owner
	dst.Lamports = a.Lamports
	dst.Data = a.Clone().Data
	dst.Version = a.Version
	dst.LastUpdatedAt = a.LastUpdatedAt
}

// Equals compares account state, ignoring storage metadata.
func (a *Account) Equals(other *Account) bool {
	return a.Address == other.Address &&
		a.Owner == other.Owner &&
		a.Lamports == other.Lamports &&
		bytes.Equal(a.Data, other.Data)
}
