package ledger

import (
	"crypto/ed25519"
)

type workingAccount struct {
	key      ed25519.PublicKey
	original *Account
	state    *Account
	dirty    bool
}

// workingSet holds the accounts loaded for a single transaction, in message
// order.
type workingSet struct {
	byKey    map[string]*workingAccount
	accounts []*workingAccount
}

func newWorkingSet() *workingSet {
	return &workingSet{
		byKey: make(map[string]*workingAccount),
	}
}

func (ws *workingSet) add(key ed25519.PublicKey, record *Account) {
	account := &workingAccount{
		key:      key,
		original: record.Clone(),
		state:    record.Clone(),
	}
	ws.byKey[string(key)] = account
	ws.accounts = append(ws.accounts, account)
}

func (ws *workingSet) get(key ed25519.PublicKey) *workingAccount {
	return ws.byKey[string(key)]
}

// finalize clears the state of drained accounts, since a zero lamport account
// ceases to exist.
func (ws *workingSet) finalize() {
	for _, account := range ws.accounts {
		if account.dirty && account.state.Lamports == 0 {
			account.state.Owner = ""
			account.state.Data = nil
		}
	}
}

func (ws *workingSet) modified() []*Account {
	var res []*Account
	for _, account := range ws.accounts {
		if !account.dirty {
			continue
		}

		// A drained account that never existed has nothing to persist
		if account.original.Version == 0 && !account.state.Exists() {
			continue
		}

		res = append(res, account.state)
	}
	return res
}

func (ws *workingSet) totalLamports(current bool) (total uint64, overflow bool) {
	for _, account := range ws.accounts {
		lamports := account.original.Lamports
		if current {
			lamports = account.state.Lamports
		}

		next := total + lamports
		if next < total {
			return 0, true
		}
		total = next
	}
	return total, false
}
