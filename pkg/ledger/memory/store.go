package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/code-payments/custody-server/pkg/database/query"
	"github.com/code-payments/custody-server/pkg/ledger"
)

type store struct {
	mu      sync.Mutex
	records map[string]*ledger.Account
	last    uint64
}

type ById []*ledger.Account

func (a ById) Len() int           { return len(a) }
func (a ById) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a ById) Less(i, j int) bool { return a[i].Id < a[j].Id }

// New returns a new in memory ledger.Store
func New() ledger.Store {
	return &store{
		records: make(map[string]*ledger.Account),
	}
}

// Get implements ledger.Store.Get
func (s *store) Get(_ context.Context, address string) (*ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item, ok := s.records[address]; ok {
		return item.Clone(), nil
	}
	return nil, ledger.ErrAccountNotFound
}

// GetProgramAccounts implements ledger.Store.GetProgramAccounts
func (s *store) GetProgramAccounts(_ context.Context, owner string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []*ledger.Account
	for _, item := range s.records {
		if item.Owner == owner {
			items = append(items, item)
		}
	}

	res := s.filter(items, cursor, limit, direction)
	if len(res) == 0 {
		return nil, ledger.ErrAccountNotFound
	}
	return res, nil
}

// Commit implements ledger.Store.Commit
func (s *store) Commit(_ context.Context, accounts ...*ledger.Account) error {
	for _, account := range accounts {
		if err := account.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})
	for _, account := range accounts {
		if _, ok := seen[account.Address]; ok {
			return ledger.ErrStaleAccount
		}
		seen[account.Address] = struct{}{}

		item, ok := s.records[account.Address]
		if !ok && account.Version != 0 {
			return ledger.ErrStaleAccount
		}
		if ok && item.Version != account.Version {
			return ledger.ErrStaleAccount
		}
	}

	now := time.Now()
	for _, account := range accounts {
		item, ok := s.records[account.Address]

		if !account.Exists() {
			if ok {
				delete(s.records, account.Address)
			}
			account.Id = 0
			account.Version = 0
			account.LastUpdatedAt = now
			continue
		}

		if !ok {
			s.last++
			item = &ledger.Account{
				Id:      s.last,
				Address: account.Address,
			}
			s.records[account.Address] = item
		}

		item.Owner = account.Owner
		item.Lamports = account.Lamports
		item.Data = account.Clone().Data
		item.Version++
		item.LastUpdatedAt = now

		item.CopyTo(account)
	}

	return nil
}

// Count implements ledger.Store.Count
func (s *store) Count(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return uint64(len(s.records)), nil
}

func (s *store) filter(items []*ledger.Account, cursor query.Cursor, limit uint64, direction query.Ordering) []*ledger.Account {
	var start uint64

	start = 0
	if direction == query.Descending {
		start = s.last + 1
	}
	if len(cursor) > 0 {
		start = cursor.ToUint64()
	}

	var res []*ledger.Account
	for _, item := range items {
		if item.Id > start && direction == query.Ascending {
			res = append(res, item.Clone())
		}
		if item.Id < start && direction == query.Descending {
			res = append(res, item.Clone())
		}
	}

	if direction == query.Descending {
		sort.Sort(sort.Reverse(ById(res)))
	} else {
		sort.Sort(ById(res))
	}

	if limit > 0 && len(res) >= int(limit) {
		return res[:limit]
	}

	return res
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*ledger.Account)
	s.last = 0
}
