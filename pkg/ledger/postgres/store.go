package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/custody-server/pkg/database/query"
	"github.com/code-payments/custody-server/pkg/ledger"
	"github.com/code-payments/custody-server/pkg/metrics"
)

const (
	metricsStructName = "ledger.postgres.store"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres-backed ledger.Store
func New(db *sql.DB) ledger.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Get implements ledger.Store.Get
func (s *store) Get(ctx context.Context, address string) (*ledger.Account, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Get")
	defer tracer.End()

	model, err := dbGet(ctx, s.db, address)
	if err != nil {
		tracer.OnError(err, ledger.ErrAccountNotFound)
		return nil, err
	}
	return fromModel(model), nil
}

// GetProgramAccounts implements ledger.Store.GetProgramAccounts
func (s *store) GetProgramAccounts(ctx context.Context, owner string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*ledger.Account, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetProgramAccounts")
	defer tracer.End()

	models, err := dbGetProgramAccounts(ctx, s.db, owner, cursor, limit, direction)
	if err != nil {
		tracer.OnError(err, ledger.ErrAccountNotFound)
		return nil, err
	}

	res := make([]*ledger.Account, len(models))
	for i, model := range models {
		res[i] = fromModel(model)
	}
	return res, nil
}

// Commit implements ledger.Store.Commit
func (s *store) Commit(ctx context.Context, accounts ...*ledger.Account) error {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Commit")
	defer tracer.End()

	models := make([]*model, len(accounts))
	for i, account := range accounts {
		model, err := toModel(account)
		if err != nil {
			return err
		}
		models[i] = model
	}

	if err := dbCommit(ctx, s.db, models...); err != nil {
		tracer.OnError(err, ledger.ErrStaleAccount)
		return err
	}

	for i, model := range models {
		fromModel(model).CopyTo(accounts[i])
	}
	return nil
}

// Count implements ledger.Store.Count
func (s *store) Count(ctx context.Context) (uint64, error) {
	return dbCount(ctx, s.db)
}
