package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	pgutil "github.com/code-payments/custody-server/pkg/database/postgres"
	q "github.com/code-payments/custody-server/pkg/database/query"
	"github.com/code-payments/custody-server/pkg/ledger"
)

const (
	tableName = "custody__core_account"

	allColumns = `id, address, owner, lamports, data, version, last_updated_at`
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	Address  string `db:"address"`
	Owner    string `db:"owner"`
	Lamports uint64 `db:"lamports"`
	Data     []byte `db:"data"`

	Version uint64 `db:"version"`

	LastUpdatedAt time.Time `db:"last_updated_at"`
}

func toModel(obj *ledger.Account) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	data := obj.Data
	if data == nil {
		data = []byte{}
	}

	return &model{
		Address:  obj.Address,
		Owner:    obj.Owner,
		Lamports: obj.Lamports,
		Data:     data,

		Version: obj.Version,

		LastUpdatedAt: obj.LastUpdatedAt,
	}, nil
}

func fromModel(obj *model) *ledger.Account {
	var data []byte
	if len(obj.Data) > 0 {
		data = obj.Data
	}

	return &ledger.Account{
		Id: uint64(obj.Id.Int64),

		Address:  obj.Address,
		Owner:    obj.Owner,
		Lamports: obj.Lamports,
		Data:     data,

		Version: obj.Version,

		LastUpdatedAt: obj.LastUpdatedAt,
	}
}

// dbCommit inserts, updates or deletes the row depending on the model's
// version and balance. Every path is guarded by the expected version.
func (m *model) dbCommit(ctx context.Context, tx *sqlx.Tx) error {
	m.LastUpdatedAt = time.Now()

	switch {
	case m.Lamports == 0 && m.Version == 0:
		return nil
	case m.Lamports == 0:
		query := `DELETE FROM ` + tableName + ` WHERE address = $1 AND version = $2`

		res, err := tx.ExecContext(ctx, query, m.Address, m.Version)
		if err != nil {
			return err
		}

		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows != 1 {
			return ledger.ErrStaleAccount
		}

		m.Id = sql.NullInt64{}
		m.Version = 0
		return nil
	case m.Version == 0:
		query := `INSERT INTO ` + tableName + `
			(address, owner, lamports, data, version, last_updated_at)
			VALUES ($1, $2, $3, $4, 1, $5)

			RETURNING ` + allColumns

		err := tx.QueryRowxContext(
			ctx,
			query,
			m.Address,
			m.Owner,
			m.Lamports,
			m.Data,
			m.LastUpdatedAt.UTC(),
		).StructScan(m)

		return pgutil.CheckUniqueViolation(err, ledger.ErrStaleAccount)
	default:
		query := `UPDATE ` + tableName + `
			SET owner = $2, lamports = $3, data = $4, version = version + 1, last_updated_at = $5
			WHERE address = $1 AND version = $6

			RETURNING ` + allColumns

		err := tx.QueryRowxContext(
			ctx,
			query,
			m.Address,
			m.Owner,
			m.Lamports,
			m.Data,
			m.LastUpdatedAt.UTC(),
			m.Version,
		).StructScan(m)

		return pgutil.CheckNoRows(err, ledger.ErrStaleAccount)
	}
}

func dbCommit(ctx context.Context, db *sqlx.DB, models ...*model) error {
	err := pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		for _, m := range models {
			if err := m.dbCommit(ctx, tx); err != nil {
				return err
			}
		}
		return nil
	})
	return pgutil.CheckSerializationFailure(err, ledger.ErrStaleAccount)
}

func dbGet(ctx context.Context, db *sqlx.DB, address string) (*model, error) {
	res := &model{}

	query := `SELECT ` + allColumns + `
		FROM ` + tableName + `
		WHERE address = $1
		LIMIT 1`

	err := db.GetContext(ctx, res, query, address)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, ledger.ErrAccountNotFound)
	}
	return res, nil
}

func dbGetProgramAccounts(ctx context.Context, db *sqlx.DB, owner string, cursor q.Cursor, limit uint64, direction q.Ordering) ([]*model, error) {
	res := []*model{}

	query := `SELECT ` + allColumns + `
		FROM ` + tableName + `
		WHERE (owner = $1)
	`

	opts := []interface{}{owner}
	query, opts = q.PaginateQuery(query, opts, cursor, limit, direction)

	err := db.SelectContext(ctx, &res, query, opts...)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, ledger.ErrAccountNotFound)
	}

	if len(res) == 0 {
		return nil, ledger.ErrAccountNotFound
	}
	return res, nil
}

func dbCount(ctx context.Context, db *sqlx.DB) (uint64, error) {
	var res uint64

	query := `SELECT COUNT(*) FROM ` + tableName
	err := db.GetContext(ctx, &res, query)
	if err != nil {
		return 0, err
	}
	return res, nil
}
