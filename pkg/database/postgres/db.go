package pg

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// ExecuteInTx runs fn in a new transaction that commits if fn succeeds and
// rolls back otherwise.
func ExecuteInTx(ctx context.Context, db *sqlx.DB, isolation sql.IsolationLevel, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: withDefaultIsolation(isolation)})
	if err != nil {
		return errors.Wrap(err, "error starting tx")
	}

	if err := fn(tx); err != nil {
		// Rollback always runs so sql.DB releases the connection
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return errors.Wrap(rollbackErr, "failed to rollback transaction")
		}
		return err
	}
	return tx.Commit()
}

// withDefaultIsolation resolves sql.LevelDefault to read committed, which is
// the postgres default
func withDefaultIsolation(isolation sql.IsolationLevel) sql.IsolationLevel {
	if isolation == sql.LevelDefault {
		return sql.LevelReadCommitted
	}
	return isolation
}
