package pg

import (
	"database/sql"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/pkg/errors"
)

// CheckNoRows maps sql.ErrNoRows onto outErr.
func CheckNoRows(inErr, outErr error) error {
	if errors.Is(inErr, sql.ErrNoRows) {
		return outErr
	}
	return inErr
}

// CheckUniqueViolation maps a unique constraint violation onto outErr.
func CheckUniqueViolation(inErr, outErr error) error {
	return checkCode(inErr, outErr, pgerrcode.UniqueViolation)
}

// CheckSerializationFailure maps a serializable tx conflict onto outErr.
func CheckSerializationFailure(inErr, outErr error) error {
	return checkCode(inErr, outErr, pgerrcode.SerializationFailure)
}

func checkCode(inErr, outErr error, code string) error {
	var pgErr *pgconn.PgError
	if errors.As(inErr, &pgErr) && pgErr.Code == code {
		return outErr
	}
	return inErr
}
