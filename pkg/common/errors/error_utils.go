package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// region error helpers

// WrapGormError turns a low level database error into an error the service layer understands.
// Params:
//   - rawErr: error returned by GORM or the driver
//
// Returns:
//   - error: ErrNotFound, ErrDuplicateEntry or ErrDatabaseInternal (wrapping the original);
//     context errors are returned as is so callers can still detect a request timeout
func WrapGormError(rawErr error) error {
	if rawErr == nil {
		return nil
	}

	switch {
	case errors.Is(rawErr, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(rawErr, context.DeadlineExceeded), errors.Is(rawErr, context.Canceled):
		return rawErr
	case IsDuplicateError(rawErr):
		return ErrDuplicateEntry
	}

	// MySQL driver errors
	var mysqlErr *mysql.MySQLError
	if errors.As(rawErr, &mysqlErr) {
		switch mysqlErr.Number {
		case 1045, 1049, 1146: // access denied, unknown database, missing table
			return fmt.Errorf("%w: %s", ErrDatabaseInternal, mysqlErr.Message)
		}
	}

	// Postgres driver errors
	var pgErr *pgconn.PgError
	if errors.As(rawErr, &pgErr) && pgErr.Code == "42P01" {
		return fmt.Errorf("%w: %s", ErrDatabaseInternal, pgErr.Message)
	}

	// fallback: keep the original message
	return fmt.Errorf("%w: %v", ErrDatabaseInternal, rawErr)
}

// IsDuplicateError reports whether err is a unique constraint violation on any supported driver.
func IsDuplicateError(err error) bool {
	if errors.Is(err, ErrDuplicateEntry) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
