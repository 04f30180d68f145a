package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"lancamentos/internal/core"
)

// writeErr maps driver errors of a write to the error taxonomy. Constraint
// failures reported by SQLite (foreign keys, uniqueness, NOT NULL) become
// core.ErrConstraintViolation.
func writeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, core.ErrConstraintViolation) || errors.Is(err, core.ErrNotFound) {
		return err
	}
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return fmt.Errorf("%w: %s: %w", core.ErrConstraintViolation, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// readErr maps sql.ErrNoRows to core.ErrNotFound.
func readErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", core.ErrNotFound, op)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// affectedOne returns core.ErrNotFound unless the statement touched a row.
func affectedOne(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", core.ErrNotFound, op)
	}
	return nil
}

// exists reports whether query returns at least one row.
func exists(ctx context.Context, db DBTX, query string, args ...any) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
