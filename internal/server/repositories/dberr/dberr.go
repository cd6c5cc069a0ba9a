// Package dberr translates database/sql and pgx errors into the sentinels
// in package common.
package dberr

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/moodkeeper/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// Wrap maps sql.ErrNoRows to common.ErrNotFound and unique violations to
// common.ErrAlreadyExists. Anything else becomes common.ErrPersistence with
// the cause kept in the chain.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, common.ErrAlreadyExists)
	}
	return fmt.Errorf("db error: %s: %w: %w", op, common.ErrPersistence, err)
}

// ExpectOne turns a RowsAffected count into common.ErrNotFound when no row
// matched.
func ExpectOne(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return Wrap(op, err)
	}
	switch n {
	case 0:
		return common.ErrNotFound
	case 1:
		return nil
	default:
		return fmt.Errorf("db error: %s: %w: %d rows affected", op, common.ErrPersistence, n)
	}
}
