package repository

import (
	"context"
	"database/sql"
	"errors"
)

// ErrNotFound is returned when a row is missing or hidden from the caller.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert collides with a unique constraint.
var ErrConflict = errors.New("already exists")

// Tx is the transaction handle repositories operate on for mutations that
// must lock rows. *sql.Tx satisfies it directly.
type Tx interface {
	Commit() error
	Rollback() error
}

// Beginner opens transactions. Satisfied by DB; test fakes substitute a
// mutex-backed implementation.
type Beginner interface {
	Begin(ctx context.Context) (Tx, error)
}

// DB wraps *sql.DB as a Beginner.
type DB struct {
	*sql.DB
}

func NewDB(conn *sql.DB) *DB {
	return &DB{DB: conn}
}

func (d *DB) Begin(ctx context.Context) (Tx, error) {
	return d.DB.BeginTx(ctx, nil)
}

// sqlTx unwraps the Tx handed back by DB.Begin.
func sqlTx(tx Tx) *sql.Tx {
	return tx.(*sql.Tx)
}
