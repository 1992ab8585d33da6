package models

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// New returns query helpers bound to db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Queries groups the hand-written SQL used by the server.
type Queries struct {
	db DBTX
}

