// Package database provides PostgreSQL access for the admin back office: the
// connection pool and transactions, schema introspection into column metadata,
// generic table mappers, and a parameterized query builder.
package database

import (
	"context"
	"database/sql"
)

// Executor is the subset of database/sql shared by *sql.DB, *sql.Tx and *Pool.
// Mappers run against an Executor so the same code works inside and outside a
// transaction.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

var (
	_ Executor = (*sql.DB)(nil)
	_ Executor = (*sql.Tx)(nil)
	_ Executor = (*Pool)(nil)
)
