package oakquery

import (
	"context"
	"database/sql"
	"fmt"
)

// Exec runs the statement with db. An empty statement returns
// ErrEmptyStatement without reaching the database.
func (s Statement) Exec(ctx context.Context, db Execer) (sql.Result, error) {
	if s.IsEmpty() {
		return nil, ErrEmptyStatement
	}
	res, err := db.ExecContext(ctx, s.sql, s.args...)
	if err != nil {
		return nil, fmt.Errorf("oakquery: exec: %w", err)
	}
	return res, nil
}

// Query runs the statement with db and returns its rows. An empty statement
// returns ErrEmptyStatement without reaching the database.
func (s Statement) Query(ctx context.Context, db Querier) (*sql.Rows, error) {
	if s.IsEmpty() {
		return nil, ErrEmptyStatement
	}
	rows, err := db.QueryContext(ctx, s.sql, s.args...)
	if err != nil {
		return nil, fmt.Errorf("oakquery: query: %w", err)
	}
	return rows, nil
}

// QueryRow runs the statement with db and returns its first row. Errors,
// including running an empty statement, are deferred to Row.Scan as with
// database/sql.
func (s Statement) QueryRow(ctx context.Context, db Querier) *sql.Row {
	return db.QueryRowContext(ctx, s.sql, s.args...)
}
