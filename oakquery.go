// Package oakquery assembles parameterized PostgreSQL statements from
// structured data: filter clauses, multi-row inserts and updates.
//
// Every assembler produces a Statement holding SQL text with positional
// placeholders ($1, $2, ...) and the values bound to them, in order. Values
// are never interpolated into the statement text.
//
// # Values
//
// A Value is one of Null, Bool, Number, Text, Array, Object, Date or
// DateTime. Build them with the typed constructors or convert native Go
// values:
//
//	oakquery.Int(42)
//	oakquery.Text("alice")
//	oakquery.Of(time.Now())           // DateTime
//	v, err := oakquery.From(decoded)  // any decoded JSON/YAML document
//
// Null binds no placeholder. Assemblers special-case it where a keyword is
// needed: DEFAULT in insert rows and NULL in update assignments.
//
// # Filters
//
//	stmt := oakquery.Filter{
//		Base: oakquery.Raw("SELECT * FROM users"),
//		Conditions: []oakquery.Condition{
//			oakquery.Like("", "name", "ali"),
//			oakquery.Or("age", ">", oakquery.Int(30)),
//		},
//		Middle: oakquery.OrderBy("id DESC"),
//		Limit:  oakquery.Ptr[int64](10),
//	}.Build()
//
// produces
//
//	SELECT * FROM users
//	WHERE
//	    name LIKE $1
//	    OR age > $2
//	ORDER BY
//	    id DESC
//	LIMIT $3
//
// with arguments "%ali%", 30, 10.
//
// # Malformed input
//
// Build never fails. Predicates, rows and statements that cannot be rendered
// are left out: a non-leading condition without a chain operator, BETWEEN
// without an upper bound, IN without an array, insert rows of the wrong
// length. Issues lists what was left out, and BuildStrict turns any issue
// into an error wrapping one of the sentinel errors (ErrMissingChain,
// ErrRowLength, ...).
//
// # Execution
//
// Statements run on any *sql.DB, *sql.Tx or *sql.Conn:
//
//	res, err := stmt.Exec(ctx, db)
//	rows, err := stmt.Query(ctx, db)
//
// Runner adds statement logging, statistics and slow statement detection.
package oakquery

import (
	"context"
	"database/sql"
)

// Querier executes queries against PostgreSQL.
// Implemented by *sql.DB, *sql.Tx, and *sql.Conn.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Execer extends Querier with ExecContext for inserts and updates.
type Execer interface {
	Querier
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
