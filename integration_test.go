//go:build integration

package oakquery_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oakquery "github.com/OAK-Technology/oak-query"
	"github.com/OAK-Technology/oak-query/internal/pgtest"
)

const peopleDDL = `
CREATE TABLE people (
	id     bigserial PRIMARY KEY,
	name   text NOT NULL,
	age    integer,
	born   date,
	seen   timestamp,
	tags   text[],
	prefs  jsonb,
	active boolean NOT NULL DEFAULT true
)`

// openPeople returns a lib/pq connection to a fresh database holding the
// people table.
func openPeople(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("postgres", pgtest.DSN(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(peopleDDL)
	require.NoError(t, err)
	return db
}

func insertPeople(t *testing.T, ctx context.Context, r *oakquery.Runner) []int64 {
	t.Helper()
	ins := oakquery.Insert{
		Table:   "people",
		Columns: []string{"name", "age", "born", "seen", "tags", "prefs", "active"},
		Rows: []oakquery.Row{
			{
				oakquery.Text("ann"), oakquery.Int(34),
				oakquery.Date(time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC)),
				oakquery.DateTime(time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)),
				oakquery.Of([]string{"admin", "ops"}),
				oakquery.Object(map[string]oakquery.Value{"theme": oakquery.Text("dark")}),
				oakquery.Bool(false),
			},
			{
				oakquery.Text("bob"), oakquery.Int(41),
				oakquery.Date(time.Date(1983, 2, 14, 0, 0, 0, 0, time.UTC)),
				oakquery.Null(),
				oakquery.Of([]string{}),
				oakquery.Null(),
				oakquery.Null(),
			},
			{oakquery.Text("too short")},
			{
				oakquery.Text("dana"), oakquery.Int(29),
				oakquery.Date(time.Date(1995, 11, 3, 0, 0, 0, 0, time.UTC)),
				oakquery.Null(),
				oakquery.Of([]string{"ops"}),
				oakquery.Null(),
				oakquery.Bool(true),
			},
		},
		End: "RETURNING id",
	}
	require.Len(t, ins.Issues(), 1)

	rows, err := r.Query(ctx, ins.Build())
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())
	return ids
}

func TestIntegrationInsertSelectUpdate(t *testing.T) {
	db := openPeople(t)
	ctx := context.Background()
	r := oakquery.NewRunner(db)

	ids := insertPeople(t, ctx, r)
	require.Len(t, ids, 3)

	// Null cells took the column default.
	var active bool
	require.NoError(t, oakquery.Raw("SELECT active FROM people WHERE id = $1", ids[1]).QueryRow(ctx, db).Scan(&active))
	assert.True(t, active)

	var tags pq.StringArray
	var theme string
	require.NoError(t, oakquery.Raw("SELECT tags, prefs->>'theme' FROM people WHERE id = $1", ids[0]).
		QueryRow(ctx, db).Scan(&tags, &theme))
	assert.Equal(t, pq.StringArray{"admin", "ops"}, tags)
	assert.Equal(t, "dark", theme)

	f := oakquery.Filter{
		Base: oakquery.Raw("SELECT name FROM people"),
		Conditions: []oakquery.Condition{
			oakquery.Between("", "born",
				oakquery.Date(time.Date(1985, 1, 1, 0, 0, 0, 0, time.UTC)),
				oakquery.Date(time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC))),
			oakquery.Like("AND", "name", "a"),
			oakquery.In("OR", "age", oakquery.Int(41)),
		},
		Middle: oakquery.OrderBy("name"),
		Limit:  oakquery.Ptr[int64](10),
	}
	stmt, err := f.BuildStrict()
	require.NoError(t, err)

	rows, err := r.Query(ctx, stmt)
	require.NoError(t, err)
	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	_ = rows.Close()
	assert.Equal(t, []string{"ann", "bob", "dana"}, names)

	u := oakquery.Update{
		Table: "people",
		Set: []oakquery.Assignment{
			oakquery.Set("age", oakquery.Int(35)),
			oakquery.Set("prefs", oakquery.Null()),
			oakquery.Set("seen", oakquery.DateTime(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC))),
		},
		Where: []oakquery.Condition{oakquery.Eq("id", oakquery.Int(ids[0]))},
	}
	res, err := r.Exec(ctx, u.Build())
	require.NoError(t, err)
	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var age int
	var prefs sql.NullString
	var seen time.Time
	require.NoError(t, oakquery.Raw("SELECT age, prefs, seen FROM people WHERE id = $1", ids[0]).
		QueryRow(ctx, db).Scan(&age, &prefs, &seen))
	assert.Equal(t, 35, age)
	assert.False(t, prefs.Valid)
	assert.True(t, seen.Equal(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)))

	stats := r.Stats()
	assert.Equal(t, int64(2), stats.Queries)
	assert.Equal(t, int64(1), stats.Execs)
	assert.Zero(t, stats.Errors)
}

func TestIntegrationInterpolateMatchesParameters(t *testing.T) {
	db := openPeople(t)
	ctx := context.Background()
	insertPeople(t, ctx, oakquery.NewRunner(db))

	f := oakquery.Filter{
		Base:       oakquery.Raw("SELECT count(*) FROM people"),
		Conditions: []oakquery.Condition{oakquery.Like("", "name", "'"), oakquery.Or("age", ">", oakquery.Int(30))},
	}
	stmt := f.Build()

	var want int
	require.NoError(t, stmt.QueryRow(ctx, db).Scan(&want))

	text, err := stmt.Interpolate()
	require.NoError(t, err)
	var got int
	require.NoError(t, db.QueryRowContext(ctx, text).Scan(&got))
	assert.Equal(t, want, got)
	assert.Equal(t, 2, got)
}
