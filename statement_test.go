package oakquery_test

import (
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oakquery "github.com/OAK-Technology/oak-query"
)

func TestStatementInterpolate(t *testing.T) {
	tests := []struct {
		name string
		stmt oakquery.Statement
		want string
	}{
		{
			name: "filter",
			stmt: oakquery.Filter{
				Base: oakquery.Raw("SELECT * FROM people"),
				Conditions: []oakquery.Condition{
					oakquery.Eq("name", oakquery.Text("o'brien")),
					oakquery.And("age", ">", oakquery.Int(30)),
					oakquery.And("active", "=", oakquery.Bool(true)),
					oakquery.Between("OR", "born", oakquery.Date(time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)), oakquery.Date(time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC))),
				},
				Limit: oakquery.Ptr[int64](5),
			}.Build(),
			want: "SELECT * FROM people\nWHERE\n    name = 'o''brien'\n    AND age > 30\n    AND active = TRUE\n    OR born BETWEEN '1990-01-01' AND '1999-12-31'\nLIMIT 5",
		},
		{
			name: "array and object",
			stmt: oakquery.Update{
				Table: "docs",
				Set: []oakquery.Assignment{
					oakquery.Set("tags", oakquery.Array(oakquery.Text("a"), oakquery.Text("b"))),
					oakquery.Set("meta", oakquery.Object(map[string]oakquery.Value{"v": oakquery.Float(1.5)})),
				},
			}.Build(),
			want: "UPDATE docs\n    SET tags = '{\"a\",\"b\"}',\n    meta = '{\"v\":1.5}'",
		},
		{
			name: "quoted spans are copied unchanged",
			stmt: oakquery.Raw(`SELECT '$1', E'\'$1', "$1", $$ $1 $$, $fn$ $1 $fn$ -- $1
/* $1 */ FROM t WHERE a = $1`, "x"),
			want: `SELECT '$1', E'\'$1', "$1", $$ $1 $$, $fn$ $1 $fn$ -- $1
/* $1 */ FROM t WHERE a = 'x'`,
		},
		{
			name: "doubled quotes stay inside the literal",
			stmt: oakquery.Raw("SELECT 'it''s $1' || $1", "x"),
			want: "SELECT 'it''s $1' || 'x'",
		},
		{
			name: "non-finite floats are quoted",
			stmt: oakquery.Raw("SELECT $1, $2, $3, $4", math.NaN(), math.Inf(1), math.Inf(-1), 0.25),
			want: "SELECT 'NaN'::float8, 'Infinity'::float8, '-Infinity'::float8, 0.25",
		},
		{
			name: "unknown placeholders are kept",
			stmt: oakquery.Raw("SELECT $1, $2, $", "x"),
			want: "SELECT 'x', $2, $",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.stmt.Interpolate()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInterpolateMultiDigit(t *testing.T) {
	var conds []oakquery.Condition
	for i := 1; i <= 11; i++ {
		chain := "AND"
		if i == 1 {
			chain = ""
		}
		conds = append(conds, oakquery.Cond(chain, fmt.Sprintf("c%d", i), "=", oakquery.Int(int64(i*100))))
	}
	stmt := oakquery.Filter{Conditions: conds}.Build()
	require.Contains(t, stmt.SQL(), "c11 = $11")

	got, err := stmt.Interpolate()
	require.NoError(t, err)
	assert.Contains(t, got, "c1 = 100\n")
	assert.Contains(t, got, "c10 = 1000\n")
	assert.True(t, strings.HasSuffix(got, "c11 = 1100"))
}

func TestStatementImmutable(t *testing.T) {
	args := []any{int64(1)}
	stmt := oakquery.Raw("SELECT $1", args...)
	args[0] = int64(2)

	got := stmt.Args()
	got[0] = int64(3)

	assert.Equal(t, []any{int64(1)}, stmt.Args())
	assert.Equal(t, 1, stmt.NumArgs())
	assert.Equal(t, "SELECT $1", stmt.String())
}

func TestStatementEmpty(t *testing.T) {
	var stmt oakquery.Statement
	assert.True(t, stmt.IsEmpty())
	assert.False(t, oakquery.Raw("SELECT 1").IsEmpty())
}
