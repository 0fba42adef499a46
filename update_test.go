package oakquery_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oakquery "github.com/OAK-Technology/oak-query"
)

func TestUpdateBuild(t *testing.T) {
	tests := []struct {
		name     string
		update   oakquery.Update
		wantSQL  string
		wantArgs []any
	}{
		{
			name: "set where returning",
			update: oakquery.Update{
				Table: "sample_table",
				Set: []oakquery.Assignment{
					oakquery.Set("col1", oakquery.Text("a")),
					oakquery.Set("col2", oakquery.Int(2)),
					oakquery.Set("col3", oakquery.Bool(false)),
				},
				Where: []oakquery.Condition{oakquery.Eq("id", oakquery.Int(4))},
				End:   "RETURNING id",
			},
			wantSQL:  "UPDATE sample_table\n    SET col1 = $1,\n    col2 = $2,\n    col3 = $3\nWHERE\n    id = $4\nRETURNING id",
			wantArgs: []any{"a", int64(2), false, int64(4)},
		},
		{
			name: "single assignment without where",
			update: oakquery.Update{
				Table: "t",
				Set:   []oakquery.Assignment{oakquery.Set("a", oakquery.Int(1))},
			},
			wantSQL:  "UPDATE t\n    SET a = $1",
			wantArgs: []any{int64(1)},
		},
		{
			name: "null assigns literal",
			update: oakquery.Update{
				Table: "t",
				Set: []oakquery.Assignment{
					oakquery.Set("deleted_at", oakquery.Null()),
					oakquery.Set("note", oakquery.Text("x")),
				},
				Where: []oakquery.Condition{
					oakquery.In("", "id", oakquery.Int(1), oakquery.Int(2)),
				},
			},
			wantSQL:  "UPDATE t\n    SET deleted_at = NULL,\n    note = $1\nWHERE\n    id IN ($2, $3)",
			wantArgs: []any{"x", int64(1), int64(2)},
		},
		{
			name: "empty in list keeps where",
			update: oakquery.Update{
				Table: "accounts",
				Set:   []oakquery.Assignment{oakquery.Set("active", oakquery.Bool(false))},
				Where: []oakquery.Condition{oakquery.In("", "id")},
			},
			wantSQL:  "UPDATE accounts\n    SET active = $1\nWHERE\n    id IN ()",
			wantArgs: []any{false},
		},
		{
			name: "empty assignments ignore where",
			update: oakquery.Update{
				Table: "t",
				Where: []oakquery.Condition{oakquery.Eq("id", oakquery.Int(1))},
				End:   "RETURNING id",
			},
			wantSQL:  "",
			wantArgs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := tt.update.Build()
			assert.Equal(t, tt.wantSQL, stmt.SQL())
			assert.Equal(t, tt.wantArgs, stmt.Args())
		})
	}
}

func TestUpdateSetClause(t *testing.T) {
	u := oakquery.Update{
		Table: "t",
		Set:   []oakquery.Assignment{oakquery.Set("a", oakquery.Int(1)), oakquery.Set("b", oakquery.Int(2))},
		Where: []oakquery.Condition{oakquery.Eq("id", oakquery.Int(3))},
	}
	stmt := u.SetClause()
	assert.Equal(t, "UPDATE t\n    SET a = $1,\n    b = $2", stmt.SQL())
	assert.Equal(t, []any{int64(1), int64(2)}, stmt.Args())
}

func TestUpdateBuildStrict(t *testing.T) {
	t.Run("no assignments", func(t *testing.T) {
		_, err := oakquery.Update{Table: "t"}.BuildStrict()
		assert.ErrorIs(t, err, oakquery.ErrNoAssignments)
	})

	t.Run("missing chain", func(t *testing.T) {
		u := oakquery.Update{
			Table: "t",
			Set:   []oakquery.Assignment{oakquery.Set("a", oakquery.Int(1))},
			Where: []oakquery.Condition{
				oakquery.Eq("id", oakquery.Int(1)),
				oakquery.Cond("", "tenant", "=", oakquery.Int(2)),
			},
		}
		_, err := u.BuildStrict()
		require.Error(t, err)
		assert.True(t, oakquery.IsMissingChainErr(err))
		assert.Equal(t, "UPDATE t\n    SET a = $1\nWHERE\n    id = $2", u.Build().SQL())
	})
}
