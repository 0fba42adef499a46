package oakquery_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oakquery "github.com/OAK-Technology/oak-query"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestStatementExec(t *testing.T) {
	db, mock := newMock(t)

	stmt := oakquery.Insert{
		Table:   "users",
		Columns: []string{"name", "age"},
		Rows: []oakquery.Row{
			{oakquery.Text("ann"), oakquery.Int(31)},
			{oakquery.Text("bob"), oakquery.Default()},
		},
	}.Build()

	mock.ExpectExec(stmt.SQL()).
		WithArgs("ann", int64(31), "bob").
		WillReturnResult(sqlmock.NewResult(0, 2))

	res, err := stmt.Exec(context.Background(), db)
	require.NoError(t, err)
	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatementQuery(t *testing.T) {
	db, mock := newMock(t)

	stmt := oakquery.Filter{
		Base:       oakquery.Raw("SELECT id, name FROM users"),
		Conditions: []oakquery.Condition{oakquery.Like("", "name", "an")},
		Limit:      oakquery.Ptr[int64](2),
	}.Build()

	mock.ExpectQuery(stmt.SQL()).
		WithArgs("%an%", int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "ann").AddRow(2, "dan"))

	rows, err := stmt.Query(context.Background(), db)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var id int
		var name string
		require.NoError(t, rows.Scan(&id, &name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"ann", "dan"}, names)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatementQueryRow(t *testing.T) {
	db, mock := newMock(t)

	stmt := oakquery.Update{
		Table: "users",
		Set:   []oakquery.Assignment{oakquery.Set("name", oakquery.Text("cy"))},
		Where: []oakquery.Condition{oakquery.Eq("id", oakquery.Int(3))},
		End:   "RETURNING id",
	}.Build()

	mock.ExpectQuery(stmt.SQL()).
		WithArgs("cy", int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	var id int
	require.NoError(t, stmt.QueryRow(context.Background(), db).Scan(&id))
	assert.Equal(t, 3, id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEmptyStatementNotExecuted(t *testing.T) {
	db, mock := newMock(t)
	empty := oakquery.Insert{Table: "users", Columns: []string{"name"}}.Build()

	_, err := empty.Exec(context.Background(), db)
	assert.ErrorIs(t, err, oakquery.ErrEmptyStatement)

	_, err = empty.Query(context.Background(), db)
	assert.ErrorIs(t, err, oakquery.ErrEmptyStatement)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatementExecError(t *testing.T) {
	db, mock := newMock(t)
	boom := errors.New("connection reset")

	stmt := oakquery.Update{
		Table: "t",
		Set:   []oakquery.Assignment{oakquery.Set("a", oakquery.Int(1))},
	}.Build()
	mock.ExpectExec(stmt.SQL()).WithArgs(int64(1)).WillReturnError(boom)

	_, err := stmt.Exec(context.Background(), db)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "oakquery: exec")
	require.NoError(t, mock.ExpectationsWereMet())
}
