package oakquery_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oakquery "github.com/OAK-Technology/oak-query"
)

func TestRunnerStats(t *testing.T) {
	db, mock := newMock(t)
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var slowCalls int
	r := oakquery.NewRunner(db,
		oakquery.WithLogger(logger),
		oakquery.WithSlowThreshold(15*time.Millisecond),
		oakquery.WithSlowHook(func(_ context.Context, stmt oakquery.Statement, d time.Duration) {
			slowCalls++
			assert.Contains(t, stmt.SQL(), "UPDATE")
			assert.Greater(t, d, 15*time.Millisecond)
		}),
	)

	ins := oakquery.Insert{
		Table:   "t",
		Columns: []string{"a"},
		Rows:    []oakquery.Row{{oakquery.Int(1)}},
	}.Build()
	upd := oakquery.Update{
		Table: "t",
		Set:   []oakquery.Assignment{oakquery.Set("a", oakquery.Int(2))},
	}.Build()
	sel := oakquery.Filter{
		Base:       oakquery.Raw("SELECT a FROM t"),
		Conditions: []oakquery.Condition{oakquery.Eq("a", oakquery.Int(2))},
	}.Build()

	mock.ExpectExec(ins.SQL()).WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(upd.SQL()).WithArgs(int64(2)).
		WillDelayFor(60 * time.Millisecond).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(sel.SQL()).WithArgs(int64(2)).WillReturnError(errors.New("relation does not exist"))

	ctx := context.Background()
	_, err := r.Exec(ctx, ins)
	require.NoError(t, err)
	_, err = r.Exec(ctx, upd)
	require.NoError(t, err)
	_, err = r.Query(ctx, sel)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	stats := r.Stats()
	assert.Equal(t, int64(2), stats.Execs)
	assert.Equal(t, int64(1), stats.Queries)
	assert.Equal(t, int64(1), stats.Errors)
	assert.Equal(t, int64(1), stats.Slow)
	assert.Equal(t, 1, slowCalls)
	assert.Greater(t, stats.AvgDuration(), time.Duration(0))
	assert.Contains(t, stats.String(), "execs=2")

	out := logs.String()
	assert.Contains(t, out, "statement executed")
	assert.Contains(t, out, "slow statement detected")
	assert.Contains(t, out, "statement failed")

	r.ResetStats()
	assert.Equal(t, oakquery.Stats{}, r.Stats())
}

func TestRunnerEmptyStatement(t *testing.T) {
	db, mock := newMock(t)
	r := oakquery.NewRunner(db, oakquery.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))

	_, err := r.Exec(context.Background(), oakquery.Update{Table: "t"}.Build())
	assert.ErrorIs(t, err, oakquery.ErrEmptyStatement)
	assert.Equal(t, int64(1), r.Stats().Errors)
	require.NoError(t, mock.ExpectationsWereMet())
}
