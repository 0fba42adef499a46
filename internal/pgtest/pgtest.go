// Package pgtest provides PostgreSQL databases for integration tests.
//
// A single container is started per test binary. Every call to DB creates a
// fresh database on it, so tests can run in parallel without sharing state.
package pgtest

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Image is the PostgreSQL image the container runs.
const Image = "postgres:18-alpine"

// Singleton container state
var (
	singletonOnce sync.Once
	singletonDSN  string
	singletonErr  error
)

// ensureSingleton lazily starts the shared PostgreSQL container.
func ensureSingleton() (string, error) {
	singletonOnce.Do(func() {
		ctx := context.Background()

		container, err := postgres.Run(ctx,
			Image,
			postgres.WithDatabase("postgres"),
			postgres.WithUsername("test"),
			postgres.WithPassword("test"),
			testcontainers.WithEnv(map[string]string{
				"POSTGRES_INITDB_ARGS": "--auth-host=trust",
			}),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
			),
		)
		if err != nil {
			singletonErr = fmt.Errorf("failed to start PostgreSQL container: %w", err)
			return
		}

		dsn, err := container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			_ = container.Terminate(ctx)
			singletonErr = fmt.Errorf("failed to get PostgreSQL connection string: %w", err)
			return
		}

		singletonDSN = dsn
		// Container is not stored - ryuk will handle cleanup automatically
	})

	return singletonDSN, singletonErr
}

// DB returns a connection to a new empty database. The database is dropped
// when the test completes. Works with both *testing.T and *testing.B.
func DB(tb testing.TB) *sql.DB {
	tb.Helper()

	if testing.Short() {
		tb.Skip("skipping PostgreSQL test in short mode")
	}

	adminDSN, err := ensureSingleton()
	require.NoError(tb, err, "failed to start PostgreSQL container")

	dbName := uniqueDBName("test")
	require.NoError(tb, createDatabase(adminDSN, dbName), "failed to create test database")

	db, err := sql.Open("pgx", ReplaceDBName(adminDSN, dbName))
	require.NoError(tb, err, "failed to connect to test database")
	require.NoError(tb, db.Ping(), "failed to ping test database")

	tb.Cleanup(func() {
		_ = db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = dropDatabase(ctx, adminDSN, dbName)
	})

	return db
}

// DSN returns the connection string of a new empty database, for code that
// opens its own connections (for example with the lib/pq driver). The
// database is dropped when the test completes.
func DSN(tb testing.TB) string {
	tb.Helper()

	if testing.Short() {
		tb.Skip("skipping PostgreSQL test in short mode")
	}

	adminDSN, err := ensureSingleton()
	require.NoError(tb, err, "failed to start PostgreSQL container")

	dbName := uniqueDBName("dsn")
	require.NoError(tb, createDatabase(adminDSN, dbName), "failed to create test database")

	tb.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = dropDatabase(ctx, adminDSN, dbName)
	})

	return ReplaceDBName(adminDSN, dbName)
}

// uniqueDBName generates a unique database name with the given prefix.
func uniqueDBName(prefix string) string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%s_%s", prefix, hex.EncodeToString(b))
}

func createDatabase(adminDSN, name string) error {
	db, err := sql.Open("pgx", adminDSN)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	_, err = db.Exec(fmt.Sprintf("CREATE DATABASE %s", name))
	return err
}

func dropDatabase(ctx context.Context, adminDSN, name string) error {
	db, err := sql.Open("pgx", adminDSN)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	// Force disconnect all users
	_, _ = db.ExecContext(ctx, `
		SELECT pg_terminate_backend(pid)
		FROM pg_stat_activity
		WHERE datname = $1 AND pid <> pg_backend_pid()
	`, name)

	_, err = db.ExecContext(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %s", name))
	return err
}

// ReplaceDBName replaces the database name in a URL-style PostgreSQL DSN,
// keeping any query parameters.
func ReplaceDBName(dsn, newDB string) string {
	rest := ""
	if q := strings.IndexByte(dsn, '?'); q >= 0 {
		dsn, rest = dsn[:q], dsn[q:]
	}
	slash := strings.LastIndexByte(dsn, '/')
	if slash < 0 {
		return dsn + rest
	}
	return dsn[:slash+1] + newDB + rest
}
