package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	oakquery "github.com/OAK-Technology/oak-query"
	"github.com/OAK-Technology/oak-query/internal/cli"
	"github.com/OAK-Technology/oak-query/internal/stmtfile"
)

var (
	execDB            string
	execTimeout       time.Duration
	execSlowThreshold time.Duration
	execStrict        bool
)

var execCmd = &cobra.Command{
	Use:   "exec <file>",
	Short: "Run a statement file",
	Long: `Assemble a statement file and run it against PostgreSQL.

Select statements, and statements whose end clause contains RETURNING, print
their rows as YAML. Other statements print the number of rows affected.
By default a statement that would leave out a condition or row is refused.`,
	Example: `  # Run an update
  oak-query exec --db postgres://localhost/mydb statements/deactivate.yaml

  # Allow elements to be left out
  oak-query exec --strict=false statements/search.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dsn, err := resolveDSN(execDB)
		if err != nil {
			return err
		}

		strict := cfg.Exec.Strict
		if cmd.Flags().Changed("strict") {
			strict = execStrict
		}
		timeout := cfg.Exec.Timeout
		if cmd.Flags().Changed("timeout") {
			timeout = execTimeout
		}
		slow := cfg.Exec.SlowThreshold
		if cmd.Flags().Changed("slow-threshold") {
			slow = execSlowThreshold
		}

		return runExec(cmd.Context(), cmd.OutOrStdout(), dsn, args[0], strict, timeout, slow)
	},
}

func init() {
	f := execCmd.Flags()
	f.StringVar(&execDB, "db", "", "database URL")
	f.DurationVar(&execTimeout, "timeout", 0, "statement timeout (default from config: 30s)")
	f.DurationVar(&execSlowThreshold, "slow-threshold", 0, "log statements slower than this (default from config: 100ms)")
	f.BoolVar(&execStrict, "strict", true, "refuse statements that would leave out a condition or row")
}

func runExec(ctx context.Context, w io.Writer, dsn, path string, strict bool, timeout, slow time.Duration) error {
	f, err := stmtfile.Load(path)
	if err != nil {
		return cli.StatementFileError("loading "+path, err)
	}
	stmt, err := f.Build(strict)
	if err != nil {
		return cli.StatementFileError(path, err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return cli.DBConnectError("connecting to database", err)
	}
	defer func() { _ = db.Close() }()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := db.PingContext(ctx); err != nil {
		return cli.DBConnectError("connecting to database", err)
	}

	runner := oakquery.NewRunner(db,
		oakquery.WithLogger(logger),
		oakquery.WithSlowThreshold(slow),
	)
	if err := runStatement(ctx, w, runner, stmt, returnsRows(f)); err != nil {
		return cli.GeneralError("running "+path, err)
	}
	logger.Info("statement finished", "file", path, "stats", runner.Stats().String())
	return nil
}

// returnsRows reports whether the statement produces a result set.
func returnsRows(f *stmtfile.File) bool {
	return f.Kind == stmtfile.KindSelect || strings.Contains(strings.ToUpper(f.End), "RETURNING")
}

func runStatement(ctx context.Context, w io.Writer, runner *oakquery.Runner, stmt oakquery.Statement, rowsWanted bool) error {
	if !rowsWanted {
		res, err := runner.Exec(ctx, stmt)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if !quiet {
			_, _ = fmt.Fprintf(w, "%d row(s) affected\n", n)
		}
		return nil
	}

	rows, err := runner.Query(ctx, stmt)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	records, err := scanRecords(rows)
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(records)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// scanRecords reads every row into a column name to value map. Byte slices
// are returned as strings.
func scanRecords(rows *sql.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	records := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		record := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				record[col] = string(b)
			} else {
				record[col] = values[i]
			}
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
