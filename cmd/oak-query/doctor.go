package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	oakquery "github.com/OAK-Technology/oak-query"
	"github.com/OAK-Technology/oak-query/internal/cli"
	"github.com/OAK-Technology/oak-query/internal/doctor"
	"github.com/OAK-Technology/oak-query/internal/stmtfile"
)

var (
	doctorDB      string
	doctorVerbose bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor [file]...",
	Short: "Run health checks",
	Long: `Run health checks on statement files.

Without arguments every statement file under statements_dir is checked. When
a database is configured, PostgreSQL is also asked to plan each statement.`,
	Example: `  # Check files only
  oak-query doctor

  # Also check against the database
  oak-query doctor --db postgres://localhost/mydb --verbose`,
	RunE: func(cmd *cobra.Command, args []string) error {
		verboseFlag := resolveBool(doctorVerbose, cfg.Doctor.Verbose)

		paths := args
		if len(paths) == 0 {
			var err error
			if paths, err = discoverStatements(cfg.StatementsDir); err != nil {
				return cli.StatementFileError("discovering statement files", err)
			}
		}

		var dsn string
		if doctorDB != "" || cfg.HasDatabase() {
			var err error
			if dsn, err = resolveDSN(doctorDB); err != nil {
				return err
			}
		}

		return runDoctor(cmd.Context(), dsn, paths, verboseFlag)
	},
}

func init() {
	f := doctorCmd.Flags()
	f.StringVar(&doctorDB, "db", "", "database URL")
	f.BoolVar(&doctorVerbose, "verbose", false, "show detailed output")
}

// discoverStatements lists statement files in dir. A missing directory
// yields no files.
func discoverStatements(dir string) ([]string, error) {
	paths, err := stmtfile.Discover(dir)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info("statements directory not found", "dir", dir)
		return nil, nil
	}
	return paths, err
}

func runDoctor(ctx context.Context, dsn string, paths []string, verboseFlag bool) error {
	var q oakquery.Querier
	if dsn != "" {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return cli.DBConnectError("connecting to database", err)
		}
		defer func() { _ = db.Close() }()
		q = db
	}

	if !quiet {
		fmt.Println("oak-query doctor - Health Check")
	}

	d := doctor.New(q, paths)
	report, err := d.Run(ctx)
	if err != nil {
		return cli.GeneralError("running doctor", err)
	}

	report.Print(os.Stdout, verboseFlag)

	if report.HasErrors() {
		return cli.GeneralError("health checks failed", nil)
	}

	return nil
}
