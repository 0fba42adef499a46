// Package cli provides shared configuration and utilities for the oak-query CLI.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ExitCode is the process status oak-query exits with. Scripts running
// statement files in CI can tell a broken file (3) from an unreachable
// database (4).
type ExitCode int

// Exit codes.
const (
	ExitSuccess       ExitCode = 0
	ExitGeneral       ExitCode = 1
	ExitConfig        ExitCode = 2
	ExitStatementFile ExitCode = 3
	ExitDBConnect     ExitCode = 4
)

func (c ExitCode) String() string {
	switch c {
	case ExitSuccess:
		return "success"
	case ExitGeneral:
		return "general"
	case ExitConfig:
		return "config"
	case ExitStatementFile:
		return "statement-file"
	case ExitDBConnect:
		return "db-connect"
	default:
		return fmt.Sprintf("exit(%d)", int(c))
	}
}

// Hint suggests the next command to run after a failure with this code.
func (c ExitCode) Hint() string {
	switch c {
	case ExitConfig:
		return "run 'oak-query config show --source' to see the effective configuration"
	case ExitStatementFile:
		return "run 'oak-query doctor --verbose <file>' to see what cannot be rendered"
	case ExitDBConnect:
		return "check --db, database.url or the OAKQUERY_DATABASE_* variables"
	default:
		return ""
	}
}

// ExitError wraps an error with an exit code.
type ExitError struct {
	Code    ExitCode
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitWithError prints the error and its hint, then exits with the
// appropriate code.
func ExitWithError(err error) {
	os.Exit(int(Report(os.Stderr, err)))
}

// Report writes err and, for an *ExitError, its hint to w and returns the
// code to exit with.
func Report(w io.Writer, err error) ExitCode {
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		_, _ = fmt.Fprintln(w, "Error:", err)
		return ExitGeneral
	}
	_, _ = fmt.Fprintln(w, "Error:", exitErr.Error())
	if hint := exitErr.Code.Hint(); hint != "" {
		_, _ = fmt.Fprintln(w, "Hint:", hint)
	}
	return exitErr.Code
}

// ConfigError creates an ExitError with ExitConfig code.
func ConfigError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitConfig, Message: msg, Err: err}
}

// StatementFileError creates an ExitError with ExitStatementFile code.
// It covers unreadable, undecodable and, in strict mode, unrenderable
// statement files.
func StatementFileError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitStatementFile, Message: msg, Err: err}
}

// DBConnectError creates an ExitError with ExitDBConnect code.
func DBConnectError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitDBConnect, Message: msg, Err: err}
}

// GeneralError creates an ExitError with ExitGeneral code.
func GeneralError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitGeneral, Message: msg, Err: err}
}
