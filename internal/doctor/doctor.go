// Package doctor provides health checks for oak-query statement files.
//
// The doctor command validates that statement files decode, that every
// condition and row they describe is rendered, and, when a database is
// configured, that PostgreSQL accepts the assembled statements.
//
// Example usage:
//
//	d := doctor.New(db, paths) // db may be nil
//	report, err := d.Run(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	report.Print(os.Stdout, true) // verbose=true
package doctor

import (
	"context"
	"fmt"
	"io"
	"strings"

	oakquery "github.com/OAK-Technology/oak-query"
	"github.com/OAK-Technology/oak-query/internal/stmtfile"
)

// Status represents the result of a health check.
type Status int

const (
	// StatusPass indicates the check passed.
	StatusPass Status = iota
	// StatusWarn indicates a non-critical issue.
	StatusWarn
	// StatusFail indicates a critical issue that will cause failures.
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Symbol returns a status indicator symbol for terminal output.
func (s Status) Symbol() string {
	switch s {
	case StatusPass:
		return "✓"
	case StatusWarn:
		return "⚠"
	case StatusFail:
		return "✗"
	default:
		return "?"
	}
}

// CheckResult represents the outcome of a single health check.
type CheckResult struct {
	// Category groups related checks (e.g., "Statement Files", "Database").
	Category string

	// Name is a short identifier for the check.
	Name string

	// Status is the check outcome.
	Status Status

	// Message is a human-readable description of the result.
	Message string

	// Details provides additional information for verbose output.
	Details string

	// FixHint suggests how to resolve issues.
	FixHint string
}

// Report contains all health check results.
type Report struct {
	Checks []CheckResult

	// Summary counts.
	Passed   int
	Warnings int
	Errors   int
}

// AddCheck adds a check result and updates summary counts.
func (r *Report) AddCheck(check CheckResult) {
	r.Checks = append(r.Checks, check)
	switch check.Status {
	case StatusPass:
		r.Passed++
	case StatusWarn:
		r.Warnings++
	case StatusFail:
		r.Errors++
	}
}

// Print writes the report to the given writer, grouped by category in the
// order categories were first seen.
func (r *Report) Print(w io.Writer, verbose bool) {
	categories := make(map[string][]CheckResult)
	var categoryOrder []string
	for _, check := range r.Checks {
		if _, exists := categories[check.Category]; !exists {
			categoryOrder = append(categoryOrder, check.Category)
		}
		categories[check.Category] = append(categories[check.Category], check)
	}

	for _, cat := range categoryOrder {
		_, _ = fmt.Fprintf(w, "\n%s\n", cat)
		for _, check := range categories[cat] {
			_, _ = fmt.Fprintf(w, "  %s %s\n", check.Status.Symbol(), check.Message)
			if verbose && check.Details != "" {
				for _, line := range strings.Split(check.Details, "\n") {
					_, _ = fmt.Fprintf(w, "      %s\n", line)
				}
			}
			if check.Status != StatusPass && check.FixHint != "" {
				_, _ = fmt.Fprintf(w, "      Fix: %s\n", check.FixHint)
			}
		}
	}

	_, _ = fmt.Fprintf(w, "\nSummary: %d passed, %d warnings, %d errors\n",
		r.Passed, r.Warnings, r.Errors)
}

// HasErrors returns true if any check failed.
func (r *Report) HasErrors() bool {
	return r.Errors > 0
}

const (
	categoryFiles    = "Statement Files"
	categoryDatabase = "Database"
	categoryPlans    = "Statement Plans"
)

// Doctor performs health checks on statement files.
type Doctor struct {
	db    oakquery.Querier
	paths []string

	// Non-empty statements assembled by checkFiles, for checkPlans.
	built []builtStatement
}

type builtStatement struct {
	path string
	stmt oakquery.Statement
}

// New creates a new Doctor. db may be nil, in which case database checks are
// skipped.
func New(db oakquery.Querier, paths []string) *Doctor {
	return &Doctor{db: db, paths: paths}
}

// Run executes all health checks and returns a report.
func (d *Doctor) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	d.checkFiles(report)
	if d.db == nil {
		return report, nil
	}
	if !d.checkDatabase(ctx, report) {
		return report, nil
	}
	d.checkPlans(ctx, report)

	return report, nil
}

// checkFiles decodes and assembles every statement file.
func (d *Doctor) checkFiles(report *Report) {
	if len(d.paths) == 0 {
		report.AddCheck(CheckResult{
			Category: categoryFiles,
			Name:     "found",
			Status:   StatusWarn,
			Message:  "No statement files found",
			FixHint:  "Pass files as arguments or set statements_dir in oak-query.yaml",
		})
		return
	}

	for _, path := range d.paths {
		d.checkFile(report, path)
	}
}

func (d *Doctor) checkFile(report *Report, path string) {
	f, err := stmtfile.Load(path)
	if err != nil {
		report.AddCheck(CheckResult{
			Category: categoryFiles,
			Name:     "decode",
			Status:   StatusFail,
			Message:  fmt.Sprintf("%s cannot be loaded", path),
			Details:  err.Error(),
			FixHint:  "Check the file against the statement file format",
		})
		return
	}

	a, err := f.Assembler()
	if err != nil {
		report.AddCheck(CheckResult{
			Category: categoryFiles,
			Name:     "values",
			Status:   StatusFail,
			Message:  fmt.Sprintf("%s has invalid values", path),
			Details:  err.Error(),
			FixHint:  "Check date and datetime values against their type hints",
		})
		return
	}

	stmt := a.Build()
	issues := a.Issues()
	switch {
	case stmt.IsEmpty():
		report.AddCheck(CheckResult{
			Category: categoryFiles,
			Name:     "render",
			Status:   StatusFail,
			Message:  fmt.Sprintf("%s renders an empty %s statement", path, f.Kind),
			Details:  issueDetails(issues),
			FixHint:  "Provide columns and well-formed rows, or at least one assignment",
		})
		return
	case len(issues) > 0:
		report.AddCheck(CheckResult{
			Category: categoryFiles,
			Name:     "render",
			Status:   StatusWarn,
			Message:  fmt.Sprintf("%s: %d issue(s), %s", path, len(issues), skippedSummary(issues)),
			Details:  issueDetails(issues),
			FixHint:  "Add chain operators, upper bounds and array values, or fix row lengths",
		})
	default:
		report.AddCheck(CheckResult{
			Category: categoryFiles,
			Name:     "render",
			Status:   StatusPass,
			Message:  fmt.Sprintf("%s renders a %s statement with %d parameter(s)", path, f.Kind, stmt.NumArgs()),
			Details:  stmt.SQL(),
		})
	}
	d.built = append(d.built, builtStatement{path: path, stmt: stmt})
}

func skippedSummary(issues []*oakquery.Issue) string {
	skipped := 0
	for _, is := range issues {
		if is.Skipped {
			skipped++
		}
	}
	return fmt.Sprintf("%d element(s) left out", skipped)
}

func issueDetails(issues []*oakquery.Issue) string {
	lines := make([]string, len(issues))
	for i, is := range issues {
		lines[i] = is.Error()
	}
	return strings.Join(lines, "\n")
}

// checkDatabase verifies connectivity and reports the server version.
func (d *Doctor) checkDatabase(ctx context.Context, report *Report) bool {
	var version string
	err := d.db.QueryRowContext(ctx, "SELECT current_setting('server_version')").Scan(&version)
	if err != nil {
		report.AddCheck(CheckResult{
			Category: categoryDatabase,
			Name:     "connect",
			Status:   StatusFail,
			Message:  "Cannot query the database",
			Details:  err.Error(),
			FixHint:  "Check database settings in oak-query.yaml or the --db flag",
		})
		return false
	}

	report.AddCheck(CheckResult{
		Category: categoryDatabase,
		Name:     "connect",
		Status:   StatusPass,
		Message:  fmt.Sprintf("Connected to PostgreSQL %s", version),
	})
	return true
}

// checkPlans asks PostgreSQL to plan every assembled statement. EXPLAIN
// without ANALYZE does not execute inserts or updates.
func (d *Doctor) checkPlans(ctx context.Context, report *Report) {
	for _, b := range d.built {
		explain := oakquery.Raw("EXPLAIN "+b.stmt.SQL(), b.stmt.Args()...)
		plan, err := queryPlan(ctx, d.db, explain)
		if err != nil {
			report.AddCheck(CheckResult{
				Category: categoryPlans,
				Name:     "explain",
				Status:   StatusFail,
				Message:  fmt.Sprintf("%s is rejected by PostgreSQL", b.path),
				Details:  err.Error(),
				FixHint:  "Check table, column and operator names against the schema",
			})
			continue
		}
		report.AddCheck(CheckResult{
			Category: categoryPlans,
			Name:     "explain",
			Status:   StatusPass,
			Message:  fmt.Sprintf("%s plans successfully", b.path),
			Details:  plan,
		})
	}
}

func queryPlan(ctx context.Context, db oakquery.Querier, stmt oakquery.Statement) (string, error) {
	rows, err := stmt.Query(ctx, db)
	if err != nil {
		return "", err
	}
	defer func() { _ = rows.Close() }()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return "", err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}
