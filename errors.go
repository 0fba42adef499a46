package oakquery

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for input the assemblers cannot render.
//
// Build never fails: it drops what it cannot render. These errors surface
// through BuildStrict and the Issues methods, wrapped in an *Issue that
// locates the offending predicate, row, or assignment.
//
// Use the Is*Err helper functions or errors.Is to check for specific errors.
var (
	// ErrMissingChain is reported for a predicate after the first one that
	// has no chain operator (AND, OR, ...). The predicate is skipped.
	ErrMissingChain = errors.New("oakquery: missing chain operator")

	// ErrMissingRange is reported for a BETWEEN predicate without a right
	// value. The predicate is skipped.
	ErrMissingRange = errors.New("oakquery: BETWEEN without upper bound")

	// ErrNotArray is reported for an IN predicate whose value is not an
	// array. The predicate is skipped.
	ErrNotArray = errors.New("oakquery: IN requires an array value")

	// ErrEmptyList is reported for an IN predicate whose array is empty.
	// The predicate renders "IN ()", which PostgreSQL rejects.
	ErrEmptyList = errors.New("oakquery: IN with empty list")

	// ErrNotText is reported for a LIKE predicate whose value is not text.
	// The predicate binds an empty pattern.
	ErrNotText = errors.New("oakquery: LIKE requires a text value")

	// ErrNullOperand is reported for a comparison against Null. Null binds
	// no placeholder, so the comparison is left without an operand; use
	// IS NULL in raw text instead. Null elements of an IN list render the
	// NULL literal, which never matches.
	ErrNullOperand = errors.New("oakquery: null operand")

	// ErrRowLength is reported for an insert row whose length differs from
	// the column count. The row is skipped.
	ErrRowLength = errors.New("oakquery: row length does not match columns")

	// ErrNoRows is reported for an insert without well-formed rows.
	// The statement is empty.
	ErrNoRows = errors.New("oakquery: no rows to insert")

	// ErrNoColumns is reported for an insert without columns.
	// The statement is empty.
	ErrNoColumns = errors.New("oakquery: no columns")

	// ErrNoAssignments is reported for an update without assignments.
	// The statement is empty.
	ErrNoAssignments = errors.New("oakquery: no assignments")

	// ErrUnsupportedType is returned by From for Go values that have no
	// Value representation.
	ErrUnsupportedType = errors.New("oakquery: unsupported type")

	// ErrEmptyStatement is returned when executing an empty statement.
	// Check Statement.IsEmpty before executing assembler output.
	ErrEmptyStatement = errors.New("oakquery: empty statement")
)

// IsMissingChainErr returns true if err is or wraps ErrMissingChain.
func IsMissingChainErr(err error) bool {
	return errors.Is(err, ErrMissingChain)
}

// IsRowLengthErr returns true if err is or wraps ErrRowLength.
func IsRowLengthErr(err error) bool {
	return errors.Is(err, ErrRowLength)
}

// IsUnsupportedTypeErr returns true if err is or wraps ErrUnsupportedType.
func IsUnsupportedTypeErr(err error) bool {
	return errors.Is(err, ErrUnsupportedType)
}

// IsEmptyStatementErr returns true if err is or wraps ErrEmptyStatement.
func IsEmptyStatementErr(err error) bool {
	return errors.Is(err, ErrEmptyStatement)
}

// Issue locates one problem found while planning a statement.
type Issue struct {
	// Clause is "where", "values" or "set".
	Clause string
	// Index is the position within the clause's list, or -1 when the issue
	// concerns the statement as a whole.
	Index int
	// Column is the column involved, if any.
	Column string
	// Skipped reports whether the element was left out of the statement.
	Skipped bool
	Err     error
}

func (i *Issue) Error() string {
	var b strings.Builder
	b.WriteString(i.Clause)
	if i.Index >= 0 {
		fmt.Fprintf(&b, "[%d]", i.Index)
	}
	if i.Column != "" {
		fmt.Fprintf(&b, " (%s)", i.Column)
	}
	b.WriteString(": ")
	b.WriteString(i.Err.Error())
	return b.String()
}

func (i *Issue) Unwrap() error { return i.Err }

// joinIssues combines issues into one error, nil when there are none.
func joinIssues(issues []*Issue) error {
	if len(issues) == 0 {
		return nil
	}
	errs := make([]error, len(issues))
	for i, is := range issues {
		errs[i] = is
	}
	return errors.Join(errs...)
}
