package oakquery

import (
	"strings"

	"github.com/OAK-Technology/oak-query/internal/sqlbuf"
)

// Row is one row of an insert, aligned with Insert.Columns. A Null cell
// renders the DEFAULT keyword.
type Row []Value

// Insert assembles a multi-row INSERT:
//
//	INSERT INTO users(name, age)
//	VALUES
//	       ($1, $2),
//	       ($3, default)
//	RETURNING id
//
// Rows whose length differs from the column count are left out. Without
// columns or well-formed rows the statement is empty.
type Insert struct {
	Table   string
	Columns []string
	Rows    []Row
	// End is trailing text such as "RETURNING id" or an ON CONFLICT clause.
	End string
}

// Build assembles the statement.
func (ins Insert) Build() Statement {
	keep, _ := planRows(ins.Columns, ins.Rows)
	return ins.render(keep)
}

// BuildStrict assembles the statement, failing if any row would be left out
// or nothing would be inserted.
func (ins Insert) BuildStrict() (Statement, error) {
	keep, issues := planRows(ins.Columns, ins.Rows)
	if err := joinIssues(issues); err != nil {
		return Statement{}, err
	}
	return ins.render(keep), nil
}

// Issues reports what Build leaves out.
func (ins Insert) Issues() []*Issue {
	_, issues := planRows(ins.Columns, ins.Rows)
	return issues
}

func (ins Insert) render(keep []int) Statement {
	if len(keep) == 0 {
		return Statement{}
	}
	b := sqlbuf.New("INSERT INTO ")
	b.Push(ins.Table).Push("(").Push(strings.Join(ins.Columns, ", ")).Push(")\n")
	b.Push("VALUES\n")
	for n, i := range keep {
		b.Push("       (")
		for j, cell := range ins.Rows[i] {
			if j > 0 {
				b.Push(", ")
			}
			if cell.IsNull() {
				b.Push("default")
				continue
			}
			bindValue(b, cell)
		}
		if n < len(keep)-1 {
			b.Push("),\n")
		} else {
			b.Push(")\n")
		}
	}
	if ins.End != "" {
		b.Push(ins.End).Push("\n")
	}
	return statementFrom(b)
}
