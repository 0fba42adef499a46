package oakquery

import (
	"strings"

	"github.com/OAK-Technology/oak-query/internal/sqlbuf"
)

// Filter appends a WHERE clause and its trailers to a base statement.
//
// The output is, in order: Base, the predicates, Middle, LIMIT, OFFSET and
// End, each trailer on its own line and each optional:
//
//	SELECT * FROM users
//	WHERE
//	    name LIKE $1
//	    OR age > $2
//	ORDER BY
//	    id DESC
//	LIMIT $3
//	OFFSET $4
//
// With no conditions no WHERE is emitted. Limit and Offset are pointers so
// that zero stays expressible; see Ptr.
type Filter struct {
	Base       Statement
	Conditions []Condition
	Middle     string
	Limit      *int64
	Offset     *int64
	End        string
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// Build assembles the statement. Conditions that cannot be rendered are left
// out; see Issues.
func (f Filter) Build() Statement {
	plans, _ := planPredicates(f.Conditions)
	return f.render(plans)
}

// BuildStrict assembles the statement, failing if any condition would be
// left out or rendered incompletely.
func (f Filter) BuildStrict() (Statement, error) {
	plans, issues := planPredicates(f.Conditions)
	if err := joinIssues(issues); err != nil {
		return Statement{}, err
	}
	return f.render(plans), nil
}

// Issues reports what Build leaves out or renders incompletely.
func (f Filter) Issues() []*Issue {
	_, issues := planPredicates(f.Conditions)
	return issues
}

func (f Filter) render(plans []predicatePlan) Statement {
	b := f.Base.buffer()
	for i, p := range plans {
		if p.skip {
			continue
		}
		writePredicate(b, i, p)
	}
	if f.Middle != "" {
		b.Push("\n").Push(f.Middle)
	}
	if f.Limit != nil {
		b.Push("\nLIMIT ").Bind(*f.Limit)
	}
	if f.Offset != nil {
		b.Push("\nOFFSET ").Bind(*f.Offset)
	}
	if f.End != "" {
		b.Push("\n").Push(f.End)
	}
	return statementFrom(b)
}

// writePredicate renders one predicate. Only the predicate at position 0
// opens the WHERE clause.
func writePredicate(b *sqlbuf.Buffer, i int, p predicatePlan) {
	c := p.cond
	if i == 0 {
		b.Push("\nWHERE\n    ")
	} else {
		b.Push("\n    ").Push(c.Chain).Push(" ")
	}
	b.Push(c.Column).Push(" ").Push(c.Operator).Push(" ")

	switch p.kind {
	case predicateBetween:
		bindValue(b, c.Left)
		b.Push(" AND ")
		bindValue(b, c.Right)
	case predicateIn:
		b.Push("(")
		for j, item := range c.Left.arr {
			if j > 0 {
				b.Push(", ")
			}
			if item.IsNull() {
				b.Push("NULL")
				continue
			}
			bindValue(b, item)
		}
		b.Push(")")
	case predicateLike:
		b.Bind(likePattern(c.Left))
	default:
		bindValue(b, c.Left)
	}
}

// likePattern wraps text in % wildcards. Non-text values match the empty
// pattern.
func likePattern(v Value) string {
	s, ok := v.Text()
	if !ok {
		return ""
	}
	return "%" + s + "%"
}

// OrderBy renders an ORDER BY clause for Filter.Middle, one term per line.
func OrderBy(terms ...string) string {
	return listClause("ORDER BY", terms)
}

// GroupBy renders a GROUP BY clause for Filter.Middle, one column per line.
func GroupBy(columns ...string) string {
	return listClause("GROUP BY", columns)
}

func listClause(keyword string, items []string) string {
	if len(items) == 0 {
		return ""
	}
	return keyword + "\n    " + strings.Join(items, ",\n    ")
}
