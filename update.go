package oakquery

import "github.com/OAK-Technology/oak-query/internal/sqlbuf"

// Assignment sets Column to Value in an update. A Null value assigns the
// NULL literal.
type Assignment struct {
	Column string
	Value  Value
}

// Set returns an assignment.
func Set(column string, v Value) Assignment {
	return Assignment{Column: column, Value: v}
}

// Update assembles an UPDATE with an optional WHERE clause and trailer:
//
//	UPDATE users
//	    SET name = $1,
//	    age = $2
//	WHERE
//	    id = $3
//	RETURNING id
//
// Where follows the rules of Filter. Without assignments the statement is
// empty, whatever Where holds.
type Update struct {
	Table string
	Set   []Assignment
	Where []Condition
	End   string
}

// SetClause renders the UPDATE and SET portion only.
func (u Update) SetClause() Statement {
	if len(u.Set) == 0 {
		return Statement{}
	}
	b := sqlbuf.New("UPDATE ").Push(u.Table)
	for i, a := range u.Set {
		if i == 0 {
			b.Push("\n    SET ")
		} else {
			b.Push("\n    ")
		}
		b.Push(a.Column).Push(" = ")
		if a.Value.IsNull() {
			b.Push("NULL")
		} else {
			bindValue(b, a.Value)
		}
		if i < len(u.Set)-1 {
			b.Push(",")
		}
	}
	return statementFrom(b)
}

// Build assembles the statement.
func (u Update) Build() Statement {
	if len(u.Set) == 0 {
		return Statement{}
	}
	return u.filter().Build()
}

// BuildStrict assembles the statement, failing if it would be empty or a
// condition would be left out.
func (u Update) BuildStrict() (Statement, error) {
	if err := joinIssues(u.Issues()); err != nil {
		return Statement{}, err
	}
	return u.Build(), nil
}

// Issues reports what Build leaves out or renders incompletely.
func (u Update) Issues() []*Issue {
	if len(u.Set) == 0 {
		return []*Issue{{Clause: "set", Index: -1, Skipped: true, Err: ErrNoAssignments}}
	}
	return u.filter().Issues()
}

func (u Update) filter() Filter {
	return Filter{Base: u.SetClause(), Conditions: u.Where, End: u.End}
}
