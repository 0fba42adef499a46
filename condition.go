package oakquery

// Condition is one filter term of a WHERE clause.
//
// The first condition of a list opens the clause and ignores Chain. Every
// later condition needs a Chain operator such as "AND" or "OR"; a later
// condition without one is left out of the statement.
//
// Right is the upper bound of BETWEEN operators and is ignored by every
// other operator. Operator and Chain are emitted as given.
type Condition struct {
	Chain    string
	Column   string
	Operator string
	Left     Value
	Right    Value
}

// Cond returns a condition comparing column against v with op.
func Cond(chain, column, op string, v Value) Condition {
	return Condition{Chain: chain, Column: column, Operator: op, Left: v}
}

// Eq returns the leading condition column = v.
func Eq(column string, v Value) Condition {
	return Cond("", column, "=", v)
}

// And returns a condition chained with AND.
func And(column, op string, v Value) Condition {
	return Cond("AND", column, op, v)
}

// Or returns a condition chained with OR.
func Or(column, op string, v Value) Condition {
	return Cond("OR", column, op, v)
}

// Between returns column BETWEEN lo AND hi.
func Between(chain, column string, lo, hi Value) Condition {
	return Condition{Chain: chain, Column: column, Operator: "BETWEEN", Left: lo, Right: hi}
}

// In returns column IN (items...), one placeholder per item. Null items
// render the NULL literal and an empty list renders IN ().
func In(chain, column string, items ...Value) Condition {
	return Cond(chain, column, "IN", Array(items...))
}

// Like returns column LIKE '%pattern%'.
func Like(chain, column, pattern string) Condition {
	return Cond(chain, column, "LIKE", Text(pattern))
}
