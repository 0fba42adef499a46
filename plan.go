package oakquery

import "strings"

// The planning pass decides, for every element of a statement description,
// whether and how it is rendered. Assemblers render plans without further
// checks; skipped elements and other findings are reported as issues.

type predicateKind uint8

const (
	predicateCompare predicateKind = iota
	predicateBetween
	predicateIn
	predicateLike
)

type predicatePlan struct {
	cond Condition
	kind predicateKind
	skip bool
}

// classify maps an operator to its rendering. BETWEEN and LIKE match any
// operator containing them (NOT BETWEEN, ILIKE, NOT LIKE); IN matches only
// the exact operator, so NOT IN compares against the array as one value.
func classify(op string) predicateKind {
	op = strings.ToUpper(strings.TrimSpace(op))
	switch {
	case strings.Contains(op, "BETWEEN"):
		return predicateBetween
	case op == "IN":
		return predicateIn
	case strings.Contains(op, "LIKE"):
		return predicateLike
	}
	return predicateCompare
}

func planPredicates(conds []Condition) ([]predicatePlan, []*Issue) {
	plans := make([]predicatePlan, len(conds))
	var issues []*Issue
	report := func(i int, skipped bool, err error) {
		issues = append(issues, &Issue{
			Clause:  "where",
			Index:   i,
			Column:  conds[i].Column,
			Skipped: skipped,
			Err:     err,
		})
	}

	for i, c := range conds {
		p := predicatePlan{cond: c, kind: classify(c.Operator)}
		plans[i] = p

		if i > 0 && c.Chain == "" {
			plans[i].skip = true
			report(i, true, ErrMissingChain)
			continue
		}

		switch p.kind {
		case predicateBetween:
			if c.Right.IsNull() {
				plans[i].skip = true
				report(i, true, ErrMissingRange)
				continue
			}
			if c.Left.IsNull() {
				report(i, false, ErrNullOperand)
			}
		case predicateIn:
			if c.Left.Kind() != KindArray {
				plans[i].skip = true
				report(i, true, ErrNotArray)
				continue
			}
			if len(c.Left.arr) == 0 {
				report(i, false, ErrEmptyList)
			}
			for _, e := range c.Left.arr {
				if e.IsNull() {
					report(i, false, ErrNullOperand)
					break
				}
			}
		case predicateLike:
			if c.Left.Kind() != KindText {
				report(i, false, ErrNotText)
			}
		default:
			if c.Left.IsNull() {
				report(i, false, ErrNullOperand)
			}
		}
	}
	return plans, issues
}

// planRows returns the indexes of insert rows that match the column count.
func planRows(columns []string, rows []Row) ([]int, []*Issue) {
	var issues []*Issue
	if len(columns) == 0 {
		issues = append(issues, &Issue{Clause: "values", Index: -1, Skipped: true, Err: ErrNoColumns})
		return nil, issues
	}
	keep := make([]int, 0, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			issues = append(issues, &Issue{Clause: "values", Index: i, Skipped: true, Err: ErrRowLength})
			continue
		}
		keep = append(keep, i)
	}
	if len(keep) == 0 {
		issues = append(issues, &Issue{Clause: "values", Index: -1, Skipped: true, Err: ErrNoRows})
	}
	return keep, issues
}
