package oakquery

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lib/pq"

	"github.com/OAK-Technology/oak-query/internal/sqlbuf"
)

// Statement is an assembled statement: SQL text with $n placeholders and the
// ordered values bound to them. Placeholder $n refers to Args()[n-1].
//
// A Statement is immutable. The zero Statement is empty.
type Statement struct {
	sql  string
	args []any
}

// Raw returns a statement from hand-written SQL. It is typically used as the
// base fragment of a Filter:
//
//	oakquery.Filter{Base: oakquery.Raw("SELECT * FROM users"), ...}
//
// args, when given, are the values for placeholders already present in sql;
// assemblers continue numbering after them.
func Raw(sql string, args ...any) Statement {
	return Statement{sql: sql, args: cloneArgs(args)}
}

func statementFrom(b *sqlbuf.Buffer) Statement {
	return Statement{sql: b.SQL(), args: b.Args()}
}

func (s Statement) buffer() *sqlbuf.Buffer { return sqlbuf.From(s.sql, s.args) }

// SQL returns the statement text.
func (s Statement) SQL() string { return s.sql }

// Args returns a copy of the bound values in placeholder order.
func (s Statement) Args() []any { return cloneArgs(s.args) }

// NumArgs returns the number of bound values.
func (s Statement) NumArgs() int { return len(s.args) }

// IsEmpty reports whether the statement has no text. Assemblers return an
// empty statement when there is nothing to emit, such as an insert without
// rows; empty statements must not be executed.
func (s Statement) IsEmpty() bool { return s.sql == "" }

func (s Statement) String() string { return s.sql }

// Interpolate returns the statement text with every placeholder replaced by
// the SQL literal of its bound value. The result is meant for logs and
// debugging output; execute the parameterized form.
//
// Quoted literals, quoted identifiers, dollar-quoted bodies and comments are
// copied unchanged, so a "$1" inside them is not a placeholder.
func (s Statement) Interpolate() (string, error) {
	var out strings.Builder
	text := s.sql
	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case c == '\'':
			end := quotedEnd(text, i, escapeString(text, i))
			out.WriteString(text[i:end])
			i = end
		case c == '"':
			end := closeAfter(text, i+1, `"`)
			out.WriteString(text[i:end])
			i = end
		case strings.HasPrefix(text[i:], "--"):
			end := closeAfter(text, i+2, "\n")
			out.WriteString(text[i:end])
			i = end
		case strings.HasPrefix(text[i:], "/*"):
			end := closeAfter(text, i+2, "*/")
			out.WriteString(text[i:end])
			i = end
		case c == '$' && (i == 0 || !identByte(text[i-1])):
			j := i + 1
			for j < len(text) && text[j] >= '0' && text[j] <= '9' {
				j++
			}
			if j > i+1 {
				n, err := strconv.Atoi(text[i+1 : j])
				if err != nil || n < 1 || n > len(s.args) {
					out.WriteString(text[i:j])
					i = j
					continue
				}
				lit, err := literal(s.args[n-1])
				if err != nil {
					return "", fmt.Errorf("interpolate $%d: %w", n, err)
				}
				out.WriteString(lit)
				i = j
				continue
			}
			if tag, ok := dollarTag(text[i:]); ok {
				end := closeAfter(text, i+len(tag), tag)
				out.WriteString(text[i:end])
				i = end
				continue
			}
			out.WriteByte(c)
			i++
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String(), nil
}

// closeAfter returns the index just past the first delim at or after from,
// or len(text) when the span is unterminated.
func closeAfter(text string, from int, delim string) int {
	k := strings.Index(text[from:], delim)
	if k < 0 {
		return len(text)
	}
	return from + k + len(delim)
}

// quotedEnd returns the index just past the quote closing the literal opened
// at i. A doubled quote closes and reopens, which the caller's next pass
// picks up.
func quotedEnd(text string, i int, backslash bool) int {
	for j := i + 1; j < len(text); j++ {
		switch text[j] {
		case '\\':
			if backslash {
				j++
			}
		case '\'':
			return j + 1
		}
	}
	return len(text)
}

// escapeString reports whether the literal opening at i is an E'...' string.
func escapeString(text string, i int) bool {
	if i == 0 || (text[i-1] != 'E' && text[i-1] != 'e') {
		return false
	}
	return i == 1 || !identByte(text[i-2])
}

// dollarTag returns the opening $tag$ (or $$) at the start of s.
func dollarTag(s string) (string, bool) {
	j := 1
	if j < len(s) && (s[j] == '_' || isLetter(s[j])) {
		j++
		for j < len(s) && identByte(s[j]) && s[j] != '$' {
			j++
		}
	}
	if j < len(s) && s[j] == '$' {
		return s[:j+1], true
	}
	return "", false
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80
}

func identByte(c byte) bool {
	return isLetter(c) || c >= '0' && c <= '9' || c == '_' || c == '$'
}

// literal renders one bound value as a SQL literal.
func literal(arg any) (string, error) {
	switch a := arg.(type) {
	case nil:
		return "NULL", nil
	case bool:
		if a {
			return "TRUE", nil
		}
		return "FALSE", nil
	case int64:
		return strconv.FormatInt(a, 10), nil
	case int:
		return strconv.Itoa(a), nil
	case float64:
		switch {
		case math.IsNaN(a):
			return "'NaN'::float8", nil
		case math.IsInf(a, 1):
			return "'Infinity'::float8", nil
		case math.IsInf(a, -1):
			return "'-Infinity'::float8", nil
		}
		return strconv.FormatFloat(a, 'g', -1, 64), nil
	case string:
		return pq.QuoteLiteral(a), nil
	case []byte:
		return pq.QuoteLiteral(string(a)), nil
	case time.Time:
		return pq.QuoteLiteral(a.Format("2006-01-02 15:04:05.999999999")), nil
	case pgtype.Date:
		if !a.Valid {
			return "NULL", nil
		}
		return pq.QuoteLiteral(a.Time.Format(time.DateOnly)), nil
	case pgtype.Timestamp:
		if !a.Valid {
			return "NULL", nil
		}
		return pq.QuoteLiteral(a.Time.Format("2006-01-02 15:04:05.999999999")), nil
	case driver.Valuer:
		v, err := a.Value()
		if err != nil {
			return "", err
		}
		if _, again := v.(driver.Valuer); again {
			return "", fmt.Errorf("nested driver.Valuer %T", v)
		}
		return literal(v)
	}
	return "", fmt.Errorf("%w: %T", ErrUnsupportedType, arg)
}

func cloneArgs(args []any) []any {
	if len(args) == 0 {
		return nil
	}
	out := make([]any, len(args))
	copy(out, args)
	return out
}
