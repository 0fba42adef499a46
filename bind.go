package oakquery

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lib/pq"

	"github.com/OAK-Technology/oak-query/internal/sqlbuf"
)

// bindValue appends v's placeholder to b. Null appends nothing.
func bindValue(b *sqlbuf.Buffer, v Value) {
	if arg, ok := v.arg(); ok {
		b.Bind(arg)
	}
}

// arg returns the driver argument bound for v, and false for Null, which
// binds nothing. Every variant's binding rule lives in this switch.
func (v Value) arg() (any, bool) {
	switch v.kind {
	case KindNull:
		return nil, false
	case KindBool:
		return v.b, true
	case KindNumber:
		if v.isFloat {
			return v.f, true
		}
		return v.i, true
	case KindText:
		return v.s, true
	case KindArray:
		return arrayArg(v.arr), true
	case KindObject:
		return jsonArg{v: v}, true
	case KindDate:
		return pgtype.Date{Time: v.t, Valid: true}, true
	case KindDateTime:
		return pgtype.Timestamp{Time: v.t, Valid: true}, true
	}
	return nil, false
}

// arrayArg encodes an array as a single PostgreSQL array parameter.
// Homogeneous arrays use lib/pq's typed encoders; anything else falls back to
// the generic encoder.
func arrayArg(items []Value) any {
	if len(items) == 0 {
		return pq.StringArray{}
	}
	switch homogeneous(items) {
	case KindBool:
		out := make(pq.BoolArray, len(items))
		for i, e := range items {
			out[i] = e.b
		}
		return out
	case KindText:
		out := make(pq.StringArray, len(items))
		for i, e := range items {
			out[i] = e.s
		}
		return out
	case KindNumber:
		if anyFloat(items) {
			out := make(pq.Float64Array, len(items))
			for i, e := range items {
				out[i], _ = e.Float()
			}
			return out
		}
		out := make(pq.Int64Array, len(items))
		for i, e := range items {
			out[i] = e.i
		}
		return out
	}
	out := make([]any, len(items))
	for i, e := range items {
		out[i] = elemArg(e)
	}
	return pq.Array(out)
}

// elemArg is the element encoding inside a generic array.
func elemArg(v Value) any {
	switch v.kind {
	case KindArray:
		return arrayArg(v.arr)
	case KindObject:
		b, _ := json.Marshal(v)
		return string(b)
	case KindDate:
		return v.t.Format(time.DateOnly)
	case KindDateTime:
		return v.t
	}
	arg, _ := v.arg()
	return arg
}

func homogeneous(items []Value) Kind {
	k := items[0].kind
	for _, e := range items[1:] {
		if e.kind != k {
			return KindNull
		}
	}
	return k
}

func anyFloat(items []Value) bool {
	for _, e := range items {
		if e.isFloat {
			return true
		}
	}
	return false
}

// jsonArg binds an Object as its JSON text.
type jsonArg struct {
	v Value
}

// Value implements driver.Valuer.
func (j jsonArg) Value() (driver.Value, error) {
	b, err := json.Marshal(j.v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
