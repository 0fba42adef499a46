package oakquery

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Kind identifies the active variant of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindText
	KindArray
	KindObject
	KindDate
	KindDateTime
)

var kindNames = [...]string{
	KindNull:     "null",
	KindBool:     "bool",
	KindNumber:   "number",
	KindText:     "text",
	KindArray:    "array",
	KindObject:   "object",
	KindDate:     "date",
	KindDateTime: "datetime",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a dynamically typed scalar, collection, or calendar value bound
// into a statement. Exactly one variant is active; the zero Value is Null.
//
// Values are immutable. Constructors copy the slices and maps they are given
// and accessors return copies.
type Value struct {
	kind    Kind
	b       bool
	isFloat bool
	i       int64
	f       float64
	s       string
	t       time.Time
	arr     []Value
	obj     map[string]Value
}

// Null returns the null value. It binds no placeholder.
func Null() Value { return Value{} }

// Default is Null under the name used for insert rows, where a null cell
// renders the DEFAULT keyword.
func Default() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an integer number.
func Int(i int64) Value { return Value{kind: KindNumber, i: i} }

// Float returns a floating-point number.
func Float(f float64) Value { return Value{kind: KindNumber, f: f, isFloat: true} }

// Text returns a text value.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// Array returns an array of the given elements.
func Array(items ...Value) Value {
	arr := make([]Value, len(items))
	copy(arr, items)
	return Value{kind: KindArray, arr: arr}
}

// Object returns a structured value, bound as a JSON document.
func Object(fields map[string]Value) Value {
	obj := make(map[string]Value, len(fields))
	for k, v := range fields {
		obj[k] = v
	}
	return Value{kind: KindObject, obj: obj}
}

// Date returns a calendar date. The time of day and location of t are discarded.
func Date(t time.Time) Value {
	y, m, d := t.Date()
	return Value{kind: KindDate, t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// DateTime returns a timestamp without time zone. The wall clock of t is kept
// as is.
func DateTime(t time.Time) Value { return Value{kind: KindDateTime, t: t} }

// Kind reports the active variant.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean and whether v is a Bool.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// IsFloat reports whether v is a floating-point number.
func (v Value) IsFloat() bool { return v.kind == KindNumber && v.isFloat }

// Int returns the integer and whether v is an integer number.
func (v Value) Int() (int64, bool) { return v.i, v.kind == KindNumber && !v.isFloat }

// Float returns v as a float64 and whether v is a number of either kind.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	if v.isFloat {
		return v.f, true
	}
	return float64(v.i), true
}

// Text returns the string and whether v is Text.
func (v Value) Text() (string, bool) { return v.s, v.kind == KindText }

// Time returns the calendar value and whether v is a Date or DateTime.
func (v Value) Time() (time.Time, bool) {
	return v.t, v.kind == KindDate || v.kind == KindDateTime
}

// Elems returns a copy of the array elements, or nil if v is not an Array.
func (v Value) Elems() []Value {
	if v.kind != KindArray {
		return nil
	}
	out := make([]Value, len(v.arr))
	copy(out, v.arr)
	return out
}

// Len returns the number of array elements or object fields.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.obj)
	}
	return 0
}

// Fields returns a copy of the object fields, or nil if v is not an Object.
func (v Value) Fields() map[string]Value {
	if v.kind != KindObject {
		return nil
	}
	out := make(map[string]Value, len(v.obj))
	for k, f := range v.obj {
		out[k] = f
	}
	return out
}

// String renders v for diagnostics. It is not SQL.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		if v.isFloat {
			return strconv.FormatFloat(v.f, 'g', -1, 64)
		}
		return strconv.FormatInt(v.i, 10)
	case KindText:
		return strconv.Quote(v.s)
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, e := range v.arr {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindObject:
		keys := make([]string, 0, len(v.obj))
		for k := range v.obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = strconv.Quote(k) + ": " + v.obj[k].String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindDate:
		return v.t.Format(time.DateOnly)
	case KindDateTime:
		return v.t.Format(time.RFC3339Nano)
	}
	return v.kind.String()
}

// MarshalJSON encodes v as the JSON document it was built from. Dates and
// timestamps encode as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.native())
}

// native converts v into plain Go values: nil, bool, int64, float64, string,
// time.Time, []any and map[string]any.
func (v Value) native() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		if v.isFloat {
			return v.f
		}
		return v.i
	case KindText:
		return v.s
	case KindArray:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.native()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.obj))
		for k, f := range v.obj {
			out[k] = f.native()
		}
		return out
	case KindDate:
		return v.t.Format(time.DateOnly)
	case KindDateTime:
		return v.t
	}
	return nil
}

// Native is the set of Go types Of converts without a runtime failure.
type Native interface {
	~bool |
		~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64 |
		~string | []byte |
		[]bool | []int | []int64 | []float64 | []string | []Value |
		map[string]Value |
		time.Time | pgtype.Date | pgtype.Timestamp | uuid.UUID |
		Value
}

// Of converts a native Go value. The type parameter restricts x to the
// supported set, so the conversion cannot fail.
func Of[T Native](x T) Value {
	v, err := From(x)
	if err != nil {
		// Unreachable for the Native type set.
		panic(err)
	}
	return v
}

// From converts an arbitrary Go value, such as a decoded JSON or YAML
// document. Nil and nil pointers become Null; time.Time becomes a DateTime;
// uuid.UUID becomes Text. Unsigned integers above math.MaxInt64 become
// floating-point numbers. Unsupported types return an error wrapping
// ErrUnsupportedType.
func From(x any) (Value, error) {
	switch x := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return fromUint(uint64(x)), nil
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint64:
		return fromUint(x), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case string:
		return Text(x), nil
	case []byte:
		return Text(string(x)), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("%w: number %q", ErrUnsupportedType, x.String())
		}
		return Float(f), nil
	case time.Time:
		return DateTime(x), nil
	case pgtype.Date:
		if !x.Valid {
			return Null(), nil
		}
		return Date(x.Time), nil
	case pgtype.Timestamp:
		if !x.Valid {
			return Null(), nil
		}
		return DateTime(x.Time), nil
	case uuid.UUID:
		return Text(x.String()), nil
	case []Value:
		return Array(x...), nil
	case map[string]Value:
		return Object(x), nil
	case []any:
		items := make([]Value, len(x))
		for i, e := range x {
			v, err := From(e)
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			items[i] = v
		}
		return Value{kind: KindArray, arr: items}, nil
	case map[string]any:
		fields := make(map[string]Value, len(x))
		for k, e := range x {
			v, err := From(e)
			if err != nil {
				return Value{}, fmt.Errorf("field %q: %w", k, err)
			}
			fields[k] = v
		}
		return Value{kind: KindObject, obj: fields}, nil
	}
	return fromReflect(reflect.ValueOf(x))
}

func fromUint(u uint64) Value {
	if u > math.MaxInt64 {
		return Float(float64(u))
	}
	return Int(int64(u))
}

// fromReflect handles named types and containers not covered by From's
// type switch.
func fromReflect(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null(), nil
		}
		return From(rv.Elem().Interface())
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return fromUint(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	case reflect.String:
		return Text(rv.String()), nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Null(), nil
		}
		items := make([]Value, rv.Len())
		for i := range items {
			v, err := From(rv.Index(i).Interface())
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			items[i] = v
		}
		return Value{kind: KindArray, arr: items}, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		if rv.IsNil() {
			return Null(), nil
		}
		fields := make(map[string]Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key().String()
			v, err := From(iter.Value().Interface())
			if err != nil {
				return Value{}, fmt.Errorf("field %q: %w", k, err)
			}
			fields[k] = v
		}
		return Value{kind: KindObject, obj: fields}, nil
	}
	if !rv.IsValid() {
		return Null(), nil
	}
	return Value{}, fmt.Errorf("%w: %s", ErrUnsupportedType, rv.Type())
}
