// Package stmtfile loads statement descriptions from YAML or JSON files and
// turns them into oakquery assemblers.
//
// A statement file describes one select filter, insert or update:
//
//	kind: select
//	base: SELECT id, name FROM users
//	where:
//	  - column: name
//	    op: LIKE
//	    value: an
//	  - chain: AND
//	    column: born
//	    op: BETWEEN
//	    value: 1990-01-01
//	    right: 1999-12-31
//	    type: date
//	order_by: [id DESC]
//	limit: 10
//
// Numbers keep their integer or floating-point form. Values are converted
// with oakquery.From unless a type hint (date, datetime) says otherwise.
package stmtfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"sigs.k8s.io/yaml"

	oakquery "github.com/OAK-Technology/oak-query"
)

// Statement kinds.
const (
	KindSelect = "select"
	KindInsert = "insert"
	KindUpdate = "update"
)

// Value type hints.
const (
	TypeDate     = "date"
	TypeDateTime = "datetime"
)

// ErrInvalid is wrapped by every error describing a malformed statement file.
var ErrInvalid = errors.New("stmtfile: invalid statement file")

// File is a decoded statement file.
type File struct {
	Kind string `json:"kind"`

	// Base is the raw SQL a select filter extends.
	Base string `json:"base,omitempty"`

	Table   string   `json:"table,omitempty"`
	Columns []string `json:"columns,omitempty"`
	Rows    [][]any  `json:"rows,omitempty"`

	// Types maps insert and update columns to type hints.
	Types map[string]string `json:"types,omitempty"`

	Set   []SetEntry   `json:"set,omitempty"`
	Where []WhereEntry `json:"where,omitempty"`

	GroupBy []string `json:"group_by,omitempty"`
	Middle  string   `json:"middle,omitempty"`
	OrderBy []string `json:"order_by,omitempty"`
	Limit   *int64   `json:"limit,omitempty"`
	Offset  *int64   `json:"offset,omitempty"`
	End     string   `json:"end,omitempty"`
}

// SetEntry is one update assignment.
type SetEntry struct {
	Column string `json:"column"`
	Value  any    `json:"value"`
	Type   string `json:"type,omitempty"`
}

// WhereEntry is one filter condition.
type WhereEntry struct {
	Chain  string `json:"chain,omitempty"`
	Column string `json:"column"`
	Op     string `json:"op"`
	Value  any    `json:"value"`
	Right  any    `json:"right,omitempty"`
	Type   string `json:"type,omitempty"`
}

// Assembler is implemented by oakquery.Filter, oakquery.Insert and
// oakquery.Update.
type Assembler interface {
	Build() oakquery.Statement
	BuildStrict() (oakquery.Statement, error)
	Issues() []*oakquery.Issue
}

// Load reads and parses the statement file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a YAML or JSON statement file. Unknown fields are rejected.
func Parse(data []byte) (*File, error) {
	js, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	dec := json.NewDecoder(bytes.NewReader(js))
	dec.UseNumber()
	dec.DisallowUnknownFields()

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
	}

	f.Kind = strings.ToLower(strings.TrimSpace(f.Kind))
	switch f.Kind {
	case KindSelect:
		if f.Table != "" || len(f.Rows) > 0 || len(f.Set) > 0 {
			return invalid("select takes base and where, not table, rows or set")
		}
	case KindInsert:
		if f.Table == "" {
			return invalid("insert requires table")
		}
		if len(f.Where) > 0 || f.Limit != nil || f.Offset != nil {
			return invalid("insert takes no where, limit or offset")
		}
	case KindUpdate:
		if f.Table == "" {
			return invalid("update requires table")
		}
		if f.Limit != nil || f.Offset != nil {
			return invalid("update takes no limit or offset")
		}
	case "":
		return invalid("kind is required")
	default:
		return invalid("unknown kind %q", f.Kind)
	}

	for col, typ := range f.Types {
		if !knownType(typ) {
			return invalid("types.%s: unknown type %q", col, typ)
		}
	}
	for i, s := range f.Set {
		if s.Column == "" {
			return invalid("set[%d]: column is required", i)
		}
		if !knownType(s.Type) {
			return invalid("set[%d]: unknown type %q", i, s.Type)
		}
	}
	for i, w := range f.Where {
		if w.Column == "" || w.Op == "" {
			return invalid("where[%d]: column and op are required", i)
		}
		if !knownType(w.Type) {
			return invalid("where[%d]: unknown type %q", i, w.Type)
		}
	}
	return nil
}

func knownType(t string) bool {
	return t == "" || t == TypeDate || t == TypeDateTime
}

// Assembler converts the file into its oakquery assembler.
func (f *File) Assembler() (Assembler, error) {
	switch f.Kind {
	case KindSelect:
		conds, err := f.conditions()
		if err != nil {
			return nil, err
		}
		return oakquery.Filter{
			Base:       oakquery.Raw(f.Base),
			Conditions: conds,
			Middle:     f.middle(),
			Limit:      f.Limit,
			Offset:     f.Offset,
			End:        f.End,
		}, nil

	case KindInsert:
		rows := make([]oakquery.Row, len(f.Rows))
		for i, raw := range f.Rows {
			row := make(oakquery.Row, len(raw))
			for j, cell := range raw {
				var typ string
				if j < len(f.Columns) {
					typ = f.Types[f.Columns[j]]
				}
				v, err := toValue(cell, typ)
				if err != nil {
					return nil, fmt.Errorf("rows[%d][%d]: %w", i, j, err)
				}
				row[j] = v
			}
			rows[i] = row
		}
		return oakquery.Insert{Table: f.Table, Columns: f.Columns, Rows: rows, End: f.End}, nil

	case KindUpdate:
		set := make([]oakquery.Assignment, len(f.Set))
		for i, s := range f.Set {
			typ := s.Type
			if typ == "" {
				typ = f.Types[s.Column]
			}
			v, err := toValue(s.Value, typ)
			if err != nil {
				return nil, fmt.Errorf("set[%d]: %w", i, err)
			}
			set[i] = oakquery.Set(s.Column, v)
		}
		conds, err := f.conditions()
		if err != nil {
			return nil, err
		}
		return oakquery.Update{Table: f.Table, Set: set, Where: conds, End: f.End}, nil
	}
	return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalid, f.Kind)
}

// Build converts the file and assembles its statement. With strict set,
// anything the assembler would leave out is an error.
func (f *File) Build(strict bool) (oakquery.Statement, error) {
	a, err := f.Assembler()
	if err != nil {
		return oakquery.Statement{}, err
	}
	if strict {
		return a.BuildStrict()
	}
	return a.Build(), nil
}

func (f *File) conditions() ([]oakquery.Condition, error) {
	conds := make([]oakquery.Condition, len(f.Where))
	for i, w := range f.Where {
		left, err := toValue(w.Value, w.Type)
		if err != nil {
			return nil, fmt.Errorf("where[%d].value: %w", i, err)
		}
		right, err := toValue(w.Right, w.Type)
		if err != nil {
			return nil, fmt.Errorf("where[%d].right: %w", i, err)
		}
		conds[i] = oakquery.Condition{
			Chain:    w.Chain,
			Column:   w.Column,
			Operator: w.Op,
			Left:     left,
			Right:    right,
		}
	}
	return conds, nil
}

func (f *File) middle() string {
	var parts []string
	if s := oakquery.GroupBy(f.GroupBy...); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimRight(f.Middle, "\n"); s != "" {
		parts = append(parts, s)
	}
	if s := oakquery.OrderBy(f.OrderBy...); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n")
}

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	time.DateTime,
}

// toValue converts a decoded document value. Type hints apply to strings and
// to each element of a list.
func toValue(raw any, typ string) (oakquery.Value, error) {
	if typ == "" || raw == nil {
		return oakquery.From(raw)
	}
	if list, ok := raw.([]any); ok {
		items := make([]oakquery.Value, len(list))
		for i, e := range list {
			v, err := toValue(e, typ)
			if err != nil {
				return oakquery.Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			items[i] = v
		}
		return oakquery.Array(items...), nil
	}

	s, ok := raw.(string)
	if !ok {
		return oakquery.Value{}, fmt.Errorf("%w: %s value must be a string, got %T", ErrInvalid, typ, raw)
	}
	switch typ {
	case TypeDate:
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return oakquery.Value{}, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		return oakquery.Date(t), nil
	case TypeDateTime:
		for _, layout := range dateTimeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return oakquery.DateTime(t), nil
			}
		}
		return oakquery.Value{}, fmt.Errorf("%w: cannot parse %q as datetime", ErrInvalid, s)
	}
	return oakquery.Value{}, fmt.Errorf("%w: unknown type %q", ErrInvalid, typ)
}

// Discover returns the statement files (.yaml, .yml, .json) under dir,
// recursively, in lexical order.
func Discover(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml", ".json":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
