package sqlbuf

import (
	"reflect"
	"testing"
)

func TestBuffer(t *testing.T) {
	tests := []struct {
		name     string
		build    func() *Buffer
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "empty",
			build:    func() *Buffer { return New("") },
			wantSQL:  "",
			wantArgs: nil,
		},
		{
			name: "prefix and binds",
			build: func() *Buffer {
				return New("SELECT * FROM t WHERE a = ").Bind(1).Push(" AND b = ").Bind("x")
			},
			wantSQL:  "SELECT * FROM t WHERE a = $1 AND b = $2",
			wantArgs: []any{1, "x"},
		},
		{
			name: "continues numbering",
			build: func() *Buffer {
				return From("UPDATE t SET a = $1", []any{true}).Push(", b = ").Bind(2.5)
			},
			wantSQL:  "UPDATE t SET a = $1, b = $2",
			wantArgs: []any{true, 2.5},
		},
		{
			name: "double digit placeholders",
			build: func() *Buffer {
				b := New("")
				for i := 0; i < 11; i++ {
					b.Bind(i)
				}
				return b
			},
			wantSQL:  "$1$2$3$4$5$6$7$8$9$10$11",
			wantArgs: []any{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.build()
			if got := b.SQL(); got != tt.wantSQL {
				t.Errorf("SQL() = %q, want %q", got, tt.wantSQL)
			}
			if got := b.Args(); !reflect.DeepEqual(got, tt.wantArgs) {
				t.Errorf("Args() = %#v, want %#v", got, tt.wantArgs)
			}
			if got := b.Len(); got != len(tt.wantArgs) {
				t.Errorf("Len() = %d, want %d", got, len(tt.wantArgs))
			}
		})
	}
}

func TestFromCopiesArgs(t *testing.T) {
	args := []any{1}
	b := From("$1", args)
	b.Bind(2)
	args[0] = 99
	if b.Args()[0] != 1 {
		t.Errorf("From() aliased caller slice: got %v", b.Args()[0])
	}
}
