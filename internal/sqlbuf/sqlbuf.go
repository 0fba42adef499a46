// Package sqlbuf implements the append-only statement buffer shared by the
// assemblers. Text and bound arguments only ever grow; every Bind emits the
// next positional placeholder ($1, $2, ...) in call order.
package sqlbuf

import (
	"strconv"
	"strings"
)

// Buffer accumulates statement text and its ordered bind arguments.
// The zero value is an empty buffer ready for use.
type Buffer struct {
	text strings.Builder
	args []any
}

// New returns a buffer whose text starts with prefix.
func New(prefix string) *Buffer {
	b := &Buffer{}
	b.text.WriteString(prefix)
	return b
}

// From returns a buffer continuing an already-built statement. Placeholder
// numbering resumes after the existing arguments.
func From(text string, args []any) *Buffer {
	b := New(text)
	if len(args) > 0 {
		b.args = make([]any, len(args))
		copy(b.args, args)
	}
	return b
}

// Push appends raw text.
func (b *Buffer) Push(text string) *Buffer {
	b.text.WriteString(text)
	return b
}

// Bind records arg and appends its placeholder.
func (b *Buffer) Bind(arg any) *Buffer {
	b.args = append(b.args, arg)
	b.text.WriteByte('$')
	b.text.WriteString(strconv.Itoa(len(b.args)))
	return b
}

// SQL returns the accumulated text.
func (b *Buffer) SQL() string { return b.text.String() }

// Args returns the bound arguments in placeholder order.
func (b *Buffer) Args() []any { return b.args }

// Len reports the number of bound arguments.
func (b *Buffer) Len() int { return len(b.args) }
