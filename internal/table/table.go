// Package table holds the immutable in-memory columnar view handed to the
// profiler: named columns of tagged cells sharing one row count.
package table

import (
	"errors"
	"fmt"
	"strings"
)

// Column is a named sequence of cells.
type Column struct {
	Name   string
	Values []Value
}

// Len returns the number of cells.
func (c *Column) Len() int { return len(c.Values) }

// Storage derives the column storage kind from the tags of its non-missing
// cells. Uniform Int stays Int, a mix of Int and Float widens to Float, uniform
// Bool or Time keep their kind. Anything else, including an all-missing
// column, is Text storage.
func (c *Column) Storage() Kind {
	var ints, floats, bools, times, others, seen int
	for _, v := range c.Values {
		if v.IsNull() {
			continue
		}
		seen++
		switch v.Kind {
		case Int:
			ints++
		case Float:
			floats++
		case Bool:
			bools++
		case Time:
			times++
		default:
			others++
		}
	}
	switch {
	case seen == 0 || others > 0:
		return Text
	case ints == seen:
		return Int
	case ints+floats == seen:
		return Float
	case bools == seen:
		return Bool
	case times == seen:
		return Time
	}
	return Text
}

// NonNull returns the non-missing cells in original order, up to limit
// (limit <= 0 means all).
func (c *Column) NonNull(limit int) []Value {
	out := make([]Value, 0, len(c.Values))
	for _, v := range c.Values {
		if v.IsNull() {
			continue
		}
		out = append(out, v)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Table is an ordered set of equally long columns.
type Table struct {
	cols  []*Column
	index map[string]int
	rows  int
}

var ErrDuplicateColumn = errors.New("duplicate column name")

// New builds a table. Column names must be unique and every column must have
// the same length.
func New(cols ...*Column) (*Table, error) {
	t := &Table{cols: make([]*Column, 0, len(cols)), index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if c == nil {
			return nil, fmt.Errorf("column %d is nil", i)
		}
		if _, ok := t.index[c.Name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name)
		}
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name, c.Len(), t.rows)
		}
		t.index[c.Name] = i
		t.cols = append(t.cols, c)
	}
	return t, nil
}

// MustNew is New for fixtures; it panics on error.
func MustNew(cols ...*Column) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// NumRows returns the shared row count.
func (t *Table) NumRows() int { return t.rows }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.cols) }

// Columns returns the columns in declaration order.
func (t *Table) Columns() []*Column { return t.cols }

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// Names returns column names in declaration order.
func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// Row returns the cells of row i across all columns.
func (t *Table) Row(i int) []Value {
	out := make([]Value, len(t.cols))
	for j, c := range t.cols {
		out[j] = c.Values[i]
	}
	return out
}

// RowKey returns the canonical key of row i, used for full-row equality.
func (t *Table) RowKey(i int) string {
	var b strings.Builder
	for j, c := range t.cols {
		if j > 0 {
			b.WriteByte('\x1f')
		}
		b.WriteString(c.Values[i].Key())
	}
	return b.String()
}
