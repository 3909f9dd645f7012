// Package table implements the typed, nullable metadata tables that describe
// the rows (features) and columns (samples) of an assay.
package table

import (
	"github.com/carbocation/qfeatures/errs"
)

// Table is an ordered set of equal-length named columns. A Table with no
// columns still has a row count. Tables are immutable.
type Table struct {
	nrow  int
	cols  []*Column
	index map[string]int
}

// New builds a table with nrow rows. Every column must have nrow values and
// a unique name.
func New(nrow int, cols ...*Column) (*Table, error) {
	t := &Table{nrow: nrow, index: make(map[string]int, len(cols))}
	for _, c := range cols {
		if c.Len() != nrow {
			return nil, &errs.ShapeMismatchError{What: "column " + c.Name(), Got: c.Len(), Want: nrow}
		}
		if _, exists := t.index[c.Name()]; exists {
			return nil, &errs.DuplicateNameError{Kind: "column", Name: c.Name()}
		}
		t.index[c.Name()] = len(t.cols)
		t.cols = append(t.cols, c)
	}
	return t, nil
}

// Empty returns a table with nrow rows and no columns.
func Empty(nrow int) *Table {
	return &Table{nrow: nrow, index: map[string]int{}}
}

func (t *Table) NRow() int { return t.nrow }
func (t *Table) NCol() int { return len(t.cols) }

func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name()
	}
	return out
}

func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

func (t *Table) ColumnAt(i int) *Column { return t.cols[i] }

// Cell looks up a single value by column name.
func (t *Table) Cell(name string, row int) (Cell, bool) {
	c, ok := t.Column(name)
	if !ok {
		return Cell{}, false
	}
	return c.Cell(row), true
}

// With returns a copy of t with col appended, or replacing an existing
// column of the same name in place.
func (t *Table) With(col *Column) (*Table, error) {
	if col.Len() != t.nrow {
		return nil, &errs.ShapeMismatchError{What: "column " + col.Name(), Got: col.Len(), Want: t.nrow}
	}

	cols := append([]*Column(nil), t.cols...)
	if i, ok := t.index[col.Name()]; ok {
		cols[i] = col
	} else {
		cols = append(cols, col)
	}
	return New(t.nrow, cols...)
}

// Select returns a table with only the named columns, in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	cols := make([]*Column, 0, len(names))
	for _, name := range names {
		c, ok := t.Column(name)
		if !ok {
			return nil, &errs.MissingColumnError{Column: name}
		}
		cols = append(cols, c)
	}
	return New(t.nrow, cols...)
}

// Subset returns a table holding the rows at idx, in that order. A negative
// index yields a row of nulls.
func (t *Table) Subset(idx []int) *Table {
	cols := make([]*Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.Subset(idx)
	}
	return &Table{nrow: len(idx), cols: cols, index: t.index}
}
