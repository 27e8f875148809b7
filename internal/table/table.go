// Package table holds job postings in memory as ordered columns of nullable
// values. It has no notion of what the columns mean.
package table

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownColumn = errors.New("unknown column")
	ErrRowWidth      = errors.New("row width does not match columns")
	ErrDuplicate     = errors.New("duplicate column")
)

// Row is one record, aligned with the table's columns.
type Row []Value

// Table is not safe for concurrent mutation of the same row. Distinct rows
// may be set from different goroutines once the column set is fixed.
type Table struct {
	columns []string
	index   map[string]int
	rows    []Row
}

func New(columns ...string) (*Table, error) {
	t := &Table{index: make(map[string]int, len(columns))}
	for _, c := range columns {
		if _, ok := t.index[c]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, c)
		}
		t.index[c] = len(t.columns)
		t.columns = append(t.columns, c)
	}
	return t, nil
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

func (t *Table) Len() int { return len(t.rows) }

func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// ColumnIndex returns the position of name, or -1.
func (t *Table) ColumnIndex(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

func (t *Table) Append(row Row) error {
	if len(row) != len(t.columns) {
		return fmt.Errorf("%w: got %d, want %d", ErrRowWidth, len(row), len(t.columns))
	}
	t.rows = append(t.rows, row)
	return nil
}

// Row returns the i-th row. The slice is shared with the table.
func (t *Table) Row(i int) Row { return t.rows[i] }

// Get returns the value at row i and the named column. Unknown columns read
// as missing.
func (t *Table) Get(i int, col string) Value {
	c, ok := t.index[col]
	if !ok {
		return Null()
	}
	return t.rows[i][c]
}

func (t *Table) Set(i int, col string, v Value) error {
	c, ok := t.index[col]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, col)
	}
	t.rows[i][c] = v
	return nil
}

// Column returns a copy of every value in the named column.
func (t *Table) Column(col string) ([]Value, bool) {
	c, ok := t.index[col]
	if !ok {
		return nil, false
	}
	out := make([]Value, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[c]
	}
	return out, true
}

// AddColumn appends a column filled with missing values. Adding a column that
// already exists leaves the table unchanged.
func (t *Table) AddColumn(name string) {
	if _, ok := t.index[name]; ok {
		return
	}
	t.index[name] = len(t.columns)
	t.columns = append(t.columns, name)
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], Null())
	}
}

// Clone copies the table deeply enough that mutating the clone's cells does
// not affect the original.
func (t *Table) Clone() *Table {
	c := &Table{
		columns: t.Columns(),
		index:   make(map[string]int, len(t.index)),
		rows:    make([]Row, len(t.rows)),
	}
	for k, v := range t.index {
		c.index[k] = v
	}
	for i, r := range t.rows {
		row := make(Row, len(r))
		for j, v := range r {
			if v.Kind == List {
				v = ListOf(v.Strs)
			}
			row[j] = v
		}
		c.rows[i] = row
	}
	return c
}

// Filter returns a new table holding the rows for which keep returns true.
// Rows are shared with the receiver.
func (t *Table) Filter(keep func(i int) bool) *Table {
	return t.Select(t.Matching(keep))
}

// Matching returns the positions of the rows for which keep returns true, in
// order.
func (t *Table) Matching(keep func(i int) bool) []int {
	var rows []int
	for i := range t.rows {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	return rows
}

// Select returns a new table holding the given rows in the given order.
// Rows are shared with the receiver.
func (t *Table) Select(rows []int) *Table {
	out := &Table{
		columns: t.Columns(),
		index:   make(map[string]int, len(t.index)),
		rows:    make([]Row, 0, len(rows)),
	}
	for k, v := range t.index {
		out.index[k] = v
	}
	for _, i := range rows {
		out.rows = append(out.rows, t.rows[i])
	}
	return out
}
