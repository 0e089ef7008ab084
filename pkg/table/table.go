// Package table provides the in-memory tabular container used by the
// assimilation engine: ordered rows of string cells under a fixed set of
// named columns.
package table

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrColumnNotFound is returned when a named column does not exist.
	ErrColumnNotFound = errors.New("table: column not found")

	// ErrDuplicateColumn is returned when a column name is declared twice.
	ErrDuplicateColumn = errors.New("table: duplicate column name")

	// ErrRowWidth is returned when a row does not have one cell per column.
	ErrRowWidth = errors.New("table: row width does not match column count")
)

// Row is a single entry of a table. Cells are positional and line up with
// the table's columns.
type Row []string

// Clone returns a copy of the row that shares no storage with r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// Table is an ordered sequence of rows with a fixed set of named columns.
// A Table is never modified after construction; every transformation
// returns a new Table.
type Table struct {
	columns []string
	index   map[string]int
	rows    []Row
}

// New builds a table from column names and rows. Rows are copied.
func New(columns []string, rows ...Row) (*Table, error) {
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateColumn, name)
		}
		index[name] = i
	}

	t := &Table{
		columns: append([]string(nil), columns...),
		index:   index,
		rows:    make([]Row, 0, len(rows)),
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrRowWidth, i, len(row), len(columns))
		}
		t.rows = append(t.rows, row.Clone())
	}
	return t, nil
}

// derive returns a table with the same columns as t holding rows as-is.
// Callers must hand over rows they no longer reference.
func (t *Table) derive(rows []Row) *Table {
	return &Table{columns: t.columns, index: t.index, rows: rows}
}

// Columns returns the column names in declaration order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// HasColumn reports whether the table declares the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Row returns a copy of the i-th row.
func (t *Table) Row(i int) Row {
	return t.rows[i].Clone()
}

// Rows returns copies of all rows in order.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	for i, row := range t.rows {
		out[i] = row.Clone()
	}
	return out
}

// Value returns the cell at row i in the named column.
func (t *Table) Value(i int, column string) (string, error) {
	idx, ok := t.index[column]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrColumnNotFound, column)
	}
	return t.rows[i][idx], nil
}

// ColumnValues returns every cell of the named column in row order.
func (t *Table) ColumnValues(column string) ([]string, error) {
	idx, ok := t.index[column]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, column)
	}
	values := make([]string, len(t.rows))
	for i, row := range t.rows {
		values[i] = row[idx]
	}
	return values, nil
}

// SortBy returns a copy of the table sorted ascending by the named column.
// The sort is stable, so rows with equal keys keep their relative order.
func (t *Table) SortBy(column string) (*Table, error) {
	idx, ok := t.index[column]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, column)
	}
	rows := t.Rows()
	sort.SliceStable(rows, func(a, b int) bool {
		return rows[a][idx] < rows[b][idx]
	})
	return t.derive(rows), nil
}

// Filter returns a copy of the table holding only the rows for which keep
// returns true. The row passed to keep must not be retained.
func (t *Table) Filter(keep func(Row) bool) *Table {
	rows := make([]Row, 0, len(t.rows))
	for _, row := range t.rows {
		if keep(row) {
			rows = append(rows, row.Clone())
		}
	}
	return t.derive(rows)
}

// Equal reports whether both tables have the same columns and rows in the
// same order.
func (t *Table) Equal(other *Table) bool {
	if t == nil || other == nil {
		return t == other
	}
	if len(t.columns) != len(other.columns) || len(t.rows) != len(other.rows) {
		return false
	}
	for i := range t.columns {
		if t.columns[i] != other.columns[i] {
			return false
		}
	}
	for i := range t.rows {
		for j := range t.rows[i] {
			if t.rows[i][j] != other.rows[i][j] {
				return false
			}
		}
	}
	return true
}
