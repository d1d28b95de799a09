// Package tabular holds the in-memory canonical tables that flow between the
// transformer, the validator and the loader.
//
// A Table is a named, ordered set of columns and rows of string cells. Every
// cell remembers where it came from in the submitted workbook so that later
// stages can point a human back at the exact cell to fix. Cells that were
// injected during transformation (programme codes, round numbers) have a zero
// Ref.
package tabular

import (
	"sort"
	"strings"
)

// Ref addresses a cell in the source workbook, e.g. {Sheet: "4 - Funding", Cell: "C12"}.
type Ref struct {
	Sheet string
	Cell  string
}

// IsZero reports whether the ref points nowhere.
func (r Ref) IsZero() bool {
	return r.Sheet == "" && r.Cell == ""
}

// Cell is a single value with its source location.
type Cell struct {
	Value string
	Ref   Ref
}

// Blank reports whether the cell holds no meaningful value.
func (c Cell) Blank() bool {
	return strings.TrimSpace(c.Value) == ""
}

// Row is a slice of cells aligned with its table's Columns.
type Row []Cell

// Table is a named canonical table.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// Set is a collection of canonical tables keyed by table name.
type Set map[string]*Table

// Names returns the table names in the set, sorted.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates an empty table with the given columns.
func New(name string, columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Name: name, Columns: cols}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Index returns the position of col, or -1.
func (t *Table) Index(col string) int {
	for i, c := range t.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// Has reports whether the table has a column named col.
func (t *Table) Has(col string) bool {
	return t.Index(col) >= 0
}

// Append adds a row. Missing trailing cells are padded with blanks and extra
// cells are discarded.
func (t *Table) Append(cells ...Cell) {
	row := make(Row, len(t.Columns))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

// AppendValues adds a row of values that have no source location.
func (t *Table) AppendValues(values ...string) {
	cells := make([]Cell, len(values))
	for i, v := range values {
		cells[i] = Cell{Value: v}
	}
	t.Append(cells...)
}

// Cell returns the cell at row i in column col. Unknown columns yield a blank cell.
func (t *Table) Cell(i int, col string) Cell {
	idx := t.Index(col)
	if idx < 0 || i < 0 || i >= len(t.Rows) {
		return Cell{}
	}
	return t.Rows[i][idx]
}

// Value returns the trimmed value at row i in column col.
func (t *Table) Value(i int, col string) string {
	return strings.TrimSpace(t.Cell(i, col).Value)
}

// Set replaces the value at row i in column col, keeping its ref.
func (t *Table) Set(i int, col, value string) {
	idx := t.Index(col)
	if idx < 0 || i < 0 || i >= len(t.Rows) {
		return
	}
	t.Rows[i][idx].Value = value
}

// Column returns every value of col in row order.
func (t *Table) Column(col string) []string {
	out := make([]string, len(t.Rows))
	for i := range t.Rows {
		out[i] = t.Value(i, col)
	}
	return out
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := New(t.Name, t.Columns...)
	out.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = append(Row(nil), r...)
	}
	return out
}
