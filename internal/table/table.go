// Package table holds the in-memory tabular representation shared by every
// stage of a worklist run: an ordered header plus rows of string cells.
package table

import (
	"strings"
)

// Table is a rectangular set of string cells addressed by column name.
// Duplicate header names resolve to the last occurrence.
type Table struct {
	header []string
	rows   [][]string
	index  map[string]int
}

func New(header ...string) *Table {
	t := &Table{header: append([]string{}, header...)}
	t.reindex()
	return t
}

// FromRows builds a table from a header and raw rows. Rows are padded or
// truncated to the header width.
func FromRows(header []string, rows [][]string) *Table {
	t := New(header...)
	for _, row := range rows {
		t.AppendRow(row)
	}
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.header))
	for i, name := range t.header {
		t.index[name] = i
	}
}

func (t *Table) Header() []string {
	return append([]string{}, t.header...)
}

func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

func (t *Table) Row(i int) []string {
	return append([]string{}, t.rows[i]...)
}

// Get returns the cell at row i, column name; missing columns read as "".
func (t *Table) Get(i int, column string) string {
	idx, ok := t.index[column]
	if !ok || i < 0 || i >= len(t.rows) {
		return ""
	}
	return t.rows[i][idx]
}

// Set writes the cell at row i, adding the column when absent.
func (t *Table) Set(i int, column, value string) {
	idx, ok := t.index[column]
	if !ok {
		idx = t.AddColumn(column)
	}
	t.rows[i][idx] = value
}

// AddColumn appends an empty column and returns its index. Existing columns
// are left untouched.
func (t *Table) AddColumn(column string) int {
	if idx, ok := t.index[column]; ok {
		return idx
	}
	t.header = append(t.header, column)
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], "")
	}
	t.reindex()
	return len(t.header) - 1
}

func (t *Table) Column(column string) []string {
	out := make([]string, len(t.rows))
	idx, ok := t.index[column]
	if !ok {
		return out
	}
	for i, row := range t.rows {
		out[i] = row[idx]
	}
	return out
}

func (t *Table) AppendRow(row []string) {
	cells := make([]string, len(t.header))
	copy(cells, row)
	t.rows = append(t.rows, cells)
}

// AppendRecord adds a row from a column->value map; unknown columns are added.
func (t *Table) AppendRecord(record map[string]string) {
	for column := range record {
		if !t.Has(column) {
			t.AddColumn(column)
		}
	}
	cells := make([]string, len(t.header))
	for column, value := range record {
		cells[t.index[column]] = value
	}
	t.rows = append(t.rows, cells)
}

func (t *Table) Record(i int) map[string]string {
	out := make(map[string]string, len(t.header))
	for column, idx := range t.index {
		out[column] = t.rows[i][idx]
	}
	return out
}

func (t *Table) Clone() *Table {
	c := New(t.header...)
	c.rows = make([][]string, len(t.rows))
	for i, row := range t.rows {
		c.rows[i] = append([]string{}, row...)
	}
	return c
}

// Filter returns a new table holding the rows for which keep returns true.
func (t *Table) Filter(keep func(i int) bool) *Table {
	out := New(t.header...)
	for i, row := range t.rows {
		if keep(i) {
			out.rows = append(out.rows, append([]string{}, row...))
		}
	}
	return out
}

// Project returns a table with exactly the given columns in the given order.
// Columns absent from t are filled with empty strings.
func (t *Table) Project(columns []string) *Table {
	out := New(columns...)
	out.rows = make([][]string, len(t.rows))
	for i := range t.rows {
		cells := make([]string, len(columns))
		for j, column := range columns {
			cells[j] = t.Get(i, column)
		}
		out.rows[i] = cells
	}
	return out
}

// RenameColumns rewrites header names through fn. When two columns collapse
// onto one name the later column wins lookups.
func (t *Table) RenameColumns(fn func(string) string) {
	for i, name := range t.header {
		t.header[i] = fn(name)
	}
	t.reindex()
}

func (t *Table) Rename(from, to string) {
	idx, ok := t.index[from]
	if !ok || from == to {
		return
	}
	t.header[idx] = to
	t.reindex()
}

func (t *Table) MapColumn(column string, fn func(string) string) {
	idx, ok := t.index[column]
	if !ok {
		return
	}
	for _, row := range t.rows {
		row[idx] = fn(row[idx])
	}
}

// Concat appends the rows of other, aligning by column name. Columns only
// present in other are added to t.
func (t *Table) Concat(other *Table) {
	for _, column := range other.header {
		if !t.Has(column) {
			t.AddColumn(column)
		}
	}
	for i := range other.rows {
		cells := make([]string, len(t.header))
		for j, column := range t.header {
			cells[j] = other.Get(i, column)
		}
		t.rows = append(t.rows, cells)
	}
}

// Keys returns the set of non-empty values of the key column.
func (t *Table) Keys(key string) map[string]struct{} {
	out := make(map[string]struct{}, len(t.rows))
	for _, v := range t.Column(key) {
		if v != "" {
			out[v] = struct{}{}
		}
	}
	return out
}

// KeyIndex maps each key value to the index of its last occurrence.
func (t *Table) KeyIndex(key string) map[string]int {
	out := make(map[string]int, len(t.rows))
	for i, v := range t.Column(key) {
		if v != "" {
			out[v] = i
		}
	}
	return out
}

// DedupLast drops earlier rows sharing a key value, keeping the last
// occurrence at the position of that last occurrence.
func (t *Table) DedupLast(key string) *Table {
	last := t.KeyIndex(key)
	return t.Filter(func(i int) bool {
		v := t.Get(i, key)
		if v == "" {
			return true
		}
		return last[v] == i
	})
}

// IsBlankRow reports whether every cell in row is whitespace.
func IsBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
