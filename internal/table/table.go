// Package table holds the in-memory tabular form shared by the loader, the
// merger and the cleaner: a header plus string rows addressed by column name.
package table

import "fmt"

// Table is a named, rectangular set of string rows. Every row has exactly
// len(Columns) cells.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string

	index map[string]int
}

// New returns an empty table with the given header. Duplicate column names
// resolve to the first occurrence.
func New(name string, columns []string) *Table {
	t := &Table{Name: name, Columns: append([]string(nil), columns...)}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		if _, dup := t.index[c]; !dup {
			t.index[c] = i
		}
	}
}

// Index returns the position of column col.
func (t *Table) Index(col string) (int, bool) {
	if t.index == nil {
		t.reindex()
	}
	i, ok := t.index[col]
	return i, ok
}

// Has reports whether col is a column of t.
func (t *Table) Has(col string) bool {
	_, ok := t.Index(col)
	return ok
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Append adds a row. It returns an error when the width does not match.
func (t *Table) Append(row []string) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("table %s: row has %d fields, want %d", t.Name, len(row), len(t.Columns))
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// Value returns the cell at row r for column col, or "" when col is absent.
func (t *Table) Value(r int, col string) string {
	i, ok := t.Index(col)
	if !ok {
		return ""
	}
	return t.Rows[r][i]
}

// Record returns row r as a column-keyed map.
func (t *Table) Record(r int) map[string]string {
	out := make(map[string]string, len(t.Columns))
	for i, c := range t.Columns {
		if _, seen := out[c]; !seen {
			out[c] = t.Rows[r][i]
		}
	}
	return out
}
