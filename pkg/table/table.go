// Package table provides the immutable tabular snapshot every pipeline stage
// reads from and produces. A Table is never mutated after construction: stage
// functions derive new tables instead.
package table

import (
	"crypto/sha256"
	"encoding/binary"
	"io"
)

// Table is an ordered set of named columns with string cells.
type Table struct {
	name    string
	columns []string
	index   map[string]int
	rows    [][]string
}

// New builds a table from a header row and data rows. Rows shorter than the
// header are padded with empty cells and longer rows are truncated, so every
// row has exactly one cell per column. Inputs are copied.
func New(name string, columns []string, rows [][]string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)

	index := make(map[string]int, len(cols))
	for i, c := range cols {
		if _, dup := index[c]; !dup {
			index[c] = i
		}
	}

	data := make([][]string, len(rows))
	for i, r := range rows {
		row := make([]string, len(cols))
		copy(row, r)
		data[i] = row
	}

	return &Table{name: name, columns: cols, index: index, rows: data}
}

// FromRecords builds a table from a slice of column→value maps using the
// given column order.
func FromRecords(name string, columns []string, records []map[string]string) *Table {
	rows := make([][]string, len(records))
	for i, rec := range records {
		row := make([]string, len(columns))
		for j, c := range columns {
			row[j] = rec[c]
		}
		rows[i] = row
	}
	return New(name, columns, rows)
}

// Name returns the table's logical name.
func (t *Table) Name() string {
	return t.name
}

// Columns returns a copy of the header row.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Has reports whether a column with this exact name exists.
func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Value returns the cell at row i for the named column, or "" when the column
// is absent.
func (t *Table) Value(i int, column string) string {
	j, ok := t.index[column]
	if !ok {
		return ""
	}
	return t.rows[i][j]
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []string {
	out := make([]string, len(t.rows[i]))
	copy(out, t.rows[i])
	return out
}

// Rows returns a copy of all data rows.
func (t *Table) Rows() [][]string {
	out := make([][]string, len(t.rows))
	for i := range t.rows {
		out[i] = t.Row(i)
	}
	return out
}

// Record returns row i as a column→value map.
func (t *Table) Record(i int) map[string]string {
	rec := make(map[string]string, len(t.columns))
	for j, c := range t.columns {
		if _, seen := rec[c]; !seen {
			rec[c] = t.rows[i][j]
		}
	}
	return rec
}

// Fingerprint hashes the table content (name excluded) so identical inputs
// can be recognized across runs.
func (t *Table) Fingerprint() [sha256.Size]byte {
	h := sha256.New()
	if t != nil {
		writeCells(h, t.columns)
		for _, r := range t.rows {
			writeCells(h, r)
		}
	}
	var sum [sha256.Size]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// writeCells writes length-prefixed cells so ("ab","c") and ("a","bc") differ.
func writeCells(w io.Writer, cells []string) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(len(cells)))
	_, _ = w.Write(buf[:])
	for _, c := range cells {
		binary.BigEndian.PutUint64(buf[:], uint64(len(c)))
		_, _ = w.Write(buf[:])
		_, _ = io.WriteString(w, c)
	}
}
