// Package table holds the in-memory tabular form of workbook sheets and merged
// attribute sets.
package table

import (
	"strings"

	"github.com/sells-group/solar-suitability/internal/etlerr"
)

// Row is one record, positionally aligned with Table.Columns.
type Row []Value

// Table is a named header plus rows. Rows may be shorter than the header; absent
// trailing cells read as Missing.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// Index returns the position of the column with exactly this header, or -1.
func (t *Table) Index(col string) int {
	for i, c := range t.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// IndexFold is Index with a case-insensitive, whitespace-trimmed comparison.
func (t *Table) IndexFold(col string) int {
	if i := t.Index(col); i >= 0 {
		return i
	}
	want := strings.TrimSpace(col)
	for i, c := range t.Columns {
		if strings.EqualFold(strings.TrimSpace(c), want) {
			return i
		}
	}
	return -1
}

// Require returns the indexes of cols, or a SchemaError naming every absent column.
func (t *Table) Require(cols ...string) ([]int, error) {
	idx := make([]int, len(cols))
	var missing []string
	for i, c := range cols {
		idx[i] = t.IndexFold(c)
		if idx[i] < 0 {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, etlerr.NewMissingColumns(t.Name, missing...)
	}
	return idx, nil
}

// Cell returns row r, column c, or Missing when out of range.
func (t *Table) Cell(r, c int) Value {
	if r < 0 || r >= len(t.Rows) || c < 0 {
		return Value{}
	}
	return t.Rows[r].At(c)
}

// At returns the value at column i, or Missing when the row is short.
func (r Row) At(i int) Value {
	if i < 0 || i >= len(r) {
		return Value{}
	}
	return r[i]
}

// ColumnIsNumeric reports whether every non-missing value in column c is a number.
// A column with no values at all counts as numeric, matching how spreadsheet
// readers type an empty column.
func (t *Table) ColumnIsNumeric(c int) bool {
	for r := range t.Rows {
		v := t.Cell(r, c)
		if !v.IsMissing() && v.Kind != Number {
			return false
		}
	}
	return true
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }
