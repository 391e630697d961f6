package sheet

import (
	"iter"
	"strings"
)

// Table is a Grid split at its header row. Rows above the header and the header
// itself never appear as data.
type Table struct {
	columns   []string
	rows      [][]string
	firstLine int
}

func NewTable(grid Grid, headerIdx int) *Table {
	if headerIdx < 0 || headerIdx >= len(grid) {
		return &Table{}
	}
	header := grid[headerIdx]
	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.TrimSpace(name)
	}
	return &Table{
		columns:   columns,
		rows:      grid[headerIdx+1:],
		firstLine: headerIdx + 2,
	}
}

// Columns returns the trimmed header cells in source order.
func (t *Table) Columns() []string {
	return t.columns
}

// Rows yields every non-blank data row with its 1-based line number in the source
// sheet. The sequence can be ranged over any number of times.
func (t *Table) Rows() iter.Seq2[int, Row] {
	return func(yield func(int, Row) bool) {
		for i, cells := range t.rows {
			if isBlank(cells) {
				continue
			}
			if !yield(t.firstLine+i, Row{columns: t.columns, cells: cells}) {
				return
			}
		}
	}
}

// Row is one data row keyed by the table's column names.
type Row struct {
	columns []string
	cells   []string
}

// Cell returns the trimmed value at column index i; cells past the end of a ragged row are empty.
func (r Row) Cell(i int) string {
	if i < 0 || i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}

// Get returns the first non-empty value among the columns named column.
func (r Row) Get(column string) (string, bool) {
	found := false
	for i, name := range r.columns {
		if name != column {
			continue
		}
		found = true
		if v := r.Cell(i); v != "" {
			return v, true
		}
	}
	return "", found
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
