package models

import (
	"math"
	"strings"
)

// Table is an in-memory, ordered set of uniformly shaped rows with named columns.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Record is a single table row keyed by column name
type Record map[string]any

// NewTable builds a table from a header list and row set.
// Every row must be exactly as wide as the header list.
func NewTable(columns []string, rows [][]any) (*Table, error) {
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, &RowWidthError{Row: i, Got: len(row), Want: len(columns)}
		}
	}
	return &Table{Columns: columns, Rows: rows}, nil
}

// EmptyTable returns a table with no columns and no rows.
func EmptyTable() *Table {
	return &Table{Columns: []string{}, Rows: [][]any{}}
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table has no rows or no columns.
func (t *Table) Empty() bool {
	return t.Len() == 0 || len(t.Columns) == 0
}

// Project keeps only the allow-listed columns that are present, in allow-list order.
// Allow-listed columns missing from the table are skipped without error.
func (t *Table) Project(allow []string) *Table {
	index := make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		index[c] = i
	}

	positions := make([]int, 0, len(allow))
	columns := make([]string, 0, len(allow))
	for _, c := range allow {
		if i, ok := index[c]; ok {
			positions = append(positions, i)
			columns = append(columns, c)
		}
	}

	rows := make([][]any, len(t.Rows))
	for r, row := range t.Rows {
		projected := make([]any, len(positions))
		for j, i := range positions {
			projected[j] = row[i]
		}
		rows[r] = projected
	}

	return &Table{Columns: columns, Rows: rows}
}

// LowercaseColumns renames every column to its lowercase form in place.
func (t *Table) LowercaseColumns() *Table {
	for i, c := range t.Columns {
		t.Columns[i] = strings.ToLower(c)
	}
	return t
}

// Records converts the table to one record per row, replacing NaN cells with nil.
func (t *Table) Records() []Record {
	if t == nil {
		return nil
	}
	records := make([]Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(Record, len(t.Columns))
		for i, c := range t.Columns {
			rec[c] = normalizeCell(row[i])
		}
		records = append(records, rec)
	}
	return records
}

func normalizeCell(v any) any {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
	case float32:
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return nil
		}
	case string:
		if strings.EqualFold(val, "nan") {
			return nil
		}
	}
	return v
}
