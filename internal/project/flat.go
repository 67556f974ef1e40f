package project

import "luacsv/internal/luatable"

// Row is one output row, one cell per schema column.
type Row = []string

// Flat projects each record onto schema: one row per record, one cell per
// column, missing fields empty. Rows come back sorted with SortRows.
func Flat(records []luatable.Record, schema []string) []Row {
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		row := make(Row, len(schema))
		for i, col := range schema {
			row[i] = Field(rec, col)
		}
		rows = append(rows, row)
	}
	SortRows(rows)
	return rows
}
