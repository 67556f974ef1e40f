package project

import (
	"strconv"

	"luacsv/internal/luatable"
)

const haloSlots = 2

// HaloHeader is the fixed column layout of a halo projection.
func HaloHeader() []string {
	return []string{"id", "effect1", "percent1", "effect2", "percent2"}
}

// Halo flattens each record's percents table into alternating effect and
// percent cells. Fewer than two pairs are padded with empty cells, extra
// pairs are dropped. Records without both id and percents are skipped.
func Halo(records []luatable.Record) []Row {
	var rows []Row
	for _, rec := range records {
		if rec == nil {
			continue
		}
		id, hasID := rec.Get("id")
		percents, hasPercents := rec.Get("percents")
		if !hasID || !hasPercents {
			continue
		}

		row := make(Row, 0, 1+2*haloSlots)
		row = append(row, Cell(id))
		for _, p := range pairs(percents) {
			if len(row) == cap(row) {
				break
			}
			row = append(row, Cell(luatable.String(p.key)), Cell(p.val))
		}
		for len(row) < cap(row) {
			row = append(row, "")
		}
		rows = append(rows, row)
	}
	SortRows(rows)
	return rows
}

type pair struct {
	key string
	val luatable.Value
}

// pairs lists the entries of a table value. Sequence elements are keyed by
// their 1-based position; scalars have no pairs.
func pairs(v luatable.Value) []pair {
	var out []pair
	switch v.Kind() {
	case luatable.KindMapping:
		v.Mapping().Each(func(k string, item luatable.Value) bool {
			out = append(out, pair{key: k, val: item})
			return true
		})
	case luatable.KindSequence:
		for i, item := range v.Items() {
			out = append(out, pair{key: strconv.Itoa(i + 1), val: item})
		}
	}
	return out
}
