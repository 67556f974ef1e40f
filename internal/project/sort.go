package project

import (
	"math/big"
	"regexp"
	"sort"
)

var integerCell = regexp.MustCompile(`^-?[0-9]+$`)

// SortRows orders rows in place by the integer value of their first cell.
// A first cell that is not an optionally negative run of digits sorts as 0.
// Equal keys keep their input order.
func SortRows(rows []Row) {
	keys := make([]*big.Int, len(rows))
	for i, r := range rows {
		keys[i] = sortKey(r)
	}
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return keys[idx[a]].Cmp(keys[idx[b]]) < 0
	})

	sorted := make([]Row, len(rows))
	for i, j := range idx {
		sorted[i] = rows[j]
	}
	copy(rows, sorted)
}

func sortKey(r Row) *big.Int {
	n := new(big.Int)
	if len(r) == 0 || !integerCell.MatchString(r[0]) {
		return n
	}
	n.SetString(r[0], 10)
	return n
}
