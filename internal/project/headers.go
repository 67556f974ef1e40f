package project

import "luacsv/internal/luatable"

// DeriveHeader lists every field name used by records, in first-seen order.
func DeriveHeader(records []luatable.Record) []string {
	var keys []string
	seen := make(map[string]struct{})
	for _, rec := range records {
		rec.Each(func(k string, _ luatable.Value) bool {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
			return true
		})
	}
	return keys
}
