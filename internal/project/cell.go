// Package project turns decoded table records into ordered rows of cell
// strings.
package project

import (
	"regexp"
	"strings"

	"luacsv/internal/luatable"
)

var colorTag = regexp.MustCompile(`<color=#[0-9A-Fa-f]{6}>`)

// CleanMarkup removes inline <color=#RRGGBB> and </color> tags and keeps the
// text between them.
func CleanMarkup(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	s = colorTag.ReplaceAllString(s, "")
	return strings.ReplaceAll(s, "</color>", "")
}

// Cell renders v as a single cell:
//
//	bool      "true" / "false"
//	string    markup cleaned, '"' doubled
//	number    its decimal literal
//	sequence  elements rendered by the same rules, joined with ';'
//	mapping   compact JSON in stored key order, strings markup cleaned
//	null      ""
func Cell(v luatable.Value) string {
	switch v.Kind() {
	case luatable.KindBool:
		if v.Truth() {
			return "true"
		}
		return "false"
	case luatable.KindString:
		return strings.ReplaceAll(CleanMarkup(v.Text()), `"`, `""`)
	case luatable.KindNumber:
		return v.Text()
	case luatable.KindSequence:
		items := v.Items()
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = Cell(item)
		}
		return strings.Join(parts, ";")
	case luatable.KindMapping:
		return string(v.AppendJSON(nil, CleanMarkup))
	default:
		return ""
	}
}

// Field renders the named field of rec; a missing field is "".
func Field(rec luatable.Record, name string) string {
	return Cell(rec.Lookup(name))
}
