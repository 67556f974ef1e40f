package project

import (
	"errors"
	"fmt"

	"luacsv/internal/luatable"
)

// NestedSpec describes a nested-array projection: every element of the
// Array field becomes a row of Parent fields followed by Child fields.
type NestedSpec struct {
	Array  string
	Parent []string
	Child  []string
}

// Width is the number of cells in each produced row.
func (s NestedSpec) Width() int { return len(s.Parent) + len(s.Child) }

// Validate reports an incomplete spec.
func (s NestedSpec) Validate() error {
	var errs []error
	if s.Array == "" {
		errs = append(errs, errors.New("array field is empty"))
	}
	if len(s.Parent) == 0 {
		errs = append(errs, errors.New("no parent fields"))
	}
	if len(s.Child) == 0 {
		errs = append(errs, errors.New("no child fields"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("nested spec: %w", err)
	}
	return nil
}

// Nested flattens the array field of each record into one row per element.
// A mapping-valued array is walked in stored order. Elements that are not
// records are skipped, and a record without usable elements yields no rows.
func Nested(records []luatable.Record, spec NestedSpec) []Row {
	var rows []Row
	for _, rec := range records {
		if rec == nil {
			continue
		}
		parent := make([]string, len(spec.Parent))
		for i, f := range spec.Parent {
			parent[i] = Field(rec, f)
		}
		for _, item := range elements(rec.Lookup(spec.Array)) {
			child := item.Mapping()
			if child == nil {
				continue
			}
			row := make(Row, 0, spec.Width())
			row = append(row, parent...)
			for _, f := range spec.Child {
				row = append(row, Field(child, f))
			}
			rows = append(rows, row)
		}
	}
	SortRows(rows)
	return rows
}

func elements(v luatable.Value) []luatable.Value {
	switch v.Kind() {
	case luatable.KindSequence:
		return v.Items()
	case luatable.KindMapping:
		return v.Mapping().Values()
	}
	return nil
}
