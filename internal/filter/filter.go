// Package filter holds the live table filter: one column pinned to one canonical value.
//
// Matching is exact string equality on the canonical label, with "Undefined" matching
// absent cells. Exported reports filter by case-insensitive substring instead.
package filter

import (
	"qareport/domain/table"
)

// State is the active (column, value) pair; the zero State is inactive
type State struct {
	Column string `json:"column,omitempty"`
	Value  string `json:"value,omitempty"`
}

// New returns an active filter on column = value
func New(column, value string) State {
	return State{Column: column, Value: value}
}

// Set activates the filter on column = value
func (s *State) Set(column, value string) {
	*s = New(column, value)
}

// Clear resets the filter to (none, none)
func (s *State) Clear() {
	*s = State{}
}

// Active reports whether a filter is set
func (s State) Active() bool {
	return s.Column != ""
}

// Apply returns the rows matching the filter, or every row when inactive
func (s State) Apply(t *table.Table) ([]table.Row, error) {
	if t == nil {
		return nil, nil
	}
	if !s.Active() {
		return t.Rows, nil
	}
	if err := t.RequireColumn(s.Column); err != nil {
		return nil, err
	}
	rows := make([]table.Row, 0, len(t.Rows))
	for _, row := range t.Rows {
		if row.Label(s.Column) == s.Value {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// Options lists the distinct canonical labels of a column in first-seen order
func Options(t *table.Table, column string) ([]string, error) {
	if t.Len() == 0 {
		return []string{}, nil
	}
	if err := t.RequireColumn(column); err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	options := make([]string, 0)
	for _, row := range t.Rows {
		label := row.Label(column)
		if seen[label] {
			continue
		}
		seen[label] = true
		options = append(options, label)
	}
	return options, nil
}
