package table

import (
	"qareport/domain/core"
	apperrors "qareport/internal/errors"
)

// Row maps column names to raw values and to their canonical (normalized) form.
// Columns absent from the source row read as missing.
type Row struct {
	raw       map[string]Value
	canonical map[string]Value
}

// NewRow creates a row from raw values; canonical values start unset
func NewRow(raw map[string]Value) Row {
	if raw == nil {
		raw = make(map[string]Value)
	}
	return Row{raw: raw, canonical: make(map[string]Value, len(raw))}
}

// Raw returns the value as decoded from the source file
func (r Row) Raw(column string) Value {
	if v, ok := r.raw[column]; ok {
		return v
	}
	return NewMissingValue()
}

// Canonical returns the normalized value, falling back to the raw value
func (r Row) Canonical(column string) Value {
	if v, ok := r.canonical[column]; ok {
		return v
	}
	return r.Raw(column)
}

// SetCanonical records the normalized form of a cell
func (r Row) SetCanonical(column string, v Value) {
	r.canonical[column] = v
}

// Display returns the canonical value as a string
func (r Row) Display(column string) string {
	return r.Canonical(column).String()
}

// Label returns the canonical grouping label: missing cells become "Undefined"
func (r Row) Label(column string) string {
	v := r.Canonical(column)
	if v.IsMissing() {
		return UndefinedLabel
	}
	return v.String()
}

// Format identifies the source file format of a Table
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Table is the ordered schema plus the rows of one ingested file.
// It is replaced wholesale on each ingestion and never mutated afterwards.
type Table struct {
	SourceName  string
	Format      Format
	Fingerprint core.Hash
	Schema      []string
	Rows        []Row
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the schema position of a column, or -1
func (t *Table) ColumnIndex(column string) int {
	if t == nil {
		return -1
	}
	for i, c := range t.Schema {
		if c == column {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the column is part of the schema
func (t *Table) HasColumn(column string) bool {
	return t.ColumnIndex(column) >= 0
}

// RequireColumn fails with UNKNOWN_COLUMN when the column is not in the schema
func (t *Table) RequireColumn(column string) error {
	if !t.HasColumn(column) {
		return apperrors.UnknownColumn(column)
	}
	return nil
}

// DisplayRows renders rows as display strings aligned to the schema
func (t *Table) DisplayRows(rows []Row) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, len(t.Schema))
		for i, col := range t.Schema {
			cells[i] = row.Display(col)
		}
		out = append(out, cells)
	}
	return out
}
