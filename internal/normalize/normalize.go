// Package normalize turns raw cell values into their canonical display form.
//
// Dates are the hard case: a spreadsheet may carry a date as a native date cell,
// as a serial day number, or as free text. All three end up as MM/DD/YYYY.
// Any number above SerialThreshold is read as a date serial. This cannot tell a
// large count or an ID apart from a date and is a known, accepted ambiguity.
package normalize

import (
	"math"
	"strings"
	"time"

	"qareport/domain/table"
)

const (
	// SerialThreshold is the value above which numbers are read as date serials
	SerialThreshold = 10000

	// SerialEpochOffset is the serial of 1970-01-01 under the 1899-12-30 zero date
	SerialEpochOffset = 25569

	// DateLayout is the canonical en-US MM/DD/YYYY date form
	DateLayout = "01/02/2006"
)

// stringDateLayouts are the textual date forms recognized in string cells
var stringDateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04",
	"01-02-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	"Mon, 02 Jan 2006",
	time.RFC1123,
	time.RFC1123Z,
	time.RFC850,
	time.ANSIC,
}

// Value applies the normalization policy to a single raw value
func Value(v table.Value) table.Value {
	if v.IsMissing() {
		return table.NewStringValue(table.UndefinedLabel)
	}

	switch v.Type {
	case table.ValueTypeNumeric:
		n := v.AsFloat64()
		if n > SerialThreshold {
			return table.NewStringValue(FormatDate(SerialToTime(n)))
		}
		return v
	case table.ValueTypeString:
		if t, ok := ParseDate(*v.StringVal); ok {
			return table.NewStringValue(FormatDate(t))
		}
		return v
	case table.ValueTypeTimestamp:
		return table.NewStringValue(FormatDate(v.AsTime()))
	default:
		return v
	}
}

// Table fills the canonical value of every cell of every row
func Table(t *table.Table) {
	if t == nil {
		return
	}
	for _, row := range t.Rows {
		for _, col := range t.Schema {
			row.SetCanonical(col, Value(row.Raw(col)))
		}
	}
}

// SerialToTime converts a spreadsheet serial day number to a UTC instant.
// The 25569 offset already folds in the 1900 leap-year bug correction.
func SerialToTime(serial float64) time.Time {
	ms := (serial - SerialEpochOffset) * 86400 * 1000
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return time.Time{}
	}
	return time.UnixMilli(int64(ms)).UTC()
}

// FormatDate renders a date in the canonical MM/DD/YYYY form (UTC calendar day)
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDate parses a textual date in any recognized layout
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range stringDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
