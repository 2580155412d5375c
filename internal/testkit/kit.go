// Package testkit builds normalized tables for tests.
package testkit

import (
	"fmt"
	"time"

	"qareport/domain/table"
	"qareport/internal/normalize"
)

// Table builds a normalized table from positional rows.
// Cells may be nil (missing), string, bool, int, float64, or time.Time.
func Table(schema []string, rows ...[]interface{}) *table.Table {
	t := &table.Table{
		SourceName: "fixture.csv",
		Format:     table.FormatCSV,
		Schema:     append([]string(nil), schema...),
	}
	for _, cells := range rows {
		values := make(map[string]table.Value, len(schema))
		for i, cell := range cells {
			if i >= len(schema) {
				break
			}
			values[schema[i]] = Value(cell)
		}
		t.Rows = append(t.Rows, table.NewRow(values))
	}
	normalize.Table(t)
	return t
}

// Value converts a Go literal to a raw cell value
func Value(cell interface{}) table.Value {
	switch v := cell.(type) {
	case nil:
		return table.NewMissingValue()
	case string:
		return table.NewStringValue(v)
	case bool:
		return table.NewBooleanValue(v)
	case int:
		return table.NewNumericValue(float64(v))
	case float64:
		return table.NewNumericValue(v)
	case time.Time:
		return table.NewTimestampValue(v)
	default:
		panic(fmt.Sprintf("testkit: unsupported cell type %T", cell))
	}
}

// StatusTable is the three-row test run used across packages:
// two Pass rows owned by ana and one Fail row owned by bo.
func StatusTable() *table.Table {
	return Table(
		[]string{"Status", "Score", "Owner"},
		[]interface{}{"Pass", 3, "ana"},
		[]interface{}{"Pass", 4, "ana"},
		[]interface{}{"Fail", 5, "bo"},
	)
}

// StatusCSV is StatusTable as CSV text
const StatusCSV = "Status,Score,Owner\nPass,3,ana\nPass,4,ana\nFail,5,bo\n"
