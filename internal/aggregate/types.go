package aggregate

import (
	"strings"

	"github.com/montanaflynn/stats"

	"qareport/internal/errors"
)

// Mode selects how category values are aggregated
type Mode string

const (
	ModeCount   Mode = "count"
	ModeSum     Mode = "sum"
	ModeAverage Mode = "average"
)

// Modes lists the supported aggregation modes in display order
var Modes = []Mode{ModeCount, ModeSum, ModeAverage}

// ParseMode parses a mode name; "avg" and "mean" are accepted for average
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "count":
		return ModeCount, nil
	case "sum":
		return ModeSum, nil
	case "average", "avg", "mean":
		return ModeAverage, nil
	default:
		return "", errors.InvalidInput("unsupported aggregation mode: " + s)
	}
}

// Spec is the user-chosen aggregation: a group column, or an x/y pair for cross-tabulation.
// ValueColumn is the column summed or averaged; empty means the group column itself.
type Spec struct {
	GroupColumn string `json:"group_column,omitempty"`
	ValueColumn string `json:"value_column,omitempty"`
	XColumn     string `json:"x_column,omitempty"`
	YColumn     string `json:"y_column,omitempty"`
	Mode        Mode   `json:"mode,omitempty"`
}

// IsCross reports whether the spec asks for a two-dimension count
func (s Spec) IsCross() bool {
	return s.XColumn != "" && s.YColumn != ""
}

// IsEmpty reports whether no grouping column has been chosen
func (s Spec) IsEmpty() bool {
	return s.GroupColumn == "" && !s.IsCross()
}

// FilterColumn is the column that chart clicks and exported filters act on
func (s Spec) FilterColumn() string {
	if s.IsCross() {
		return s.XColumn
	}
	return s.GroupColumn
}

// Accumulator collects one category's row count and numeric member values
type Accumulator struct {
	Count        int       `json:"count"`
	Sum          float64   `json:"sum"`
	MemberValues []float64 `json:"member_values"`
}

// Average is the mean of numeric member values, or 0 when there are none
func (a *Accumulator) Average() float64 {
	if len(a.MemberValues) == 0 {
		return 0
	}
	mean, err := stats.Mean(a.MemberValues)
	if err != nil {
		return 0
	}
	return mean
}

// Value returns the aggregate for the given mode
func (a *Accumulator) Value(mode Mode) float64 {
	switch mode {
	case ModeSum:
		return a.Sum
	case ModeAverage:
		return a.Average()
	default:
		return float64(a.Count)
	}
}

// Distribution maps ordered category labels to their accumulators
type Distribution struct {
	Column     string                  `json:"column"`
	Mode       Mode                    `json:"mode"`
	Categories []string                `json:"categories"`
	Buckets    map[string]*Accumulator `json:"buckets"`
}

// Len returns the number of categories
func (d *Distribution) Len() int {
	return len(d.Categories)
}

// Get returns the accumulator of a category, or nil
func (d *Distribution) Get(category string) *Accumulator {
	return d.Buckets[category]
}

// Values returns the per-category aggregate aligned to Categories
func (d *Distribution) Values() []float64 {
	values := make([]float64, len(d.Categories))
	for i, c := range d.Categories {
		values[i] = d.Buckets[c].Value(d.Mode)
	}
	return values
}

// TotalCount sums the row counts over all categories
func (d *Distribution) TotalCount() int {
	total := 0
	for _, acc := range d.Buckets {
		total += acc.Count
	}
	return total
}

// CrossTab holds counts per (x category, y category) pair
type CrossTab struct {
	XColumn    string   `json:"x_column"`
	YColumn    string   `json:"y_column"`
	Categories []string `json:"categories"`
	Series     []string `json:"series"`
	Counts     [][]int  `json:"counts"` // [series][category]
}

// ColumnSeries is the raw per-row projection used by number reports:
// the first column labels each row and every other column is a numeric series.
type ColumnSeries struct {
	Categories []string    `json:"categories"`
	Columns    []string    `json:"columns"`
	Values     [][]float64 `json:"values"`
}
