package aggregate

import (
	"sort"
	"strings"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"qareport/domain/table"
	"qareport/internal/errors"
	"qareport/internal/normalize"
)

// Single groups rows by the canonical label of groupColumn.
// For sum and average the raw values of groupColumn itself are aggregated.
func Single(t *table.Table, groupColumn string, mode Mode) (*Distribution, error) {
	return Measure(t, groupColumn, groupColumn, mode)
}

// Measure groups rows by groupColumn and aggregates the raw values of valueColumn.
// Every row is counted; only numeric raw values feed Sum and MemberValues.
func Measure(t *table.Table, groupColumn, valueColumn string, mode Mode) (*Distribution, error) {
	if mode == "" {
		mode = ModeCount
	}
	dist := &Distribution{
		Column:  groupColumn,
		Mode:    mode,
		Buckets: make(map[string]*Accumulator),
	}
	if t.Len() == 0 {
		return dist, nil
	}
	if err := t.RequireColumn(groupColumn); err != nil {
		return nil, err
	}
	if valueColumn == "" {
		valueColumn = groupColumn
	}
	if err := t.RequireColumn(valueColumn); err != nil {
		return nil, err
	}

	for _, row := range t.Rows {
		label := row.Label(groupColumn)
		acc, ok := dist.Buckets[label]
		if !ok {
			acc = &Accumulator{}
			dist.Buckets[label] = acc
			dist.Categories = append(dist.Categories, label)
		}
		acc.Count++

		if raw := row.Raw(valueColumn); raw.IsNumeric() {
			acc.Sum += raw.AsFloat64()
			acc.MemberValues = append(acc.MemberValues, raw.AsFloat64())
		}
	}

	dist.Categories = OrderCategories(dist.Categories, groupColumn, t.Schema)
	return dist, nil
}

// Cross counts rows per (xColumn, yColumn) label pair.
// Categories are the x labels and each y label becomes one series.
func Cross(t *table.Table, xColumn, yColumn string) (*CrossTab, error) {
	ct := &CrossTab{XColumn: xColumn, YColumn: yColumn}
	if t.Len() == 0 {
		return ct, nil
	}
	if err := t.RequireColumn(xColumn); err != nil {
		return nil, err
	}
	if err := t.RequireColumn(yColumn); err != nil {
		return nil, err
	}

	counts := make(map[string]map[string]int)
	var xs, ys []string
	seenY := make(map[string]bool)
	for _, row := range t.Rows {
		x := row.Label(xColumn)
		y := row.Label(yColumn)
		if counts[x] == nil {
			counts[x] = make(map[string]int)
			xs = append(xs, x)
		}
		counts[x][y]++
		if !seenY[y] {
			seenY[y] = true
			ys = append(ys, y)
		}
	}

	ct.Categories = OrderCategories(xs, xColumn, t.Schema)
	ct.Series = OrderCategories(ys, yColumn, t.Schema)
	ct.Counts = make([][]int, len(ct.Series))
	for i, y := range ct.Series {
		ct.Counts[i] = make([]int, len(ct.Categories))
		for j, x := range ct.Categories {
			ct.Counts[i][j] = counts[x][y]
		}
	}
	return ct, nil
}

// Columns projects the table row by row: the first schema column labels each row
// and every other column becomes a series of raw numeric values (non-numeric read as 0).
func Columns(t *table.Table) (*ColumnSeries, error) {
	cs := &ColumnSeries{}
	if t.Len() == 0 || len(t.Schema) == 0 {
		return cs, nil
	}
	if len(t.Schema) < 2 {
		return nil, errors.InvalidInput("a number report needs a label column and at least one value column")
	}

	labelColumn := t.Schema[0]
	cs.Columns = append(cs.Columns, t.Schema[1:]...)
	cs.Values = make([][]float64, len(cs.Columns))
	for i := range cs.Values {
		cs.Values[i] = make([]float64, 0, len(t.Rows))
	}
	for _, row := range t.Rows {
		cs.Categories = append(cs.Categories, row.Label(labelColumn))
		for i, col := range cs.Columns {
			cs.Values[i] = append(cs.Values[i], row.Raw(col).AsFloat64())
		}
	}
	return cs, nil
}

// OrderCategories sorts labels lexicographically, or chronologically when the
// column is a date column. Labels that do not parse as dates sort after those
// that do, in lexicographic order.
func OrderCategories(labels []string, column string, schema []string) []string {
	ordered := append([]string(nil), labels...)
	if !isDateColumn(column, schema) {
		sort.Strings(ordered)
		return ordered
	}

	type keyed struct {
		label  string
		parsed bool
		unix   int64
	}
	keys := make([]keyed, len(ordered))
	for i, l := range ordered {
		t, ok := normalize.ParseDate(l)
		keys[i] = keyed{label: l, parsed: ok, unix: t.Unix()}
	}
	sort.SliceStable(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.parsed != b.parsed {
			return a.parsed
		}
		if a.parsed && a.unix != b.unix {
			return a.unix < b.unix
		}
		return a.label < b.label
	})
	for i, k := range keys {
		ordered[i] = k.label
	}
	return ordered
}

// isDateColumn applies the "date" naming rule to the grouping column and the schema
func isDateColumn(column string, schema []string) bool {
	if !strings.Contains(strings.ToLower(column), "date") {
		return false
	}
	for _, c := range schema {
		if strings.Contains(strings.ToLower(c), "date") {
			return true
		}
	}
	return false
}

// CategorySummary describes the numeric member values of one category
type CategorySummary struct {
	Category     string  `json:"category"`
	Count        int     `json:"count"`
	NumericCount int     `json:"numeric_count"`
	Sum          float64 `json:"sum"`
	Average      float64 `json:"average"`
	Median       float64 `json:"median"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	StdDev       float64 `json:"std_dev"`
}

// Summarize computes min/median/max and the sample standard deviation for one category of a distribution
func Summarize(d *Distribution, category string) (CategorySummary, error) {
	acc := d.Get(category)
	if acc == nil {
		return CategorySummary{}, errors.NotFound("category " + category)
	}
	summary := CategorySummary{
		Category:     category,
		Count:        acc.Count,
		NumericCount: len(acc.MemberValues),
		Sum:          acc.Sum,
		Average:      acc.Average(),
	}
	if len(acc.MemberValues) == 0 {
		return summary, nil
	}

	data := stats.Float64Data(acc.MemberValues)
	var err error
	if summary.Median, err = data.Median(); err != nil {
		return summary, errors.Wrap(err, "failed to compute median")
	}
	if summary.Min, err = data.Min(); err != nil {
		return summary, errors.Wrap(err, "failed to compute min")
	}
	if summary.Max, err = data.Max(); err != nil {
		return summary, errors.Wrap(err, "failed to compute max")
	}
	if len(acc.MemberValues) > 1 {
		summary.StdDev = stat.StdDev(acc.MemberValues, nil)
	}
	return summary, nil
}
