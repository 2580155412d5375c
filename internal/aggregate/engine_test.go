package aggregate

import (
	"testing"

	"qareport/domain/table"
	"qareport/internal/errors"
	"qareport/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input    string
		expected Mode
		wantErr  bool
	}{
		{"count", ModeCount, false},
		{"SUM", ModeSum, false},
		{" average ", ModeAverage, false},
		{"avg", ModeAverage, false},
		{"mean", ModeAverage, false},
		{"median", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			mode, err := ParseMode(tt.input)
			if tt.wantErr {
				assert.True(t, errors.IsCode(err, errors.CodeInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, mode)
		})
	}
}

func TestSingle_Count(t *testing.T) {
	dist, err := Single(testkit.StatusTable(), "Status", ModeCount)
	require.NoError(t, err)

	assert.Equal(t, []string{"Fail", "Pass"}, dist.Categories)
	assert.Equal(t, []float64{1, 2}, dist.Values())
	assert.Equal(t, 3, dist.TotalCount())
}

func TestMeasure_Modes(t *testing.T) {
	tbl := testkit.StatusTable()

	tests := []struct {
		mode     Mode
		expected []float64
	}{
		{ModeCount, []float64{1, 2}},
		{ModeSum, []float64{5, 7}},
		{ModeAverage, []float64{5, 3.5}},
		{"", []float64{1, 2}},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			dist, err := Measure(tbl, "Status", "Score", tt.mode)
			require.NoError(t, err)
			assert.Equal(t, []string{"Fail", "Pass"}, dist.Categories)
			assert.Equal(t, tt.expected, dist.Values())
		})
	}
}

func TestSingle_SumsTheGroupColumnItself(t *testing.T) {
	tbl := testkit.Table([]string{"Score"},
		[]interface{}{3}, []interface{}{3}, []interface{}{"x"})

	dist, err := Single(tbl, "Score", ModeSum)
	require.NoError(t, err)

	assert.Equal(t, []string{"3", "x"}, dist.Categories)
	assert.Equal(t, 6.0, dist.Get("3").Sum)
	assert.Equal(t, 0.0, dist.Get("x").Sum)
	assert.Equal(t, 1, dist.Get("x").Count)
}

func TestMeasure_AverageSkipsNonNumericMembers(t *testing.T) {
	tbl := testkit.Table([]string{"Status", "Score"},
		[]interface{}{"Pass", 2},
		[]interface{}{"Pass", "n/a"},
		[]interface{}{"Pass", nil},
		[]interface{}{"Pass", 4},
	)

	dist, err := Measure(tbl, "Status", "Score", ModeAverage)
	require.NoError(t, err)

	acc := dist.Get("Pass")
	require.NotNil(t, acc)
	assert.Equal(t, 4, acc.Count)
	assert.Equal(t, 6.0, acc.Sum)
	assert.Equal(t, []float64{2, 4}, acc.MemberValues)
	assert.Equal(t, 3.0, acc.Average())
}

func TestMeasure_AverageOfNoNumbersIsZero(t *testing.T) {
	tbl := testkit.Table([]string{"Status"}, []interface{}{"Pass"})

	dist, err := Single(tbl, "Status", ModeAverage)
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, dist.Values())
}

func TestMeasure_MissingCellsGroupAsUndefined(t *testing.T) {
	tbl := testkit.Table([]string{"Owner", "Status"},
		[]interface{}{"ana", "Pass"},
		[]interface{}{nil, "Fail"},
		[]interface{}{"", "Fail"},
	)

	dist, err := Single(tbl, "Owner", ModeCount)
	require.NoError(t, err)
	assert.Equal(t, []string{table.UndefinedLabel, "ana"}, dist.Categories)
	assert.Equal(t, 2, dist.Get(table.UndefinedLabel).Count)
}

func TestMeasure_TotalCountMatchesRows(t *testing.T) {
	config := testkit.DefaultResultsConfig()
	tbl := testkit.NewResultsGenerator(config).Generate()

	for _, col := range testkit.ResultsSchema {
		dist, err := Single(tbl, col, ModeCount)
		require.NoError(t, err)
		assert.Equal(t, tbl.Len(), dist.TotalCount(), col)
		assert.Equal(t, len(dist.Buckets), dist.Len(), col)
	}
}

func TestMeasure_Errors(t *testing.T) {
	tbl := testkit.StatusTable()

	_, err := Single(tbl, "Nope", ModeCount)
	assert.True(t, errors.IsCode(err, errors.CodeUnknownColumn))

	_, err = Measure(tbl, "Status", "Nope", ModeSum)
	assert.True(t, errors.IsCode(err, errors.CodeUnknownColumn))
}

func TestMeasure_EmptyTable(t *testing.T) {
	dist, err := Single(&table.Table{Schema: []string{"Status"}}, "Status", ModeCount)
	require.NoError(t, err)
	assert.Equal(t, 0, dist.Len())
	assert.Empty(t, dist.Values())

	dist, err = Single(nil, "Status", ModeCount)
	require.NoError(t, err)
	assert.Equal(t, 0, dist.TotalCount())
}

func TestOrderCategories(t *testing.T) {
	tests := []struct {
		name     string
		column   string
		schema   []string
		labels   []string
		expected []string
	}{
		{
			name:     "lexicographic",
			column:   "Build",
			schema:   []string{"Build"},
			labels:   []string{"9", "10", "Undefined", "2"},
			expected: []string{"10", "2", "9", "Undefined"},
		},
		{
			name:     "chronological date column",
			column:   "Run Date",
			schema:   []string{"Run Date", "Status"},
			labels:   []string{"01/02/2024", "Undefined", "12/31/2023", "01/10/2024"},
			expected: []string{"12/31/2023", "01/02/2024", "01/10/2024", "Undefined"},
		},
		{
			name:     "unparsed labels sort after dates",
			column:   "date",
			schema:   []string{"date"},
			labels:   []string{"soon", "03/01/2024", "later"},
			expected: []string{"03/01/2024", "later", "soon"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := append([]string(nil), tt.labels...)
			assert.Equal(t, tt.expected, OrderCategories(input, tt.column, tt.schema))
			assert.Equal(t, tt.labels, input, "input is not reordered in place")
		})
	}
}

func TestSingle_DateColumnFromSerials(t *testing.T) {
	tbl := testkit.Table([]string{"Date"},
		[]interface{}{45293}, []interface{}{45292}, []interface{}{45293})

	dist, err := Single(tbl, "Date", ModeCount)
	require.NoError(t, err)
	assert.Equal(t, []string{"01/01/2024", "01/02/2024"}, dist.Categories)
	assert.Equal(t, []float64{1, 2}, dist.Values())
}

func TestCross(t *testing.T) {
	tbl := testkit.Table([]string{"Module", "Status"},
		[]interface{}{"Login", "Pass"},
		[]interface{}{"Login", "Fail"},
		[]interface{}{"Search", "Pass"},
		[]interface{}{"Login", "Pass"},
	)

	ct, err := Cross(tbl, "Module", "Status")
	require.NoError(t, err)

	assert.Equal(t, []string{"Login", "Search"}, ct.Categories)
	assert.Equal(t, []string{"Fail", "Pass"}, ct.Series)
	assert.Equal(t, [][]int{{1, 0}, {2, 1}}, ct.Counts)

	total := 0
	for _, series := range ct.Counts {
		for _, n := range series {
			total += n
		}
	}
	assert.Equal(t, tbl.Len(), total)
}

func TestCross_Errors(t *testing.T) {
	_, err := Cross(testkit.StatusTable(), "Status", "Nope")
	assert.True(t, errors.IsCode(err, errors.CodeUnknownColumn))

	ct, err := Cross(&table.Table{}, "A", "B")
	require.NoError(t, err)
	assert.Empty(t, ct.Categories)
}

func TestColumns(t *testing.T) {
	cs, err := Columns(testkit.StatusTable())
	require.NoError(t, err)

	assert.Equal(t, []string{"Pass", "Pass", "Fail"}, cs.Categories)
	assert.Equal(t, []string{"Score", "Owner"}, cs.Columns)
	assert.Equal(t, [][]float64{{3, 4, 5}, {0, 0, 0}}, cs.Values)

	_, err = Columns(testkit.Table([]string{"Only"}, []interface{}{"x"}))
	assert.True(t, errors.IsCode(err, errors.CodeInvalidInput))
}

func TestSummarize(t *testing.T) {
	tbl := testkit.Table([]string{"Status", "Score"},
		[]interface{}{"Pass", 2},
		[]interface{}{"Pass", 4},
		[]interface{}{"Pass", 9},
		[]interface{}{"Fail", "n/a"},
	)
	dist, err := Measure(tbl, "Status", "Score", ModeAverage)
	require.NoError(t, err)

	summary, err := Summarize(dist, "Pass")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Count)
	assert.Equal(t, 15.0, summary.Sum)
	assert.Equal(t, 5.0, summary.Average)
	assert.Equal(t, 4.0, summary.Median)
	assert.Equal(t, 2.0, summary.Min)
	assert.Equal(t, 9.0, summary.Max)
	assert.InDelta(t, 3.6056, summary.StdDev, 1e-4)

	empty, err := Summarize(dist, "Fail")
	require.NoError(t, err)
	assert.Equal(t, 1, empty.Count)
	assert.Equal(t, 0, empty.NumericCount)

	_, err = Summarize(dist, "Skipped")
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}
