package echarts

import (
	"bytes"
	"testing"

	"qareport/internal/aggregate"
	"qareport/internal/chart"
	"qareport/internal/errors"
	"qareport/internal/testkit"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusDataset(t *testing.T, layout chart.Layout) chart.Dataset {
	t.Helper()
	dist, err := aggregate.Single(testkit.StatusTable(), "Status", aggregate.ModeCount)
	require.NoError(t, err)
	return chart.Project(dist, layout)
}

func TestRender(t *testing.T) {
	ds := statusDataset(t, chart.LayoutPerCategory)

	for _, kind := range chart.Kinds {
		t.Run(string(kind), func(t *testing.T) {
			var buf bytes.Buffer
			err := Render(&buf, ds, kind, Options{Title: "Status", ClickURL: "/report/click"})
			require.NoError(t, err)

			page := buf.String()
			assert.Contains(t, page, "echarts.min.js")
			assert.Contains(t, page, `"Pass"`)
			assert.Contains(t, page, `"Fail"`)
			assert.Contains(t, page, `"/report/click"`)
			assert.Contains(t, page, "1000px")
		})
	}
}

func TestRender_NoClickURL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, statusDataset(t, chart.LayoutGrouped), chart.KindBar, Options{}))
	assert.NotContains(t, buf.String(), `.on("click"`)
}

func TestBuild_UnknownKind(t *testing.T) {
	_, err := Build(chart.Dataset{}, "radar", Options{})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidInput))
}

func TestBuild_EmptyKindIsBar(t *testing.T) {
	r, err := Build(statusDataset(t, chart.LayoutGrouped), "", Options{})
	require.NoError(t, err)
	_, ok := r.(*charts.Bar)
	assert.True(t, ok)
}

func TestBuildPie(t *testing.T) {
	grouped := buildPie(statusDataset(t, chart.LayoutGrouped), Options{}.withDefaults())
	require.Len(t, grouped.MultiSeries, 1)
	assert.Len(t, grouped.MultiSeries[0].Data, 2)

	perCategory := buildPie(statusDataset(t, chart.LayoutPerCategory), Options{}.withDefaults())
	require.Len(t, perCategory.MultiSeries, 1)
	assert.Equal(t, "Status", perCategory.MultiSeries[0].Name)
	assert.Len(t, perCategory.MultiSeries[0].Data, 2)
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{Width: "640px"}.withDefaults()
	assert.Equal(t, "640px", o.Width)
	assert.Equal(t, "500px", o.Height)
}
