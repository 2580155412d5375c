package chart

import (
	"fmt"
	"strconv"
	"strings"

	"qareport/internal/aggregate"
	"qareport/internal/errors"
)

// Project maps a single-dimension distribution onto series using the layout
func Project(dist *aggregate.Distribution, layout Layout) Dataset {
	if dist == nil || dist.Len() == 0 {
		return Dataset{Labels: []string{}, Datasets: []Series{}}
	}
	values := dist.Values()

	if layout == LayoutGrouped {
		n := len(dist.Categories)
		fills := make(Paint, n)
		borders := make(Paint, n)
		for i := range dist.Categories {
			fills[i], borders[i] = Colors(i, n)
		}
		return Dataset{
			Labels: append([]string(nil), dist.Categories...),
			Datasets: []Series{{
				Label:           SeriesLabel(dist.Mode),
				Data:            values,
				BackgroundColor: fills,
				BorderColor:     borders,
				BorderWidth:     1,
			}},
		}
	}

	n := len(dist.Categories)
	series := make([]Series, 0, n)
	for i, category := range dist.Categories {
		fill, border := Colors(i, n)
		series = append(series, Series{
			Label:           category,
			Data:            []float64{values[i]},
			BackgroundColor: Paint{fill},
			BorderColor:     Paint{border},
			BorderWidth:     1,
		})
	}
	return Dataset{Labels: []string{dist.Column}, Datasets: series}
}

// ProjectCross maps a cross-tabulation: one series per y category over the x categories
func ProjectCross(ct *aggregate.CrossTab) Dataset {
	if ct == nil || len(ct.Categories) == 0 {
		return Dataset{Labels: []string{}, Datasets: []Series{}}
	}
	n := len(ct.Series)
	series := make([]Series, 0, n)
	for i, label := range ct.Series {
		data := make([]float64, len(ct.Categories))
		for j, count := range ct.Counts[i] {
			data[j] = float64(count)
		}
		fill, border := Colors(i, n)
		series = append(series, Series{
			Label:           label,
			Data:            data,
			BackgroundColor: Paint{fill},
			BorderColor:     Paint{border},
			BorderWidth:     1,
		})
	}
	return Dataset{Labels: append([]string(nil), ct.Categories...), Datasets: series}
}

// ProjectColumns maps a number-report column projection: one series per value column
func ProjectColumns(cs *aggregate.ColumnSeries) Dataset {
	if cs == nil || len(cs.Categories) == 0 {
		return Dataset{Labels: []string{}, Datasets: []Series{}}
	}
	// hues are spread over every schema column, label column included
	n := len(cs.Columns) + 1
	series := make([]Series, 0, len(cs.Columns))
	for i, col := range cs.Columns {
		fill, border := Colors(i, n)
		series = append(series, Series{
			Label:           col,
			Data:            append([]float64(nil), cs.Values[i]...),
			BackgroundColor: Paint{fill},
			BorderColor:     Paint{border},
			BorderWidth:     1,
		})
	}
	return Dataset{Labels: append([]string(nil), cs.Categories...), Datasets: series}
}

// Colors returns the fill and border color of series i of n, evenly spaced in hue
func Colors(i, n int) (fill, border string) {
	if n <= 0 {
		n = 1
	}
	hue := strconv.FormatFloat(float64(i)*360/float64(n), 'f', -1, 64)
	return fmt.Sprintf("hsla(%s, 70%%, 50%%, 0.5)", hue), fmt.Sprintf("hsla(%s, 70%%, 40%%, 1)", hue)
}

// SeriesLabel names the single series of a grouped layout after its mode
func SeriesLabel(mode aggregate.Mode) string {
	if mode == "" {
		mode = aggregate.ModeCount
	}
	s := string(mode)
	return strings.ToUpper(s[:1]) + s[1:]
}

// FilterValue picks the value a click filters on: the series label under the
// per-category layout, the category (x tick) label otherwise
func FilterValue(seriesLabel, categoryLabel string, layout Layout) string {
	if layout == LayoutPerCategory {
		return seriesLabel
	}
	return categoryLabel
}

// Resolve turns a positional click into the series and category labels it hit
func (d Dataset) Resolve(c Click) (seriesLabel, categoryLabel string, err error) {
	if c.SeriesIndex < 0 || c.SeriesIndex >= len(d.Datasets) {
		return "", "", errors.InvalidInput(fmt.Sprintf("series index %d out of range", c.SeriesIndex))
	}
	if c.CategoryIndex < 0 || c.CategoryIndex >= len(d.Labels) {
		return "", "", errors.InvalidInput(fmt.Sprintf("category index %d out of range", c.CategoryIndex))
	}
	return d.Datasets[c.SeriesIndex].Label, d.Labels[c.CategoryIndex], nil
}
