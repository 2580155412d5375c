// Package echarts renders a chart dataset as an interactive ECharts page.
// Clicking an element navigates to the click URL with the series and category labels.
package echarts

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"qareport/internal/chart"
	"qareport/internal/errors"
)

// Options controls page chrome and the click callback
type Options struct {
	Title    string
	Width    string
	Height   string
	ClickURL string
}

func (o Options) withDefaults() Options {
	if o.Width == "" {
		o.Width = "1000px"
	}
	if o.Height == "" {
		o.Height = "500px"
	}
	return o
}

// renderer is what every go-echarts chart type satisfies
type renderer interface {
	Render(w io.Writer) error
}

// Render writes a standalone HTML page for the dataset
func Render(w io.Writer, ds chart.Dataset, kind chart.Kind, o Options) error {
	r, err := Build(ds, kind, o)
	if err != nil {
		return err
	}
	if err := r.Render(w); err != nil {
		return errors.Wrap(err, "failed to render chart")
	}
	return nil
}

// Build converts the dataset into a go-echarts chart of the given kind
func Build(ds chart.Dataset, kind chart.Kind, o Options) (renderer, error) {
	o = o.withDefaults()
	switch kind {
	case chart.KindBar, "":
		return buildBar(ds, o), nil
	case chart.KindLine:
		return buildLine(ds, o), nil
	case chart.KindPie:
		return buildPie(ds, o), nil
	default:
		return nil, errors.InvalidInput("unsupported chart kind: " + string(kind))
	}
}

func globalOptions(o Options) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: o.Title,
			Width:     o.Width,
			Height:    o.Height,
		}),
		charts.WithTitleOpts(opts.Title{Title: o.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom", Type: "scroll"}),
	}
}

func buildBar(ds chart.Dataset, o Options) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOptions(o)...)
	bar.SetXAxis(ds.Labels)
	for _, s := range ds.Datasets {
		data := make([]opts.BarData, len(s.Data))
		for i, v := range s.Data {
			data[i] = opts.BarData{Value: v}
			if len(s.BackgroundColor) > 1 && i < len(s.BackgroundColor) {
				data[i].ItemStyle = &opts.ItemStyle{Color: s.BackgroundColor[i]}
			}
		}
		bar.AddSeries(s.Label, data, charts.WithItemStyleOpts(itemStyle(s)))
	}
	addClickHandler(bar.AddJSFuncs, o.ClickURL)
	return bar
}

func buildLine(ds chart.Dataset, o Options) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(globalOptions(o)...)
	line.SetXAxis(ds.Labels)
	for _, s := range ds.Datasets {
		data := make([]opts.LineData, len(s.Data))
		for i, v := range s.Data {
			data[i] = opts.LineData{Value: v}
		}
		line.AddSeries(s.Label, data, charts.WithItemStyleOpts(itemStyle(s)))
	}
	addClickHandler(line.AddJSFuncs, o.ClickURL)
	return line
}

// buildPie plots one slice per category for a single series, otherwise one slice per series total
func buildPie(ds chart.Dataset, o Options) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(globalOptions(o)...)

	var data []opts.PieData
	if len(ds.Datasets) == 1 {
		s := ds.Datasets[0]
		for i, label := range ds.Labels {
			if i >= len(s.Data) {
				break
			}
			slice := opts.PieData{Name: label, Value: s.Data[i]}
			if i < len(s.BackgroundColor) {
				slice.ItemStyle = &opts.ItemStyle{Color: s.BackgroundColor[i]}
			}
			data = append(data, slice)
		}
	} else {
		for _, s := range ds.Datasets {
			total := 0.0
			for _, v := range s.Data {
				total += v
			}
			data = append(data, opts.PieData{Name: s.Label, Value: total, ItemStyle: &opts.ItemStyle{Color: first(s.BackgroundColor)}})
		}
	}

	seriesName := "Total"
	if len(ds.Labels) == 1 {
		seriesName = ds.Labels[0]
	}
	pie.AddSeries(seriesName, data).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {c}"}),
			charts.WithPieChartOpts(opts.PieChart{Radius: []string{"0%", "70%"}}),
		)
	addClickHandler(pie.AddJSFuncs, o.ClickURL)
	return pie
}

func itemStyle(s chart.Series) opts.ItemStyle {
	return opts.ItemStyle{Color: first(s.BackgroundColor), BorderColor: first(s.BorderColor)}
}

func first(p chart.Paint) string {
	if len(p) == 0 {
		return ""
	}
	return p[0]
}

// addClickHandler wires element clicks to the click URL. Pie slices are named by
// category, so the slice name is sent as both labels.
func addClickHandler(add func(...string), clickURL string) {
	if clickURL == "" {
		return
	}
	add(fmt.Sprintf(`%%MY_ECHARTS%%.on("click", function(params) {
  var series = params.seriesType === "pie" ? params.name : params.seriesName;
  var q = "series=" + encodeURIComponent(series) + "&category=" + encodeURIComponent(params.name);
  (window.top || window).location.href = %s + "?" + q;
});`, strconv.Quote(clickURL)))
}
