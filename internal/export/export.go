// Package export renders a report as one self-contained HTML document.
//
// The document embeds the chart dataset as JSON and the table as markup. Only two
// assets load by URL when the file is opened: a font stylesheet and the Chart.js script.
// The embedded filter box matches case-insensitive substrings of the filter column,
// which is looser than the exact match the live report uses.
package export

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"strings"

	"qareport/domain/table"
	"qareport/internal/aggregate"
	"qareport/internal/chart"
	"qareport/internal/errors"
	"qareport/internal/report"
)

const (
	DefaultFontStylesheetURL = "https://fonts.googleapis.com/css2?family=Poppins:wght@300;400;500;600;700&display=swap"
	DefaultChartScriptURL    = "https://cdn.jsdelivr.net/npm/chart.js"
	DefaultTitle             = "Data Report"

	chartDataOpen  = `<script id="chartData" type="application/json">`
	chartDataClose = `</script>`
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var reportTemplate = template.Must(template.ParseFS(templateFS, "templates/report.html.tmpl"))

// Assets are the two URLs the exported document loads at view time
type Assets struct {
	FontStylesheetURL string
	ChartScriptURL    string
}

// DefaultAssets returns the public font and Chart.js URLs
func DefaultAssets() Assets {
	return Assets{FontStylesheetURL: DefaultFontStylesheetURL, ChartScriptURL: DefaultChartScriptURL}
}

// Input is everything the exporter needs; Rows defaults to every table row
type Input struct {
	Table     *table.Table
	Rows      []table.Row
	Dataset   chart.Dataset
	ChartKind chart.Kind
	Spec      aggregate.Spec
	Layout    chart.Layout
	Title     string
	Variant   report.Kind
	Assets    Assets
}

type document struct {
	Title             string
	FontStylesheetURL string
	ChartScriptURL    string
	HasChart          bool
	ChartJSON         template.JS
	ChartKind         string
	ClickTarget       string
	FilterColumn      string
	FilterColIndex    int
	Headers           []string
	Rows              [][]string
}

// HTML renders the report document
func HTML(in Input) ([]byte, error) {
	if in.Table == nil {
		in.Table = &table.Table{}
	}
	if in.Rows == nil {
		in.Rows = in.Table.Rows
	}
	if in.Title == "" {
		in.Title = DefaultTitle
	}
	if in.Assets.FontStylesheetURL == "" {
		in.Assets.FontStylesheetURL = DefaultFontStylesheetURL
	}
	if in.Assets.ChartScriptURL == "" {
		in.Assets.ChartScriptURL = DefaultChartScriptURL
	}
	kind := in.ChartKind
	if kind == "" {
		kind = chart.KindBar
	}

	doc := document{
		Title:             in.Title,
		FontStylesheetURL: in.Assets.FontStylesheetURL,
		ChartScriptURL:    in.Assets.ChartScriptURL,
		ChartKind:         string(kind),
		ClickTarget:       "category",
		FilterColIndex:    -1,
		Headers:           in.Table.Schema,
		Rows:              in.Table.DisplayRows(in.Rows),
	}
	if in.Layout == chart.LayoutPerCategory {
		doc.ClickTarget = "series"
	}

	if column := in.Spec.FilterColumn(); column != "" {
		idx := in.Table.ColumnIndex(column)
		if idx < 0 {
			return nil, errors.UnknownColumn(column)
		}
		doc.FilterColumn = column
		doc.FilterColIndex = idx
		doc.HasChart = true
	} else if in.Variant == report.KindNumber {
		doc.HasChart = !in.Dataset.IsEmpty()
	}

	if doc.HasChart {
		data, err := json.Marshal(in.Dataset)
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode chart data")
		}
		doc.ChartJSON = template.JS(data)
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, doc); err != nil {
		return nil, errors.Wrap(err, "failed to render report")
	}
	return buf.Bytes(), nil
}

// ParseChartData extracts the embedded chart dataset from an exported document
func ParseChartData(doc []byte) (chart.Dataset, error) {
	s := string(doc)
	start := strings.Index(s, chartDataOpen)
	if start < 0 {
		return chart.Dataset{}, errors.NotFound("chart data")
	}
	s = s[start+len(chartDataOpen):]
	end := strings.Index(s, chartDataClose)
	if end < 0 {
		return chart.Dataset{}, errors.InvalidInput("unterminated chart data")
	}

	var ds chart.Dataset
	if err := json.Unmarshal([]byte(s[:end]), &ds); err != nil {
		return chart.Dataset{}, errors.Wrap(errors.InvalidInput(err.Error()), "failed to decode chart data")
	}
	return ds, nil
}

// Filename is the download name for a report variant
func Filename(variant report.Kind) string {
	return report.Must(variant).ExportFile
}
