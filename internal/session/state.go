// Package session owns the report state of one user: the ingested table, the
// aggregation choice, the chart settings and the filter. Each user action is an
// intent that returns a new State; derived data is recomputed by View.
package session

import (
	"io"
	"strings"

	"qareport/domain/table"
	"qareport/internal/aggregate"
	"qareport/internal/chart"
	"qareport/internal/errors"
	"qareport/internal/export"
	"qareport/internal/filter"
	"qareport/internal/report"
)

// Ingester turns an uploaded file into a Table
type Ingester interface {
	Ingest(filename string, src io.Reader) (*table.Table, error)
}

// State is the (Table, Spec, Layout, ChartKind, Filter) tuple of one session
type State struct {
	Kind      report.Kind    `json:"kind"`
	Table     *table.Table   `json:"-"`
	Spec      aggregate.Spec `json:"spec"`
	Layout    chart.Layout   `json:"layout"`
	ChartKind chart.Kind     `json:"chart_kind"`
	Filter    filter.State   `json:"filter"`
	Notice    string         `json:"notice,omitempty"`
}

// New returns an empty state for a report kind
func New(kind report.Kind) State {
	p := report.Must(kind)
	return State{Kind: p.Kind, Layout: p.Layout, ChartKind: chart.KindBar}
}

// Preset returns the report preset of the state
func (s State) Preset() report.Preset {
	return report.Must(s.Kind)
}

// HasTable reports whether a file has been ingested
func (s State) HasTable() bool {
	return s.Table != nil
}

// Ingest reads a file and replaces the table; on failure the state is returned unchanged
func (s State) Ingest(ing Ingester, filename string, src io.Reader) (State, error) {
	t, err := ing.Ingest(filename, src)
	if err != nil {
		return s, err
	}
	return s.WithTable(t), nil
}

// WithTable replaces the table wholesale and resets everything derived from the old one
func (s State) WithTable(t *table.Table) State {
	next := New(s.Kind)
	next.Table = t
	next.ChartKind = s.ChartKind
	return next
}

// WithKind switches the report screen, keeping the table but not the aggregation
func (s State) WithKind(kind report.Kind) (State, error) {
	p, err := report.Lookup(kind)
	if err != nil {
		return s, err
	}
	next := New(p.Kind)
	next.Table = s.Table
	if p.AllowsChart(s.ChartKind) {
		next.ChartKind = s.ChartKind
	}
	return next, nil
}

// WithNotice records a message to show the user
func (s State) WithNotice(msg string) State {
	s.Notice = msg
	return s
}

// AggregateRequest is the user's aggregation choice. Empty Layout and ChartKind keep defaults.
type AggregateRequest struct {
	GroupColumn string `json:"group_column" form:"group"`
	ValueColumn string `json:"value_column" form:"value"`
	XColumn     string `json:"x_column" form:"x"`
	YColumn     string `json:"y_column" form:"y"`
	Mode        string `json:"mode" form:"mode"`
	Layout      string `json:"layout" form:"layout"`
	ChartKind   string `json:"chart_kind" form:"kind"`
}

// Aggregate applies a new aggregation choice. A change of the filter column clears the filter.
func (s State) Aggregate(req AggregateRequest) (State, error) {
	if !s.HasTable() {
		return s, errors.ValidationError("upload a file before choosing columns")
	}
	p := s.Preset()

	spec := aggregate.Spec{
		GroupColumn: strings.TrimSpace(req.GroupColumn),
		ValueColumn: strings.TrimSpace(req.ValueColumn),
		XColumn:     strings.TrimSpace(req.XColumn),
		YColumn:     strings.TrimSpace(req.YColumn),
	}
	if req.Mode != "" {
		mode, err := aggregate.ParseMode(req.Mode)
		if err != nil {
			return s, err
		}
		if !p.AllowsMode(mode) {
			return s, errors.InvalidInput("mode " + string(mode) + " is not available for " + p.Title)
		}
		spec.Mode = mode
	}

	switch p.Shape {
	case report.ShapeCross:
		spec.GroupColumn, spec.ValueColumn, spec.Mode = "", "", aggregate.ModeCount
		if spec.XColumn == "" || spec.YColumn == "" {
			return s, errors.ValidationError("choose both an X and a Y column")
		}
	case report.ShapeSingle:
		spec.XColumn, spec.YColumn = "", ""
	default:
		spec = aggregate.Spec{}
	}
	for _, col := range []string{spec.GroupColumn, spec.ValueColumn, spec.XColumn, spec.YColumn} {
		if col == "" {
			continue
		}
		if err := s.Table.RequireColumn(col); err != nil {
			return s, err
		}
	}

	layout := p.Layout
	if p.Shape == report.ShapeSingle {
		layout = chart.DefaultLayout(spec.Mode != "")
		var err error
		if layout, err = chart.ParseLayout(req.Layout, layout); err != nil {
			return s, err
		}
	}

	kind := s.ChartKind
	if req.ChartKind != "" {
		k, err := chart.ParseKind(req.ChartKind)
		if err != nil {
			return s, err
		}
		kind = k
	}
	if !p.AllowsChart(kind) {
		return s, errors.InvalidInput("chart kind " + string(kind) + " is not available for " + p.Title)
	}

	next := s
	next.Notice = ""
	next.Spec = spec
	next.Layout = layout
	next.ChartKind = kind
	if spec.FilterColumn() != s.Spec.FilterColumn() {
		next.Filter.Clear()
	}
	return next, nil
}

// SetFilter pins a column to a value
func (s State) SetFilter(column, value string) (State, error) {
	if !s.HasTable() {
		return s, errors.ValidationError("upload a file before filtering")
	}
	if err := s.Table.RequireColumn(column); err != nil {
		return s, err
	}
	next := s
	next.Notice = ""
	next.Filter.Set(column, value)
	return next, nil
}

// Click filters on the element the user clicked, identified by its series and category labels
func (s State) Click(seriesLabel, categoryLabel string) (State, error) {
	column := s.Spec.FilterColumn()
	if column == "" || !s.Preset().ClickFilter {
		return s, errors.ValidationError("chart clicks filter only after a column is chosen")
	}
	return s.SetFilter(column, chart.FilterValue(seriesLabel, categoryLabel, s.Layout))
}

// ClickAt filters on the element at a series and category position of the current chart
func (s State) ClickAt(c chart.Click) (State, error) {
	v, err := s.View()
	if err != nil {
		return s, err
	}
	series, category, err := v.Dataset.Resolve(c)
	if err != nil {
		return s, err
	}
	return s.Click(series, category)
}

// ClearFilter removes the active filter
func (s State) ClearFilter() State {
	s.Filter.Clear()
	s.Notice = ""
	return s
}

// View is everything derived from a State for rendering
type View struct {
	Preset        report.Preset
	Mode          aggregate.Mode
	Distribution  *aggregate.Distribution
	CrossTab      *aggregate.CrossTab
	Dataset       chart.Dataset
	Rows          []table.Row
	FilterOptions []string
}

// HasChart reports whether there is a chart to render
func (v View) HasChart() bool {
	return !v.Dataset.IsEmpty()
}

// View recomputes distribution, chart dataset and filtered rows from the state
func (s State) View() (View, error) {
	v := View{Preset: s.Preset(), Mode: s.Spec.Mode}
	if v.Mode == "" {
		v.Mode = aggregate.ModeCount
	}
	if !s.HasTable() {
		return v, nil
	}

	switch v.Preset.Shape {
	case report.ShapeCross:
		if s.Spec.IsCross() {
			ct, err := aggregate.Cross(s.Table, s.Spec.XColumn, s.Spec.YColumn)
			if err != nil {
				return v, err
			}
			v.CrossTab = ct
			v.Dataset = chart.ProjectCross(ct)
		}
	case report.ShapeColumns:
		if len(s.Table.Schema) >= 2 {
			cs, err := aggregate.Columns(s.Table)
			if err != nil {
				return v, err
			}
			v.Dataset = chart.ProjectColumns(cs)
		}
	default:
		if s.Spec.GroupColumn != "" {
			value := s.Spec.ValueColumn
			if value == "" {
				value = s.Spec.GroupColumn
			}
			dist, err := aggregate.Measure(s.Table, s.Spec.GroupColumn, value, v.Mode)
			if err != nil {
				return v, err
			}
			v.Distribution = dist
			v.Dataset = chart.Project(dist, s.Layout)
		}
	}

	rows, err := s.Filter.Apply(s.Table)
	if err != nil {
		return v, err
	}
	v.Rows = rows

	if column := s.Spec.FilterColumn(); column != "" {
		opts, err := filter.Options(s.Table, column)
		if err != nil {
			return v, err
		}
		v.FilterOptions = opts
	}
	return v, nil
}

// Export renders the report document with the rows the live filter shows, and names the download
func (s State) Export(title string, assets export.Assets) ([]byte, string, error) {
	if !s.HasTable() {
		return nil, "", errors.ValidationError("upload a file before exporting")
	}
	v, err := s.View()
	if err != nil {
		return nil, "", err
	}
	if title == "" || title == export.DefaultTitle {
		title = v.Preset.Title
	}
	doc, err := export.HTML(export.Input{
		Table:     s.Table,
		Rows:      v.Rows,
		Dataset:   v.Dataset,
		ChartKind: s.ChartKind,
		Spec:      s.Spec,
		Layout:    s.Layout,
		Title:     title,
		Variant:   s.Kind,
		Assets:    assets,
	})
	if err != nil {
		return nil, "", err
	}
	return doc, v.Preset.ExportFile, nil
}
