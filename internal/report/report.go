// Package report describes the report screens as data: which aggregation shape a screen
// uses, which modes it offers, and which layout and export file it defaults to.
package report

import (
	"strings"

	"qareport/internal/aggregate"
	"qareport/internal/chart"
	"qareport/internal/errors"
)

// Kind names a report preset
type Kind string

const (
	// KindData groups one column and counts, sums or averages it
	KindData Kind = "data"
	// KindIssue cross-tabulates two columns by count
	KindIssue Kind = "issue"
	// KindNumber plots the first column as labels and every other column as a series
	KindNumber Kind = "number"
)

// Shape is the aggregation shape a preset runs
type Shape string

const (
	ShapeSingle  Shape = "single"
	ShapeCross   Shape = "cross"
	ShapeColumns Shape = "columns"
)

// Preset is the per-screen configuration handed to the engine and projection
type Preset struct {
	Kind        Kind
	Title       string
	Shape       Shape
	Modes       []aggregate.Mode
	ChartKinds  []chart.Kind
	Layout      chart.Layout
	ExportFile  string
	ClickFilter bool
}

var presets = map[Kind]Preset{
	KindData: {
		Kind:        KindData,
		Title:       "Data Report",
		Shape:       ShapeSingle,
		Modes:       aggregate.Modes,
		ChartKinds:  chart.Kinds,
		Layout:      chart.LayoutPerCategory,
		ExportFile:  "report.html",
		ClickFilter: true,
	},
	KindIssue: {
		Kind:        KindIssue,
		Title:       "Issue Analysis",
		Shape:       ShapeCross,
		Modes:       []aggregate.Mode{aggregate.ModeCount},
		ChartKinds:  []chart.Kind{chart.KindBar, chart.KindLine},
		Layout:      chart.LayoutGrouped,
		ExportFile:  "report.html",
		ClickFilter: true,
	},
	KindNumber: {
		Kind:       KindNumber,
		Title:      "Number Report",
		Shape:      ShapeColumns,
		Modes:      nil,
		ChartKinds: chart.Kinds,
		Layout:     chart.LayoutGrouped,
		ExportFile: "number_report.html",
	},
}

// Lookup returns the preset for a kind; empty means data
func Lookup(kind Kind) (Preset, error) {
	if kind == "" {
		kind = KindData
	}
	p, ok := presets[Kind(strings.ToLower(string(kind)))]
	if !ok {
		return Preset{}, errors.InvalidInput("unknown report kind: " + string(kind))
	}
	return p, nil
}

// Must returns the preset for a kind, falling back to data
func Must(kind Kind) Preset {
	p, err := Lookup(kind)
	if err != nil {
		return presets[KindData]
	}
	return p
}

// Presets lists every preset in navigation order
func Presets() []Preset {
	return []Preset{presets[KindData], presets[KindNumber], presets[KindIssue]}
}

// AllowsMode reports whether the preset offers the mode
func (p Preset) AllowsMode(mode aggregate.Mode) bool {
	for _, m := range p.Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// AllowsChart reports whether the preset offers the chart kind
func (p Preset) AllowsChart(kind chart.Kind) bool {
	for _, k := range p.ChartKinds {
		if k == kind {
			return true
		}
	}
	return false
}
