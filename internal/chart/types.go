package chart

import (
	"encoding/json"
	"strings"

	"qareport/internal/errors"
)

// Kind is the chart shape handed to the renderer
type Kind string

const (
	KindBar  Kind = "bar"
	KindLine Kind = "line"
	KindPie  Kind = "pie"
)

// Kinds lists the supported chart kinds in display order
var Kinds = []Kind{KindBar, KindPie, KindLine}

// ParseKind parses a chart kind case-insensitively; empty means bar
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "bar":
		return KindBar, nil
	case "line":
		return KindLine, nil
	case "pie":
		return KindPie, nil
	default:
		return "", errors.InvalidInput("unsupported chart kind: " + s)
	}
}

// Layout decides how a single-dimension distribution is laid out as series
type Layout string

const (
	// LayoutPerCategory plots one series per category, each holding a single value,
	// over a single x tick named after the group column. Clicks filter on the series label.
	LayoutPerCategory Layout = "per-category"
	// LayoutGrouped plots one series with one value per category.
	// Clicks filter on the category (x tick) label.
	LayoutGrouped Layout = "grouped"
)

// DefaultLayout is per-category until the user picks an aggregation mode
func DefaultLayout(modeRequested bool) Layout {
	if modeRequested {
		return LayoutGrouped
	}
	return LayoutPerCategory
}

// ParseLayout parses a layout name; empty returns the fallback
func ParseLayout(s string, fallback Layout) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return fallback, nil
	case string(LayoutPerCategory), "per_category", "category":
		return LayoutPerCategory, nil
	case string(LayoutGrouped), "single":
		return LayoutGrouped, nil
	default:
		return "", errors.InvalidInput("unsupported chart layout: " + s)
	}
}

// Paint is a series color option: one color for the series, or one per point.
// It serializes as a JSON string when it holds a single color.
type Paint []string

func (p Paint) MarshalJSON() ([]byte, error) {
	if len(p) == 1 {
		return json.Marshal(p[0])
	}
	return json.Marshal([]string(p))
}

func (p *Paint) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*p = nil
		return nil
	}
	var single string
	if err := json.Unmarshal(b, &single); err == nil {
		*p = Paint{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*p = Paint(many)
	return nil
}

// Series is one named run of values aligned to the dataset categories
type Series struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BackgroundColor Paint     `json:"backgroundColor"`
	BorderColor     Paint     `json:"borderColor"`
	BorderWidth     int       `json:"borderWidth"`
}

// Dataset is the renderer-agnostic chart input: named series over named categories.
// The JSON shape is the one Chart.js consumes as chart data.
type Dataset struct {
	Labels   []string `json:"labels"`
	Datasets []Series `json:"datasets"`
}

// IsEmpty reports whether there is nothing to plot
func (d Dataset) IsEmpty() bool {
	return len(d.Datasets) == 0 || len(d.Labels) == 0
}

// Click identifies a plotted element by series and category position
type Click struct {
	SeriesIndex   int `json:"series_index" form:"series_index"`
	CategoryIndex int `json:"category_index" form:"category_index"`
}
