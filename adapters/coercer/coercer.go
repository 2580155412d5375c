package coercer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"qareport/domain/table"
)

// numericToken matches plain decimal numbers with an optional exponent.
// Currency, thousands separators, and hex are left as strings.
var numericToken = regexp.MustCompile(`^\s*-?(\d+\.?|\.\d+|\d+\.\d+)([eE][-+]?\d+)?\s*$`)

// isoTimestampToken matches full ISO-8601 timestamps that carry a zone
var isoTimestampToken = regexp.MustCompile(`^\d{4}-[01]\d-[0-3]\dT[0-2]\d:[0-5]\d(:[0-5]\d(\.\d+)?)?([+-][0-2]\d:[0-5]\d|Z)$`)

// maxSafeInteger bounds integers that survive a float64 round trip
const maxSafeInteger = 1<<53 - 1

// TypeCoercer decodes delimited-text tokens into typed cell values
type TypeCoercer struct {
	config CoercionConfig
}

// CoercionConfig defines the coercion rules
type CoercionConfig struct {
	DynamicTyping      bool    `json:"dynamic_typing"`      // Decode numbers, booleans, and ISO timestamps
	NumericThreshold   float64 `json:"numeric_threshold"`   // % of values that must be numbers
	BooleanThreshold   float64 `json:"boolean_threshold"`   // % of values that must be booleans
	TimestampThreshold float64 `json:"timestamp_threshold"` // % of values that must be dates
	MaxCategories      int     `json:"max_categories"`      // Cardinality bound for categorical columns
}

// DefaultCoercionConfig returns sensible defaults
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		DynamicTyping:      true,
		NumericThreshold:   0.8,
		BooleanThreshold:   0.9,
		TimestampThreshold: 0.8,
		MaxCategories:      20,
	}
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	return &TypeCoercer{config: config}
}

// CoerceToken converts a raw text token to a typed value.
// Empty tokens are missing; with dynamic typing off every other token is a string.
func (c *TypeCoercer) CoerceToken(token string) table.Value {
	if token == "" {
		return table.NewMissingValue()
	}
	if !c.config.DynamicTyping {
		return table.NewStringValue(token)
	}

	if boolVal, ok := c.tryParseBoolean(token); ok {
		return boolVal
	}
	if numericVal, ok := c.tryParseNumeric(token); ok {
		return numericVal
	}
	if tsVal, ok := c.tryParseTimestamp(token); ok {
		return tsVal
	}
	return table.NewStringValue(token)
}

// tryParseBoolean accepts only the exact spellings true/TRUE/false/FALSE
func (c *TypeCoercer) tryParseBoolean(token string) (table.Value, bool) {
	switch token {
	case "true", "TRUE":
		return table.NewBooleanValue(true), true
	case "false", "FALSE":
		return table.NewBooleanValue(false), true
	}
	return table.Value{}, false
}

// tryParseNumeric parses numeric-looking tokens; integers beyond 2^53 stay strings
func (c *TypeCoercer) tryParseNumeric(token string) (table.Value, bool) {
	if !numericToken.MatchString(token) {
		return table.Value{}, false
	}
	val, err := strconv.ParseFloat(strings.TrimSpace(token), 64)
	if err != nil || math.IsInf(val, 0) || math.IsNaN(val) {
		return table.Value{}, false
	}
	if val == math.Trunc(val) && math.Abs(val) > maxSafeInteger {
		return table.Value{}, false
	}
	return table.NewNumericValue(val), true
}

// tryParseTimestamp decodes zoned ISO-8601 timestamps into native dates
func (c *TypeCoercer) tryParseTimestamp(token string) (table.Value, bool) {
	if !isoTimestampToken.MatchString(token) {
		return table.Value{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04Z07:00"} {
		if t, err := time.Parse(layout, token); err == nil {
			return table.NewTimestampValue(t.UTC()), true
		}
	}
	return table.Value{}, false
}

// AnalyzeTypeDistribution summarizes the raw types found in a column sample
func (c *TypeCoercer) AnalyzeTypeDistribution(values []table.Value) TypeAnalysis {
	analysis := TypeAnalysis{
		TotalCount: len(values),
	}

	unique := make(map[string]struct{})
	for _, val := range values {
		if val.IsMissing() {
			continue
		}
		analysis.ValidCount++
		unique[val.String()] = struct{}{}

		switch val.Type {
		case table.ValueTypeNumeric:
			analysis.NumericCount++
		case table.ValueTypeBoolean:
			analysis.BooleanCount++
		case table.ValueTypeTimestamp:
			analysis.TimestampCount++
		}
	}
	analysis.UniqueCount = len(unique)

	if analysis.ValidCount > 0 {
		analysis.NumericRatio = float64(analysis.NumericCount) / float64(analysis.ValidCount)
		analysis.BooleanRatio = float64(analysis.BooleanCount) / float64(analysis.ValidCount)
		analysis.TimestampRatio = float64(analysis.TimestampCount) / float64(analysis.ValidCount)
	}

	analysis.RecommendedType = c.determineRecommendedType(analysis)
	return analysis
}

// determineRecommendedType chooses the best type based on analysis
func (c *TypeCoercer) determineRecommendedType(analysis TypeAnalysis) ColumnType {
	if analysis.ValidCount == 0 {
		return ColumnTypeEmpty
	}
	if analysis.NumericRatio >= c.config.NumericThreshold {
		return ColumnTypeNumeric
	}
	if analysis.BooleanRatio >= c.config.BooleanThreshold {
		return ColumnTypeBoolean
	}
	if analysis.TimestampRatio >= c.config.TimestampThreshold {
		return ColumnTypeDate
	}
	if analysis.UniqueCount <= c.config.MaxCategories {
		return ColumnTypeCategorical
	}
	return ColumnTypeString
}

// ColumnType is the inferred type of a whole column
type ColumnType string

const (
	ColumnTypeNumeric     ColumnType = "numeric"
	ColumnTypeBoolean     ColumnType = "boolean"
	ColumnTypeDate        ColumnType = "date"
	ColumnTypeCategorical ColumnType = "categorical"
	ColumnTypeString      ColumnType = "string"
	ColumnTypeEmpty       ColumnType = "empty"
)

// TypeAnalysis contains the results of type distribution analysis
type TypeAnalysis struct {
	TotalCount      int        `json:"total_count"`
	ValidCount      int        `json:"valid_count"`
	UniqueCount     int        `json:"unique_count"`
	NumericCount    int        `json:"numeric_count"`
	BooleanCount    int        `json:"boolean_count"`
	TimestampCount  int        `json:"timestamp_count"`
	NumericRatio    float64    `json:"numeric_ratio"`
	BooleanRatio    float64    `json:"boolean_ratio"`
	TimestampRatio  float64    `json:"timestamp_ratio"`
	RecommendedType ColumnType `json:"recommended_type"`
}

// ColumnProfile pairs a schema column with its type analysis
type ColumnProfile struct {
	Name     string       `json:"name"`
	Analysis TypeAnalysis `json:"analysis"`
}

// ProfileTable analyzes every schema column of a table using raw values
func (c *TypeCoercer) ProfileTable(t *table.Table) []ColumnProfile {
	if t == nil {
		return nil
	}
	profiles := make([]ColumnProfile, 0, len(t.Schema))
	for _, col := range t.Schema {
		values := make([]table.Value, 0, len(t.Rows))
		for _, row := range t.Rows {
			values = append(values, row.Raw(col))
		}
		profiles = append(profiles, ColumnProfile{
			Name:     col,
			Analysis: c.AnalyzeTypeDistribution(values),
		})
	}
	return profiles
}
