package testkit

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"qareport/domain/table"
)

// ResultsConfig configures the synthetic test-run generator
type ResultsConfig struct {
	Rows        int       `json:"rows"`
	Modules     []string  `json:"modules"`
	FailRate    float64   `json:"fail_rate"`
	MissingRate float64   `json:"missing_rate"`
	StartDate   time.Time `json:"start_date"`
	Days        int       `json:"days"`
	Seed        int64     `json:"seed"`
}

// DefaultResultsConfig returns sensible defaults for generated test runs
func DefaultResultsConfig() ResultsConfig {
	return ResultsConfig{
		Rows:        200,
		Modules:     []string{"Checkout", "Login", "Search", "Profile"},
		FailRate:    0.2,
		MissingRate: 0.05,
		StartDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Days:        14,
		Seed:        42,
	}
}

// ResultsSchema is the column order of generated tables
var ResultsSchema = []string{"Ticket", "Module", "Status", "Duration", "Run Date"}

// ResultsGenerator produces deterministic QA result tables
type ResultsGenerator struct {
	config ResultsConfig
	rng    *rand.Rand
}

// NewResultsGenerator creates a generator seeded from the config
func NewResultsGenerator(config ResultsConfig) *ResultsGenerator {
	return &ResultsGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate builds a normalized table. Run dates are stored as date serials
// so the normalizer has to convert them.
func (g *ResultsGenerator) Generate() *table.Table {
	rows := make([][]interface{}, 0, g.config.Rows)
	for i := 0; i < g.config.Rows; i++ {
		rows = append(rows, []interface{}{
			fmt.Sprintf("QA-%04d", i+1),
			g.module(),
			g.status(),
			g.duration(),
			g.runDate(),
		})
	}
	return Table(ResultsSchema, rows...)
}

// CSV renders the same rows a Generate call with this seed would produce
func (g *ResultsGenerator) CSV() string {
	t := g.Generate()
	var b strings.Builder
	b.WriteString(strings.Join(t.Schema, ","))
	b.WriteByte('\n')
	for _, row := range t.Rows {
		for i, col := range t.Schema {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(row.Raw(col).String())
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (g *ResultsGenerator) module() interface{} {
	if g.rng.Float64() < g.config.MissingRate || len(g.config.Modules) == 0 {
		return nil
	}
	return g.config.Modules[g.rng.Intn(len(g.config.Modules))]
}

func (g *ResultsGenerator) status() string {
	if g.rng.Float64() < g.config.FailRate {
		return "Fail"
	}
	return "Pass"
}

// duration is whole seconds, occasionally replaced by a non-numeric marker
func (g *ResultsGenerator) duration() interface{} {
	if g.rng.Float64() < g.config.MissingRate {
		return "n/a"
	}
	return 5 + g.rng.Intn(120)
}

func (g *ResultsGenerator) runDate() interface{} {
	days := g.config.Days
	if days <= 0 {
		days = 1
	}
	day := g.config.StartDate.AddDate(0, 0, g.rng.Intn(days))
	return float64(day.Unix()/86400) + 25569
}
