package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"qareport/adapters/coercer"
	"qareport/adapters/echarts"
	"qareport/adapters/excel"
	"qareport/internal/export"
	"qareport/internal/report"
	"qareport/internal/session"

	"github.com/spf13/cobra"
)

// aggregateFlags are shared by the commands that build a chart
type aggregateFlags struct {
	kind   string
	group  string
	value  string
	x      string
	y      string
	mode   string
	layout string
	chart  string
}

func (f *aggregateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.kind, "report", "data", "Report kind: data, number or issue")
	cmd.Flags().StringVar(&f.group, "group", "", "Column to group by")
	cmd.Flags().StringVar(&f.value, "value", "", "Column to sum or average (defaults to the group column)")
	cmd.Flags().StringVar(&f.x, "x", "", "X column for an issue (cross-tab) report")
	cmd.Flags().StringVar(&f.y, "y", "", "Series column for an issue (cross-tab) report")
	cmd.Flags().StringVar(&f.mode, "mode", "", "Aggregation mode: count, sum or average")
	cmd.Flags().StringVar(&f.layout, "layout", "", "Chart layout: per-category or grouped")
	cmd.Flags().StringVar(&f.chart, "chart", "bar", "Chart kind: bar, line or pie")
}

// build ingests the file and applies the aggregation flags
func (f *aggregateFlags) build(path string) (session.State, error) {
	state, err := load(path, report.Kind(f.kind))
	if err != nil {
		return state, err
	}
	if f.group == "" && f.x == "" && state.Preset().Shape != report.ShapeColumns {
		return state, nil
	}
	return state.Aggregate(session.AggregateRequest{
		GroupColumn: f.group,
		ValueColumn: f.value,
		XColumn:     f.x,
		YColumn:     f.y,
		Mode:        f.mode,
		Layout:      f.layout,
		ChartKind:   f.chart,
	})
}

func load(path string, kind report.Kind) (session.State, error) {
	if _, err := report.Lookup(kind); err != nil {
		return session.State{}, err
	}
	state := session.New(kind)
	file, err := os.Open(path)
	if err != nil {
		return state, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	reader := excel.NewDataReader(excel.DefaultReaderConfig())
	return state.Ingest(reader, filepath.Base(path), file)
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show the schema and inferred column types of a CSV or XLSX file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := load(args[0], report.KindData)
			if err != nil {
				return err
			}
			return writeProfile(cmd.OutOrStdout(), state)
		},
	}
}

func writeProfile(out io.Writer, state session.State) error {
	t := state.Table
	fmt.Fprintf(out, "%s (%s): %d rows, %d columns\n\n", t.SourceName, t.Format, t.Len(), len(t.Schema))

	profiles := coercer.NewTypeCoercer(coercer.DefaultCoercionConfig()).ProfileTable(t)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tTYPE\tVALID\tUNIQUE\tNUMERIC")
	for _, p := range profiles {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.0f%%\n", p.Name, p.Analysis.RecommendedType,
			p.Analysis.ValidCount, p.Analysis.UniqueCount, p.Analysis.NumericRatio*100)
	}
	return tw.Flush()
}

func newAggregateCmd() *cobra.Command {
	var flags aggregateFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "aggregate <file>",
		Short: "Print the aggregated chart data of a file",
		Long: `Group a file by a column and print one line per category.

Example: reportctl aggregate results.csv --group Status --mode count
         reportctl aggregate issues.xlsx --report issue --x Module --y Severity`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := flags.build(args[0])
			if err != nil {
				return err
			}
			view, err := state.View()
			if err != nil {
				return err
			}
			if !view.HasChart() {
				return fmt.Errorf("nothing to aggregate: pass --group, or --x and --y with --report issue")
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(view.Dataset)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			header := "CATEGORY"
			for _, s := range view.Dataset.Datasets {
				header += "\t" + s.Label
			}
			fmt.Fprintln(tw, header)
			for i, label := range view.Dataset.Labels {
				line := label
				for _, s := range view.Dataset.Datasets {
					line += "\t"
					if i < len(s.Data) {
						line += strconv.FormatFloat(s.Data[i], 'f', -1, 64)
					}
				}
				fmt.Fprintln(tw, line)
			}
			return tw.Flush()
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the chart dataset as JSON")
	return cmd
}

func newExportCmd() *cobra.Command {
	var flags aggregateFlags
	var output, title, filterValue string

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write a self-contained HTML report",
		Long: `Write the chart and table of a file as one HTML document.

Example: reportctl export results.csv --group Status --chart pie -o status.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := flags.build(args[0])
			if err != nil {
				return err
			}
			if filterValue != "" {
				if state, err = state.SetFilter(state.Spec.FilterColumn(), filterValue); err != nil {
					return err
				}
			}
			doc, filename, err := state.Export(title, export.DefaultAssets())
			if err != nil {
				return err
			}
			if output == "" {
				output = filename
			}
			if err := os.WriteFile(output, doc, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", output, len(doc))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (defaults to report.html or number_report.html)")
	cmd.Flags().StringVar(&title, "title", "", "Document title")
	cmd.Flags().StringVar(&filterValue, "filter", "", "Only include rows whose filter column equals this value")
	return cmd
}

func newChartCmd() *cobra.Command {
	var flags aggregateFlags
	var output string

	cmd := &cobra.Command{
		Use:   "chart <file>",
		Short: "Write an interactive ECharts page for the aggregated data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := flags.build(args[0])
			if err != nil {
				return err
			}
			view, err := state.View()
			if err != nil {
				return err
			}
			if !view.HasChart() {
				return fmt.Errorf("no chart available: choose a column first")
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			defer f.Close()
			if err := echarts.Render(f, view.Dataset, state.ChartKind, echarts.Options{Title: view.Preset.Title}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "chart.html", "Output path")
	return cmd
}
