package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/gravbench/shellbench/internal/sweep"
)

// WriteHTMLReport renders every (field, grid) convergence group as an
// ECharts line chart on a single HTML page for browser viewing. The PNG
// plots remain the canonical output; this is the quick-look version.
func WriteHTMLReport(records []sweep.Record, path string) error {
	if len(records) == 0 {
		return fmt.Errorf("no records to report")
	}

	groups := groupByFieldGrid(records)
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	page := components.NewPage()
	page.PageTitle = "Convergence report"

	for _, key := range keys {
		chart, err := convergenceChart(key, groups[key])
		if err != nil {
			return fmt.Errorf("group %s: %w", key, err)
		}
		page.AddCharts(chart)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	return page.Render(f)
}

func convergenceChart(title string, group []sweep.Record) (*charts.Line, error) {
	reduced, err := reducePerBFactor(group)
	if err != nil {
		return nil, err
	}

	var bFactors []float64
	for b := range reduced {
		bFactors = append(bFactors, b)
	}
	sort.Float64s(bFactors)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: "worst-case relative error vs control value"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "δ"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Difference (%)", Type: "log"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	deltas := reduced[bFactors[0]].DeltaValues
	xLabels := make([]string, len(deltas))
	for i, d := range deltas {
		xLabels[i] = fmt.Sprintf("%g", d)
	}
	line.SetXAxis(xLabels)

	for _, b := range bFactors {
		rec := reduced[b]
		data := make([]opts.LineData, len(rec.Errors))
		for i, e := range rec.Errors {
			if math.IsNaN(e) {
				// ECharts renders "-" as a gap, keeping failures visible
				// as holes in the curve rather than dropped samples.
				data[i] = opts.LineData{Value: "-"}
				continue
			}
			data[i] = opts.LineData{Value: e}
		}
		line.AddSeries(fmt.Sprintf("b=%g", b), data)
	}

	line.SetSeriesOptions(charts.WithMarkLineNameYAxisItemOpts(opts.MarkLineNameYAxisItem{
		Name:  "0.1% threshold",
		YAxis: ErrorThresholdPercent,
	}))

	return line, nil
}
