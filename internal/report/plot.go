// Package report renders convergence sweep results: PNG plots via
// gonum/plot for papers and quick inspection, and an HTML page via
// go-echarts for browsing. It only consumes persisted records; nothing
// here feeds back into the sweep.
package report

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/gravbench/shellbench/internal/shell"
	"github.com/gravbench/shellbench/internal/sweep"
)

// ErrorThresholdPercent is the accuracy target drawn on every convergence
// plot: 0.1% worst-case relative error.
const ErrorThresholdPercent = 0.1

// PlotDensityProfiles renders the density-vs-radius curve of each b factor
// for a unit shell anchored at the given boundary densities, one line per
// b factor, and writes a PNG to path.
func PlotDensityProfiles(bFactors []float64, densityBottom, densityTop float64, path string) error {
	p := plot.New()
	p.Title.Text = "Exponential density profiles"
	p.X.Label.Text = "Normalised radius"
	p.Y.Label.Text = "Density (kg/m³)"

	colors := generateColors(len(bFactors))
	for i, b := range bFactors {
		law, err := shell.SolveDensityLaw(0, 1, densityBottom, densityTop, b)
		if err != nil {
			return fmt.Errorf("b=%g: %w", b, err)
		}

		const samples = 101
		pts := make(plotter.XYs, samples)
		for j := 0; j < samples; j++ {
			h := float64(j) / float64(samples-1)
			pts[j] = plotter.XY{X: h, Y: law.Density(h)}
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("b=%g", b), line)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// PlotConvergence renders one log-log PNG per (field, grid) with a curve
// per b factor, each curve already reduced to the worst case over shell
// thickness. A dashed line marks the accuracy threshold. Returns the
// number of plots written.
func PlotConvergence(records []sweep.Record, outputDir string) (int, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create output dir: %w", err)
	}

	groups := groupByFieldGrid(records)
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	plotCount := 0
	for _, key := range keys {
		group := groups[key]
		if err := plotConvergenceGroup(group, filepath.Join(outputDir, key+".png")); err != nil {
			return plotCount, fmt.Errorf("group %s: %w", key, err)
		}
		plotCount++
	}
	return plotCount, nil
}

func plotConvergenceGroup(group []sweep.Record, path string) error {
	reduced, err := reducePerBFactor(group)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s / %s", group[0].Field, group[0].GridName)
	p.X.Label.Text = "δ"
	p.Y.Label.Text = "Difference (%)"
	p.X.Scale = plot.LogScale{}
	p.Y.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}

	var bFactors []float64
	for b := range reduced {
		bFactors = append(bFactors, b)
	}
	sort.Float64s(bFactors)

	colors := generateColors(len(bFactors))
	var deltaMin, deltaMax float64
	for i, b := range bFactors {
		rec := reduced[b]
		pts := make(plotter.XYs, 0, len(rec.Errors))
		for j, e := range rec.Errors {
			// NaN marks integrator instability; log plots cannot show it,
			// so the curve simply breaks there.
			if math.IsNaN(e) || e <= 0 {
				continue
			}
			pts = append(pts, plotter.XY{X: rec.DeltaValues[j], Y: e})
		}
		if len(pts) == 0 {
			continue
		}

		line, scatter, err := plotter.NewLinePoints(pts)
		if err != nil {
			return err
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		scatter.Color = colors[i]
		p.Add(line, scatter)
		p.Legend.Add(fmt.Sprintf("b=%g", b), line)

		if deltaMin == 0 || rec.DeltaValues[0] < deltaMin {
			deltaMin = rec.DeltaValues[0]
		}
		if last := rec.DeltaValues[len(rec.DeltaValues)-1]; last > deltaMax {
			deltaMax = last
		}
	}

	if deltaMin > 0 && deltaMax > deltaMin {
		threshold, err := plotter.NewLine(plotter.XYs{
			{X: deltaMin, Y: ErrorThresholdPercent},
			{X: deltaMax, Y: ErrorThresholdPercent},
		})
		if err != nil {
			return err
		}
		threshold.Color = color.Black
		threshold.Width = vg.Points(0.5)
		threshold.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
		p.Add(threshold)
	}

	return p.Save(5*vg.Inch, 5*vg.Inch, path)
}

// groupByFieldGrid buckets records under "field-grid" keys.
func groupByFieldGrid(records []sweep.Record) map[string][]sweep.Record {
	groups := make(map[string][]sweep.Record)
	for _, r := range records {
		key := fmt.Sprintf("%s-%s", r.Field, r.GridName)
		groups[key] = append(groups[key], r)
	}
	return groups
}

// reducePerBFactor reduces a (field, grid) group to one worst-case curve
// per b factor across all thicknesses.
func reducePerBFactor(group []sweep.Record) (map[float64]sweep.Record, error) {
	byB := make(map[float64][]sweep.Record)
	for _, r := range group {
		byB[r.BFactor] = append(byB[r.BFactor], r)
	}

	reduced := make(map[float64]sweep.Record, len(byB))
	for b, recs := range byB {
		rec, err := sweep.ReduceMaxAcross(recs)
		if err != nil {
			return nil, fmt.Errorf("b=%g: %w", b, err)
		}
		reduced[b] = rec
	}
	return reduced, nil
}

// generateColors returns n visually distinct colors spread around the hue wheel.
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}

	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64

	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}

	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
