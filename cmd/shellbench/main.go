// Command shellbench sweeps a numerical tesseroid integrator against the
// closed-form spherical shell solution and renders convergence plots.
//
// The integrator is an external HTTP service; everything else (shell
// models, ground truth, persistence, plots) is local. Results accumulate
// in a sqlite database so an interrupted sweep picks up where it stopped.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gravbench/shellbench/internal/mesher"
	"github.com/gravbench/shellbench/internal/monitoring"
	"github.com/gravbench/shellbench/internal/report"
	"github.com/gravbench/shellbench/internal/storage/sqlite"
	"github.com/gravbench/shellbench/internal/sweep"
	"github.com/gravbench/shellbench/internal/units"
	"github.com/gravbench/shellbench/internal/version"
)

func main() {
	dbPath := flag.String("db", "shellbench.db", "Path to the sqlite results database")
	integratorURL := flag.String("integrator", "http://localhost:8000", "Base URL of the numerical integrator service")
	fieldsFlag := flag.String("fields", "potential,gz,gxx,gzz", "Comma-separated gravity fields to validate ("+units.GetValidFieldsString()+")")
	thicknessesFlag := flag.String("thicknesses", "100,1000,10000,100000,1000000", "Comma-separated shell thicknesses in metres")
	bFactorsFlag := flag.String("b", "1,2,5,10,30,100", "Comma-separated density-law b factors")
	deltasFlag := flag.String("deltas", "0.001:10:9", "Integrator control values: comma-separated list or min:max:count log range")
	gridsFlag := flag.String("grids", "pole,equator,global,260km", "Comma-separated observation grids to use")

	densityBottom := flag.Float64("density-bottom", 3300, "Density at the shell bottom in kg/m^3")
	densityTop := flag.Float64("density-top", 2670, "Density at the shell top in kg/m^3")

	nRadial := flag.Int("mesh-nr", 1, "Radial cells per shell model")
	nLat := flag.Int("mesh-nlat", 6, "Latitudinal cells per shell model")
	nLon := flag.Int("mesh-nlon", 12, "Longitudinal cells per shell model")

	outputDir := flag.String("output", "plots", "Directory for convergence PNGs and the HTML report")
	plotOnly := flag.Bool("plot-only", false, "Skip the sweep and plot whatever the database already holds")
	showVersion := flag.Bool("version", false, "Print version information and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("shellbench %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	db, err := sqlite.Open(*dbPath)
	if err != nil {
		log.Fatalf("Opening database %s: %v", *dbPath, err)
	}
	defer db.Close()
	store := sqlite.NewRecordStore(db)

	var fields []string
	for _, f := range strings.Split(*fieldsFlag, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if !units.IsValidField(f) {
			log.Fatalf("Unknown field %q (valid: %s)", f, units.GetValidFieldsString())
		}
		fields = append(fields, f)
	}

	thicknesses, err := sweep.ParseCSVFloat64s(*thicknessesFlag)
	if err != nil {
		log.Fatalf("Invalid thicknesses: %v", err)
	}
	bFactors, err := sweep.ParseCSVFloat64s(*bFactorsFlag)
	if err != nil {
		log.Fatalf("Invalid b factors: %v", err)
	}
	deltas, err := sweep.ParseDeltaList(*deltasFlag)
	if err != nil {
		log.Fatalf("Invalid deltas: %v", err)
	}

	grids, err := buildGrids(*gridsFlag)
	if err != nil {
		log.Fatalf("Invalid grids: %v", err)
	}

	cfg := sweep.Config{
		Fields:        fields,
		Thicknesses:   thicknesses,
		BFactors:      bFactors,
		DensityBottom: *densityBottom,
		DensityTop:    *densityTop,
		DeltaValues:   deltas,
		Grids:         grids,
		MeshShape:     mesher.Shape{NRadial: *nRadial, NLat: *nLat, NLon: *nLon},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !*plotOnly {
		if err := runSweep(ctx, cfg, store, *integratorURL); err != nil {
			log.Fatalf("Sweep failed: %v", err)
		}
	}

	if err := renderReports(cfg, store, *outputDir); err != nil {
		log.Fatalf("Rendering reports: %v", err)
	}
}

func runSweep(ctx context.Context, cfg sweep.Config, store *sqlite.RecordStore, integratorURL string) error {
	integrator := sweep.NewHTTPIntegrator(integratorURL)
	runner := sweep.NewRunner(cfg, store, integrator)

	log.Printf("Sweep: %d fields x %d thicknesses x %d b factors x %d grids, %d deltas each",
		len(cfg.Fields), len(cfg.Thicknesses), len(cfg.BFactors), len(cfg.Grids), len(cfg.DeltaValues))

	now := time.Now()
	_, runErr := runner.Run(ctx)

	final := runner.State()
	if final.RunID != "" {
		if err := store.RecordRun(sweep.State{RunID: final.RunID, Status: sweep.StatusRunning, StartedAt: &now}); err != nil {
			monitoring.Logf("run bookkeeping: %v", err)
		}
		stateJSON, err := json.Marshal(final)
		if err != nil {
			stateJSON = []byte("{}")
		}
		if err := store.CompleteRun(final, string(stateJSON)); err != nil {
			monitoring.Logf("run bookkeeping: %v", err)
		}
	}

	for _, w := range final.Warnings {
		log.Printf("WARNING: %s", w)
	}
	log.Printf("Sweep %s: %d/%d tuples done (%d skipped as already stored), %d integrator calls",
		final.Status, final.CompletedTuples, final.TotalTuples, final.SkippedTuples, final.IntegratorCalls)
	return runErr
}

func renderReports(cfg sweep.Config, store *sqlite.RecordStore, outputDir string) error {
	var records []sweep.Record
	for _, field := range cfg.Fields {
		for _, grid := range cfg.Grids {
			recs, err := store.List(field, grid.Name)
			if err != nil {
				return fmt.Errorf("listing %s/%s: %w", field, grid.Name, err)
			}
			records = append(records, recs...)
		}
	}
	if len(records) == 0 {
		log.Printf("No records to plot yet")
		return nil
	}

	n, err := report.PlotConvergence(records, outputDir)
	if err != nil {
		return err
	}
	log.Printf("Wrote %d convergence plots to %s", n, outputDir)

	densityPath := filepath.Join(outputDir, "density-profiles.png")
	if err := report.PlotDensityProfiles(cfg.BFactors, cfg.DensityBottom, cfg.DensityTop, densityPath); err != nil {
		return fmt.Errorf("density profiles: %w", err)
	}

	htmlPath := filepath.Join(outputDir, "report.html")
	if err := report.WriteHTMLReport(records, htmlPath); err != nil {
		return fmt.Errorf("html report: %w", err)
	}
	log.Printf("Report: %s", htmlPath)
	return nil
}

// buildGrids resolves the named observation grids. The set matches the
// published benchmark: small high-latitude and equatorial patches on the
// surface, a coarse global grid, and the same global grid at satellite
// altitude.
func buildGrids(list string) ([]mesher.Grid, error) {
	var grids []mesher.Grid
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		var (
			g   mesher.Grid
			err error
		)
		switch name {
		case "pole":
			g, err = mesher.Regular(name, 89, 90, 0, 1, 11, 11, 0)
		case "equator":
			g, err = mesher.Regular(name, 0, 1, 0, 1, 11, 11, 0)
		case "global":
			g, err = mesher.Regular(name, -90, 90, 0, 360, 19, 13, 0)
		case "260km":
			g, err = mesher.Regular(name, -90, 90, 0, 360, 19, 13, 260e3)
		default:
			return nil, fmt.Errorf("unknown grid %q (valid: pole, equator, global, 260km)", name)
		}
		if err != nil {
			return nil, err
		}
		grids = append(grids, g)
	}
	if len(grids) == 0 {
		return nil, fmt.Errorf("no grids selected")
	}
	return grids, nil
}
