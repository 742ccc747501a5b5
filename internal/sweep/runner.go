package sweep

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gravbench/shellbench/internal/mesher"
	"github.com/gravbench/shellbench/internal/monitoring"
	"github.com/gravbench/shellbench/internal/shell"
	"github.com/gravbench/shellbench/internal/units"
)

// Status represents the current state of a sweep run
type Status string

const (
	StatusIdle     Status = "idle"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

// Config bundles everything a convergence sweep needs. All inputs are
// explicit; the runner holds no package-level state.
type Config struct {
	// Fields to validate, e.g. potential and gz.
	Fields []string

	// Thicknesses of the shell models to sweep, in metres.
	Thicknesses []float64

	// BFactors are the density-law steepness values to sweep.
	BFactors []float64

	// DensityBottom and DensityTop anchor the density law at the shell
	// boundaries, in kg/m^3.
	DensityBottom float64
	DensityTop    float64

	// DeltaValues is the monotone sequence of discretisation-control
	// values passed to the integrator, coarsest to finest.
	DeltaValues []float64

	// Grids are the observation grids, each at a single shared height.
	Grids []mesher.Grid

	// MeshShape is the angular/radial discretisation of each shell model.
	MeshShape mesher.Shape
}

// Validate checks the configuration before a run.
func (c Config) Validate() error {
	if len(c.Fields) == 0 {
		return fmt.Errorf("no fields configured")
	}
	for _, f := range c.Fields {
		if !units.IsValidField(f) {
			return fmt.Errorf("unknown field %q: valid fields are %s", f, units.GetValidFieldsString())
		}
	}
	if len(c.Thicknesses) == 0 {
		return fmt.Errorf("no shell thicknesses configured")
	}
	seenTh := make(map[int]float64, len(c.Thicknesses))
	for _, th := range c.Thicknesses {
		if th <= 0 {
			return fmt.Errorf("shell thickness must be positive, got %g", th)
		}
		// Record keys truncate thickness and b to integers, so values
		// that truncate alike would silently share a record.
		if prev, ok := seenTh[int(th)]; ok {
			return fmt.Errorf("thicknesses %g and %g collide on record key component %d", prev, th, int(th))
		}
		seenTh[int(th)] = th
	}
	if len(c.BFactors) == 0 {
		return fmt.Errorf("no b factors configured")
	}
	seenB := make(map[int]float64, len(c.BFactors))
	for _, b := range c.BFactors {
		if prev, ok := seenB[int(b)]; ok {
			return fmt.Errorf("b factors %g and %g collide on record key component %d", prev, b, int(b))
		}
		seenB[int(b)] = b
	}
	if len(c.DeltaValues) < 2 {
		return fmt.Errorf("need at least 2 delta values, got %d", len(c.DeltaValues))
	}
	for i := 1; i < len(c.DeltaValues); i++ {
		if c.DeltaValues[i] <= c.DeltaValues[i-1] {
			return fmt.Errorf("delta values must be strictly increasing at index %d", i)
		}
	}
	if len(c.Grids) == 0 {
		return fmt.Errorf("no observation grids configured")
	}
	return nil
}

// State holds the progress and outcome of a sweep run.
type State struct {
	RunID           string     `json:"run_id"`
	Status          Status     `json:"status"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	TotalTuples     int        `json:"total_tuples"`
	CompletedTuples int        `json:"completed_tuples"`
	SkippedTuples   int        `json:"skipped_tuples"`
	IntegratorCalls int        `json:"integrator_calls"`
	Warnings        []string   `json:"warnings,omitempty"`
	Error           string     `json:"error,omitempty"`
}

// Runner orchestrates convergence sweeps. Each (field, thickness,
// b-factor, grid) tuple is computed independently: the analytical ground
// truth once, then one integrator call per delta value. Tuples already in
// the store are skipped, so a long sweep can be re-run and will only do
// the remaining work.
type Runner struct {
	cfg        Config
	store      RecordStore
	integrator Integrator

	mu    sync.RWMutex
	state State
}

// NewRunner creates a sweep runner over the given store and integrator.
func NewRunner(cfg Config, store RecordStore, integrator Integrator) *Runner {
	return &Runner{
		cfg:        cfg,
		store:      store,
		integrator: integrator,
		state:      State{Status: StatusIdle},
	}
}

// State returns a snapshot of the runner's progress.
func (r *Runner) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.state
	s.Warnings = append([]string(nil), r.state.Warnings...)
	return s
}

func (r *Runner) setStatus(status Status, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.Status = status
	r.state.Error = errMsg
	now := time.Now()
	switch status {
	case StatusRunning:
		r.state.StartedAt = &now
	case StatusComplete, StatusError:
		r.state.CompletedAt = &now
	}
}

func (r *Runner) warnf(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	monitoring.Logf("sweep: %s", msg)
	r.mu.Lock()
	r.state.Warnings = append(r.state.Warnings, msg)
	r.mu.Unlock()
}

// Run executes the full sweep and returns every record touched, keyed by
// RecordKey. Per-tuple failures (invalid physics, integrator transport
// errors) are isolated: they produce warnings and leave no record, so a
// re-run retries them. Corrupt persisted records abort the run.
func (r *Runner) Run(ctx context.Context) (map[string]Record, error) {
	if err := r.cfg.Validate(); err != nil {
		r.setStatus(StatusError, err.Error())
		return nil, fmt.Errorf("sweep config: %w", err)
	}

	total := len(r.cfg.Fields) * len(r.cfg.Thicknesses) * len(r.cfg.BFactors) * len(r.cfg.Grids)
	r.mu.Lock()
	r.state = State{
		RunID:       uuid.New().String(),
		Status:      StatusIdle,
		TotalTuples: total,
	}
	r.mu.Unlock()
	r.setStatus(StatusRunning, "")

	results := make(map[string]Record)
	for _, field := range r.cfg.Fields {
		for _, thickness := range r.cfg.Thicknesses {
			mesh, err := mesher.GlobalShell(thickness, r.cfg.MeshShape)
			if err != nil {
				r.setStatus(StatusError, err.Error())
				return results, fmt.Errorf("building mesh for thickness %g: %w", thickness, err)
			}
			top, bottom := mesh.Bounds.Top, mesh.Bounds.Bottom

			for _, bFactor := range r.cfg.BFactors {
				law, err := shell.SolveDensityLaw(bottom, top, r.cfg.DensityBottom, r.cfg.DensityTop, bFactor)
				if err != nil {
					// Invalid physics for this configuration only; the
					// rest of the sweep proceeds.
					r.warnf("skipping thickness=%g b=%g: %v", thickness, bFactor, err)
					continue
				}
				mesh.AddDensity(law)

				for _, grid := range r.cfg.Grids {
					if err := ctx.Err(); err != nil {
						r.setStatus(StatusError, err.Error())
						return results, err
					}

					rec, skipped, err := r.runTuple(ctx, field, grid, mesh, law, top, bottom, thickness, bFactor)
					if err != nil {
						if ctx.Err() != nil || isStorageError(err) {
							r.setStatus(StatusError, err.Error())
							return results, err
						}
						r.warnf("tuple %s failed: %v", RecordKey(field, grid.Name, thickness, bFactor), err)
						continue
					}
					results[rec.Key()] = rec
					r.mu.Lock()
					r.state.CompletedTuples++
					if skipped {
						r.state.SkippedTuples++
					}
					r.mu.Unlock()
				}
			}
		}
	}

	r.setStatus(StatusComplete, "")
	return results, nil
}

// runTuple computes or recalls the record for one sweep tuple. The bool
// result reports whether the record came from the store.
func (r *Runner) runTuple(ctx context.Context, field string, grid mesher.Grid, mesh *mesher.ShellMesh, law shell.DensityLaw, top, bottom, thickness, bFactor float64) (Record, bool, error) {
	key := RecordKey(field, grid.Name, thickness, bFactor)

	ok, err := r.store.Has(key)
	if err != nil {
		return Record{}, false, &StorageError{Key: key, Err: err}
	}
	if ok {
		rec, err := r.store.Get(key)
		if err != nil {
			// A record exists but cannot be read. Failing loudly here
			// avoids masking data corruption with a silent recompute.
			return Record{}, false, &StorageError{Key: key, Err: err}
		}
		if err := rec.Validate(); err != nil {
			return Record{}, false, &StorageError{Key: key, Err: err}
		}
		return rec, true, nil
	}

	monitoring.Logf("sweep: thickness=%d field=%s grid=%s b=%d", int(thickness), field, grid.Name, int(bFactor))

	fs, err := shell.Compute(grid.Height(), top, bottom, law)
	if err != nil {
		return Record{}, false, err
	}
	analytical := fs.Value(field)

	errorsPct := make([]float64, 0, len(r.cfg.DeltaValues))
	for _, delta := range r.cfg.DeltaValues {
		if err := ctx.Err(); err != nil {
			return Record{}, false, err
		}

		numerical, err := r.integrator.Compute(ctx, field, grid.Lons, grid.Lats, grid.Heights, mesh, delta)
		r.mu.Lock()
		r.state.IntegratorCalls++
		r.mu.Unlock()
		if err != nil {
			return Record{}, false, fmt.Errorf("integrator at delta=%g: %w", delta, err)
		}
		if len(numerical) != grid.Size() {
			return Record{}, false, fmt.Errorf("integrator at delta=%g returned %d values for %d points", delta, len(numerical), grid.Size())
		}

		// Non-finite integrator output becomes a NaN sample; the failure
		// marker survives the max reduction.
		pct := MaxRelativeErrorPercent(numerical, analytical)
		if math.IsNaN(pct) {
			r.warnf("non-finite integrator output for %s at delta=%g", key, delta)
		}
		errorsPct = append(errorsPct, pct)
	}

	rec := Record{
		Field:       field,
		GridName:    grid.Name,
		Thickness:   thickness,
		BFactor:     bFactor,
		DeltaValues: append([]float64(nil), r.cfg.DeltaValues...),
		Errors:      errorsPct,
	}
	if err := r.store.Put(key, rec); err != nil {
		return Record{}, false, &StorageError{Key: key, Err: err}
	}
	return rec, false, nil
}

// StorageError wraps record-store failures so the runner can distinguish
// them from per-tuple physics or integrator errors: storage inconsistency
// aborts the sweep instead of being skipped.
type StorageError struct {
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("record store, key %q: %v", e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func isStorageError(err error) bool {
	var storageErr *StorageError
	return errors.As(err, &storageErr)
}
