package sweep

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/gravbench/shellbench/internal/mesher"
	"github.com/gravbench/shellbench/internal/shell"
)

// fakeIntegrator mimics a numerical engine whose worst-case relative error
// shrinks as the control value grows (finer discretisation). The synthetic
// field is the analytical value perturbed by 1e-4/delta relative error.
type fakeIntegrator struct {
	mu    sync.Mutex
	calls int

	// override, when set, replaces the default behaviour.
	override func(field string, n int, mesh *mesher.ShellMesh, delta float64) ([]float64, error)
}

func (f *fakeIntegrator) Compute(ctx context.Context, field string, lons, lats, heights []float64, mesh *mesher.ShellMesh, delta float64) ([]float64, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.override != nil {
		return f.override(field, len(lons), mesh, delta)
	}

	law := mesh.Cells[0].Density
	fs, err := shell.Compute(heights[0], mesh.Bounds.Top, mesh.Bounds.Bottom, law)
	if err != nil {
		return nil, err
	}
	analytical := fs.Value(field)

	out := make([]float64, len(lons))
	for i := range out {
		out[i] = analytical * (1 + 1e-4/delta)
	}
	return out, nil
}

func (f *fakeIntegrator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testConfig(t *testing.T) Config {
	t.Helper()
	grid, err := mesher.Regular("global", -90, 90, 0, 360, 3, 3, 0)
	require.NoError(t, err)

	return Config{
		Fields:        []string{"potential", "gz"},
		Thicknesses:   []float64{1e3, 1e5},
		BFactors:      []float64{1, 10},
		DensityBottom: 3300,
		DensityTop:    2670,
		DeltaValues:   []float64{0.1, 1, 10},
		Grids:         []mesher.Grid{grid},
		MeshShape:     mesher.Shape{NRadial: 1, NLat: 6, NLon: 12},
	}
}

func TestRunnerProducesRecordPerTuple(t *testing.T) {
	cfg := testConfig(t)
	store := NewMemStore()
	integrator := &fakeIntegrator{}
	runner := NewRunner(cfg, store, integrator)

	records, err := runner.Run(context.Background())
	require.NoError(t, err)

	wantTuples := len(cfg.Fields) * len(cfg.Thicknesses) * len(cfg.BFactors) * len(cfg.Grids)
	require.Len(t, records, wantTuples)
	require.Equal(t, wantTuples, store.Len())
	require.Equal(t, wantTuples*len(cfg.DeltaValues), integrator.callCount())

	state := runner.State()
	require.Equal(t, StatusComplete, state.Status)
	require.Equal(t, wantTuples, state.CompletedTuples)
	require.Zero(t, state.SkippedTuples)
	require.NotEmpty(t, state.RunID)

	for key, rec := range records {
		require.Equal(t, key, rec.Key())
		require.NoError(t, rec.Validate())
		require.Len(t, rec.Errors, len(cfg.DeltaValues))
	}
}

func TestRunnerConvergenceMonotone(t *testing.T) {
	// Refinement must not leave the finest setting worse than the coarsest.
	cfg := testConfig(t)
	store := NewMemStore()
	runner := NewRunner(cfg, store, &fakeIntegrator{})

	records, err := runner.Run(context.Background())
	require.NoError(t, err)

	for key, rec := range records {
		coarsest := rec.Errors[0]
		finest := rec.Errors[len(rec.Errors)-1]
		require.LessOrEqualf(t, finest, coarsest,
			"record %s: finest error %g exceeds coarsest %g", key, finest, coarsest)
	}
}

func TestRunnerIdempotentReRun(t *testing.T) {
	cfg := testConfig(t)
	store := NewMemStore()

	first, err := NewRunner(cfg, store, &fakeIntegrator{}).Run(context.Background())
	require.NoError(t, err)

	// A second run over the same store must not call the integrator at all
	// and must return identical records.
	second := &fakeIntegrator{}
	rerunner := NewRunner(cfg, store, second)
	rerun, err := rerunner.Run(context.Background())
	require.NoError(t, err)

	require.Zero(t, second.callCount(), "re-run must reuse persisted records")
	if diff := cmp.Diff(first, rerun); diff != "" {
		t.Errorf("re-run records differ (-first +rerun):\n%s", diff)
	}

	state := rerunner.State()
	require.Equal(t, len(first), state.SkippedTuples)
}

func TestRunnerSurfacesNonFiniteOutput(t *testing.T) {
	cfg := testConfig(t)
	cfg.Fields = []string{"gz"}
	cfg.Thicknesses = []float64{1e5}
	cfg.BFactors = []float64{10}

	integrator := &fakeIntegrator{
		override: func(field string, n int, mesh *mesher.ShellMesh, delta float64) ([]float64, error) {
			out := make([]float64, n)
			for i := range out {
				out[i] = 1.0
			}
			if delta == 0.1 {
				// Pathological control value: near-singular discretisation.
				out[n/2] = math.Inf(1)
			}
			return out, nil
		},
	}

	runner := NewRunner(cfg, NewMemStore(), integrator)
	records, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	for _, rec := range records {
		require.True(t, math.IsNaN(rec.Errors[0]), "instability must surface as NaN, got %g", rec.Errors[0])
		for _, e := range rec.Errors[1:] {
			require.False(t, math.IsNaN(e))
		}
	}
	require.NotEmpty(t, runner.State().Warnings)
}

func TestRunnerIsolatesIntegratorFailures(t *testing.T) {
	cfg := testConfig(t)
	cfg.Fields = []string{"gz"}

	integrator := &fakeIntegrator{
		override: func(field string, n int, mesh *mesher.ShellMesh, delta float64) ([]float64, error) {
			if mesh.Thickness() == 1e3 {
				return nil, fmt.Errorf("synthetic transport failure")
			}
			out := make([]float64, n)
			for i := range out {
				out[i] = 1.0
			}
			return out, nil
		},
	}

	runner := NewRunner(cfg, NewMemStore(), integrator)
	records, err := runner.Run(context.Background())
	require.NoError(t, err, "one bad tuple must not abort the sweep")

	// The thickness=1e3 tuples fail for both b factors; the rest complete.
	require.Len(t, records, 2)
	for _, rec := range records {
		require.Equal(t, 1e5, rec.Thickness)
	}
	require.NotEmpty(t, runner.State().Warnings)
}

// corruptStore reports records as present but fails to read them back.
type corruptStore struct{ inner *MemStore }

func (s *corruptStore) Has(key string) (bool, error) { return true, nil }
func (s *corruptStore) Get(key string) (Record, error) {
	return Record{}, fmt.Errorf("malformed payload")
}
func (s *corruptStore) Put(key string, rec Record) error { return s.inner.Put(key, rec) }

func TestRunnerFailsLoudlyOnCorruptRecord(t *testing.T) {
	cfg := testConfig(t)
	runner := NewRunner(cfg, &corruptStore{inner: NewMemStore()}, &fakeIntegrator{})

	_, err := runner.Run(context.Background())
	require.Error(t, err)

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	require.Equal(t, StatusError, runner.State().Status)
}

func TestRunnerIsolatesDomainErrors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Fields = []string{"gz"}
	cfg.BFactors = []float64{0, 10} // zero b factor is a per-config DomainError

	runner := NewRunner(cfg, NewMemStore(), &fakeIntegrator{})
	records, err := runner.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, records, len(cfg.Thicknesses)) // only b=10 tuples
	require.NotEmpty(t, runner.State().Warnings)
}

func TestRunnerConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no fields", func(c *Config) { c.Fields = nil }},
		{"bad field", func(c *Config) { c.Fields = []string{"gravity"} }},
		{"no thicknesses", func(c *Config) { c.Thicknesses = nil }},
		{"negative thickness", func(c *Config) { c.Thicknesses = []float64{-1} }},
		{"no b factors", func(c *Config) { c.BFactors = nil }},
		{"colliding thicknesses", func(c *Config) { c.Thicknesses = []float64{1000, 1000.5} }},
		{"colliding b factors", func(c *Config) { c.BFactors = []float64{2.1, 2.9} }},
		{"single delta", func(c *Config) { c.DeltaValues = []float64{1} }},
		{"unordered deltas", func(c *Config) { c.DeltaValues = []float64{1, 0.1, 10} }},
		{"no grids", func(c *Config) { c.Grids = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(&cfg)
			_, err := NewRunner(cfg, NewMemStore(), &fakeIntegrator{}).Run(context.Background())
			require.Error(t, err)
		})
	}
}

func TestRunnerHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(testConfig(t), NewMemStore(), &fakeIntegrator{})
	_, err := runner.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, StatusError, runner.State().Status)
}
