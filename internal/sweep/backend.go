// Package sweep drives convergence sweeps of a numerical tesseroid
// integrator against the analytical shell solution, recording worst-case
// relative error per discretisation-control value.
package sweep

import (
	"context"

	"github.com/gravbench/shellbench/internal/mesher"
)

// Integrator abstracts the numerical forward-modelling engine under test.
// HTTPIntegrator posts the mass model to an external integrator service;
// in-process engines and test fakes wrap their own forward code in the
// same interface.
type Integrator interface {
	// Compute evaluates the named field at every observation point using
	// the given mass model and discretisation-control value delta. The
	// returned slice is positionally paired with the input coordinates.
	// Non-finite entries signal numerical instability for that point and
	// must be passed through untouched.
	Compute(ctx context.Context, field string, lons, lats, heights []float64, mesh *mesher.ShellMesh, delta float64) ([]float64, error)
}
