// Package shell implements the closed-form gravitational fields of a
// spherical shell whose density varies exponentially with radius. The
// shell is bounded by two radii concentric with the mean Earth sphere and
// serves as ground truth when checking numerical tesseroid integrators.
package shell

import (
	"fmt"
	"math"
)

// DomainError reports physically invalid shell or density parameters. It is
// detected before any computation and is fatal to the single configuration
// that produced it, never to a whole sweep.
type DomainError struct {
	Param  string
	Reason string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Reason)
}

// DensityLaw is an immutable exponential density profile
//
//	rho(h) = Amplitude * exp(-h * BFactor / Thickness) + ConstantTerm
//
// where h is the height above the reference sphere. One DensityLaw is
// assigned per mesh cell; being a value object it cannot capture mutable
// loop state the way a closure would.
type DensityLaw struct {
	Amplitude    float64
	BFactor      float64
	ConstantTerm float64
	Thickness    float64
}

// Density evaluates the law at the given height above the reference sphere.
func (l DensityLaw) Density(height float64) float64 {
	return l.Amplitude*math.Exp(-height*l.BFactor/l.Thickness) + l.ConstantTerm
}

// DecayRate returns k = BFactor / Thickness, the inverse-length decay rate.
func (l DensityLaw) DecayRate() float64 {
	return l.BFactor / l.Thickness
}

// SolveDensityLaw fits the amplitude and constant term of an exponential
// density law so that it reproduces the two anchor densities at the shell
// boundaries. bottom and top are signed offsets from the reference sphere
// (bottom < top). The fit is the unique solution of the two-equation
// linear system
//
//	Amplitude*exp(-bottom*b/T) + ConstantTerm = densityBottom
//	Amplitude*exp(-top*b/T)    + ConstantTerm = densityTop
//
// with T = top - bottom. The denominator exp(-bottom*b/T) - exp(-top*b/T)
// is nonzero whenever T != 0 and b != 0; b == 0 is a degenerate
// constant-density profile with its own closed form and is rejected rather
// than special-cased.
func SolveDensityLaw(bottom, top, densityBottom, densityTop, bFactor float64) (DensityLaw, error) {
	if top == bottom {
		return DensityLaw{}, &DomainError{Param: "thickness", Reason: "top and bottom boundaries coincide"}
	}
	if bFactor == 0 {
		return DensityLaw{}, &DomainError{Param: "b_factor", Reason: "must be nonzero (constant density has no exponential solution)"}
	}

	thickness := top - bottom
	expBottom := math.Exp(-bottom * bFactor / thickness)
	expTop := math.Exp(-top * bFactor / thickness)
	denominator := expBottom - expTop

	return DensityLaw{
		Amplitude:    (densityBottom - densityTop) / denominator,
		BFactor:      bFactor,
		ConstantTerm: (densityTop*expBottom - densityBottom*expTop) / denominator,
		Thickness:    thickness,
	}, nil
}
