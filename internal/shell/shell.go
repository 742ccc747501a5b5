package shell

import (
	"math"

	"github.com/gravbench/shellbench/internal/units"
)

// FieldSet holds the gravitational potential and its derived fields at a
// single observation height. Accelerations are in mGal, tensor components
// in Eötvös, the potential in SI units. Horizontal and off-diagonal
// components are identically zero for a spherically symmetric shell.
type FieldSet struct {
	Potential float64
	Gx        float64
	Gy        float64
	Gz        float64
	Gxx       float64
	Gxy       float64
	Gxz       float64
	Gyy       float64
	Gyz       float64
	Gzz       float64
}

// Value returns the named field component. Unknown names return 0; callers
// validate names with units.IsValidField before computing.
func (f FieldSet) Value(field string) float64 {
	switch field {
	case units.Potential:
		return f.Potential
	case units.Gx:
		return f.Gx
	case units.Gy:
		return f.Gy
	case units.Gz:
		return f.Gz
	case units.Gxx:
		return f.Gxx
	case units.Gxy:
		return f.Gxy
	case units.Gxz:
		return f.Gxz
	case units.Gyy:
		return f.Gyy
	case units.Gyz:
		return f.Gyz
	case units.Gzz:
		return f.Gzz
	}
	return 0
}

// Compute evaluates the exact gravitational fields of a spherical shell
// with exponential density at an observation point `height` metres above
// the reference sphere. top and bottom are the shell boundary offsets from
// the reference sphere (top > bottom), and law carries the density
// coefficients solved by SolveDensityLaw.
//
// The potential is the published closed-form antiderivative of the
// shell-with-exponential-density integral:
//
//	V = 4*pi*G*A / k^3 / r *
//	      ( ((r1*k)^2 + 2*r1*k + 2) * exp(-k*bottom)
//	      - ((r2*k)^2 + 2*r2*k + 2) * exp(-k*top) )
//	  + 4/3*pi*G*C * (r2^3 - r1^3) / r
//
// with r = height + R, r1 = bottom + R, r2 = top + R and k = b/(top-bottom).
// The algebraic form is preserved as published rather than re-derived.
// Derived fields follow from the standard relations for a radially
// symmetric potential evaluated on the polar axis: gz = V/r,
// gxx = gyy = -V/r^2, gzz = 2*V/r^2, all remaining components zero.
func Compute(height, top, bottom float64, law DensityLaw) (FieldSet, error) {
	if top == bottom {
		return FieldSet{}, &DomainError{Param: "thickness", Reason: "top and bottom boundaries coincide"}
	}
	if law.BFactor == 0 {
		return FieldSet{}, &DomainError{Param: "b_factor", Reason: "must be nonzero"}
	}

	r := height + units.MeanEarthRadius
	r1 := bottom + units.MeanEarthRadius
	r2 := top + units.MeanEarthRadius
	thickness := top - bottom
	k := law.BFactor / thickness

	potential := 4*math.Pi*units.G*law.Amplitude/(k*k*k)/r*
		(((r1*k)*(r1*k)+2*r1*k+2)*math.Exp(-k*bottom)-
			((r2*k)*(r2*k)+2*r2*k+2)*math.Exp(-k*top)) +
		4.0/3.0*math.Pi*units.G*law.ConstantTerm*(r2*r2*r2-r1*r1*r1)/r

	return FieldSet{
		Potential: potential,
		Gz:        units.SI2MGal * (potential / r),
		Gxx:       units.SI2Eotvos * (-potential / (r * r)),
		Gyy:       units.SI2Eotvos * (-potential / (r * r)),
		Gzz:       units.SI2Eotvos * (2 * potential / (r * r)),
	}, nil
}
