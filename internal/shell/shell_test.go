package shell

import (
	"errors"
	"math"
	"testing"

	"github.com/gravbench/shellbench/internal/units"
)

func mustSolve(t *testing.T, bottom, top, densityBottom, densityTop, bFactor float64) DensityLaw {
	t.Helper()
	law, err := SolveDensityLaw(bottom, top, densityBottom, densityTop, bFactor)
	if err != nil {
		t.Fatalf("SolveDensityLaw: %v", err)
	}
	return law
}

func TestComputeSymmetryZeros(t *testing.T) {
	tests := []struct {
		name        string
		height      float64
		bottom, top float64
		bFactor     float64
	}{
		{"surface thin shell", 0, -100, 0, 1},
		{"surface thick shell", 0, -1e6, 0, 30},
		{"satellite", 260e3, -1e5, 0, 10},
		{"negative b", 10e3, -1e4, 0, -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			law := mustSolve(t, tt.bottom, tt.top, 3300, 2670, tt.bFactor)
			fs, err := Compute(tt.height, tt.top, tt.bottom, law)
			if err != nil {
				t.Fatalf("Compute: %v", err)
			}
			for _, f := range []struct {
				name  string
				value float64
			}{
				{units.Gx, fs.Gx}, {units.Gy, fs.Gy},
				{units.Gxy, fs.Gxy}, {units.Gxz, fs.Gxz}, {units.Gyz, fs.Gyz},
			} {
				if f.value != 0 {
					t.Errorf("%s = %g, want exactly 0", f.name, f.value)
				}
			}
		})
	}
}

func TestComputeLaplaceConsistency(t *testing.T) {
	// Outside the shell the field is harmonic: the tensor trace vanishes.
	heights := []float64{0, 1e3, 50e3, 260e3, 1e6}
	law := mustSolve(t, -1e5, 0, 3300, 2670, 10)

	for _, h := range heights {
		fs, err := Compute(h, 0, -1e5, law)
		if err != nil {
			t.Fatalf("Compute(height=%g): %v", h, err)
		}
		trace := fs.Gxx + fs.Gyy + fs.Gzz
		tol := 1e-12 * math.Abs(fs.Gzz)
		if math.Abs(trace) > tol {
			t.Errorf("height %g: gxx+gyy+gzz = %g, want 0 (tol %g)", h, trace, tol)
		}
	}
}

func TestComputeDerivedFieldRelations(t *testing.T) {
	law := mustSolve(t, -1e5, 0, 3300, 2670, 10)
	height := 260e3
	fs, err := Compute(height, 0, -1e5, law)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	r := height + units.MeanEarthRadius
	if want := units.SI2MGal * fs.Potential / r; math.Abs(fs.Gz-want) > 1e-12*math.Abs(want) {
		t.Errorf("Gz = %.15g, want potential/r scaled = %.15g", fs.Gz, want)
	}
	if want := units.SI2Eotvos * -fs.Potential / (r * r); math.Abs(fs.Gxx-want) > 1e-12*math.Abs(want) {
		t.Errorf("Gxx = %.15g, want -potential/r^2 scaled = %.15g", fs.Gxx, want)
	}
	if math.Abs(fs.Gzz+2*fs.Gxx) > 1e-12*math.Abs(fs.Gzz) {
		t.Errorf("Gzz = %.15g, want -2*Gxx = %.15g", fs.Gzz, -2*fs.Gxx)
	}
}

func TestComputeSatelliteScenario(t *testing.T) {
	// Satellite altitude over a 100 km shell with a steep profile. The total
	// shell mass is positive, so the potential must be positive, and repeat
	// evaluations must agree bit for bit.
	law := mustSolve(t, -1e5, 0, 3300, 2670, 10)

	fs, err := Compute(260e3, 0, -1e5, law)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if fs.Potential <= 0 {
		t.Errorf("potential = %g, want > 0 for a positive-mass shell", fs.Potential)
	}

	again, err := Compute(260e3, 0, -1e5, law)
	if err != nil {
		t.Fatalf("Compute (second call): %v", err)
	}
	if fs != again {
		t.Errorf("Compute is not deterministic: %+v != %+v", fs, again)
	}
}

// TestComputeAgainstQuadrature checks the closed-form potential against
// G*M/r with the shell mass M obtained by Simpson integration of
// 4*pi*r'^2*rho(r'). For an observation point outside a spherically
// symmetric shell the two must agree to quadrature accuracy.
func TestComputeAgainstQuadrature(t *testing.T) {
	tests := []struct {
		name        string
		bottom, top float64
		bFactor     float64
		height      float64
	}{
		{"100km shell b=10 satellite", -1e5, 0, 10, 260e3},
		{"1km shell b=1 surface", -1e3, 0, 1, 0},
		{"1000km shell b=30 surface", -1e6, 0, 30, 0},
		{"100km shell b=-5", -1e5, 0, -5, 100e3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			law := mustSolve(t, tt.bottom, tt.top, 3300, 2670, tt.bFactor)
			fs, err := Compute(tt.height, tt.top, tt.bottom, law)
			if err != nil {
				t.Fatalf("Compute: %v", err)
			}

			mass := shellMassSimpson(tt.bottom, tt.top, law, 20000)
			r := tt.height + units.MeanEarthRadius
			want := units.G * mass / r

			relErr := math.Abs(fs.Potential-want) / math.Abs(want)
			if relErr > 1e-8 {
				t.Errorf("potential = %.12g, quadrature G*M/r = %.12g (rel err %g)", fs.Potential, want, relErr)
			}
		})
	}
}

// shellMassSimpson integrates 4*pi*r'^2*rho over the shell with composite
// Simpson's rule on n intervals (n even).
func shellMassSimpson(bottom, top float64, law DensityLaw, n int) float64 {
	integrand := func(h float64) float64 {
		r := h + units.MeanEarthRadius
		return 4 * math.Pi * r * r * law.Density(h)
	}
	step := (top - bottom) / float64(n)
	sum := integrand(bottom) + integrand(top)
	for i := 1; i < n; i++ {
		h := bottom + float64(i)*step
		if i%2 == 1 {
			sum += 4 * integrand(h)
		} else {
			sum += 2 * integrand(h)
		}
	}
	return sum * step / 3
}

func TestComputeDomainErrors(t *testing.T) {
	law := DensityLaw{Amplitude: 100, BFactor: 1, ConstantTerm: 3000, Thickness: 1}

	if _, err := Compute(0, 5, 5, law); err == nil {
		t.Error("expected error for zero thickness, got nil")
	} else {
		var domainErr *DomainError
		if !errors.As(err, &domainErr) {
			t.Errorf("expected *DomainError, got %T", err)
		}
	}

	zeroB := DensityLaw{Amplitude: 100, BFactor: 0, ConstantTerm: 3000, Thickness: 1}
	if _, err := Compute(0, 1, 0, zeroB); err == nil {
		t.Error("expected error for zero b_factor, got nil")
	}
}

func TestFieldSetValue(t *testing.T) {
	fs := FieldSet{
		Potential: 1, Gz: 4, Gxx: 5, Gyy: 8, Gzz: 10,
	}
	tests := []struct {
		field string
		want  float64
	}{
		{units.Potential, 1},
		{units.Gx, 0},
		{units.Gy, 0},
		{units.Gz, 4},
		{units.Gxx, 5},
		{units.Gxy, 0},
		{units.Gxz, 0},
		{units.Gyy, 8},
		{units.Gyz, 0},
		{units.Gzz, 10},
		{"bogus", 0},
	}
	for _, tt := range tests {
		if got := fs.Value(tt.field); got != tt.want {
			t.Errorf("Value(%q) = %g, want %g", tt.field, got, tt.want)
		}
	}
}
