// Package mesher builds the tesseroid mass models and regular observation
// grids consumed by numerical integrators. The integrator itself is an
// external collaborator; this package only carries the model geometry and
// per-cell density assignment.
package mesher

import (
	"fmt"

	"github.com/gravbench/shellbench/internal/shell"
)

// Bounds delimits a tesseroid mesh: longitudes west/east and latitudes
// south/north in degrees, top/bottom as signed offsets in metres from the
// reference sphere (bottom < top).
type Bounds struct {
	West   float64 `json:"west"`
	East   float64 `json:"east"`
	South  float64 `json:"south"`
	North  float64 `json:"north"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// Shape is the discretisation of a mesh: number of cells along the radial,
// latitudinal and longitudinal directions.
type Shape struct {
	NRadial int `json:"n_radial"`
	NLat    int `json:"n_lat"`
	NLon    int `json:"n_lon"`
}

// Cell is a single tesseroid with its assigned density law.
type Cell struct {
	Bounds  Bounds           `json:"bounds"`
	Density shell.DensityLaw `json:"density"`
}

// ShellMesh is a tesseroid discretisation of a spherical shell. Cells are
// stored row-major: radial index outermost, then latitude, then longitude.
type ShellMesh struct {
	Bounds Bounds `json:"bounds"`
	Shape  Shape  `json:"shape"`
	Cells  []Cell `json:"cells"`
}

// NewShellMesh divides the given bounds into Shape.NRadial x NLat x NLon
// tesseroid cells. Cell densities are zero-valued until AddDensity is called.
func NewShellMesh(bounds Bounds, shape Shape) (*ShellMesh, error) {
	if bounds.Top <= bounds.Bottom {
		return nil, fmt.Errorf("mesh bounds: top (%g) must be above bottom (%g)", bounds.Top, bounds.Bottom)
	}
	if shape.NRadial < 1 || shape.NLat < 1 || shape.NLon < 1 {
		return nil, fmt.Errorf("mesh shape: all dimensions must be >= 1, got %+v", shape)
	}

	dr := (bounds.Top - bounds.Bottom) / float64(shape.NRadial)
	dlat := (bounds.North - bounds.South) / float64(shape.NLat)
	dlon := (bounds.East - bounds.West) / float64(shape.NLon)

	cells := make([]Cell, 0, shape.NRadial*shape.NLat*shape.NLon)
	for ir := 0; ir < shape.NRadial; ir++ {
		for ilat := 0; ilat < shape.NLat; ilat++ {
			for ilon := 0; ilon < shape.NLon; ilon++ {
				cells = append(cells, Cell{
					Bounds: Bounds{
						West:   bounds.West + float64(ilon)*dlon,
						East:   bounds.West + float64(ilon+1)*dlon,
						South:  bounds.South + float64(ilat)*dlat,
						North:  bounds.South + float64(ilat+1)*dlat,
						Bottom: bounds.Bottom + float64(ir)*dr,
						Top:    bounds.Bottom + float64(ir+1)*dr,
					},
				})
			}
		}
	}

	return &ShellMesh{Bounds: bounds, Shape: shape, Cells: cells}, nil
}

// GlobalShell builds a whole-sphere shell mesh from the surface down to
// the given thickness in metres.
func GlobalShell(thickness float64, shape Shape) (*ShellMesh, error) {
	return NewShellMesh(Bounds{
		West: 0, East: 360, South: -90, North: 90,
		Top: 0, Bottom: -thickness,
	}, shape)
}

// Size returns the number of cells.
func (m *ShellMesh) Size() int {
	return len(m.Cells)
}

// Thickness returns the radial extent of the mesh in metres.
func (m *ShellMesh) Thickness() float64 {
	return m.Bounds.Top - m.Bounds.Bottom
}

// AddDensity assigns the same immutable density law to every cell. The
// law is a value, so later assignments never alias earlier ones.
func (m *ShellMesh) AddDensity(law shell.DensityLaw) {
	for i := range m.Cells {
		m.Cells[i].Density = law
	}
}
