package mesher

import "fmt"

// Grid is a regular latitude/longitude observation grid at a single shared
// height above the reference sphere. Lats, Lons and Heights are positionally
// paired, row-major with latitude as the slow axis.
type Grid struct {
	Name    string    `json:"name"`
	Lats    []float64 `json:"lats"`
	Lons    []float64 `json:"lons"`
	Heights []float64 `json:"heights"`
}

// Regular generates an nlat x nlon grid spanning [south, north] and
// [west, east] inclusive, every point at the given height.
func Regular(name string, south, north, west, east float64, nlat, nlon int, height float64) (Grid, error) {
	if nlat < 2 || nlon < 2 {
		return Grid{}, fmt.Errorf("grid %q: shape must be at least 2x2, got %dx%d", name, nlat, nlon)
	}
	if north <= south {
		return Grid{}, fmt.Errorf("grid %q: north (%g) must exceed south (%g)", name, north, south)
	}
	if east <= west {
		return Grid{}, fmt.Errorf("grid %q: east (%g) must exceed west (%g)", name, east, west)
	}

	dlat := (north - south) / float64(nlat-1)
	dlon := (east - west) / float64(nlon-1)

	n := nlat * nlon
	g := Grid{
		Name:    name,
		Lats:    make([]float64, 0, n),
		Lons:    make([]float64, 0, n),
		Heights: make([]float64, 0, n),
	}
	for i := 0; i < nlat; i++ {
		lat := south + float64(i)*dlat
		for j := 0; j < nlon; j++ {
			g.Lats = append(g.Lats, lat)
			g.Lons = append(g.Lons, west+float64(j)*dlon)
			g.Heights = append(g.Heights, height)
		}
	}
	return g, nil
}

// Size returns the number of grid points.
func (g Grid) Size() int {
	return len(g.Lats)
}

// Height returns the shared observation height of the grid.
func (g Grid) Height() float64 {
	if len(g.Heights) == 0 {
		return 0
	}
	return g.Heights[0]
}
