// Package grid provides the latitude/longitude surface discretization the
// climate engine samples over: per-cell latitude, area, elevation relative
// to sea level, a four-neighbor adjacency with longitude wraparound, and a
// precomputed steepest-descent edge for river routing.
package grid

import "math"

// Cell is one surface patch. Elevation is meters relative to sea level;
// water cells sit at or below zero. Neighbors holds cell indices in
// north/east/south/west order, -1 where the grid ends (polar rows).
// Descent is the index of the lowest strictly-downhill neighbor, -1 at a
// local minimum. Water and ElevationM may be rewritten by downstream
// stages; the rest is fixed at build time.
type Cell struct {
	LatRad     float64
	LonRad     float64
	AreaM2     float64
	ElevationM float64
	Water      bool
	Neighbors  [4]int
	Descent    int
}

// Neighbor slots in Cell.Neighbors.
const (
	North = iota
	East
	South
	West
)

// Grid is a rows×cols cell matrix over the full sphere, row 0 at the north
// pole, cells in row-major order.
type Grid struct {
	Rows    int
	Cols    int
	RadiusM float64
	Cells   []Cell
}

// Index returns the cell index for a row and column. The column wraps in
// longitude; the row must be in range.
func (g *Grid) Index(row, col int) int {
	col = ((col % g.Cols) + g.Cols) % g.Cols
	return row*g.Cols + col
}

// At returns the cell at a row and column.
func (g *Grid) At(row, col int) *Cell {
	return &g.Cells[g.Index(row, col)]
}

// LatOfRow returns the center latitude of a row in radians, positive north.
func (g *Grid) LatOfRow(row int) float64 {
	dLat := math.Pi / float64(g.Rows)
	return math.Pi/2 - (float64(row)+0.5)*dLat
}

// TotalAreaM2 returns the summed cell area, within rounding of 4πR².
func (g *Grid) TotalAreaM2() float64 {
	total := 0.0
	for i := range g.Cells {
		total += g.Cells[i].AreaM2
	}
	return total
}

// LandFraction returns the area-weighted share of cells not classified as
// water.
func (g *Grid) LandFraction() float64 {
	total := 0.0
	land := 0.0
	for i := range g.Cells {
		total += g.Cells[i].AreaM2
		if !g.Cells[i].Water {
			land += g.Cells[i].AreaM2
		}
	}
	if total == 0 {
		return 0
	}
	return land / total
}

// MaxElevationM returns the highest cell elevation, 0 on an all-ocean grid.
func (g *Grid) MaxElevationM() float64 {
	max := 0.0
	for i := range g.Cells {
		if g.Cells[i].ElevationM > max {
			max = g.Cells[i].ElevationM
		}
	}
	return max
}
