package grid

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Config holds grid generation parameters. Resolution is the number of
// latitude rows; longitude gets twice as many columns. WaterRatio is the
// share of surface area placed below sea level.
type Config struct {
	Resolution    int
	Seed          int64 // 0 = random
	RadiusM       float64
	MaxElevationM float64
	WaterRatio    float64
}

// Noise shaping for the elevation field.
const (
	elevOctaves     = 5
	elevFrequency   = 1.7
	elevPersistence = 0.5
)

// Build generates the sphere grid: cos-weighted cell areas, octave-noise
// elevation sampled on the unit sphere (seam-free across the date line), a
// sea-level cut placing WaterRatio of the surface area underwater, and
// precomputed adjacency and steepest-descent edges.
func Build(cfg Config) (*Grid, error) {
	if cfg.Resolution < 2 {
		return nil, fmt.Errorf("grid resolution must be at least 2, got %d", cfg.Resolution)
	}
	if cfg.RadiusM <= 0 {
		return nil, fmt.Errorf("grid radius must be positive, got %g", cfg.RadiusM)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	rows := cfg.Resolution
	cols := 2 * cfg.Resolution
	g := &Grid{
		Rows:    rows,
		Cols:    cols,
		RadiusM: cfg.RadiusM,
		Cells:   make([]Cell, rows*cols),
	}

	dLat := math.Pi / float64(rows)
	dLon := 2 * math.Pi / float64(cols)
	noise := opensimplex.NewNormalized(seed)

	for r := 0; r < rows; r++ {
		lat := g.LatOfRow(r)
		area := cfg.RadiusM * cfg.RadiusM * dLat * dLon * math.Cos(lat)
		for c := 0; c < cols; c++ {
			lon := -math.Pi + (float64(c)+0.5)*dLon
			x := math.Cos(lat) * math.Cos(lon)
			y := math.Cos(lat) * math.Sin(lon)
			z := math.Sin(lat)

			cell := &g.Cells[g.Index(r, c)]
			cell.LatRad = lat
			cell.LonRad = lon
			cell.AreaM2 = area
			cell.ElevationM = octaveNoise3(noise, x, y, z)
			cell.Neighbors = neighborIndices(g, r, c)
		}
	}

	applySeaLevel(g, cfg)
	computeDescent(g)
	return g, nil
}

// octaveNoise3 layers elevOctaves frequencies of 3D noise sampled at a unit
// sphere position, normalized to [0,1].
func octaveNoise3(noise opensimplex.Noise, x, y, z float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0
	frequency := elevFrequency
	for i := 0; i < elevOctaves; i++ {
		total += noise.Eval3(x*frequency, y*frequency, z*frequency) * amplitude
		maxVal += amplitude
		amplitude *= elevPersistence
		frequency *= 2
	}
	return total / maxVal
}

func neighborIndices(g *Grid, r, c int) [4]int {
	n := [4]int{-1, -1, -1, -1}
	if r > 0 {
		n[North] = g.Index(r-1, c)
	}
	if r < g.Rows-1 {
		n[South] = g.Index(r+1, c)
	}
	n[East] = g.Index(r, c+1)
	n[West] = g.Index(r, c-1)
	return n
}

// applySeaLevel finds the elevation below which WaterRatio of the surface
// area lies, rebases elevations against it, scales land so the highest peak
// reaches MaxElevationM, and classifies cells.
func applySeaLevel(g *Grid, cfg Config) {
	type sample struct {
		elev float64
		area float64
	}
	samples := make([]sample, len(g.Cells))
	total := 0.0
	for i := range g.Cells {
		samples[i] = sample{g.Cells[i].ElevationM, g.Cells[i].AreaM2}
		total += g.Cells[i].AreaM2
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].elev < samples[j].elev })

	var seaLevel float64
	switch {
	case cfg.WaterRatio <= 0:
		seaLevel = samples[0].elev - 1e-9
	case cfg.WaterRatio >= 1:
		seaLevel = samples[len(samples)-1].elev + 1e-9
	default:
		target := cfg.WaterRatio * total
		acc := 0.0
		seaLevel = samples[len(samples)-1].elev
		for _, s := range samples {
			acc += s.area
			if acc >= target {
				seaLevel = s.elev
				break
			}
		}
	}

	maxRelief := 0.0
	for i := range g.Cells {
		rel := g.Cells[i].ElevationM - seaLevel
		if rel > maxRelief {
			maxRelief = rel
		}
	}
	scale := 1.0
	if maxRelief > 0 && cfg.MaxElevationM > 0 {
		scale = cfg.MaxElevationM / maxRelief
	}

	for i := range g.Cells {
		rel := (g.Cells[i].ElevationM - seaLevel) * scale
		g.Cells[i].ElevationM = rel
		g.Cells[i].Water = rel <= 0 && cfg.WaterRatio > 0
	}
}

func computeDescent(g *Grid) {
	for i := range g.Cells {
		cell := &g.Cells[i]
		cell.Descent = -1
		best := cell.ElevationM
		for _, n := range cell.Neighbors {
			if n < 0 {
				continue
			}
			if g.Cells[n].ElevationM < best {
				best = g.Cells[n].ElevationM
				cell.Descent = n
			}
		}
	}
}
