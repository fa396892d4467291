package climate

import "math"

// hadleyWeight is the circulation-band humidity weighting at a latitude:
// a wet intertropical convergence zone, dry subtropical belts, a
// temperate recovery and polar desert,
//
//	cos(2π√|φ|)/(8|φ|+1) − |φ|/π + 0.5
//
// with φ in radians. Equator 1.5, minimum near 12°, roughly 0.3 at 30°,
// near zero at the poles.
func hadleyWeight(latRad float64) float64 {
	al := math.Abs(latRad)
	return math.Cos(2*math.Pi*math.Sqrt(al))/(8*al+1) - al/math.Pi + 0.5
}

// hadleyTable memoizes hadleyWeight per rounded latitude; the weight is a
// pure function of latitude alone, evaluated once per cell per season.
// The sampler warms the table before fanning out over the grid, after
// which lookups are read-only.
type hadleyTable struct {
	vals map[int32]float64
}

func newHadleyTable() *hadleyTable {
	return &hadleyTable{vals: make(map[int32]float64)}
}

// weight returns the memoized weighting at lat, bucketed to milliradians.
func (h *hadleyTable) weight(latRad float64) float64 {
	key := int32(math.Round(latRad * 1000))
	if v, ok := h.vals[key]; ok {
		return v
	}
	v := hadleyWeight(float64(key) / 1000)
	h.vals[key] = v
	return v
}
