package chem

import (
	"math"
	"sort"
)

// Species identifies a substance in the property table.
type Species string

const (
	Hydrogen       Species = "h2"
	Helium         Species = "he"
	Nitrogen       Species = "n2"
	Oxygen         Species = "o2"
	CarbonDioxide  Species = "co2"
	CarbonMonoxide Species = "co"
	Methane        Species = "ch4"
	SulfurDioxide  Species = "so2"
	Water          Species = "h2o"
	Ammonia        Species = "nh3"
	Ozone          Species = "o3"
	Argon          Species = "ar"
	Neon           Species = "ne"
	Krypton        Species = "kr"
	Xenon          Species = "xe"
)

// VaporCurve is an Antoine-style vapor-pressure relation,
//
//	log10(P/bar) = A − B/(T + C)
//
// valid only between MinK and MaxK. Outside the range the relation is not
// meaningful; callers treat temperatures below MinK as "always condenses".
type VaporCurve struct {
	MinK float64
	MaxK float64
	A    float64
	B    float64
	C    float64
}

// PressureKPa returns the equilibrium vapor pressure at temperature t (K).
// Valid only within the curve's temperature range.
func (v VaporCurve) PressureKPa(t float64) float64 {
	return 100 * math.Pow(10, v.A-v.B/(t+v.C))
}

// InRange reports whether t falls inside the curve's validity window.
func (v VaporCurve) InRange(t float64) bool {
	return t >= v.MinK && t <= v.MaxK
}

// Properties holds the static physical constants for one species.
// Entries are never mutated after load.
type Properties struct {
	Name          string
	MeltingPointK float64
	Vapor         VaporCurve
	DensityKgM3   float64 // condensed-phase density
	MolarMassGMol float64
	Greenhouse    bool
	Metal         bool
}

// table is the static property table. Antoine coefficients are the
// published low-temperature sets (bar-referenced); densities are
// condensed-phase values near the melting point.
var table = map[Species]Properties{
	Hydrogen: {
		Name:          "hydrogen",
		MeltingPointK: 13.99,
		Vapor:         VaporCurve{MinK: 21.0, MaxK: 32.3, A: 3.54314, B: 99.395, C: 7.726},
		DensityKgM3:   71,
		MolarMassGMol: 2.016,
	},
	Helium: {
		Name:          "helium",
		MeltingPointK: 0.95,
		Vapor:         VaporCurve{MinK: 1.8, MaxK: 5.2, A: 1.6836, B: 8.155, C: -0.829},
		DensityKgM3:   125,
		MolarMassGMol: 4.003,
	},
	Nitrogen: {
		Name:          "nitrogen",
		MeltingPointK: 63.15,
		Vapor:         VaporCurve{MinK: 63.1, MaxK: 126.0, A: 3.7362, B: 264.651, C: -6.788},
		DensityKgM3:   808,
		MolarMassGMol: 28.014,
	},
	Oxygen: {
		Name:          "oxygen",
		MeltingPointK: 54.36,
		Vapor:         VaporCurve{MinK: 54.4, MaxK: 154.3, A: 3.9523, B: 340.024, C: -4.144},
		DensityKgM3:   1141,
		MolarMassGMol: 31.998,
	},
	CarbonDioxide: {
		Name:          "carbon dioxide",
		MeltingPointK: 216.59,
		Vapor:         VaporCurve{MinK: 154.3, MaxK: 204.0, A: 6.81228, B: 1301.679, C: -3.494},
		DensityKgM3:   1562,
		MolarMassGMol: 44.009,
		Greenhouse:    true,
	},
	CarbonMonoxide: {
		Name:          "carbon monoxide",
		MeltingPointK: 68.15,
		Vapor:         VaporCurve{MinK: 68.2, MaxK: 132.0, A: 3.81912, B: 291.743, C: -5.151},
		DensityKgM3:   789,
		MolarMassGMol: 28.010,
	},
	Methane: {
		Name:          "methane",
		MeltingPointK: 90.69,
		Vapor:         VaporCurve{MinK: 91.0, MaxK: 190.0, A: 3.9895, B: 443.028, C: -0.49},
		DensityKgM3:   423,
		MolarMassGMol: 16.043,
		Greenhouse:    true,
	},
	SulfurDioxide: {
		Name:          "sulfur dioxide",
		MeltingPointK: 197.64,
		Vapor:         VaporCurve{MinK: 197.7, MaxK: 302.0, A: 4.37798, B: 966.575, C: -42.071},
		DensityKgM3:   1461,
		MolarMassGMol: 64.066,
		Greenhouse:    true,
	},
	Water: {
		Name:          "water",
		MeltingPointK: 273.15,
		Vapor:         VaporCurve{MinK: 255.9, MaxK: 373.0, A: 4.6543, B: 1435.264, C: -64.848},
		DensityKgM3:   1000,
		MolarMassGMol: 18.015,
		Greenhouse:    true,
	},
	Ammonia: {
		Name:          "ammonia",
		MeltingPointK: 195.40,
		Vapor:         VaporCurve{MinK: 195.4, MaxK: 239.6, A: 4.86886, B: 1113.928, C: -10.409},
		DensityKgM3:   682,
		MolarMassGMol: 17.031,
		Greenhouse:    true,
	},
	Ozone: {
		Name:          "ozone",
		MeltingPointK: 80.70,
		Vapor:         VaporCurve{MinK: 92.8, MaxK: 162.8, A: 4.23637, B: 712.487, C: 6.982},
		DensityKgM3:   1354,
		MolarMassGMol: 47.998,
		Greenhouse:    true,
	},
	Argon: {
		Name:          "argon",
		MeltingPointK: 83.81,
		Vapor:         VaporCurve{MinK: 83.8, MaxK: 150.7, A: 3.29555, B: 215.240, C: -22.233},
		DensityKgM3:   1396,
		MolarMassGMol: 39.948,
	},
	Neon: {
		Name:          "neon",
		MeltingPointK: 24.56,
		Vapor:         VaporCurve{MinK: 15.9, MaxK: 44.4, A: 3.75641, B: 95.599, C: -1.503},
		DensityKgM3:   1207,
		MolarMassGMol: 20.180,
	},
	Krypton: {
		Name:          "krypton",
		MeltingPointK: 115.78,
		Vapor:         VaporCurve{MinK: 115.8, MaxK: 209.4, A: 3.23260, B: 290.237, C: -17.940},
		DensityKgM3:   2413,
		MolarMassGMol: 83.798,
	},
	Xenon: {
		Name:          "xenon",
		MeltingPointK: 161.40,
		Vapor:         VaporCurve{MinK: 161.7, MaxK: 289.7, A: 3.80675, B: 577.661, C: -13.000},
		DensityKgM3:   2942,
		MolarMassGMol: 131.293,
	},
}

// Lookup returns the properties for sp. The second result is false for
// species outside the table.
func Lookup(sp Species) (Properties, bool) {
	p, ok := table[sp]
	return p, ok
}

// MustLookup returns the properties for sp and panics if the species is
// unknown. Intended for the fixed species sets the engine iterates.
func MustLookup(sp Species) Properties {
	p, ok := table[sp]
	if !ok {
		panic("chem: unknown species " + string(sp))
	}
	return p
}

// Known reports whether sp is present in the property table.
func Known(sp Species) bool {
	_, ok := table[sp]
	return ok
}

// AllSpecies returns every species in the table in stable (alphabetical)
// order, for deterministic iteration and for key suggestions.
func AllSpecies() []Species {
	out := make([]Species, 0, len(table))
	for sp := range table {
		out = append(out, sp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MeltingPoint returns the melting point of sp in K, or 0 for unknown species.
func MeltingPoint(sp Species) float64 {
	return table[sp].MeltingPointK
}

// IsGreenhouse reports whether sp is flagged as a greenhouse gas.
func IsGreenhouse(sp Species) bool {
	return table[sp].Greenhouse
}
