package atmo

import (
	"math"
	"math/rand"

	"tellus/pkg/chem"
	"tellus/pkg/habitability"
)

// Regime names the generation branch the builder chose.
type Regime string

const (
	// RegimeTrace is the thin-atmosphere branch for bodies too hot or too
	// light to hold volatiles.
	RegimeTrace Regime = "trace"
	// RegimeThick is the substantial CO2-dominated primordial branch.
	RegimeThick Regime = "thick"
)

// MassiveThresholdKg is the planet mass above which the thick-regime
// pressure divisor drops tenfold, matching the magnetosphere effect.
const MassiveThresholdKg = 1.5e24

// BuildInput carries the planet scalars the builder samples from.
type BuildInput struct {
	MassKg          float64
	Magnetosphere   bool
	BlackbodyTempK  float64
	TraceCutoffK    float64
	HasSurfaceWater bool

	// TargetPressureKPa pins the thick-regime surface pressure exactly.
	TargetPressureKPa *float64
	// Habitability, when present with pressure bounds, drives the
	// thick-regime pressure distribution instead of the mass scaling.
	Habitability *habitability.Requirement
}

// Build generates an initial atmosphere for the given body. The result may
// be empty (pressure 0): a trace roll that produces nothing beyond stray
// hydrogen and helium is a valid airless outcome, not an error.
func Build(in BuildInput, rng *rand.Rand) (*Atmosphere, Regime) {
	if in.BlackbodyTempK > in.TraceCutoffK {
		return buildTrace(in, rng), RegimeTrace
	}
	return buildThick(in, rng), RegimeThick
}

// buildTrace rolls the thin-atmosphere branch: hydrogen and helium always
// present in minute amounts, every other volatile an independent coin flip.
func buildTrace(in BuildInput, rng *rand.Rand) *Atmosphere {
	parts := map[chem.Component]float64{}
	parts[chem.C(chem.Hydrogen, chem.PhaseGas)] = 5e-8 + rng.Float64()*1.5e-7
	parts[chem.C(chem.Helium, chem.PhaseGas)] = 2.6e-8 + rng.Float64()*7.4e-8

	roll := func(sp chem.Species, max float64) float64 {
		if rng.Float64() < 0.5 {
			return 0
		}
		v := rng.Float64() * max
		parts[chem.C(sp, chem.PhaseGas)] = v
		return v
	}
	total := 0.0
	total += roll(chem.Methane, 0.02)
	total += roll(chem.CarbonMonoxide, 0.01)
	total += roll(chem.SulfurDioxide, 0.001)
	total += roll(chem.Nitrogen, 0.15)
	total += roll(chem.CarbonDioxide, 0.5)
	var h2o float64
	if !in.HasSurfaceWater {
		h2o = roll(chem.Water, 0.001)
		total += h2o
	}
	if h2o > 0 {
		parts[chem.C(chem.Oxygen, chem.PhaseGas)] = h2o * 1e-4
		total += h2o * 1e-4
	} else {
		total += roll(chem.Oxygen, 2e-5)
	}

	// Stray H/He alone do not make an atmosphere.
	if total < 1e-6 {
		return NewAtmosphere(chem.Empty(), 0)
	}
	pressure := math.Exp(rng.NormFloat64()*2 - 6)
	if pressure > 2 {
		pressure = 2
	}
	return NewAtmosphere(chem.New(parts), pressure)
}

// buildThick generates a CO2-dominated primordial atmosphere with N2
// filling the remainder and noble gases carved out of the N2 budget in
// Ar, Kr, Xe, Ne order, each depleting the budget before the next.
func buildThick(in BuildInput, rng *rand.Rand) *Atmosphere {
	co2 := 0.97 + rng.Float64()*0.02
	ch4 := rng.Float64() * 5e-4
	co := rng.Float64() * 5e-4
	so2 := rng.Float64() * 5e-4

	var h2o, o2 float64
	if !in.HasSurfaceWater {
		// Seeding vapor with surface water present would double-count the
		// planet's water budget.
		h2o = rng.Float64() * 1e-3
		o2 = h2o * 1e-4
	} else {
		// Abiotic photodissociation baseline.
		o2 = rng.Float64() * 5e-5
	}

	n2 := 1 - co2 - ch4 - co - so2 - h2o - o2
	if n2 < 0 {
		n2 = 0
	}
	ar := n2 * rng.Float64() * 0.02
	n2 -= ar
	kr := n2 * rng.Float64() * 1e-3
	n2 -= kr
	xe := n2 * rng.Float64() * 1e-4
	n2 -= xe
	ne := n2 * rng.Float64() * 1e-4
	n2 -= ne

	parts := map[chem.Component]float64{}
	gas := func(sp chem.Species, v float64) {
		if v > 0 {
			parts[chem.C(sp, chem.PhaseGas)] = v
		}
	}
	gas(chem.CarbonDioxide, co2)
	gas(chem.Nitrogen, n2)
	gas(chem.Methane, ch4)
	gas(chem.CarbonMonoxide, co)
	gas(chem.SulfurDioxide, so2)
	gas(chem.Argon, ar)
	gas(chem.Krypton, kr)
	gas(chem.Xenon, xe)
	gas(chem.Neon, ne)
	gas(chem.Water, h2o)
	gas(chem.Oxygen, o2)
	return NewAtmosphere(chem.New(parts), thickPressure(in, rng))
}

// thickPressure samples the surface pressure for the thick regime: an
// explicit target wins, then habitability pressure bounds, then a
// log-normal distribution scaled by planet mass with a divisor ten times
// smaller for massive or magnetized bodies.
func thickPressure(in BuildInput, rng *rand.Rand) float64 {
	if in.TargetPressureKPa != nil {
		return *in.TargetPressureKPa
	}
	if in.Habitability != nil {
		min, max := in.Habitability.MinPressureKPa, in.Habitability.MaxPressureKPa
		switch {
		case min != nil && max != nil:
			return *min + rng.Float64()*(*max-*min)
		case min != nil:
			return *min * (1 + rng.Float64()*9)
		case max != nil:
			return rng.Float64() * *max
		}
	}
	divisor := 6e23
	if in.MassKg >= MassiveThresholdKg || in.Magnetosphere {
		divisor = 6e22
	}
	return math.Exp(rng.NormFloat64()) * in.MassKg / divisor
}
