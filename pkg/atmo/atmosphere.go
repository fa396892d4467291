// Package atmo holds the atmosphere and hydrosphere state of a planet under
// generation, and builds initial atmospheres in the trace or thick regime.
package atmo

import (
	"math"

	"tellus/pkg/chem"
)

// Earth-reference constants used to scale derived capacities.
const (
	// EarthPressureKPa is standard sea-level pressure.
	EarthPressureKPa = 101.325
	// earthWaterVaporKPa is the average partial pressure of water vapor in
	// Earth's atmosphere.
	earthWaterVaporKPa = 0.25
	// earthPrecipitationMM is Earth's average annual precipitation.
	earthPrecipitationMM = 990.0
	// SnowToRainRatio converts a liquid precipitation depth to the
	// equivalent snow depth.
	SnowToRainRatio = 10.0
	// cloudCoverPerMass converts the cloud-phase mass fraction of the
	// atmosphere into a 0..1 sky cover estimate. Earth's equilibrium cloud
	// load (~0.09% of air mass) maps to roughly one-sixth sky cover.
	cloudCoverPerMass = 200.0
)

// greenhouseWeights scales each gas's partial pressure (kPa) inside the
// greenhouse factor's log term. Tuned so modern Earth lands near 1.13.
// The list order fixes the summation order, keeping equal atmospheres at
// bit-equal factors.
var greenhouseWeights = []struct {
	Species chem.Species
	Weight  float64
}{
	{chem.Water, 5},
	{chem.CarbonDioxide, 4},
	{chem.Methane, 120},
	{chem.SulfurDioxide, 2},
	{chem.Ozone, 200},
	{chem.Ammonia, 10},
}

// Atmosphere owns the gas mixture of a planet plus its derived scalar
// properties. Cloud strata live inside Air as liquid or solid entries.
type Atmosphere struct {
	Air         chem.Composition `json:"air"`
	PressureKPa float64          `json:"pressure_kpa"`

	ghFactor float64
	ghValid  bool
}

// NewAtmosphere wraps a gas mixture at the given surface pressure.
func NewAtmosphere(air chem.Composition, pressureKPa float64) *Atmosphere {
	return &Atmosphere{Air: air, PressureKPa: pressureKPa}
}

// IsEmpty reports whether the body is effectively airless.
func (a *Atmosphere) IsEmpty() bool {
	return a == nil || a.PressureKPa <= 0 || a.Air.IsEmpty()
}

// Invalidate discards cached derived properties. Call after any direct
// mutation of Air or PressureKPa.
func (a *Atmosphere) Invalidate() {
	a.ghValid = false
}

// PartialPressureKPa returns the gas-phase partial pressure of a species.
func (a *Atmosphere) PartialPressureKPa(sp chem.Species) float64 {
	if a.IsEmpty() {
		return 0
	}
	return a.Air.Proportion(sp, chem.PhaseGas) * a.PressureKPa
}

// GreenhouseFactor returns the ratio of surface temperature to effective
// temperature implied by the current greenhouse gas inventory,
//
//	1 + 0.14·ln(1 + Σ wᵢ·pᵢ)
//
// with pᵢ the partial pressures in kPa. Cached until Invalidate.
func (a *Atmosphere) GreenhouseFactor() float64 {
	if a.IsEmpty() {
		return 1
	}
	if a.ghValid {
		return a.ghFactor
	}
	sum := 0.0
	for _, g := range greenhouseWeights {
		sum += g.Weight * a.PartialPressureKPa(g.Species)
	}
	a.ghFactor = 1 + 0.14*math.Log(1+sum)
	a.ghValid = true
	return a.ghFactor
}

// WaterVaporPartialKPa returns the partial pressure of gaseous water.
func (a *Atmosphere) WaterVaporPartialKPa() float64 {
	return a.PartialPressureKPa(chem.Water)
}

// CloudCover returns the cloud sky-cover estimate in [0,1], derived from
// the condensed-phase mass held aloft.
func (a *Atmosphere) CloudCover() float64 {
	if a.IsEmpty() {
		return 0
	}
	mass := a.Air.TotalInPhase(chem.PhaseLiquid) + a.Air.TotalInPhase(chem.PhaseSolid)
	cover := mass * cloudCoverPerMass
	if cover > 1 {
		return 1
	}
	return cover
}

// AveragePrecipitationMM returns the annual precipitation capacity in mm,
// scaled from Earth's by the water vapor partial pressure.
func (a *Atmosphere) AveragePrecipitationMM() float64 {
	return earthPrecipitationMM * a.WaterVaporPartialKPa() / earthWaterVaporKPa
}

// MaxPrecipitationMM returns the peak annual precipitation any cell can see.
func (a *Atmosphere) MaxPrecipitationMM() float64 {
	return a.AveragePrecipitationMM() * 1.5
}

// MaxSnowfallMM returns the peak annual snowfall depth equivalent.
func (a *Atmosphere) MaxSnowfallMM() float64 {
	return a.MaxPrecipitationMM() * SnowToRainRatio
}

// RescalePressure multiplies the surface pressure to track a change in the
// gas-phase mass fraction, oldGas → newGas. A vanishing gas phase zeroes
// the pressure outright.
func (a *Atmosphere) RescalePressure(oldGas, newGas float64) {
	if a == nil {
		return
	}
	if newGas <= 1e-12 {
		a.PressureKPa = 0
	} else if oldGas > 1e-12 {
		a.PressureKPa *= newGas / oldGas
	}
	a.Invalidate()
}

// Hydrosphere owns the surface volatiles of a planet: oceans, ice sheets
// and anything between, as a possibly layered mixture, plus the share of
// the planet's mass they represent.
type Hydrosphere struct {
	Water        chem.Composition `json:"water"`
	MassFraction float64          `json:"mass_fraction"`
}

// IsEmpty reports whether the hydrosphere holds no mass. The composition
// is authoritative; MassFraction is bookkeeping and may lag behind it.
func (h *Hydrosphere) IsEmpty() bool {
	return h == nil || h.Water.IsEmpty()
}

// LiquidFraction returns the liquid share of the hydrosphere's mass.
func (h *Hydrosphere) LiquidFraction() float64 {
	return h.phaseShare(chem.PhaseLiquid)
}

// SolidFraction returns the frozen share of the hydrosphere's mass.
func (h *Hydrosphere) SolidFraction() float64 {
	return h.phaseShare(chem.PhaseSolid)
}

// phaseShare divides the phase total by the ledger's grand total, so the
// result is a true fraction even when the ledger tracks raw amounts.
func (h *Hydrosphere) phaseShare(ph chem.Phase) float64 {
	if h.IsEmpty() {
		return 0
	}
	total := h.Water.Total()
	if total <= 0 {
		return 0
	}
	return h.Water.TotalInPhase(ph) / total
}

// HasLiquidSurface reports whether the topmost stratum holds liquid water,
// the condition for a stable open-water surface.
func (h *Hydrosphere) HasLiquidSurface() bool {
	if h.IsEmpty() {
		return false
	}
	top := h.Water.LayerCount() - 1
	return h.Water.ProportionInLayer(top, chem.Water, chem.PhaseLiquid) > 1e-6
}

// Proportion returns the hydrosphere-wide mass fraction of a component.
func (h *Hydrosphere) Proportion(sp chem.Species, ph chem.Phase) float64 {
	if h == nil {
		return 0
	}
	return h.Water.Proportion(sp, ph)
}
