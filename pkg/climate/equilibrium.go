package climate

import (
	"math"
	"math/rand"

	"tellus/pkg/atmo"
	"tellus/pkg/chem"
)

// speciesOrder fixes the condensation priority of the volatile species.
// Water is handled separately after the rest, so the latent and chemical
// products of the earlier species are already airborne when it settles.
var speciesOrder = []chem.Species{
	chem.Methane,
	chem.CarbonMonoxide,
	chem.CarbonDioxide,
	chem.Nitrogen,
	chem.Oxygen,
	chem.SulfurDioxide,
}

// Engine partitions every volatile between atmosphere, hydrosphere and
// cloud at a candidate temperature, feeding the resulting albedo and
// greenhouse changes back into the temperature until the state settles.
// It mutates the atmosphere and hydrosphere in place.
type Engine struct {
	Atmosphere  *atmo.Atmosphere
	Hydrosphere *atmo.Hydrosphere

	// BaseAlbedo is the bare-surface albedo before ice and cloud blending.
	BaseAlbedo float64
	// WaterCoverage is the fraction of the surface under hydrosphere,
	// weighting frozen hydrosphere into planet-wide ice cover.
	WaterCoverage float64
	// MassPerKPa converts a partial-pressure change in kPa into a
	// planet-mass fraction, for hydrosphere mass bookkeeping.
	MassPerKPa float64
	// WaterVaporPin, when set, replaces the saturation-humidity estimate
	// for water with a fixed airborne proportion.
	WaterVaporPin *float64

	// LuminosityW, AreaRatio and ElevAdjustK parameterize the temperature
	// model. DistanceM anchors the implied temperature; at zero the engine
	// settles chemistry at the candidate temperature without feedback.
	LuminosityW float64
	AreaRatio   float64
	ElevAdjustK float64
	DistanceM   float64

	// Albedo is the effective albedo after cloud blending; IceAlbedo
	// tracks the ice blend separately.
	Albedo    float64
	IceAlbedo float64

	// Biosphere records whether life has been seeded. Injection is
	// one-way: retraction clears the flag but leaves the gases.
	Biosphere bool

	// Passes counts the passes taken by the last Equilibrate call.
	Passes int

	// albedoHook, when non-nil, replaces the computed albedo after each
	// pass. Bounded-iteration tests use it to force the feedback to
	// oscillate.
	albedoHook func(pass int) float64

	rng *rand.Rand
}

// NewEngine builds an equilibration engine over the given inventory. The
// rng drives biosphere seeding; nil falls back to a fixed seed. A nil
// hydrosphere is replaced with an empty one.
func NewEngine(a *atmo.Atmosphere, h *atmo.Hydrosphere, rng *rand.Rand) *Engine {
	if h == nil {
		h = &atmo.Hydrosphere{}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Engine{Atmosphere: a, Hydrosphere: h, rng: rng}
}

func (e *Engine) model() tempModel {
	return tempModel{
		luminosityW: e.LuminosityW,
		areaRatio:   e.AreaRatio,
		elevAdjustK: e.ElevAdjustK,
	}
}

// Equilibrate runs phase passes at the candidate average temperature,
// re-running at the newly implied temperature while the albedo keeps
// moving and the implied temperature keeps shifting by more than the
// gate. The loop is capped at maxPasses and the state after the last
// pass is accepted as-is. It returns the implied average temperature;
// with no orbital distance set, the candidate itself.
func (e *Engine) Equilibrate(candidateK float64) float64 {
	e.Passes = 0
	implied := candidateK
	for e.Passes < maxPasses {
		e.Passes++
		prevAlbedo := e.Albedo
		implied = e.pass(candidateK)
		if e.DistanceM <= 0 {
			return candidateK
		}
		if math.Abs(e.Albedo-prevAlbedo) <= albedoEpsilon {
			return implied
		}
		if math.Abs(implied-candidateK) <= tempGateK {
			return implied
		}
		candidateK = implied
	}
	return implied
}

// pass runs one full phase-partitioning sweep at avgK and returns the
// average temperature the resulting state implies.
func (e *Engine) pass(avgK float64) float64 {
	for _, sp := range speciesOrder {
		e.processSpecies(sp, avgK)
	}
	e.processSpecies(chem.Water, avgK)
	e.updateAlbedo()

	// Water dominates both cloud albedo and greenhouse forcing, so it is
	// re-settled at the temperature its own first settling implies.
	adjusted := e.impliedTemp(avgK)
	e.processSpecies(chem.Water, adjusted)
	e.reduceCarbonDioxide(adjusted)
	if e.seedBiosphere() {
		// Methanotrophy released fresh water vapor.
		e.processSpecies(chem.Water, adjusted)
	}
	e.updateAlbedo()
	return e.impliedTemp(adjusted)
}

func (e *Engine) impliedTemp(fallbackK float64) float64 {
	if e.DistanceM <= 0 {
		return fallbackK
	}
	return e.model().averageAt(e.DistanceM, e.Albedo, e.Atmosphere.GreenhouseFactor())
}

// processSpecies rebalances one species between reservoir, vapor and
// cloud at the given temperature.
func (e *Engine) processSpecies(sp chem.Species, avgK float64) {
	props, ok := chem.Lookup(sp)
	if !ok {
		return
	}
	air := &e.Atmosphere.Air
	gasBefore := air.Proportion(sp, chem.PhaseGas)
	airborneBefore := air.Proportion(sp, chem.PhaseAny)
	reservoirBefore := e.Hydrosphere.Proportion(sp, chem.PhaseAny)
	pool := airborneBefore + reservoirBefore
	if pool <= massEpsilon {
		return
	}

	pressure := e.Atmosphere.PressureKPa
	partial := gasBefore * pressure
	vp := 0.0
	if avgK >= props.Vapor.MinK {
		vp = props.Vapor.PressureKPa(avgK)
	}
	condensing := avgK < props.Vapor.MinK || partial > vp
	// A reservoir persists only while its vapor pressure stays below the
	// total pressure; at or above it the reservoir boils.
	stable := vp < pressure

	switch {
	case condensing || (reservoirBefore > massEpsilon && stable):
		vapor := e.residualVapor(sp, pool, vp, pressure)
		e.depositReservoir(sp, props, pool-vapor, reservoirBefore, avgK, pressure)
		e.setVaporAndCloud(sp, props, vapor, avgK)

	case reservoirBefore > massEpsilon:
		// Boil-off: the whole reservoir goes airborne.
		vapor := pool
		var oxygen float64
		if sp == chem.Water {
			// UV splits nearly all of the boiled-off water; the hydrogen
			// escapes and the freed oxygen stays.
			vapor = pool * photoResidual
			oxygen = math.Min((pool-vapor)*photoOxygenShare, photoOxygenCap)
		}
		e.drainReservoir(sp)
		e.setVaporAndCloud(sp, props, vapor, avgK)
		if oxygen > massEpsilon && !e.Atmosphere.IsEmpty() {
			e.Atmosphere.Air.AddComponent(chem.Oxygen, chem.PhaseGas, oxygen)
			e.Atmosphere.PressureKPa /= 1 - oxygen
			e.Atmosphere.Invalidate()
		}

	default:
		// Gas-phase only and under saturation: nothing to move.
	}
}

// residualVapor is the airborne share a saturated pool settles to, the
// average-humidity heuristic. Water may be pinned to a configured ratio.
func (e *Engine) residualVapor(sp chem.Species, pool, vp, pressure float64) float64 {
	if sp == chem.Water && e.WaterVaporPin != nil {
		return math.Min(pool, *e.WaterVaporPin)
	}
	if vp <= 0 {
		return 0
	}
	ratio := 1.0
	if pressure > massEpsilon {
		ratio = math.Min(1, vp/pressure)
	}
	return pool * ratio * humidityFactor
}

// depositReservoir stores the condensed share of a species in the
// hydrosphere, choosing phase structure by temperature, and books the
// moved mass against the hydrosphere's planet-mass share.
func (e *Engine) depositReservoir(sp chem.Species, props chem.Properties, amount, before, avgK, pressure float64) {
	h := e.Hydrosphere
	water := &h.Water
	if amount <= massEpsilon {
		clearReservoirEntries(water, sp)
	} else if sp == chem.Water {
		water.Homogenize()
		if avgK < props.MeltingPointK {
			// Frozen over. A large enough hydrosphere keeps a thin liquid
			// floor under the ice.
			water.SetProportion(sp, chem.PhaseLiquid, 0)
			water.SetProportion(sp, chem.PhaseSolid, amount)
			if h.MassFraction >= subsurfaceThreshold {
				water.Split(1 - subsurfaceFloor)
				water.SetPhaseInLayer(0, sp, chem.PhaseLiquid)
			}
		} else {
			// Open water, with polar caps when the polar mean is below
			// freezing. The caps are geographic, not a depth stratum.
			caps := 0.0
			if polarTemp(avgK) < props.MeltingPointK {
				caps = amount * icecapFraction
			}
			water.SetProportion(sp, chem.PhaseSolid, caps)
			water.SetProportion(sp, chem.PhaseLiquid, amount-caps)
		}
	} else {
		ph := chem.PhaseLiquid
		if avgK < props.MeltingPointK {
			ph = chem.PhaseSolid
		}
		other := chem.PhaseSolid
		if ph == chem.PhaseSolid {
			other = chem.PhaseLiquid
		}
		water.SetProportion(sp, other, 0)
		water.SetProportion(sp, ph, amount)
	}

	if e.MassPerKPa > 0 {
		h.MassFraction += (amount - before) * pressure * e.MassPerKPa
		if h.MassFraction < 0 {
			h.MassFraction = 0
		}
	}
}

// drainReservoir empties a species out of the hydrosphere on boil-off,
// scaling the recorded planet-mass share down by the species' share of
// the ledger.
func (e *Engine) drainReservoir(sp chem.Species) {
	h := e.Hydrosphere
	total := h.Water.Total()
	held := h.Water.Proportion(sp, chem.PhaseAny)
	clearReservoirEntries(&h.Water, sp)
	if total > massEpsilon {
		h.MassFraction *= 1 - clamp01(held/total)
	} else {
		h.MassFraction = 0
	}
}

// clearReservoirEntries deletes a species from every hydrosphere layer
// without renormalizing, so the other reservoirs keep their amounts.
func clearReservoirEntries(water *chem.Composition, sp chem.Species) {
	water.SetProportion(sp, chem.PhaseSolid, 0)
	water.SetProportion(sp, chem.PhaseLiquid, 0)
	water.SetProportion(sp, chem.PhaseGas, 0)
}

// setVaporAndCloud replaces the species' airborne inventory with the
// given vapor amount, 20% of it as cloud, and rescales the pressure to
// the net gas-phase change.
func (e *Engine) setVaporAndCloud(sp chem.Species, props chem.Properties, vapor, avgK float64) {
	gas := vapor * (1 - cloudFraction)
	cloudSolid, cloudLiquid := splitCloud(props, vapor*cloudFraction, avgK)

	atm := e.Atmosphere
	if atm.IsEmpty() {
		if vapor <= massEpsilon {
			return
		}
		// A reservoir boiling into vacuum founds a fresh atmosphere at the
		// sub-saturated humidity pressure.
		atm.Air = chem.New(map[chem.Component]float64{
			chem.C(sp, chem.PhaseGas):    gas,
			chem.C(sp, chem.PhaseSolid):  cloudSolid,
			chem.C(sp, chem.PhaseLiquid): cloudLiquid,
		})
		atm.PressureKPa = props.Vapor.PressureKPa(avgK) * humidityFactor
		atm.Invalidate()
		return
	}

	air := &atm.Air
	gasBefore := air.Proportion(sp, chem.PhaseGas)
	gasTotal := air.TotalInPhase(chem.PhaseGas)
	air.SetProportion(sp, chem.PhaseGas, gas)
	air.SetProportion(sp, chem.PhaseSolid, cloudSolid)
	air.SetProportion(sp, chem.PhaseLiquid, cloudLiquid)
	air.Balance()
	atm.RescalePressure(gasTotal, gasTotal-gasBefore+gas)
	atm.Invalidate()
}

// splitCloud divides a cloud mass between ice and droplets by the cloud
// deck temperature relative to the species' melting point.
func splitCloud(props chem.Properties, cloud, avgK float64) (solid, liquid float64) {
	if cloud <= massEpsilon {
		return 0, 0
	}
	deckK := avgK - cloudLapseK
	switch {
	case deckK < props.MeltingPointK-cloudPhaseBandK:
		return cloud, 0
	case deckK > props.MeltingPointK+cloudPhaseBandK:
		return 0, cloud
	default:
		return cloud / 2, cloud / 2
	}
}

// reduceCarbonDioxide models the carbon-silicate weathering cycle: once
// the air is humid, carbon dioxide above a trace draws down into nitrogen
// with small noble-gas carve-outs, every layer independently.
func (e *Engine) reduceCarbonDioxide(avgK float64) {
	atm := e.Atmosphere
	if atm.IsEmpty() {
		return
	}
	water := chem.MustLookup(chem.Water)
	if avgK < water.Vapor.MinK {
		return
	}
	humidity := atm.PartialPressureKPa(chem.Water)
	if humidity <= humidityTrigger*water.Vapor.PressureKPa(avgK) {
		return
	}
	air := &atm.Air
	if air.Proportion(chem.CarbonDioxide, chem.PhaseGas) <= co2Trace {
		return
	}
	for i := 0; i < air.LayerCount(); i++ {
		co2 := air.ProportionInLayer(i, chem.CarbonDioxide, chem.PhaseGas)
		if co2 <= co2Trace {
			continue
		}
		remaining := co2 - co2Residual
		ar := remaining * argonCarve
		remaining -= ar
		kr := remaining * kryptonCarve
		remaining -= kr
		xe := remaining * xenonCarve
		remaining -= xe
		ne := remaining * neonCarve
		remaining -= ne

		air.SetProportionInLayer(i, chem.CarbonDioxide, chem.PhaseGas, co2Residual)
		bumpLayer(air, i, chem.Nitrogen, remaining)
		bumpLayer(air, i, chem.Argon, ar)
		bumpLayer(air, i, chem.Krypton, kr)
		bumpLayer(air, i, chem.Xenon, xe)
		bumpLayer(air, i, chem.Neon, ne)
	}
	atm.Invalidate()
}

// bumpLayer adds to a gas-phase proportion in one layer without
// renormalizing; reduceCarbonDioxide conserves each layer's total itself.
func bumpLayer(c *chem.Composition, i int, sp chem.Species, delta float64) {
	if delta <= massEpsilon {
		return
	}
	cur := c.ProportionInLayer(i, sp, chem.PhaseGas)
	c.SetProportionInLayer(i, sp, chem.PhaseGas, cur+delta)
}

// seedBiosphere injects life's atmospheric signature once a stable open
// liquid surface exists: free oxygen, an ozone stratum, and methane
// oxidized to carbon dioxide and water. The flag clears again if the
// surface is later lost, but the gases stay. Reports whether an
// injection happened this call.
func (e *Engine) seedBiosphere() bool {
	hospitable := e.Hydrosphere.HasLiquidSurface() && !e.Atmosphere.IsEmpty()
	if e.Biosphere {
		if !hospitable {
			e.Biosphere = false
		}
		return false
	}
	if !hospitable {
		return false
	}
	e.Biosphere = true
	air := &e.Atmosphere.Air

	o2 := biosphereO2Min + e.rng.Float64()*biosphereO2Span
	air.AddComponent(chem.Oxygen, chem.PhaseGas, o2)

	if air.LayerCount() == 1 {
		air.Split(upperLayerRatio)
	}
	air.AddToLayer(air.LayerCount()-1, chem.Ozone, chem.PhaseGas, ozonePerOxygen*o2)

	for i := 0; i < air.LayerCount(); i++ {
		ch4 := air.ProportionInLayer(i, chem.Methane, chem.PhaseGas)
		if ch4 <= massEpsilon {
			continue
		}
		residual := ch4 * methaneResidual
		converted := ch4 - residual
		air.SetProportionInLayer(i, chem.Methane, chem.PhaseGas, residual)
		bumpLayer(air, i, chem.CarbonDioxide, converted/3)
		bumpLayer(air, i, chem.Water, 2*converted/3)
	}
	e.Atmosphere.Invalidate()
	return true
}

// updateAlbedo recomputes the albedo blends. Cloud cover, not ice cover,
// decides the effective albedo; the ice blend is tracked for reporting.
func (e *Engine) updateAlbedo() {
	ice := clamp01(e.Hydrosphere.SolidFraction() * e.WaterCoverage)
	e.IceAlbedo = blendAlbedo(e.BaseAlbedo, ice)
	e.Albedo = blendAlbedo(e.BaseAlbedo, e.Atmosphere.CloudCover())
	if e.albedoHook != nil {
		e.Albedo = e.albedoHook(e.Passes)
	}
}
