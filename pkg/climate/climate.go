// Package climate drives a planet's volatile inventory, albedo and orbit
// to a self-consistent state, then samples the annual climate over the
// surface grid.
//
// Three stages build on each other. The Engine runs bounded fixed-point
// passes that partition each volatile between atmosphere, hydrosphere and
// cloud at a candidate temperature. The Solver wraps the engine in an
// orbit-fitting loop that moves the planet until a target temperature is
// met. The Sampler takes the converged state and derives per-cell,
// per-season temperature, precipitation and snow/ice cover.
package climate

import (
	"math"

	"tellus/pkg/orbit"
)

const (
	// maxPasses bounds the equilibration fixed-point loop; the loop is a
	// bounded relaxation, not a proven-convergent solve.
	maxPasses = 10
	// tempGateK ends equilibration early once a pass shifts the implied
	// temperature by no more than this.
	tempGateK = 5.0

	// humidityFactor is the share of a saturated volatile pool that stays
	// airborne, an average-humidity heuristic.
	humidityFactor = 0.25
	// cloudFraction is the share of airborne vapor held as cloud.
	cloudFraction = 0.20
	// cloudLapseK is how much colder the cloud deck is than the surface.
	cloudLapseK = 24.5
	// cloudPhaseBandK is the half-width of the mixed-phase cloud band
	// around a species' melting point.
	cloudPhaseBandK = 15.0

	// albedoAsymptote is the brightness both ice and cloud blends approach
	// at full cover.
	albedoAsymptote = 0.9

	// equatorialCorrection converts a planet-average surface temperature
	// to the equatorial annual mean.
	equatorialCorrection = 1.0275
	// latitudeVariation shapes the pole-ward temperature falloff. The
	// value makes the area-weighted mean of the latitude profile cancel
	// equatorialCorrection exactly.
	latitudeVariation = 0.1247

	// icecapFraction is the share of a liquid reservoir locked into polar
	// caps when the polar mean sits below freezing.
	icecapFraction = 0.28
	// subsurfaceFloor is the minimum liquid share kept under a frozen-over
	// hydrosphere, tidal and radiogenic heating keeping the floor wet.
	subsurfaceFloor = 0.01
	// subsurfaceThreshold is the hydrosphere mass fraction below which the
	// body is too small to sustain a subsurface ocean.
	subsurfaceThreshold = 0.01

	// co2Trace is the carbon dioxide proportion above which silicate
	// weathering engages; co2Residual is what it leaves behind.
	co2Trace    = 1e-3
	co2Residual = 5e-4
	// humidityTrigger scales water's vapor pressure into the minimum
	// humidity for weathering.
	humidityTrigger = 0.01

	// photoResidual is the water share surviving UV photodissociation when
	// an ocean boils off; photoOxygenShare is the oxygen mass fraction of
	// the broken-down remainder.
	photoResidual    = 1e-3
	photoOxygenShare = 8.0 / 9.0
	// photoOxygenCap bounds the oxygen injected by a single boil-off.
	photoOxygenCap = 0.95

	// biosphereO2Min and biosphereO2Span bound the free oxygen fraction a
	// new biosphere injects.
	biosphereO2Min  = 0.20
	biosphereO2Span = 0.05
	// ozonePerOxygen sets the ozone fraction relative to free oxygen.
	ozonePerOxygen = 4.5e-5
	// methaneResidual is the methane share left after methanotrophy.
	methaneResidual = 1e-3
	// upperLayerRatio is the mass share of the differentiated upper
	// stratum that holds the ozone.
	upperLayerRatio = 0.15

	// Noble-gas carve ratios applied to reduced carbon dioxide, in
	// priority order, each depleting the remaining budget.
	argonCarve   = 0.012
	kryptonCarve = 1.5e-6
	xenonCarve   = 1.1e-7
	neonCarve    = 2.3e-5

	// dryLapseKPerM is the dry adiabatic lapse rate.
	dryLapseKPerM = 0.0098
	// elevationShare is the portion of maximum relief taken as the
	// planet's typical surface elevation.
	elevationShare = 0.07

	// defaultTargetK is the solve target when neither an explicit
	// temperature nor habitability bounds are given.
	defaultTargetK = 250.0
	// boundMarginK offsets a single-sided habitability bound into a
	// target the solver can aim at.
	boundMarginK = 10.0
	// solverMaxIterations bounds the orbit-fitting loop.
	solverMaxIterations = 10
	// solverToleranceK is the accepted temperature miss.
	solverToleranceK = 0.5

	massEpsilon   = 1e-12
	albedoEpsilon = 1e-6
)

// tempModel converts between orbital distance and planet-average surface
// temperature for a fixed star, spin regime and relief. averageAt and
// distanceFor are exact inverses.
type tempModel struct {
	luminosityW float64
	areaRatio   float64
	elevAdjustK float64
}

// averageAt returns the average surface temperature at the given orbital
// distance under the given albedo and greenhouse factor.
func (m tempModel) averageAt(distanceM, albedo, greenhouse float64) float64 {
	eq := orbit.EquilibriumTemperature(m.luminosityW, albedo, distanceM, m.areaRatio)
	return (eq*greenhouse - m.elevAdjustK) / equatorialCorrection
}

// distanceFor returns the orbital distance at which the given albedo and
// greenhouse factor yield the target average surface temperature.
func (m tempModel) distanceFor(targetK, albedo, greenhouse float64) float64 {
	if greenhouse <= 0 {
		greenhouse = 1
	}
	solvable := (targetK*equatorialCorrection + m.elevAdjustK) / greenhouse
	return orbit.DistanceForTemperature(m.luminosityW, albedo, solvable, m.areaRatio)
}

// ElevationAdjustK returns the temperature adjustment for a planet whose
// relief tops out at maxElevationM, the dry-adiabatic cooling of the
// typical surface elevation. Engine and Sampler take the result as their
// ElevAdjustK parameter.
func ElevationAdjustK(maxElevationM float64) float64 {
	if maxElevationM < 0 {
		maxElevationM = 0
	}
	return elevationShare * maxElevationM * dryLapseKPerM
}

// latitudeFactor scales the equatorial mean temperature toward the poles.
func latitudeFactor(latRad float64) float64 {
	return 1 - latitudeVariation*(1-math.Cos(latRad))
}

// equatorTemp converts a planet-average temperature to the equatorial mean.
func equatorTemp(avgK float64) float64 {
	return avgK * equatorialCorrection
}

// polarTemp converts a planet-average temperature to the polar mean.
func polarTemp(avgK float64) float64 {
	return avgK * equatorialCorrection * latitudeFactor(math.Pi/2)
}

// blendAlbedo slides the base albedo toward the bright asymptote by the
// covered fraction.
func blendAlbedo(base, cover float64) float64 {
	if cover < 0 {
		cover = 0
	} else if cover > 1 {
		cover = 1
	}
	return base + (albedoAsymptote-base)*cover
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
