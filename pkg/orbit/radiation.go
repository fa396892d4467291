package orbit

import "math"

// StefanBoltzmann is the Stefan–Boltzmann constant in W/(m²·K⁴).
const StefanBoltzmann = 5.670374419e-8

// SolarLuminosity is the luminosity of the Sun in watts.
const SolarLuminosity = 3.828e26

// Rotation-period buckets for day/night heat redistribution. The radiating
// area is a discrete multiple of the absorbing cross-section; shorter spin
// gets the smaller multiple.
const (
	fastSpinSec   = 43200.0   // 12 hours
	mediumSpinSec = 216000.0  // 2.5 days
	slowSpinSec   = 1728000.0 // 20 days
)

// RedistributionAreaRatio returns the radiating-to-absorbing area ratio for
// a body with the given rotation period, one of four discrete values.
func RedistributionAreaRatio(rotationPeriodSec float64) float64 {
	switch {
	case rotationPeriodSec < fastSpinSec:
		return 1
	case rotationPeriodSec < mediumSpinSec:
		return 2
	case rotationPeriodSec < slowSpinSec:
		return 3
	default:
		return 4
	}
}

// EquilibriumTemperature returns the effective temperature of a body at the
// given distance from a star of the given luminosity, with the given Bond
// albedo and redistribution area ratio.
func EquilibriumTemperature(luminosityW, albedo, distanceM, areaRatio float64) float64 {
	if luminosityW <= 0 || distanceM <= 0 || areaRatio <= 0 {
		return 0
	}
	t4 := luminosityW * (1 - albedo) /
		(4 * math.Pi * distanceM * distanceM * StefanBoltzmann * areaRatio)
	if t4 <= 0 {
		return 0
	}
	return math.Pow(t4, 0.25)
}

// DistanceForTemperature inverts EquilibriumTemperature: the orbital
// distance at which the body's effective temperature equals tempK.
func DistanceForTemperature(luminosityW, albedo, tempK, areaRatio float64) float64 {
	if luminosityW <= 0 || tempK <= 0 || areaRatio <= 0 {
		return 0
	}
	t4 := tempK * tempK * tempK * tempK
	return math.Sqrt(luminosityW * (1 - albedo) /
		(4 * math.Pi * StefanBoltzmann * areaRatio * t4))
}
