package orbit

import "math"

// keplerIterations bounds the Newton solve of Kepler's equation. The solve
// converges in a handful of steps for any e < 1; the cap guards pathological
// float inputs.
const keplerIterations = 16

const keplerTolerance = 1e-10

// TrueAnomalyAtYearFraction maps a fraction of the orbital year (0 at
// periapsis) to a true anomaly in [0, 2π). Solves Kepler's equation
// E − e·sin(E) = M by Newton iteration.
func (e Elements) TrueAnomalyAtYearFraction(frac float64) float64 {
	frac = frac - math.Floor(frac)
	m := 2 * math.Pi * frac
	ecc := e.Eccentricity
	if ecc < 1e-9 {
		return m
	}
	// Newton on f(E) = E − e·sinE − M, starting from M.
	ea := m
	for i := 0; i < keplerIterations; i++ {
		delta := (ea - ecc*math.Sin(ea) - m) / (1 - ecc*math.Cos(ea))
		ea -= delta
		if math.Abs(delta) < keplerTolerance {
			break
		}
	}
	nu := 2 * math.Atan2(
		math.Sqrt(1+ecc)*math.Sin(ea/2),
		math.Sqrt(1-ecc)*math.Cos(ea/2),
	)
	if nu < 0 {
		nu += 2 * math.Pi
	}
	return nu
}

// YearFractionAtTrueAnomaly is the inverse mapping, returning the fraction
// of the orbital year elapsed since periapsis at true anomaly nu.
func (e Elements) YearFractionAtTrueAnomaly(nu float64) float64 {
	ecc := e.Eccentricity
	ea := 2 * math.Atan2(
		math.Sqrt(1-ecc)*math.Sin(nu/2),
		math.Sqrt(1+ecc)*math.Cos(nu/2),
	)
	m := ea - ecc*math.Sin(ea)
	frac := m / (2 * math.Pi)
	return frac - math.Floor(frac)
}

// Declination returns the subsolar latitude in radians at true anomaly nu
// for a body with the given axial tilt: maximal southern declination at the
// winter solstice anomaly, maximal northern half a year later.
func (e Elements) Declination(axialTiltRad, nu float64) float64 {
	return -axialTiltRad * math.Cos(nu-e.WinterSolsticeNu)
}
