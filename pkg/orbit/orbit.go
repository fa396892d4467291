// Package orbit supplies the narrow orbital-mechanics surface the climate
// engine consumes: elements, instantaneous distance, orbital period, and
// the mapping between year fraction and true anomaly.
package orbit

import (
	"fmt"
	"math"
)

// G is the gravitational constant in m³/(kg·s²).
const G = 6.674e-11

// AU is one astronomical unit in meters.
const AU = 1.495978707e11

// SolarMass is the mass of the Sun in kilograms.
const SolarMass = 1.98892e30

// Elements describes a closed orbit around a primary. WinterSolsticeNu is
// the true anomaly at the northern-hemisphere winter solstice; seasonal
// sampling starts there.
type Elements struct {
	SemiMajorAxisM   float64 `json:"semi_major_axis_m" yaml:"semi_major_axis_m"`
	Eccentricity     float64 `json:"eccentricity" yaml:"eccentricity"`
	WinterSolsticeNu float64 `json:"winter_solstice_nu" yaml:"winter_solstice_nu"`
}

// ForAverageDistance returns elements whose time-averaged orbital radius
// equals dist. The time average of r over a Keplerian orbit is a(1+e²/2).
func ForAverageDistance(dist, eccentricity float64) (Elements, error) {
	if dist <= 0 {
		return Elements{}, fmt.Errorf("average distance must be positive, got %g", dist)
	}
	if eccentricity < 0 || eccentricity >= 1 {
		return Elements{}, fmt.Errorf("eccentricity must be in [0,1), got %g", eccentricity)
	}
	return Elements{
		SemiMajorAxisM: dist / (1 + eccentricity*eccentricity/2),
		Eccentricity:   eccentricity,
	}, nil
}

// AverageDistanceM returns the time-averaged orbital radius.
func (e Elements) AverageDistanceM() float64 {
	return e.SemiMajorAxisM * (1 + e.Eccentricity*e.Eccentricity/2)
}

// DistanceAt returns the orbital radius at true anomaly nu.
func (e Elements) DistanceAt(nu float64) float64 {
	return e.SemiMajorAxisM * (1 - e.Eccentricity*e.Eccentricity) /
		(1 + e.Eccentricity*math.Cos(nu))
}

// PeriapsisM returns the minimum orbital radius.
func (e Elements) PeriapsisM() float64 {
	return e.SemiMajorAxisM * (1 - e.Eccentricity)
}

// ApoapsisM returns the maximum orbital radius.
func (e Elements) ApoapsisM() float64 {
	return e.SemiMajorAxisM * (1 + e.Eccentricity)
}

// PeriodSec returns the orbital period around a primary of the given mass.
func (e Elements) PeriodSec(primaryMassKg float64) float64 {
	if primaryMassKg <= 0 || e.SemiMajorAxisM <= 0 {
		return 0
	}
	a := e.SemiMajorAxisM
	return 2 * math.Pi * math.Sqrt(a*a*a/(G*primaryMassKg))
}
