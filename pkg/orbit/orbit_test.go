package orbit

import (
	"math"
	"testing"
)

const tolerance = 1e-6

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}

// Earth-like reference values.
const (
	earthSMA       = 1.495978707e11
	earthEcc       = 0.0167
	sunMass        = 1.989e30
	earthAlbedo    = 0.306
	secondsPerYear = 3.15576e7
)

// --- Elements ---

func TestDistanceAtExtremes(t *testing.T) {
	e := Elements{SemiMajorAxisM: earthSMA, Eccentricity: earthEcc}
	if !approxEqual(e.DistanceAt(0), e.PeriapsisM(), 1) {
		t.Errorf("expected periapsis %f at nu=0, got %f", e.PeriapsisM(), e.DistanceAt(0))
	}
	if !approxEqual(e.DistanceAt(math.Pi), e.ApoapsisM(), 1) {
		t.Errorf("expected apoapsis %f at nu=pi, got %f", e.ApoapsisM(), e.DistanceAt(math.Pi))
	}
}

func TestForAverageDistanceRoundTrip(t *testing.T) {
	e, err := ForAverageDistance(2.1e11, 0.2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approxEqual(e.AverageDistanceM(), 2.1e11, 1) {
		t.Errorf("expected average distance 2.1e11, got %f", e.AverageDistanceM())
	}
}

func TestForAverageDistanceRejectsBadInput(t *testing.T) {
	if _, err := ForAverageDistance(-1, 0); err == nil {
		t.Error("expected error for negative distance")
	}
	if _, err := ForAverageDistance(1e11, 1.0); err == nil {
		t.Error("expected error for parabolic eccentricity")
	}
}

func TestPeriodEarthYear(t *testing.T) {
	e := Elements{SemiMajorAxisM: earthSMA, Eccentricity: earthEcc}
	period := e.PeriodSec(sunMass)
	if !approxEqual(period, secondsPerYear, secondsPerYear*0.01) {
		t.Errorf("expected ~%g s, got %g", secondsPerYear, period)
	}
}

// --- Kepler mapping ---

func TestTrueAnomalyCircularOrbit(t *testing.T) {
	e := Elements{SemiMajorAxisM: earthSMA}
	for _, frac := range []float64{0, 0.25, 0.5, 0.75} {
		nu := e.TrueAnomalyAtYearFraction(frac)
		if !approxEqual(nu, 2*math.Pi*frac, tolerance) {
			t.Errorf("circular orbit: frac %f gave nu %f", frac, nu)
		}
	}
}

func TestTrueAnomalyRoundTrip(t *testing.T) {
	e := Elements{SemiMajorAxisM: earthSMA, Eccentricity: 0.3}
	for _, frac := range []float64{0.01, 0.2, 0.5, 0.77, 0.99} {
		nu := e.TrueAnomalyAtYearFraction(frac)
		back := e.YearFractionAtTrueAnomaly(nu)
		if !approxEqual(back, frac, 1e-8) {
			t.Errorf("round trip at frac %f: got %f", frac, back)
		}
	}
}

func TestTrueAnomalyHalfYearIsApoapsis(t *testing.T) {
	e := Elements{SemiMajorAxisM: earthSMA, Eccentricity: 0.4}
	nu := e.TrueAnomalyAtYearFraction(0.5)
	if !approxEqual(nu, math.Pi, 1e-6) {
		t.Errorf("expected nu=pi at half year, got %f", nu)
	}
}

func TestDeclinationSolstices(t *testing.T) {
	tilt := 23.44 * math.Pi / 180
	e := Elements{SemiMajorAxisM: earthSMA, Eccentricity: earthEcc, WinterSolsticeNu: 0.2}
	if !approxEqual(e.Declination(tilt, 0.2), -tilt, tolerance) {
		t.Errorf("expected full southern declination at winter solstice, got %f", e.Declination(tilt, 0.2))
	}
	if !approxEqual(e.Declination(tilt, 0.2+math.Pi), tilt, tolerance) {
		t.Errorf("expected full northern declination at summer solstice, got %f", e.Declination(tilt, 0.2+math.Pi))
	}
	if !approxEqual(e.Declination(tilt, 0.2+math.Pi/2), 0, tolerance) {
		t.Errorf("expected zero declination at equinox, got %f", e.Declination(tilt, 0.2+math.Pi/2))
	}
}

// --- Radiative balance ---

// Earth's effective temperature with full redistribution is about 254 K.
func TestEquilibriumTemperatureEarth(t *testing.T) {
	temp := EquilibriumTemperature(SolarLuminosity, earthAlbedo, AU, 4)
	if !approxEqual(temp, 254, 2) {
		t.Errorf("expected ~254 K, got %f", temp)
	}
}

func TestDistanceForTemperatureRoundTrip(t *testing.T) {
	for _, target := range []float64{150, 254, 300, 700} {
		d := DistanceForTemperature(SolarLuminosity, earthAlbedo, target, 4)
		back := EquilibriumTemperature(SolarLuminosity, earthAlbedo, d, 4)
		if !approxEqual(back, target, 0.01) {
			t.Errorf("round trip at %f K: got %f", target, back)
		}
	}
}

// A smaller area ratio means the same temperature is reached farther out.
func TestAreaRatioShiftsDistance(t *testing.T) {
	d1 := DistanceForTemperature(SolarLuminosity, 0.3, 288, 1)
	d4 := DistanceForTemperature(SolarLuminosity, 0.3, 288, 4)
	if d1 <= d4 {
		t.Errorf("expected ratio-1 distance %g to exceed ratio-4 distance %g", d1, d4)
	}
}

func TestRedistributionBuckets(t *testing.T) {
	cases := []struct {
		period float64
		want   float64
	}{
		{3600, 1},        // 1 hour
		{86400, 2},       // 1 day
		{86400 * 10, 3},  // 10 days
		{86400 * 200, 4}, // 200 days
	}
	for _, c := range cases {
		if got := RedistributionAreaRatio(c.period); got != c.want {
			t.Errorf("period %f: expected ratio %f, got %f", c.period, c.want, got)
		}
	}
}

func TestEquilibriumTemperatureGuards(t *testing.T) {
	if EquilibriumTemperature(0, 0.3, AU, 4) != 0 {
		t.Error("expected 0 for zero luminosity")
	}
	if EquilibriumTemperature(SolarLuminosity, 1.5, AU, 4) != 0 {
		t.Error("expected 0 for albedo above 1")
	}
	if DistanceForTemperature(SolarLuminosity, 0.3, 0, 4) != 0 {
		t.Error("expected 0 for zero temperature")
	}
}
