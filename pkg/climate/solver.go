package climate

import (
	"errors"
	"math"

	"tellus/pkg/habitability"
	"tellus/pkg/orbit"
)

// targetMetric selects which temperature the solver steers: the planet
// average, or the extreme a single-sided habitability bound cares about.
type targetMetric int

const (
	metricAverage targetMetric = iota
	metricColdestEquator
	metricWarmestPole
)

// Result is the state an orbit solve ends in. A capped, non-converged
// solve still returns its best state; overshoot is accepted silently.
type Result struct {
	Orbit           orbit.Elements `json:"orbit"`
	DistanceM       float64        `json:"distance_m"`
	AvgTempK        float64        `json:"avg_temp_k"`
	EquatorTempK    float64        `json:"equator_temp_k"`
	PolarTempK      float64        `json:"polar_temp_k"`
	ColdestEquatorK float64        `json:"coldest_equator_k"`
	WarmestPoleK    float64        `json:"warmest_pole_k"`
	Converged       bool           `json:"converged"`
	Iterations      int            `json:"iterations"`
	Resets          int            `json:"resets"`
}

// Solver fits an orbital distance to a target surface temperature by
// re-equilibrating the volatile inventory at each candidate. The target
// comes from an explicit temperature, from habitability bounds, or from
// a cold default, in that order.
type Solver struct {
	Engine           *Engine
	Eccentricity     float64
	WinterSolsticeNu float64
	TargetAvgK       *float64
	Requirement      *habitability.Requirement
}

// Solve runs the fitting loop, at most solverMaxIterations times. Each
// iteration places the planet where the current albedo and greenhouse
// factor would yield the candidate temperature, re-equilibrates there,
// and steps the candidate by the measured miss. A miss that keeps its
// sign and grows is runaway feedback: the atmosphere is wiped and the
// solve restarts from the original target, still counting iterations.
func (s *Solver) Solve() (Result, error) {
	e := s.Engine
	if e == nil || e.Atmosphere == nil {
		return Result{}, errors.New("climate: solve needs an engine with an atmosphere")
	}
	if e.LuminosityW <= 0 {
		return Result{}, errors.New("climate: solve needs a positive stellar luminosity")
	}
	if s.Eccentricity < 0 || s.Eccentricity >= 1 {
		return Result{}, errors.New("climate: eccentricity must be in [0, 1)")
	}
	target, metric := s.resolveTarget()
	if target <= 0 {
		return Result{}, errors.New("climate: target temperature must be positive")
	}

	// Settle the chemistry at the target first, so the opening distance
	// estimate already sees a realistic albedo and greenhouse factor.
	e.DistanceM = 0
	e.Equilibrate(target)

	model := e.model()
	var res Result
	candidate := target
	achieved := target
	distance := 0.0
	prevDelta := 0.0
	havePrev := false
	for res.Iterations < solverMaxIterations {
		res.Iterations++
		distance = model.distanceFor(candidate, e.Albedo, e.Atmosphere.GreenhouseFactor())
		e.DistanceM = distance
		achieved = e.Equilibrate(candidate)
		delta := s.metricValue(metric, achieved) - target

		if math.Abs(delta) <= solverToleranceK {
			res.Converged = true
			break
		}
		if havePrev && delta*prevDelta > 0 && math.Abs(delta) > math.Abs(prevDelta) {
			e.Atmosphere.Air.Clear()
			e.Atmosphere.PressureKPa = 0
			e.Atmosphere.Invalidate()
			candidate = target
			havePrev = false
			res.Resets++
			continue
		}
		candidate -= delta
		prevDelta = delta
		havePrev = true
	}

	res.DistanceM = distance
	res.AvgTempK = achieved
	res.EquatorTempK = equatorTemp(achieved)
	res.PolarTempK = polarTemp(achieved)
	res.ColdestEquatorK = s.coldestEquator(achieved)
	res.WarmestPoleK = s.warmestPole(achieved)
	if distance > 0 {
		elems, err := orbit.ForAverageDistance(distance, s.Eccentricity)
		if err != nil {
			return res, err
		}
		elems.WinterSolsticeNu = s.WinterSolsticeNu
		res.Orbit = elems
	}
	return res, nil
}

func (s *Solver) resolveTarget() (float64, targetMetric) {
	if s.TargetAvgK != nil {
		return *s.TargetAvgK, metricAverage
	}
	if r := s.Requirement; r != nil {
		switch {
		case r.MinTemperatureK != nil && r.MaxTemperatureK != nil:
			return (*r.MinTemperatureK + *r.MaxTemperatureK) / 2, metricAverage
		case r.MinTemperatureK != nil:
			return *r.MinTemperatureK + boundMarginK, metricColdestEquator
		case r.MaxTemperatureK != nil:
			return *r.MaxTemperatureK - boundMarginK, metricWarmestPole
		}
	}
	return defaultTargetK, metricAverage
}

func (s *Solver) metricValue(m targetMetric, avgK float64) float64 {
	switch m {
	case metricColdestEquator:
		return s.coldestEquator(avgK)
	case metricWarmestPole:
		return s.warmestPole(avgK)
	default:
		return avgK
	}
}

// coldestEquator is the equatorial mean at apoapsis, the worst cold case
// the habitability evaluator checks.
func (s *Solver) coldestEquator(avgK float64) float64 {
	return equatorTemp(avgK * s.apsisFactor(1+s.Eccentricity))
}

// warmestPole is the polar mean at periapsis, the worst hot case.
func (s *Solver) warmestPole(avgK float64) float64 {
	return polarTemp(avgK * s.apsisFactor(1-s.Eccentricity))
}

// apsisFactor scales an average temperature to an apsis at apsisScale
// times the semi-major axis; temperature goes with the inverse square
// root of distance.
func (s *Solver) apsisFactor(apsisScale float64) float64 {
	if apsisScale <= 0 {
		return 1
	}
	avgScale := 1 + s.Eccentricity*s.Eccentricity/2
	return math.Sqrt(avgScale / apsisScale)
}
