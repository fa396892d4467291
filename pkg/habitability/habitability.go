// Package habitability checks a converged planet state against a
// requirements record. The evaluator is a pure function; requirements are
// read-only inputs shared between the atmosphere builder (pressure bounds),
// the temperature solver (temperature bounds) and the final report.
package habitability

import (
	"strings"

	"tellus/pkg/chem"
)

// Violation is a bitmask of unmet requirements.
type Violation uint32

const (
	NoWater Violation = 1 << iota
	Unbreathable
	TooCold
	TooHot
	LowPressure
	HighPressure
	LowGravity
	HighGravity
	// Other covers constraints outside this record; the evaluator never
	// sets it, callers with extra criteria do.
	Other
)

// None is the empty violation set: all requirements met.
const None Violation = 0

// Has reports whether v includes the given flag.
func (v Violation) Has(flag Violation) bool {
	return v&flag != 0
}

// Habitable reports whether no requirement was violated.
func (v Violation) Habitable() bool {
	return v == None
}

// String lists the violated constraints, or "habitable".
func (v Violation) String() string {
	if v == None {
		return "habitable"
	}
	names := []struct {
		flag Violation
		name string
	}{
		{NoWater, "no liquid water"},
		{Unbreathable, "unbreathable atmosphere"},
		{TooCold, "too cold"},
		{TooHot, "too hot"},
		{LowPressure, "pressure too low"},
		{HighPressure, "pressure too high"},
		{LowGravity, "gravity too low"},
		{HighGravity, "gravity too high"},
		{Other, "other"},
	}
	var parts []string
	for _, n := range names {
		if v.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, ", ")
}

// SubstanceRequirement bounds one species' partial pressure in the
// atmosphere. A zero MaxPartialKPa means unbounded above.
type SubstanceRequirement struct {
	Species       chem.Species `yaml:"species" json:"species"`
	MinPartialKPa float64      `yaml:"min_partial_kpa" json:"min_partial_kpa"`
	MaxPartialKPa float64      `yaml:"max_partial_kpa,omitempty" json:"max_partial_kpa,omitempty"`
}

// Requirement is a record of optional habitability bounds. Nil pointer
// fields mean the bound is not checked. Never mutated by the engine.
type Requirement struct {
	MinTemperatureK    *float64               `yaml:"min_temperature_k,omitempty" json:"min_temperature_k,omitempty"`
	MaxTemperatureK    *float64               `yaml:"max_temperature_k,omitempty" json:"max_temperature_k,omitempty"`
	MinPressureKPa     *float64               `yaml:"min_pressure_kpa,omitempty" json:"min_pressure_kpa,omitempty"`
	MaxPressureKPa     *float64               `yaml:"max_pressure_kpa,omitempty" json:"max_pressure_kpa,omitempty"`
	MinGravity         *float64               `yaml:"min_gravity,omitempty" json:"min_gravity,omitempty"`
	MaxGravity         *float64               `yaml:"max_gravity,omitempty" json:"max_gravity,omitempty"`
	RequireLiquidWater bool                   `yaml:"require_liquid_water,omitempty" json:"require_liquid_water,omitempty"`
	Atmosphere         []SubstanceRequirement `yaml:"atmosphere,omitempty" json:"atmosphere,omitempty"`
}

// ForHumans returns the requirement set for unassisted human habitation:
// survivable temperature extremes, Armstrong-limit to deep-dive pressure
// range, breathable oxygen partial pressure, and surface liquid water.
func ForHumans() Requirement {
	return Requirement{
		MinTemperatureK:    ptr(236.0),
		MaxTemperatureK:    ptr(308.0),
		MinPressureKPa:     ptr(6.18),
		MaxPressureKPa:     ptr(4980.0),
		MaxGravity:         ptr(19.6),
		RequireLiquidWater: true,
		Atmosphere: []SubstanceRequirement{
			{Species: chem.Oxygen, MinPartialKPa: 7, MaxPartialKPa: 53},
			{Species: chem.CarbonDioxide, MaxPartialKPa: 2},
		},
	}
}

func ptr(v float64) *float64 { return &v }

// Conditions is the converged surface state the evaluator checks. The cold
// bound is compared against the coldest equatorial temperature (worst case
// at apoapsis) and the hot bound against the warmest polar temperature
// (worst case at periapsis).
type Conditions struct {
	HasLiquidWater      bool
	Atmosphere          *chem.Composition
	SurfacePressureKPa  float64
	SurfaceGravity      float64
	ColdestEquatorTempK float64
	WarmestPoleTempK    float64
}

// Evaluate returns the set of requirements the given conditions violate.
// No side effects; safe to call at any point during generation.
func Evaluate(cond Conditions, req Requirement) Violation {
	var v Violation
	if req.RequireLiquidWater && !cond.HasLiquidWater {
		v |= NoWater
	}
	for _, sub := range req.Atmosphere {
		partial := 0.0
		if cond.Atmosphere != nil {
			partial = cond.Atmosphere.Proportion(sub.Species, chem.PhaseGas) * cond.SurfacePressureKPa
		}
		if partial < sub.MinPartialKPa {
			v |= Unbreathable
		}
		if sub.MaxPartialKPa > 0 && partial > sub.MaxPartialKPa {
			v |= Unbreathable
		}
	}
	if req.MinTemperatureK != nil && cond.ColdestEquatorTempK < *req.MinTemperatureK {
		v |= TooCold
	}
	if req.MaxTemperatureK != nil && cond.WarmestPoleTempK > *req.MaxTemperatureK {
		v |= TooHot
	}
	if req.MinPressureKPa != nil && cond.SurfacePressureKPa < *req.MinPressureKPa {
		v |= LowPressure
	}
	if req.MaxPressureKPa != nil && cond.SurfacePressureKPa > *req.MaxPressureKPa {
		v |= HighPressure
	}
	if req.MinGravity != nil && cond.SurfaceGravity < *req.MinGravity {
		v |= LowGravity
	}
	if req.MaxGravity != nil && cond.SurfaceGravity > *req.MaxGravity {
		v |= HighGravity
	}
	return v
}
