// Package planet resolves a declarative planet spec into the physical body
// the climate engine works on: mass, gravity, escape velocity, and the
// thermal cutoff that decides whether the body can hold a thick atmosphere.
package planet

import (
	"math"

	"github.com/google/uuid"

	"tellus/pkg/orbit"
	"tellus/pkg/spec"
	"tellus/pkg/validation"
)

// traceCutoffPerGR converts surface gravity times radius into the blackbody
// temperature above which the body sheds any thick atmosphere. Derived from
// holding nitrogen's mean thermal speed under a sixth of escape velocity:
// T = 2gR·μ_N2/(6²·3·R_gas). Earth ≈ 3900 K, Mars ≈ 780 K, Luna ≈ 175 K.
const traceCutoffPerGR = 6.236e-5

// defaultElevationProduct is max elevation times surface gravity for worlds
// that leave max_elevation_m unset. Peaks scale inversely with gravity;
// Earth's 9.81 m/s² yields ≈ 8.9 km, Mars's 3.7 yields ≈ 23 km.
const defaultElevationProduct = 8.7e4

// Body holds the physical scalars resolved from a planet spec. All derived
// fields are computed once at resolution; downstream stages treat them as
// immutable.
type Body struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Seed int64     `json:"seed"`

	RadiusM           float64 `json:"radius_m"`
	DensityKgM3       float64 `json:"density_kg_m3"`
	MassKg            float64 `json:"mass_kg"`
	SurfaceAreaM2     float64 `json:"surface_area_m2"`
	SurfaceGravity    float64 `json:"surface_gravity_ms2"`
	EscapeVelocityMS  float64 `json:"escape_velocity_ms"`
	TraceCutoffK      float64 `json:"trace_cutoff_k"`
	RotationPeriodSec float64 `json:"rotation_period_sec"`
	AxialTiltRad      float64 `json:"axial_tilt_rad"`
	Magnetosphere     bool    `json:"magnetosphere"`
	WaterRatio        float64 `json:"water_ratio"`
	MaxElevationM     float64 `json:"max_elevation_m"`

	StarMassKg      float64 `json:"star_mass_kg"`
	StarLuminosityW float64 `json:"star_luminosity_w"`
}

// Resolve computes the physical body described by the spec and runs the
// physical validation pass. A body is returned even when the report carries
// errors so callers can inspect partial results.
func Resolve(s *spec.PlanetSpec) (*Body, *validation.Report) {
	report := validation.NewReport()

	// 1. Bulk properties
	r := s.Planet.RadiusM
	volume := 4.0 / 3.0 * math.Pi * r * r * r
	mass := s.Planet.DensityKgM3 * volume

	// 2. Surface fields
	gravity := 0.0
	escape := 0.0
	if r > 0 {
		gravity = orbit.G * mass / (r * r)
		escape = math.Sqrt(2 * orbit.G * mass / r)
	}

	// 3. Relief ceiling, from the spec or from gravity
	maxElev := s.Planet.MaxElevationM
	if maxElev == 0 && gravity > 0 {
		maxElev = defaultElevationProduct / gravity
	}

	b := &Body{
		ID:                uuid.New(),
		Name:              s.Planet.Name,
		Seed:              s.Planet.Seed,
		RadiusM:           r,
		DensityKgM3:       s.Planet.DensityKgM3,
		MassKg:            mass,
		SurfaceAreaM2:     4 * math.Pi * r * r,
		SurfaceGravity:    gravity,
		EscapeVelocityMS:  escape,
		TraceCutoffK:      gravity * r * traceCutoffPerGR,
		RotationPeriodSec: s.Planet.RotationPeriodSec,
		AxialTiltRad:      s.Planet.AxialTiltDeg * math.Pi / 180,
		Magnetosphere:     s.Planet.Magnetosphere,
		WaterRatio:        s.Planet.WaterRatio,
		MaxElevationM:     maxElev,
		StarMassKg:        s.Star.MassSolar * orbit.SolarMass,
		StarLuminosityW:   s.Star.LuminositySolar * orbit.SolarLuminosity,
	}

	// 4. Physical validation
	validatePhysical(s, b, report)

	return b, report
}
