package validation

import (
	"fmt"

	"tellus/pkg/chem"
	"tellus/pkg/spec"
)

// ValidateSchema performs schema-level validation on a parsed PlanetSpec.
// It checks structural correctness before any computation; physical
// cross-checks happen later against the resolved body.
func ValidateSchema(s *spec.PlanetSpec) *Report {
	r := NewReport()

	validatePlanet(s, r)
	validateStar(s, r)
	validateOrbit(s, r)
	validateAtmosphere(s, r)
	validateClimate(s, r)
	validateHabitability(s, r)
	validateGrid(s, r)
	validateMaps(s, r)

	return r
}

func validatePlanet(s *spec.PlanetSpec, r *Report) {
	p := s.Planet
	if p.RadiusM <= 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "planet radius_m must be greater than 0",
			SpecPath:    "planet.radius_m",
			ActualValue: p.RadiusM,
			Expected:    "> 0",
		})
	} else if p.RadiusM < 1e6 || p.RadiusM > 2e7 {
		r.AddWarning(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("radius %.0f m is outside the terrestrial range", p.RadiusM),
			SpecPath:    "planet.radius_m",
			ActualValue: p.RadiusM,
			Expected:    "1e6 - 2e7",
		})
	}
	if p.DensityKgM3 <= 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "planet density_kg_m3 must be greater than 0",
			SpecPath:    "planet.density_kg_m3",
			ActualValue: p.DensityKgM3,
			Expected:    "> 0",
		})
	} else if p.DensityKgM3 < 2000 || p.DensityKgM3 > 13000 {
		r.AddWarning(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("density %.0f kg/m3 is outside the rocky-body range", p.DensityKgM3),
			SpecPath:    "planet.density_kg_m3",
			ActualValue: p.DensityKgM3,
			Expected:    "2000 - 13000",
		})
	}
	if p.RotationPeriodSec <= 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "planet rotation_period_sec must be greater than 0",
			SpecPath:    "planet.rotation_period_sec",
			ActualValue: p.RotationPeriodSec,
			Expected:    "> 0",
		})
	}
	if p.AxialTiltDeg < 0 || p.AxialTiltDeg > 90 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("axial_tilt_deg %.2f is outside valid range (0-90)", p.AxialTiltDeg),
			SpecPath:    "planet.axial_tilt_deg",
			ActualValue: p.AxialTiltDeg,
			Expected:    "0 - 90",
		})
	}
	if p.WaterRatio < 0 || p.WaterRatio > 1 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("water_ratio %.3f must be a surface fraction", p.WaterRatio),
			SpecPath:    "planet.water_ratio",
			ActualValue: p.WaterRatio,
			Expected:    "0 - 1",
		})
	}
	if p.MaxElevationM < 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "max_elevation_m must not be negative",
			SpecPath:    "planet.max_elevation_m",
			ActualValue: p.MaxElevationM,
			Expected:    ">= 0",
		})
	}
}

func validateStar(s *spec.PlanetSpec, r *Report) {
	if s.Star.MassSolar <= 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "star mass_solar must be greater than 0",
			SpecPath:    "star.mass_solar",
			ActualValue: s.Star.MassSolar,
			Expected:    "> 0",
		})
	}
	if s.Star.LuminositySolar <= 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "star luminosity_solar must be greater than 0",
			SpecPath:    "star.luminosity_solar",
			ActualValue: s.Star.LuminositySolar,
			Expected:    "> 0",
		})
	}
}

func validateOrbit(s *spec.PlanetSpec, r *Report) {
	e := s.Orbit.Eccentricity
	if e < 0 || e >= 1 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("eccentricity %.4f must be >= 0 and < 1", e),
			SpecPath:    "orbit.eccentricity",
			ActualValue: e,
			Expected:    "0 <= e < 1",
		})
	}
}

func validateAtmosphere(s *spec.PlanetSpec, r *Report) {
	a := s.Atmosphere
	if a.TargetPressureKPa != nil && *a.TargetPressureKPa < 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "target_pressure_kpa must not be negative",
			SpecPath:    "atmosphere.target_pressure_kpa",
			ActualValue: *a.TargetPressureKPa,
			Expected:    ">= 0",
		})
	}
	if a.WaterVaporRatio != nil && (*a.WaterVaporRatio < 0 || *a.WaterVaporRatio > 1) {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("water_vapor_ratio %.4f must be a mass fraction", *a.WaterVaporRatio),
			SpecPath:    "atmosphere.water_vapor_ratio",
			ActualValue: *a.WaterVaporRatio,
			Expected:    "0 - 1",
		})
	}
	known := make([]string, 0)
	for _, sp := range chem.AllSpecies() {
		known = append(known, string(sp))
	}
	for i, o := range a.Overrides {
		if !chem.Known(chem.Species(o.Species)) {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("atmosphere.overrides[%d]: unknown species %q", i, o.Species),
				SpecPath:    fmt.Sprintf("atmosphere.overrides[%d].species", i),
				ActualValue: o.Species,
				Expected:    "a species from the property table",
				Suggestions: Suggest(o.Species, known),
			})
		}
		if _, err := chem.ParsePhase(o.Phase); err != nil {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("atmosphere.overrides[%d]: %v", i, err),
				SpecPath:    fmt.Sprintf("atmosphere.overrides[%d].phase", i),
				ActualValue: o.Phase,
				Expected:    "solid, liquid, gas or any",
				Suggestions: Suggest(o.Phase, []string{"solid", "liquid", "gas", "any"}),
			})
		}
		if o.Proportion <= 0 || o.Proportion > 1 {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("atmosphere.overrides[%d]: proportion %.6f out of range", i, o.Proportion),
				SpecPath:    fmt.Sprintf("atmosphere.overrides[%d].proportion", i),
				ActualValue: o.Proportion,
				Expected:    "0 < p <= 1",
			})
		}
	}
}

func validateClimate(s *spec.PlanetSpec, r *Report) {
	c := s.Climate
	if c.TargetTemperatureK != nil {
		if *c.TargetTemperatureK <= 0 {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     "target_temperature_k must be greater than 0",
				SpecPath:    "climate.target_temperature_k",
				ActualValue: *c.TargetTemperatureK,
				Expected:    "> 0",
			})
		} else if *c.TargetTemperatureK < 100 || *c.TargetTemperatureK > 600 {
			r.AddWarning(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("target temperature %.0f K is outside the volatile-cycling range", *c.TargetTemperatureK),
				SpecPath:    "climate.target_temperature_k",
				ActualValue: *c.TargetTemperatureK,
				Expected:    "100 - 600",
			})
		}
	}
	if c.Seasons < 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "seasons must not be negative",
			SpecPath:    "climate.seasons",
			ActualValue: c.Seasons,
			Expected:    ">= 0 (0 means default)",
		})
	}
}

func validateHabitability(s *spec.PlanetSpec, r *Report) {
	req := s.Habitability.Requirement
	if req.MinTemperatureK != nil && req.MaxTemperatureK != nil && *req.MinTemperatureK > *req.MaxTemperatureK {
		r.AddError(Result{
			Level:        LevelSchema,
			Message:      "habitability min_temperature_k exceeds max_temperature_k",
			SpecPath:     "habitability.min_temperature_k",
			ActualValue:  *req.MinTemperatureK,
			ConflictWith: "habitability.max_temperature_k",
		})
	}
	if req.MinPressureKPa != nil && req.MaxPressureKPa != nil && *req.MinPressureKPa > *req.MaxPressureKPa {
		r.AddError(Result{
			Level:        LevelSchema,
			Message:      "habitability min_pressure_kpa exceeds max_pressure_kpa",
			SpecPath:     "habitability.min_pressure_kpa",
			ActualValue:  *req.MinPressureKPa,
			ConflictWith: "habitability.max_pressure_kpa",
		})
	}
	if req.MinGravity != nil && req.MaxGravity != nil && *req.MinGravity > *req.MaxGravity {
		r.AddError(Result{
			Level:        LevelSchema,
			Message:      "habitability min_gravity exceeds max_gravity",
			SpecPath:     "habitability.min_gravity",
			ActualValue:  *req.MinGravity,
			ConflictWith: "habitability.max_gravity",
		})
	}
	if s.Habitability.Preset != "" && s.Habitability.Preset != "humans" && s.Habitability.Preset != "none" {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("unknown habitability preset %q", s.Habitability.Preset),
			SpecPath:    "habitability.preset",
			ActualValue: s.Habitability.Preset,
			Expected:    "humans or none",
			Suggestions: Suggest(s.Habitability.Preset, []string{"humans", "none"}),
		})
	}
}

func validateGrid(s *spec.PlanetSpec, r *Report) {
	res := s.Grid.Resolution
	if res <= 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "grid resolution must be greater than 0",
			SpecPath:    "grid.resolution",
			ActualValue: res,
			Expected:    "> 0",
		})
		return
	}
	if res > spec.MaxResolution {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("grid resolution %d exceeds the platform limit", res),
			SpecPath:    "grid.resolution",
			ActualValue: res,
			Expected:    fmt.Sprintf("<= %d", spec.MaxResolution),
		})
	}
}

func validateMaps(s *spec.PlanetSpec, r *Report) {
	m := s.Maps
	if m.WidthPx < 0 || m.HeightPx < 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "map dimensions must not be negative",
			SpecPath:    "maps",
			ActualValue: fmt.Sprintf("%dx%d", m.WidthPx, m.HeightPx),
			Expected:    "positive pixels (0 means default)",
		})
	}
	if m.Projection == "" {
		return
	}
	for _, known := range spec.KnownProjections {
		if m.Projection == known {
			return
		}
	}
	r.AddError(Result{
		Level:       LevelSchema,
		Message:     fmt.Sprintf("unknown projection %q", m.Projection),
		SpecPath:    "maps.projection",
		ActualValue: m.Projection,
		Expected:    "equirectangular or equal-area",
		Suggestions: Suggest(m.Projection, spec.KnownProjections),
	})
}
