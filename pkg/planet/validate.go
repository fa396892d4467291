package planet

import (
	"fmt"
	"math"

	"tellus/pkg/spec"
	"tellus/pkg/validation"
)

// validatePhysical runs the physical validation checks against the resolved
// body. Schema-level shape checks have already run by the time this is
// called; these checks catch specs whose derived physics cannot work.
func validatePhysical(s *spec.PlanetSpec, b *Body, report *validation.Report) {
	validateRelief(s, b, report)
	validateGravityBand(s, b, report)
	validateRetention(s, b, report)
}

// reliefRadiusLimit caps max elevation at a fraction of the planet radius.
// Terrestrial relief tops out near 0.4% of radius (Mars, Olympus Mons); a
// 2% ceiling leaves headroom for exotic worlds while rejecting nonsense.
const reliefRadiusLimit = 0.02

func validateRelief(s *spec.PlanetSpec, b *Body, report *validation.Report) {
	if b.RadiusM <= 0 || b.MaxElevationM <= 0 {
		return
	}
	if b.MaxElevationM > b.RadiusM*reliefRadiusLimit {
		report.AddError(validation.Result{
			Level:       validation.LevelPhysical,
			Message:     fmt.Sprintf("max elevation %.0f m exceeds %.0f%% of the planet radius; the body would not be near-spherical", b.MaxElevationM, reliefRadiusLimit*100),
			SpecPath:    "planet.max_elevation_m",
			ActualValue: b.MaxElevationM,
			Expected:    fmt.Sprintf("<= %.0f m", b.RadiusM*reliefRadiusLimit),
			Suggestions: []string{
				fmt.Sprintf("Reduce max_elevation_m to at most %.0f", math.Floor(b.RadiusM*reliefRadiusLimit)),
				"Leave max_elevation_m unset to derive it from surface gravity",
			},
		})
	}
}

func validateGravityBand(s *spec.PlanetSpec, b *Body, report *validation.Report) {
	req := s.Habitability.Resolved()
	if req.MaxGravity != nil && b.SurfaceGravity > *req.MaxGravity {
		report.AddWarning(validation.Result{
			Level:        validation.LevelPhysical,
			Message:      fmt.Sprintf("surface gravity %.2f m/s² exceeds the habitability ceiling of %.2f m/s²", b.SurfaceGravity, *req.MaxGravity),
			SpecPath:     "planet.density_kg_m3",
			ActualValue:  b.SurfaceGravity,
			Expected:     fmt.Sprintf("<= %.2f m/s²", *req.MaxGravity),
			ConflictWith: "habitability.max_gravity",
			Suggestions: []string{
				"Reduce density_kg_m3 or radius_m",
				"Raise habitability.max_gravity if the target population tolerates it",
			},
		})
	}
	if req.MinGravity != nil && b.SurfaceGravity < *req.MinGravity {
		report.AddWarning(validation.Result{
			Level:        validation.LevelPhysical,
			Message:      fmt.Sprintf("surface gravity %.2f m/s² is below the habitability floor of %.2f m/s²", b.SurfaceGravity, *req.MinGravity),
			SpecPath:     "planet.density_kg_m3",
			ActualValue:  b.SurfaceGravity,
			Expected:     fmt.Sprintf(">= %.2f m/s²", *req.MinGravity),
			ConflictWith: "habitability.min_gravity",
			Suggestions:  []string{"Increase density_kg_m3 or radius_m"},
		})
	}
}

func validateRetention(s *spec.PlanetSpec, b *Body, report *validation.Report) {
	target := 250.0
	if s.Climate.TargetTemperatureK != nil {
		target = *s.Climate.TargetTemperatureK
	}
	if target <= b.TraceCutoffK {
		return
	}
	if s.Atmosphere.TargetPressureKPa != nil && *s.Atmosphere.TargetPressureKPa > 1 {
		report.AddWarning(validation.Result{
			Level:        validation.LevelPhysical,
			Message:      fmt.Sprintf("target temperature %.0f K exceeds the %.0f K retention cutoff for this mass; the pinned %.1f kPa atmosphere would escape", target, b.TraceCutoffK, *s.Atmosphere.TargetPressureKPa),
			SpecPath:     "atmosphere.target_pressure_kpa",
			ActualValue:  *s.Atmosphere.TargetPressureKPa,
			ConflictWith: "climate.target_temperature_k",
			Suggestions: []string{
				"Increase radius_m or density_kg_m3 so the body can hold the atmosphere",
				"Lower target_temperature_k",
			},
		})
		return
	}
	report.AddWarning(validation.Result{
		Level:       validation.LevelPhysical,
		Message:     fmt.Sprintf("target temperature %.0f K exceeds the %.0f K retention cutoff; only a trace envelope will form", target, b.TraceCutoffK),
		SpecPath:    "climate.target_temperature_k",
		ActualValue: target,
		Expected:    fmt.Sprintf("<= %.0f K for a thick atmosphere", b.TraceCutoffK),
		Suggestions: []string{"Increase radius_m or density_kg_m3 to raise the cutoff"},
	})
}
