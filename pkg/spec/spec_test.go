package spec

import "testing"

func TestLoadProject(t *testing.T) {
	s, err := LoadProject("../../worlds/earthlike")
	if err != nil {
		t.Fatalf("LoadProject failed: %v", err)
	}

	if s.SpecVersion != "0.1.0" {
		t.Errorf("spec_version = %q, want %q", s.SpecVersion, "0.1.0")
	}
	if s.Planet.Name != "earthlike" {
		t.Errorf("name = %q, want %q", s.Planet.Name, "earthlike")
	}
	if s.Planet.Seed != 42 {
		t.Errorf("seed = %d, want 42", s.Planet.Seed)
	}
	if s.Planet.RadiusM != 6371000 {
		t.Errorf("radius_m = %v, want 6371000", s.Planet.RadiusM)
	}
	if s.Planet.DensityKgM3 != 5514 {
		t.Errorf("density_kg_m3 = %v, want 5514", s.Planet.DensityKgM3)
	}
	if s.Planet.RotationPeriodSec != 86400 {
		t.Errorf("rotation_period_sec = %v, want 86400", s.Planet.RotationPeriodSec)
	}
	if s.Planet.AxialTiltDeg != 23.44 {
		t.Errorf("axial_tilt_deg = %v, want 23.44", s.Planet.AxialTiltDeg)
	}
	if !s.Planet.Magnetosphere {
		t.Error("magnetosphere = false, want true")
	}
	if s.Planet.WaterRatio != 0.65 {
		t.Errorf("water_ratio = %v, want 0.65", s.Planet.WaterRatio)
	}

	// Star and orbit
	if s.Star.MassSolar != 1.0 || s.Star.LuminositySolar != 1.0 {
		t.Errorf("star = %v/%v solar, want 1.0/1.0", s.Star.MassSolar, s.Star.LuminositySolar)
	}
	if s.Orbit.Eccentricity != 0.0167 {
		t.Errorf("eccentricity = %v, want 0.0167", s.Orbit.Eccentricity)
	}

	// Atmosphere and climate
	if s.Atmosphere.TargetPressureKPa == nil || *s.Atmosphere.TargetPressureKPa != 101.325 {
		t.Errorf("target_pressure_kpa = %v, want 101.325", s.Atmosphere.TargetPressureKPa)
	}
	if s.Climate.TargetTemperatureK == nil || *s.Climate.TargetTemperatureK != 289 {
		t.Errorf("target_temperature_k = %v, want 289", s.Climate.TargetTemperatureK)
	}
	if s.Climate.SeasonCount() != 12 {
		t.Errorf("seasons = %d, want 12", s.Climate.SeasonCount())
	}

	// Habitability preset expands to the human bounds.
	req := s.Habitability.Resolved()
	if req.MinTemperatureK == nil || *req.MinTemperatureK != 236 {
		t.Errorf("resolved min_temperature_k = %v, want 236", req.MinTemperatureK)
	}
	if !req.RequireLiquidWater {
		t.Error("resolved require_liquid_water = false, want true")
	}

	// Grid and maps
	if s.Grid.Resolution != 90 {
		t.Errorf("resolution = %d, want 90", s.Grid.Resolution)
	}
	if s.Maps.WidthPx != 720 || s.Maps.HeightPx != 360 {
		t.Errorf("maps = %dx%d, want 720x360", s.Maps.WidthPx, s.Maps.HeightPx)
	}
	if s.Maps.Projection != "equirectangular" {
		t.Errorf("projection = %q, want equirectangular", s.Maps.Projection)
	}
}

func TestSeasonCountDefault(t *testing.T) {
	var c ClimateDef
	if c.SeasonCount() != 12 {
		t.Errorf("default seasons = %d, want 12", c.SeasonCount())
	}
	c.Seasons = 4
	if c.SeasonCount() != 4 {
		t.Errorf("seasons = %d, want 4", c.SeasonCount())
	}
}

func TestResolvedWithoutPreset(t *testing.T) {
	var h HabitabilityDef
	req := h.Resolved()
	if req.MinTemperatureK != nil || req.RequireLiquidWater {
		t.Error("expected empty requirement without preset")
	}
}

func TestLoadProjectMissing(t *testing.T) {
	_, err := LoadProject("/nonexistent/path")
	if err == nil {
		t.Error("expected error for missing project directory")
	}
}
