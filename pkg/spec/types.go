package spec

import "tellus/pkg/habitability"

// PlanetSpec is the top-level specification for a generated world.
type PlanetSpec struct {
	SpecVersion  string          `yaml:"spec_version" json:"spec_version"`
	Planet       PlanetDef       `yaml:"planet" json:"planet"`
	Star         StarDef         `yaml:"star" json:"star"`
	Orbit        OrbitDef        `yaml:"orbit" json:"orbit"`
	Atmosphere   AtmosphereDef   `yaml:"atmosphere" json:"atmosphere"`
	Climate      ClimateDef      `yaml:"climate" json:"climate"`
	Habitability HabitabilityDef `yaml:"habitability" json:"habitability"`
	Grid         GridDef         `yaml:"grid" json:"grid"`
	Maps         MapsDef         `yaml:"maps" json:"maps"`
}

// PlanetDef describes the solid body.
type PlanetDef struct {
	Name              string  `yaml:"name" json:"name"`
	Seed              int64   `yaml:"seed" json:"seed"`
	RadiusM           float64 `yaml:"radius_m" json:"radius_m"`
	DensityKgM3       float64 `yaml:"density_kg_m3" json:"density_kg_m3"`
	RotationPeriodSec float64 `yaml:"rotation_period_sec" json:"rotation_period_sec"`
	AxialTiltDeg      float64 `yaml:"axial_tilt_deg" json:"axial_tilt_deg"`
	Magnetosphere     bool    `yaml:"magnetosphere" json:"magnetosphere"`
	// WaterRatio is the target fraction of the surface under water.
	WaterRatio float64 `yaml:"water_ratio" json:"water_ratio"`
	// MaxElevationM caps the relief of the generated terrain. Zero means
	// derive a default from surface gravity.
	MaxElevationM float64 `yaml:"max_elevation_m,omitempty" json:"max_elevation_m,omitempty"`
}

// StarDef describes the primary, in solar units.
type StarDef struct {
	MassSolar       float64 `yaml:"mass_solar" json:"mass_solar"`
	LuminositySolar float64 `yaml:"luminosity_solar" json:"luminosity_solar"`
}

// OrbitDef fixes the orbit's shape; the semi-major axis is solved for the
// target temperature, not specified.
type OrbitDef struct {
	Eccentricity float64 `yaml:"eccentricity" json:"eccentricity"`
	// WinterSolsticeDeg places the northern winter solstice at a true
	// anomaly in degrees. Nil means seed-randomized.
	WinterSolsticeDeg *float64 `yaml:"winter_solstice_deg,omitempty" json:"winter_solstice_deg,omitempty"`
}

// AtmosphereDef tunes the atmosphere builder.
type AtmosphereDef struct {
	// TargetPressureKPa pins the thick-regime surface pressure.
	TargetPressureKPa *float64 `yaml:"target_pressure_kpa,omitempty" json:"target_pressure_kpa,omitempty"`
	// WaterVaporRatio pins the equilibrium water vapor fraction instead of
	// the humidity heuristic.
	WaterVaporRatio *float64 `yaml:"water_vapor_ratio,omitempty" json:"water_vapor_ratio,omitempty"`
	// Overrides force individual constituents after the builder runs.
	Overrides []ComponentOverride `yaml:"overrides,omitempty" json:"overrides,omitempty"`
}

// ComponentOverride forces one constituent's share of the built atmosphere.
type ComponentOverride struct {
	Species    string  `yaml:"species" json:"species"`
	Phase      string  `yaml:"phase,omitempty" json:"phase,omitempty"`
	Proportion float64 `yaml:"proportion" json:"proportion"`
}

// ClimateDef tunes the equilibration targets and sampling density.
type ClimateDef struct {
	// TargetTemperatureK is the average surface temperature the orbit
	// solver aims for. Nil falls back to habitability bounds, then 250 K.
	TargetTemperatureK *float64 `yaml:"target_temperature_k,omitempty" json:"target_temperature_k,omitempty"`
	// Seasons is the number of true-anomaly samples per year (default 12).
	Seasons int `yaml:"seasons,omitempty" json:"seasons,omitempty"`
}

// HabitabilityDef selects the requirement record checked after generation.
type HabitabilityDef struct {
	// Preset names a built-in requirement set ("humans" or "none").
	Preset string `yaml:"preset,omitempty" json:"preset,omitempty"`
	// Requirement overrides or extends the preset's bounds.
	Requirement habitability.Requirement `yaml:",inline" json:"requirement"`
}

// GridDef sizes the surface discretization.
type GridDef struct {
	// Resolution is the number of latitude bands; longitude gets twice as
	// many columns. Bounded by MaxResolution.
	Resolution int `yaml:"resolution" json:"resolution"`
}

// MaxResolution caps the grid size; past this the cell count (2r²) makes
// per-season sampling unreasonably slow.
const MaxResolution = 2048

// MapsDef sizes the exported rasters.
type MapsDef struct {
	WidthPx    int    `yaml:"width_px" json:"width_px"`
	HeightPx   int    `yaml:"height_px" json:"height_px"`
	Projection string `yaml:"projection" json:"projection"`
}

// KnownProjections lists the accepted maps.projection values.
var KnownProjections = []string{"equirectangular", "equal-area"}

// SeasonCount returns the configured season samples, defaulting to 12.
func (c ClimateDef) SeasonCount() int {
	if c.Seasons <= 0 {
		return 12
	}
	return c.Seasons
}

// Resolved returns the habitability requirement with the preset applied
// under any explicit overrides.
func (h HabitabilityDef) Resolved() habitability.Requirement {
	req := h.Requirement
	if h.Preset != "humans" {
		return req
	}
	preset := habitability.ForHumans()
	if req.MinTemperatureK == nil {
		req.MinTemperatureK = preset.MinTemperatureK
	}
	if req.MaxTemperatureK == nil {
		req.MaxTemperatureK = preset.MaxTemperatureK
	}
	if req.MinPressureKPa == nil {
		req.MinPressureKPa = preset.MinPressureKPa
	}
	if req.MaxPressureKPa == nil {
		req.MaxPressureKPa = preset.MaxPressureKPa
	}
	if req.MinGravity == nil {
		req.MinGravity = preset.MinGravity
	}
	if req.MaxGravity == nil {
		req.MaxGravity = preset.MaxGravity
	}
	if !req.RequireLiquidWater {
		req.RequireLiquidWater = preset.RequireLiquidWater
	}
	if len(req.Atmosphere) == 0 {
		req.Atmosphere = preset.Atmosphere
	}
	return req
}
