// Package gen runs the full generation pipeline, from a planet spec to a
// solved orbit, seasonal surface climate and river network. Each stage
// reports a progress event; the CLI prints them, the server forwards them
// to websocket subscribers.
package gen

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"tellus/pkg/atmo"
	"tellus/pkg/chem"
	"tellus/pkg/climate"
	"tellus/pkg/grid"
	"tellus/pkg/habitability"
	"tellus/pkg/hydro"
	"tellus/pkg/orbit"
	"tellus/pkg/planet"
	"tellus/pkg/raster"
	"tellus/pkg/spec"
	"tellus/pkg/validation"
)

const (
	// defaultBaseAlbedo is the bare-surface albedo before ice and cloud
	// blending, a rock-and-ocean mix.
	defaultBaseAlbedo = 0.25
	// oceanMassPerCoverage converts surface water coverage into a
	// hydrosphere planet-mass fraction, calibrated so Earth's coverage
	// carries Earth's ocean mass.
	oceanMassPerCoverage = 3.3e-4
)

// Stage identifies one pipeline phase in progress events.
type Stage string

const (
	StageResolve    Stage = "resolve"
	StageGrid       Stage = "grid"
	StageAtmosphere Stage = "atmosphere"
	StageClimate    Stage = "climate"
	StageSeasons    Stage = "seasons"
	StageRivers     Stage = "rivers"
	StageDone       Stage = "done"
)

// Progress is one pipeline progress event. Fraction is overall pipeline
// completion in [0,1].
type Progress struct {
	Stage    Stage   `json:"stage"`
	Message  string  `json:"message"`
	Fraction float64 `json:"fraction"`
}

// Options configures a generation run.
type Options struct {
	// OnProgress, when set, receives one event per completed stage, on the
	// calling goroutine.
	OnProgress func(Progress)
}

// Planet bundles everything a generation run produces. The grid, annual
// climate, biomes and river network are excluded from JSON; they are
// rendered into maps rather than serialized wholesale.
type Planet struct {
	Spec   *spec.PlanetSpec   `json:"spec"`
	Body   *planet.Body       `json:"body"`
	Report *validation.Report `json:"report"`

	Regime      atmo.Regime       `json:"regime"`
	Atmosphere  *atmo.Atmosphere  `json:"atmosphere"`
	Hydrosphere *atmo.Hydrosphere `json:"hydrosphere"`
	Biosphere   bool              `json:"biosphere"`
	Albedo      float64           `json:"albedo"`

	Climate      climate.Result         `json:"climate"`
	Habitability habitability.Violation `json:"habitability"`

	Grid   *grid.Grid            `json:"-"`
	Annual []climate.CellClimate `json:"-"`
	Biomes []climate.Biome       `json:"-"`
	Rivers *hydro.Network        `json:"-"`
}

// World bundles the generated surface for map rendering.
func (p *Planet) World() *raster.World {
	return &raster.World{Grid: p.Grid, Annual: p.Annual, Biomes: p.Biomes, Water: p.Rivers}
}

// Generate runs the pipeline to completion. On a validation failure the
// returned Planet still carries the report; on a mechanical failure it
// carries whatever stages completed. A zero spec seed is replaced with a
// clock-derived one, recorded on the resolved body.
func Generate(s *spec.PlanetSpec, opts Options) (*Planet, error) {
	if s == nil {
		return nil, errors.New("gen: nil spec")
	}

	report := validation.ValidateSchema(s)
	body, physical := planet.Resolve(s)
	report.Merge(physical)

	p := &Planet{Spec: s, Body: body, Report: report}
	if !report.Valid {
		return p, fmt.Errorf("spec failed validation: %s", report.Summary)
	}

	if body.Seed == 0 {
		body.Seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(body.Seed))
	emit(opts, StageResolve, 0.05, fmt.Sprintf("resolved %s, seed %d", body.Name, body.Seed))

	g, err := grid.Build(grid.Config{
		Resolution:    s.Grid.Resolution,
		Seed:          body.Seed,
		RadiusM:       body.RadiusM,
		MaxElevationM: body.MaxElevationM,
		WaterRatio:    body.WaterRatio,
	})
	if err != nil {
		return p, fmt.Errorf("building surface grid: %w", err)
	}
	p.Grid = g
	emit(opts, StageGrid, 0.2, fmt.Sprintf("built %dx%d grid, %.0f%% land",
		g.Rows, g.Cols, 100*g.LandFraction()))

	req := s.Habitability.Resolved()

	a, regime := atmo.Build(atmo.BuildInput{
		MassKg:            body.MassKg,
		Magnetosphere:     body.Magnetosphere,
		BlackbodyTempK:    targetEstimateK(s, req),
		TraceCutoffK:      body.TraceCutoffK,
		HasSurfaceWater:   body.WaterRatio > 0,
		TargetPressureKPa: s.Atmosphere.TargetPressureKPa,
		Habitability:      &req,
	}, rng)
	applyOverrides(a, s.Atmosphere.Overrides)
	p.Atmosphere = a
	p.Regime = regime
	p.Hydrosphere = hydrosphereFor(body)
	emit(opts, StageAtmosphere, 0.3, fmt.Sprintf("%s atmosphere at %.1f kPa", regime, a.PressureKPa))

	engine := climate.NewEngine(a, p.Hydrosphere, rng)
	engine.BaseAlbedo = defaultBaseAlbedo
	engine.WaterCoverage = 1 - g.LandFraction()
	engine.MassPerKPa = massPerKPa(body)
	engine.WaterVaporPin = s.Atmosphere.WaterVaporRatio
	engine.LuminosityW = body.StarLuminosityW
	engine.AreaRatio = orbit.RedistributionAreaRatio(body.RotationPeriodSec)
	engine.ElevAdjustK = climate.ElevationAdjustK(body.MaxElevationM)

	solver := &climate.Solver{
		Engine:           engine,
		Eccentricity:     s.Orbit.Eccentricity,
		WinterSolsticeNu: winterSolstice(s, rng),
		TargetAvgK:       s.Climate.TargetTemperatureK,
		Requirement:      &req,
	}
	res, err := solver.Solve()
	if err != nil {
		return p, fmt.Errorf("solving orbit: %w", err)
	}
	p.Climate = res
	p.Albedo = engine.Albedo
	p.Biosphere = engine.Biosphere
	if !res.Converged {
		report.AddWarning(validation.Result{
			Level: validation.LevelClimate,
			Message: fmt.Sprintf("orbit solve stopped at %.1f K after %d iterations without converging",
				res.AvgTempK, res.Iterations),
			SpecPath: "climate.target_temperature_k",
		})
	}
	emit(opts, StageClimate, 0.55, fmt.Sprintf("orbit at %.3f AU, average %.1f K",
		res.DistanceM/orbit.AU, res.AvgTempK))

	sampler := &climate.Sampler{
		Grid:         g,
		Atmosphere:   a,
		Orbit:        res.Orbit,
		AxialTiltRad: body.AxialTiltRad,
		Albedo:       engine.Albedo,
		LuminosityW:  body.StarLuminosityW,
		AreaRatio:    engine.AreaRatio,
		ElevAdjustK:  engine.ElevAdjustK,
		Seasons:      s.Climate.SeasonCount(),
		Seed:         body.Seed,
	}
	p.Annual = sampler.Sample()

	p.Biomes = make([]climate.Biome, len(p.Annual))
	for i, cc := range p.Annual {
		p.Biomes[i] = climate.Classify(cc, g.Cells[i].Water)
	}
	emit(opts, StageSeasons, 0.8, fmt.Sprintf("sampled %d seasons over %d cells",
		sampler.Seasons, len(p.Annual)))

	rivers, err := hydro.Accumulate(g, p.Annual, res.Orbit.PeriodSec(body.StarMassKg))
	if err != nil {
		return p, fmt.Errorf("routing rivers: %w", err)
	}
	p.Rivers = rivers
	emit(opts, StageRivers, 0.9, fmt.Sprintf("routed runoff, %d river cells, %d lake cells",
		rivers.RiverCells, rivers.LakeCells))

	p.Habitability = habitability.Evaluate(habitability.Conditions{
		HasLiquidWater:      p.Hydrosphere.HasLiquidSurface(),
		Atmosphere:          &a.Air,
		SurfacePressureKPa:  a.PressureKPa,
		SurfaceGravity:      body.SurfaceGravity,
		ColdestEquatorTempK: res.ColdestEquatorK,
		WarmestPoleTempK:    res.WarmestPoleK,
	}, req)
	if p.Habitability != habitability.None {
		report.AddWarning(validation.Result{
			Level:    validation.LevelClimate,
			Message:  fmt.Sprintf("habitability requirements violated: %s", p.Habitability),
			SpecPath: "habitability",
		})
	}

	emit(opts, StageDone, 1.0, fmt.Sprintf("generated %s", body.Name))
	return p, nil
}

func emit(opts Options, stage Stage, fraction float64, message string) {
	if opts.OnProgress == nil {
		return
	}
	opts.OnProgress(Progress{Stage: stage, Message: message, Fraction: fraction})
}

// targetEstimateK approximates the temperature the climate solver will aim
// for, following the same ladder: explicit target, then habitability
// bounds, then the cold default. The estimate only picks the atmosphere
// builder's regime, so the margin details do not matter here.
func targetEstimateK(s *spec.PlanetSpec, req habitability.Requirement) float64 {
	if s.Climate.TargetTemperatureK != nil {
		return *s.Climate.TargetTemperatureK
	}
	switch {
	case req.MinTemperatureK != nil && req.MaxTemperatureK != nil:
		return (*req.MinTemperatureK + *req.MaxTemperatureK) / 2
	case req.MinTemperatureK != nil:
		return *req.MinTemperatureK + 10
	case req.MaxTemperatureK != nil:
		return *req.MaxTemperatureK - 10
	}
	return 250
}

// winterSolstice places the northern winter solstice, seed-randomized
// unless the spec pins it. The result is normalized to [0, 2pi).
func winterSolstice(s *spec.PlanetSpec, rng *rand.Rand) float64 {
	if s.Orbit.WinterSolsticeDeg == nil {
		return rng.Float64() * 2 * math.Pi
	}
	nu := math.Mod(*s.Orbit.WinterSolsticeDeg*math.Pi/180, 2*math.Pi)
	if nu < 0 {
		nu += 2 * math.Pi
	}
	return nu
}

// massPerKPa converts one kPa of planet-wide partial pressure into a
// planet-mass fraction: a column carrying P/g of mass per unit area,
// summed over the surface, divided by the body mass.
func massPerKPa(b *planet.Body) float64 {
	if b.SurfaceGravity <= 0 || b.MassKg <= 0 {
		return 0
	}
	return 1000 * b.SurfaceAreaM2 / (b.SurfaceGravity * b.MassKg)
}

// hydrosphereFor builds the initial liquid-water inventory from the
// body's target coverage. Dry worlds get an empty hydrosphere.
func hydrosphereFor(b *planet.Body) *atmo.Hydrosphere {
	if b.WaterRatio <= 0 {
		return &atmo.Hydrosphere{}
	}
	return &atmo.Hydrosphere{
		Water:        chem.New(map[chem.Component]float64{chem.C(chem.Water, chem.PhaseLiquid): 1}),
		MassFraction: oceanMassPerCoverage * b.WaterRatio,
	}
}

// applyOverrides forces the spec's constituent overrides onto the built
// air and rebalances. Schema validation has already vetted the names, so
// anything unparseable here is simply skipped.
func applyOverrides(a *atmo.Atmosphere, overrides []spec.ComponentOverride) {
	if len(overrides) == 0 {
		return
	}
	for _, o := range overrides {
		ph, err := chem.ParsePhase(o.Phase)
		if err != nil {
			continue
		}
		if ph == chem.PhaseAny {
			ph = chem.PhaseGas
		}
		a.Air.SetProportion(chem.Species(o.Species), ph, o.Proportion)
	}
	a.Air.Balance()
	a.Invalidate()
}
