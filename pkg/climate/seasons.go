package climate

import (
	"math"
	"runtime"
	"sync"

	opensimplex "github.com/ojrac/opensimplex-go"

	"tellus/pkg/atmo"
	"tellus/pkg/grid"
	"tellus/pkg/orbit"
)

const (
	// defaultSeasons is the number of orbital samples in a year.
	defaultSeasons = 12
	// freezePointK separates rain from snow and open water from ice.
	freezePointK = 273.15
	// freezeRampK is the band below freezing over which precipitation
	// fades to nothing; colder cells are polar desert.
	freezeRampK = 24.0
	// moistureWeight scales the noise signal against the Hadley bands.
	moistureWeight = 0.5
	// Frequencies of the broad regional and local moisture fields.
	moistureCoarseFreq = 1.5
	moistureFineFreq   = 5.0
	// Seed offsets keeping the moisture fields independent of each other
	// and of the elevation noise.
	coarseSeedOffset = 10
	fineSeedOffset   = 11
)

// SeasonSample is one cell's climate at one orbital sample. YearFraction
// counts from the winter solstice, matching cover windows.
type SeasonSample struct {
	TrueAnomaly  float64 `json:"true_anomaly"`
	YearFraction float64 `json:"year_fraction"`
	TemperatureK float64 `json:"temperature_k"`
	RainMM       float64 `json:"rain_mm"`
	SnowMM       float64 `json:"snow_mm"`
}

// Window is a [Start,End) share-of-year interval counted from the winter
// solstice. Start past End means the window wraps the year boundary;
// {0,1} covers the whole year.
type Window struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Contains reports whether year fraction f falls inside the window.
func (w Window) Contains(f float64) bool {
	if w.Start <= w.End {
		return f >= w.Start && f < w.End
	}
	return f >= w.Start || f < w.End
}

// Duration is the window's share of the year.
func (w Window) Duration() float64 {
	if w.Start <= w.End {
		return w.End - w.Start
	}
	return 1 - w.Start + w.End
}

// IsFull reports whether the window covers the whole year.
func (w Window) IsFull() bool {
	return w.Start == 0 && w.End == 1
}

// CellClimate aggregates one cell's year.
type CellClimate struct {
	Seasons      []SeasonSample `json:"seasons"`
	MinTempK     float64        `json:"min_temp_k"`
	MaxTempK     float64        `json:"max_temp_k"`
	MeanTempK    float64        `json:"mean_temp_k"`
	AnnualRainMM float64        `json:"annual_rain_mm"`
	AnnualSnowMM float64        `json:"annual_snow_mm"`
	HasSnowCover bool           `json:"has_snow_cover"`
	SnowCover    Window         `json:"snow_cover"`
	HasSeaIce    bool           `json:"has_sea_ice"`
	SeaIce       Window         `json:"sea_ice"`
}

// seasonContext is the global state shared by every cell in one season.
type seasonContext struct {
	nu      float64
	frac    float64
	avgK    float64
	declRad float64
}

// Sampler derives the annual climate of every grid cell from a converged
// atmosphere and orbit. Cells are independent given the converged global
// state, so the sweep fans out over worker goroutines row by row; the
// season baselines and the Hadley table are computed up front and only
// read afterwards.
type Sampler struct {
	Grid         *grid.Grid
	Atmosphere   *atmo.Atmosphere
	Orbit        orbit.Elements
	AxialTiltRad float64
	Albedo       float64
	LuminosityW  float64
	AreaRatio    float64
	ElevAdjustK  float64
	Seasons      int
	Seed         int64
}

// Sample computes the annual climate of every cell, indexed like the
// grid's cells. The first season sits at the winter solstice and the
// rest follow at even year fractions.
func (s *Sampler) Sample() []CellClimate {
	g := s.Grid
	if g == nil || len(g.Cells) == 0 {
		return nil
	}
	n := s.Seasons
	if n <= 0 {
		n = defaultSeasons
	}

	model := tempModel{luminosityW: s.LuminosityW, areaRatio: s.AreaRatio, elevAdjustK: s.ElevAdjustK}
	gh := s.Atmosphere.GreenhouseFactor()
	avgPrecip := s.Atmosphere.AveragePrecipitationMM()

	seasons := make([]seasonContext, n)
	solsticeFrac := s.Orbit.YearFractionAtTrueAnomaly(s.Orbit.WinterSolsticeNu)
	for j := 0; j < n; j++ {
		frac := float64(j) / float64(n)
		nu := s.Orbit.TrueAnomalyAtYearFraction(math.Mod(solsticeFrac+frac, 1))
		seasons[j] = seasonContext{
			nu:      nu,
			frac:    frac,
			avgK:    model.averageAt(s.Orbit.DistanceAt(nu), s.Albedo, gh),
			declRad: s.Orbit.Declination(s.AxialTiltRad, nu),
		}
	}

	coarse := opensimplex.NewNormalized(s.Seed + coarseSeedOffset)
	fine := opensimplex.NewNormalized(s.Seed + fineSeedOffset)
	hadley := newHadleyTable()
	for r := 0; r < g.Rows; r++ {
		lat := g.LatOfRow(r)
		for _, sc := range seasons {
			hadley.weight(effectiveLatitude(lat, sc.declRad))
		}
	}

	out := make([]CellClimate, len(g.Cells))
	workers := runtime.GOMAXPROCS(0)
	if workers > g.Rows {
		workers = g.Rows
	}
	rows := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range rows {
				for c := 0; c < g.Cols; c++ {
					i := g.Index(r, c)
					out[i] = s.sampleCell(&g.Cells[i], seasons, hadley, coarse, fine, avgPrecip)
				}
			}
		}()
	}
	for r := 0; r < g.Rows; r++ {
		rows <- r
	}
	close(rows)
	wg.Wait()
	return out
}

func (s *Sampler) sampleCell(cell *grid.Cell, seasons []seasonContext, hadley *hadleyTable, coarse, fine opensimplex.Noise, avgPrecip float64) CellClimate {
	x := math.Cos(cell.LatRad) * math.Cos(cell.LonRad)
	y := math.Cos(cell.LatRad) * math.Sin(cell.LonRad)
	z := math.Sin(cell.LatRad)
	broad := 2*coarse.Eval3(x*moistureCoarseFreq, y*moistureCoarseFreq, z*moistureCoarseFreq) - 1
	local := 2*fine.Eval3(x*moistureFineFreq, y*moistureFineFreq, z*moistureFineFreq) - 1
	moisture := broad * local

	cc := CellClimate{
		Seasons:  make([]SeasonSample, len(seasons)),
		MinTempK: math.MaxFloat64,
		MaxTempK: -math.MaxFloat64,
	}
	sum := 0.0
	for j, sc := range seasons {
		effLat := effectiveLatitude(cell.LatRad, sc.declRad)
		t := equatorTemp(sc.avgK) * latitudeFactor(effLat)
		if cell.ElevationM > 0 {
			t -= cell.ElevationM * dryLapseKPerM
		}

		combined := hadley.weight(effLat) + moistureWeight*moisture
		if combined < 0 {
			combined = 0
		}
		ramp := clamp01((t - (freezePointK - freezeRampK)) / freezeRampK)
		h := combined * ramp
		precip := h * amplification(h) * avgPrecip / float64(len(seasons))

		rain, snow := precip, 0.0
		if t < freezePointK {
			rain, snow = 0, precip*atmo.SnowToRainRatio
		}

		cc.Seasons[j] = SeasonSample{
			TrueAnomaly:  sc.nu,
			YearFraction: sc.frac,
			TemperatureK: t,
			RainMM:       rain,
			SnowMM:       snow,
		}
		cc.MinTempK = math.Min(cc.MinTempK, t)
		cc.MaxTempK = math.Max(cc.MaxTempK, t)
		cc.AnnualRainMM += rain
		cc.AnnualSnowMM += snow
		sum += t
	}
	cc.MeanTempK = sum / float64(len(seasons))

	if w, ok := freezeWindow(cell.LatRad, cc.MinTempK, cc.MaxTempK); ok {
		if cell.Water {
			cc.HasSeaIce, cc.SeaIce = true, w
		} else {
			cc.HasSnowCover, cc.SnowCover = true, w
		}
	}
	return cc
}

// amplification steepens the humidity response so wet bands saturate and
// dry bands stay dry,
//
//	(1 + h(0.1h − 0.15) + max(0, e^(h/2) − 1.2))²
func amplification(h float64) float64 {
	base := 1 + h*(0.1*h-0.15) + math.Max(0, math.Exp(h/2)-1.2)
	return base * base
}

// effectiveLatitude shifts a latitude by the seasonal declination,
// clamped to the poles.
func effectiveLatitude(latRad, declRad float64) float64 {
	eff := latRad - declRad
	if eff > math.Pi/2 {
		return math.Pi / 2
	}
	if eff < -math.Pi/2 {
		return -math.Pi / 2
	}
	return eff
}

// freezeWindow converts a cell's annual temperature range into a cover
// window centered on the hemisphere's winter. The freeze share of the
// year comes from where the freezing point cuts the annual range; at
// half or more the cover is permanent, freezing beating melting.
func freezeWindow(latRad, minK, maxK float64) (Window, bool) {
	p := 0.0
	switch {
	case maxK < freezePointK:
		p = 1
	case minK >= freezePointK:
		return Window{}, false
	case maxK > minK:
		p = clamp01((freezePointK - minK) / (maxK - minK))
	}
	if p <= 0 {
		return Window{}, false
	}
	if p >= 0.5 {
		return Window{Start: 0, End: 1}, true
	}
	if latRad >= 0 {
		// Northern winter wraps the year boundary.
		return Window{Start: 1 - p/2, End: p / 2}, true
	}
	return Window{Start: 0.5 - p/2, End: 0.5 + p/2}, true
}
