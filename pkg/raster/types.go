package raster

import (
	"image/color"

	"tellus/pkg/climate"
	"tellus/pkg/grid"
	"tellus/pkg/hydro"
)

// Field identifies a renderable per-cell layer.
type Field string

const (
	FieldElevation     Field = "elevation"
	FieldTemperature   Field = "temperature"
	FieldPrecipitation Field = "precipitation"
	FieldSnowfall      Field = "snowfall"
	FieldIceCover      Field = "ice_cover"
	FieldBiome         Field = "biome"
)

// Fields lists the renderable fields in a stable order.
func Fields() []Field {
	return []Field{
		FieldElevation,
		FieldTemperature,
		FieldPrecipitation,
		FieldSnowfall,
		FieldIceCover,
		FieldBiome,
	}
}

// Projection selects how latitude maps to image rows.
type Projection string

const (
	// ProjectionEquirect maps latitude linearly to rows.
	ProjectionEquirect Projection = "equirectangular"
	// ProjectionEqualArea maps the sine of latitude linearly to rows, so
	// equal image areas cover equal surface areas.
	ProjectionEqualArea Projection = "equal-area"
)

// Options controls one render.
type Options struct {
	Field      Field      `json:"field"`
	Projection Projection `json:"projection,omitempty"` // default equirectangular
	WidthPx    int        `json:"width_px,omitempty"`   // default 1024; height is half
	Hillshade  bool       `json:"hillshade,omitempty"`  // shade the layer by relief
	Rivers     bool       `json:"rivers,omitempty"`     // overlay rivers and lakes
}

// World bundles the per-cell data the renderer draws from. Grid is
// required; a field whose data is absent fails at render time.
type World struct {
	Grid   *grid.Grid
	Annual []climate.CellClimate
	Biomes []climate.Biome
	Water  *hydro.Network
}

// stop is one color-ramp anchor at a normalized value.
type stop struct {
	v float64
	c color.RGBA
}

type ramp []stop

// at interpolates the ramp at a normalized value, clamping outside the
// anchored range.
func (r ramp) at(v float64) color.RGBA {
	if len(r) == 0 {
		return color.RGBA{A: 255}
	}
	if v <= r[0].v {
		return r[0].c
	}
	for i := 1; i < len(r); i++ {
		if v <= r[i].v {
			span := r[i].v - r[i-1].v
			t := 0.0
			if span > 0 {
				t = (v - r[i-1].v) / span
			}
			return lerpRGBA(r[i-1].c, r[i].c, t)
		}
	}
	return r[len(r)-1].c
}

func lerpRGBA(a, b color.RGBA, t float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(a.R) + t*(float64(b.R)-float64(a.R))),
		G: uint8(float64(a.G) + t*(float64(b.G)-float64(a.G))),
		B: uint8(float64(a.B) + t*(float64(b.B)-float64(a.B))),
		A: 255,
	}
}

var (
	// seaRamp runs deep to shallow water.
	seaRamp = ramp{
		{0, color.RGBA{6, 27, 62, 255}},
		{1, color.RGBA{30, 82, 146, 255}},
	}
	// landRamp runs lowland green through highland brown to summit white.
	landRamp = ramp{
		{0, color.RGBA{46, 107, 50, 255}},
		{0.35, color.RGBA{146, 156, 82, 255}},
		{0.7, color.RGBA{139, 105, 74, 255}},
		{1, color.RGBA{240, 240, 240, 255}},
	}
	tempRamp = ramp{
		{0, color.RGBA{32, 44, 150, 255}},
		{0.5, color.RGBA{235, 230, 200, 255}},
		{1, color.RGBA{168, 22, 22, 255}},
	}
	wetRamp = ramp{
		{0, color.RGBA{242, 238, 222, 255}},
		{1, color.RGBA{16, 78, 139, 255}},
	}
	snowRamp = ramp{
		{0, color.RGBA{40, 40, 56, 255}},
		{1, color.RGBA{245, 245, 255, 255}},
	}
	iceRamp = ramp{
		{0, color.RGBA{22, 44, 80, 255}},
		{1, color.RGBA{236, 244, 250, 255}},
	}
)

var biomePalette = map[climate.Biome]color.RGBA{
	climate.BiomeOcean:           {R: 18, G: 55, B: 110, A: 255},
	climate.BiomeIceSheet:        {R: 235, G: 240, B: 245, A: 255},
	climate.BiomeTundra:          {R: 150, G: 160, B: 140, A: 255},
	climate.BiomeBorealForest:    {R: 28, G: 84, B: 55, A: 255},
	climate.BiomeTemperateForest: {R: 52, G: 120, B: 62, A: 255},
	climate.BiomeGrassland:       {R: 148, G: 168, B: 88, A: 255},
	climate.BiomeDesert:          {R: 210, G: 180, B: 120, A: 255},
	climate.BiomeTropicalForest:  {R: 16, G: 92, B: 40, A: 255},
}

var (
	riverColor = color.RGBA{R: 24, G: 64, B: 150, A: 255}
	lakeColor  = color.RGBA{R: 34, G: 94, B: 172, A: 255}
)
