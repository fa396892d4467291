package raster

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"tellus/pkg/climate"
	"tellus/pkg/grid"
	"tellus/pkg/hydro"
)

// quadWorld is a 2x2 grid with a land northern row and a sea southern row.
func quadWorld() *World {
	g := &grid.Grid{
		Rows:    2,
		Cols:    2,
		RadiusM: 6.371e6,
		Cells: []grid.Cell{
			{LatRad: 0.78, ElevationM: 10, AreaM2: 1e12},
			{LatRad: 0.78, ElevationM: 100, AreaM2: 1e12},
			{LatRad: -0.78, ElevationM: -50, AreaM2: 1e12, Water: true},
			{LatRad: -0.78, ElevationM: -50, AreaM2: 1e12, Water: true},
		},
	}
	return &World{Grid: g}
}

func TestRenderElevation(t *testing.T) {
	w := quadWorld()
	img, err := Render(w, Options{Field: FieldElevation, WidthPx: 4})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 4 || b.Dy() != 2 {
		t.Fatalf("expected a 4x2 image, got %dx%d", b.Dx(), b.Dy())
	}

	low := img.RGBAAt(0, 0)
	high := img.RGBAAt(2, 0)
	sea := img.RGBAAt(0, 1)
	if high.R <= low.R {
		t.Errorf("expected higher terrain to render brighter, got %v vs %v", high, low)
	}
	if sea.B <= sea.R {
		t.Errorf("expected the sea to render blue, got %v", sea)
	}
	if sea == low {
		t.Error("expected land and sea to render differently")
	}
}

func TestRenderTemperature(t *testing.T) {
	w := quadWorld()
	w.Annual = []climate.CellClimate{
		{MeanTempK: 300}, {MeanTempK: 300},
		{MeanTempK: 250}, {MeanTempK: 250},
	}
	img, err := Render(w, Options{Field: FieldTemperature, WidthPx: 4})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	hot := img.RGBAAt(0, 0)
	cold := img.RGBAAt(0, 1)
	if hot.R <= hot.B {
		t.Errorf("expected the hot end of the ramp to be red, got %v", hot)
	}
	if cold.B <= cold.R {
		t.Errorf("expected the cold end of the ramp to be blue, got %v", cold)
	}
}

func TestRenderBiome(t *testing.T) {
	w := quadWorld()
	w.Biomes = []climate.Biome{
		climate.BiomeDesert, climate.BiomeDesert,
		climate.BiomeOcean, climate.BiomeOcean,
	}
	img, err := Render(w, Options{Field: FieldBiome, WidthPx: 4})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if got := img.RGBAAt(0, 0); got != biomePalette[climate.BiomeDesert] {
		t.Errorf("expected the desert palette entry, got %v", got)
	}
	if got := img.RGBAAt(0, 1); got != biomePalette[climate.BiomeOcean] {
		t.Errorf("expected the ocean palette entry, got %v", got)
	}
}

func TestRenderRiverOverlay(t *testing.T) {
	w := quadWorld()
	w.Water = &hydro.Network{
		DischargeM3S: make([]float64, 4),
		River:        []bool{false, true, false, false},
		Lake:         []bool{true, false, false, false},
	}
	img, err := Render(w, Options{Field: FieldElevation, WidthPx: 4, Rivers: true})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if got := img.RGBAAt(0, 0); got != lakeColor {
		t.Errorf("expected the lake overlay color, got %v", got)
	}
	if got := img.RGBAAt(2, 0); got != riverColor {
		t.Errorf("expected the river overlay color, got %v", got)
	}
	if got := img.RGBAAt(0, 1); got == riverColor || got == lakeColor {
		t.Error("expected unflagged cells to keep the field color")
	}

	plain, err := Render(w, Options{Field: FieldElevation, WidthPx: 4})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if plain.RGBAAt(2, 0) == riverColor {
		t.Error("expected no overlay without the option")
	}
}

func TestRenderEqualAreaCompressesPoles(t *testing.T) {
	g := &grid.Grid{
		Rows:    4,
		Cols:    1,
		RadiusM: 6.371e6,
		Cells: []grid.Cell{
			{LatRad: 1.18}, {LatRad: 0.39}, {LatRad: -0.39}, {LatRad: -1.18, Water: true},
		},
	}
	w := &World{
		Grid: g,
		Biomes: []climate.Biome{
			climate.BiomeIceSheet, climate.BiomeBorealForest,
			climate.BiomeGrassland, climate.BiomeOcean,
		},
	}

	count := func(p Projection) int {
		img, err := Render(w, Options{Field: FieldBiome, Projection: p, WidthPx: 16})
		if err != nil {
			t.Fatalf("render failed: %v", err)
		}
		n := 0
		b := img.Bounds()
		for py := 0; py < b.Dy(); py++ {
			for px := 0; px < b.Dx(); px++ {
				if img.RGBAAt(px, py) == biomePalette[climate.BiomeIceSheet] {
					n++
				}
			}
		}
		return n
	}

	if ea, eq := count(ProjectionEqualArea), count(ProjectionEquirect); ea >= eq {
		t.Errorf("expected the equal-area projection to shrink the polar row, got %d vs %d", ea, eq)
	}
}

func TestRenderHillshade(t *testing.T) {
	g := &grid.Grid{
		Rows:    1,
		Cols:    3,
		RadiusM: 6.371e6,
		Cells: []grid.Cell{
			{ElevationM: 0, Neighbors: [4]int{-1, 1, -1, -1}, Descent: -1},
			{ElevationM: 1000, Neighbors: [4]int{-1, 2, -1, 0}, Descent: 0},
			{ElevationM: 2000, Neighbors: [4]int{-1, -1, -1, 1}, Descent: 1},
		},
	}
	w := &World{Grid: g}

	flat, err := Render(w, Options{Field: FieldElevation, WidthPx: 6})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	shaded, err := Render(w, Options{Field: FieldElevation, WidthPx: 6, Hillshade: true})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	// The middle cell rises toward the light and should brighten.
	if shaded.RGBAAt(2, 0).R <= flat.RGBAAt(2, 0).R {
		t.Errorf("expected a lit slope to brighten, got %v vs %v",
			shaded.RGBAAt(2, 0), flat.RGBAAt(2, 0))
	}
}

func TestRenderValidatesInput(t *testing.T) {
	if _, err := Render(nil, Options{Field: FieldElevation}); err == nil {
		t.Error("expected an error for a nil world")
	}
	w := quadWorld()
	if _, err := Render(w, Options{Field: "gravity"}); err == nil {
		t.Error("expected an error for an unknown field")
	}
	if _, err := Render(w, Options{Field: FieldElevation, Projection: "mercator"}); err == nil {
		t.Error("expected an error for an unknown projection")
	}
	if _, err := Render(w, Options{Field: FieldTemperature}); err == nil {
		t.Error("expected an error when annual climate is missing")
	}
	if _, err := Render(w, Options{Field: FieldBiome}); err == nil {
		t.Error("expected an error when biomes are missing")
	}
}

func TestWritePNGRoundTrip(t *testing.T) {
	w := quadWorld()
	img, err := Render(w, Options{Field: FieldElevation, WidthPx: 8})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "elevation.png")
	if err := WritePNG(path, img); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer f.Close()
	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Bounds() != img.Bounds() {
		t.Errorf("expected bounds %v after decode, got %v", img.Bounds(), decoded.Bounds())
	}
}
