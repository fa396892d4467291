// Package raster turns per-cell planet data into map images: a scalar or
// categorical field is sampled through a cylindrical projection, colored
// by a ramp, optionally relief-shaded and overlaid with the river
// network, and encoded as PNG.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"

	"tellus/pkg/climate"
	"tellus/pkg/grid"
)

const defaultWidthPx = 1024

// reliefExaggeration scales terrain slopes before shading; planetary
// relief is of order 1e-4 across cells this size and would be invisible
// unscaled.
const reliefExaggeration = 3000.0

const (
	shadeFloor = 0.6
	shadeGain  = 0.566
)

// Render draws one field of the world into an image. Height is half the
// width; both projections fill the full frame.
func Render(w *World, opts Options) (*image.RGBA, error) {
	if w == nil || w.Grid == nil || len(w.Grid.Cells) == 0 {
		return nil, fmt.Errorf("world has no grid")
	}
	colorAt, err := w.layer(opts.Field)
	if err != nil {
		return nil, err
	}

	proj := opts.Projection
	if proj == "" {
		proj = ProjectionEquirect
	}
	if proj != ProjectionEquirect && proj != ProjectionEqualArea {
		return nil, fmt.Errorf("unknown projection %q", proj)
	}
	width := opts.WidthPx
	if width <= 0 {
		width = defaultWidthPx
	}
	height := width / 2
	if height < 1 {
		height = 1
	}

	var shade []float64
	if opts.Hillshade {
		shade = hillshade(w.Grid)
	}

	g := w.Grid
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for py := 0; py < height; py++ {
		lat := latOfPixel(proj, py, height)
		row := int((math.Pi/2 - lat) / math.Pi * float64(g.Rows))
		if row < 0 {
			row = 0
		} else if row >= g.Rows {
			row = g.Rows - 1
		}
		for px := 0; px < width; px++ {
			col := px * g.Cols / width
			i := row*g.Cols + col
			c := colorAt(i)
			if shade != nil {
				c = shadeColor(c, shade[i])
			}
			if opts.Rivers && w.Water != nil {
				if w.Water.Lake[i] {
					c = lakeColor
				} else if w.Water.River[i] {
					c = riverColor
				}
			}
			img.SetRGBA(px, py, c)
		}
	}
	return img, nil
}

// latOfPixel maps an image row center to latitude.
func latOfPixel(proj Projection, py, height int) float64 {
	f := (float64(py) + 0.5) / float64(height)
	if proj == ProjectionEqualArea {
		s := 1 - 2*f
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		return math.Asin(s)
	}
	return math.Pi/2 - f*math.Pi
}

// layer resolves a field to a per-cell color lookup.
func (w *World) layer(f Field) (func(i int) color.RGBA, error) {
	g := w.Grid
	switch f {
	case FieldElevation:
		lo, hi := elevationRange(g)
		return func(i int) color.RGBA {
			cell := &g.Cells[i]
			if cell.Water {
				return seaRamp.at(norm(cell.ElevationM, lo, 0))
			}
			return landRamp.at(norm(cell.ElevationM, 0, hi))
		}, nil
	case FieldTemperature:
		if err := w.needAnnual(f); err != nil {
			return nil, err
		}
		lo, hi := math.Inf(1), math.Inf(-1)
		for i := range w.Annual {
			lo = math.Min(lo, w.Annual[i].MeanTempK)
			hi = math.Max(hi, w.Annual[i].MeanTempK)
		}
		return func(i int) color.RGBA {
			return tempRamp.at(norm(w.Annual[i].MeanTempK, lo, hi))
		}, nil
	case FieldPrecipitation:
		if err := w.needAnnual(f); err != nil {
			return nil, err
		}
		hi := 0.0
		for i := range w.Annual {
			hi = math.Max(hi, w.Annual[i].AnnualRainMM)
		}
		return func(i int) color.RGBA {
			return wetRamp.at(norm(w.Annual[i].AnnualRainMM, 0, hi))
		}, nil
	case FieldSnowfall:
		if err := w.needAnnual(f); err != nil {
			return nil, err
		}
		hi := 0.0
		for i := range w.Annual {
			hi = math.Max(hi, w.Annual[i].AnnualSnowMM)
		}
		return func(i int) color.RGBA {
			return snowRamp.at(norm(w.Annual[i].AnnualSnowMM, 0, hi))
		}, nil
	case FieldIceCover:
		if err := w.needAnnual(f); err != nil {
			return nil, err
		}
		return func(i int) color.RGBA {
			return iceRamp.at(coverShare(w.Annual[i]))
		}, nil
	case FieldBiome:
		if len(w.Biomes) != len(g.Cells) {
			return nil, fmt.Errorf("field %q needs per-cell biomes", f)
		}
		return func(i int) color.RGBA {
			return biomePalette[w.Biomes[i]]
		}, nil
	default:
		return nil, fmt.Errorf("unknown field %q", f)
	}
}

func (w *World) needAnnual(f Field) error {
	if len(w.Annual) != len(w.Grid.Cells) {
		return fmt.Errorf("field %q needs per-cell annual climate", f)
	}
	return nil
}

// coverShare is the share of the year a cell spends under snow or ice.
func coverShare(c climate.CellClimate) float64 {
	if c.HasSeaIce {
		return c.SeaIce.Duration()
	}
	if c.HasSnowCover {
		return c.SnowCover.Duration()
	}
	return 0
}

func elevationRange(g *grid.Grid) (lo, hi float64) {
	lo, hi = 0, 0
	for i := range g.Cells {
		e := g.Cells[i].ElevationM
		if e < lo {
			lo = e
		}
		if e > hi {
			hi = e
		}
	}
	return lo, hi
}

// norm maps v into [0,1] over [lo,hi]; a degenerate range maps to the
// ramp midpoint.
func norm(v, lo, hi float64) float64 {
	if hi-lo <= 0 {
		return 0.5
	}
	t := (v - lo) / (hi - lo)
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// hillshade returns a per-cell illumination factor for light from the
// northwest at 45 degrees. Missing neighbors fall back to the cell's own
// elevation, flattening the gradient at the poles.
func hillshade(g *grid.Grid) []float64 {
	out := make([]float64, len(g.Cells))
	dy := math.Pi * g.RadiusM / float64(g.Rows)
	for i := range g.Cells {
		cell := &g.Cells[i]
		cosLat := math.Cos(cell.LatRad)
		if cosLat < 0.05 {
			cosLat = 0.05
		}
		dx := 2 * math.Pi * g.RadiusM * cosLat / float64(g.Cols)
		gx := (neighborElev(g, i, grid.East) - neighborElev(g, i, grid.West)) / (2 * dx) * reliefExaggeration
		gy := (neighborElev(g, i, grid.South) - neighborElev(g, i, grid.North)) / (2 * dy) * reliefExaggeration
		// Surface normal (-gx,-gy,1) against light (-0.5,-0.5,0.7071).
		shade := (0.5*gx + 0.5*gy + math.Sqrt2/2) / math.Sqrt(gx*gx+gy*gy+1)
		if shade < 0 {
			shade = 0
		}
		out[i] = shade
	}
	return out
}

func neighborElev(g *grid.Grid, i, slot int) float64 {
	n := g.Cells[i].Neighbors[slot]
	if n < 0 {
		return g.Cells[i].ElevationM
	}
	return g.Cells[n].ElevationM
}

func shadeColor(c color.RGBA, shade float64) color.RGBA {
	f := shadeFloor + shadeGain*shade
	return color.RGBA{
		R: clampByte(float64(c.R) * f),
		G: clampByte(float64(c.G) * f),
		B: clampByte(float64(c.B) * f),
		A: 255,
	}
}

func clampByte(v float64) uint8 {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return uint8(v)
}

// EncodePNG writes the image to w as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// WritePNG encodes the image and writes it to path.
func WritePNG(path string, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
