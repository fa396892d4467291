// Package hydro routes the sampled annual precipitation over the surface
// grid: per-cell runoff accumulates along the precomputed steepest-descent
// edges, pools into lakes at local minima, and flags the cells carrying
// enough discharge to render as rivers.
package hydro

import (
	"fmt"
	"math"

	"tellus/pkg/atmo"
	"tellus/pkg/climate"
	"tellus/pkg/grid"
)

const (
	// riverFlowFactor is the accumulated discharge, in multiples of the
	// mean land-cell runoff, above which a cell renders as a river.
	riverFlowFactor = 3.0
	mmPerM          = 1000.0
)

// Network is the river and lake system derived from one annual climate.
// Slices are indexed like the grid's cells.
type Network struct {
	DischargeM3S []float64 `json:"discharge_m3s"`
	River        []bool    `json:"river"`
	Lake         []bool    `json:"lake"`
	RiverCells   int       `json:"river_cells"`
	LakeCells    int       `json:"lake_cells"`
	// OutflowM3S is the discharge delivered to the sea; on terrain
	// without closed basins it equals the summed runoff.
	OutflowM3S float64 `json:"outflow_m3s"`
}

// Accumulate routes every land cell's annual water yield downhill.
// Runoff is the cell's yield spread over the orbital period; flow follows
// descent edges until it reaches a water cell, pooling into a lake
// wherever no lower neighbor exists and overflowing through the lake's
// lowest rim until the water reaches the sea or returns to a lake it has
// already filled.
func Accumulate(g *grid.Grid, annual []climate.CellClimate, periodSec float64) (*Network, error) {
	if g == nil || len(g.Cells) == 0 {
		return nil, fmt.Errorf("grid has no cells")
	}
	if len(annual) != len(g.Cells) {
		return nil, fmt.Errorf("climate covers %d cells, grid has %d", len(annual), len(g.Cells))
	}
	if periodSec <= 0 {
		return nil, fmt.Errorf("orbital period must be positive, got %g", periodSec)
	}

	n := len(g.Cells)
	runoff := make([]float64, n)
	totalRunoff := 0.0
	sources := 0
	for i := range g.Cells {
		if g.Cells[i].Water {
			continue
		}
		mm := waterYieldMM(annual[i])
		if mm <= 0 {
			continue
		}
		runoff[i] = mm / mmPerM * g.Cells[i].AreaM2 / periodSec
		totalRunoff += runoff[i]
		sources++
	}

	net := &Network{
		DischargeM3S: make([]float64, n),
		River:        make([]bool, n),
		Lake:         make([]bool, n),
	}
	for i := range runoff {
		if runoff[i] > 0 {
			net.route(g, i, runoff[i])
		}
	}

	if sources > 0 {
		threshold := riverFlowFactor * totalRunoff / float64(sources)
		for i := range net.DischargeM3S {
			if net.Lake[i] {
				net.LakeCells++
				continue
			}
			if net.DischargeM3S[i] >= threshold {
				net.River[i] = true
				net.RiverCells++
			}
		}
	}
	return net, nil
}

// route pushes one cell's runoff down the descent chain. Pits pool the
// water into a lake and overflow through their lowest land rim; the walk
// ends at the sea or on returning to a lake it already filled.
func (net *Network) route(g *grid.Grid, start int, r float64) {
	i := start
	var filled []int
	for steps := 0; steps < len(g.Cells); steps++ {
		d := g.Cells[i].Descent
		if d < 0 {
			for _, f := range filled {
				if f == i {
					return
				}
			}
			net.DischargeM3S[i] += r
			net.Lake[i] = true
			filled = append(filled, i)
			spill := lowestRim(g, i)
			if spill < 0 {
				return
			}
			i = spill
			continue
		}
		net.DischargeM3S[i] += r
		if g.Cells[d].Water {
			net.OutflowM3S += r
			return
		}
		i = d
	}
}

// lowestRim returns the lowest land neighbor of a pit cell, or -1 when
// the pit has no land rim to overflow through.
func lowestRim(g *grid.Grid, i int) int {
	best := -1
	bestElev := math.Inf(1)
	for _, nb := range g.Cells[i].Neighbors {
		if nb < 0 || g.Cells[nb].Water {
			continue
		}
		if g.Cells[nb].ElevationM < bestElev {
			best, bestElev = nb, g.Cells[nb].ElevationM
		}
	}
	return best
}

// waterYieldMM is the liquid water a cell sheds in a year. Snow melts
// into the same budget at its water equivalent unless the cover is
// permanent, in which case the cell feeds an ice sheet, not a river.
func waterYieldMM(c climate.CellClimate) float64 {
	if c.HasSnowCover && c.SnowCover.IsFull() {
		return 0
	}
	return c.AnnualRainMM + c.AnnualSnowMM/atmo.SnowToRainRatio
}
