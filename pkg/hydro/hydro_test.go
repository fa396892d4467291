package hydro

import (
	"math"
	"testing"

	"tellus/pkg/climate"
	"tellus/pkg/grid"
)

const (
	testAreaM2    = 1e10
	testPeriodSec = 3.15e7
)

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func stripGrid(cells []grid.Cell) *grid.Grid {
	return &grid.Grid{Rows: 1, Cols: len(cells), RadiusM: 6.4e6, Cells: cells}
}

func rainOnly(mm float64) climate.CellClimate {
	return climate.CellClimate{AnnualRainMM: mm}
}

func TestAccumulateChainToSea(t *testing.T) {
	g := stripGrid([]grid.Cell{
		{ElevationM: 300, AreaM2: testAreaM2, Neighbors: [4]int{-1, 1, -1, -1}, Descent: 1},
		{ElevationM: 200, AreaM2: testAreaM2, Neighbors: [4]int{-1, 2, -1, 0}, Descent: 2},
		{ElevationM: 100, AreaM2: testAreaM2, Neighbors: [4]int{-1, 3, -1, 1}, Descent: 3},
		{ElevationM: -10, AreaM2: testAreaM2, Water: true, Neighbors: [4]int{-1, -1, -1, 2}, Descent: -1},
	})
	annual := []climate.CellClimate{rainOnly(1000), rainOnly(1000), rainOnly(1000), {}}

	net, err := Accumulate(g, annual, testPeriodSec)
	if err != nil {
		t.Fatalf("accumulate failed: %v", err)
	}

	r := 1.0 * testAreaM2 / testPeriodSec
	want := []float64{r, 2 * r, 3 * r, 0}
	for i, w := range want {
		if !approxEqual(net.DischargeM3S[i], w, 1e-6) {
			t.Errorf("cell %d: expected discharge %f, got %f", i, w, net.DischargeM3S[i])
		}
	}
	if !approxEqual(net.OutflowM3S, 3*r, 1e-6) {
		t.Errorf("expected all runoff delivered to the sea, got %f of %f", net.OutflowM3S, 3*r)
	}
	if net.LakeCells != 0 {
		t.Errorf("expected no lakes on open terrain, got %d", net.LakeCells)
	}
	if net.River[0] || net.River[1] {
		t.Error("expected headwater cells below the river threshold")
	}
	if !net.River[2] {
		t.Error("expected the mouth cell to carry a river")
	}
	if net.RiverCells != 1 {
		t.Errorf("expected 1 river cell, got %d", net.RiverCells)
	}
}

func TestAccumulateClosedBasin(t *testing.T) {
	g := stripGrid([]grid.Cell{
		{ElevationM: 300, AreaM2: testAreaM2, Neighbors: [4]int{-1, 1, -1, -1}, Descent: 1},
		{ElevationM: 100, AreaM2: testAreaM2, Neighbors: [4]int{-1, 2, -1, 0}, Descent: -1},
		{ElevationM: 200, AreaM2: testAreaM2, Neighbors: [4]int{-1, -1, -1, 1}, Descent: 1},
	})
	annual := []climate.CellClimate{rainOnly(1000), rainOnly(1000), rainOnly(1000)}

	net, err := Accumulate(g, annual, testPeriodSec)
	if err != nil {
		t.Fatalf("accumulate failed: %v", err)
	}

	if !net.Lake[1] {
		t.Error("expected a lake at the basin floor")
	}
	if net.Lake[0] || net.Lake[2] {
		t.Error("expected no lakes on the basin slopes")
	}
	if net.LakeCells != 1 {
		t.Errorf("expected 1 lake cell, got %d", net.LakeCells)
	}
	if net.OutflowM3S != 0 {
		t.Errorf("expected no outflow from a closed basin, got %f", net.OutflowM3S)
	}
	if net.River[1] {
		t.Error("expected the lake cell not to double as a river")
	}
}

func TestAccumulateLandlockedPit(t *testing.T) {
	g := stripGrid([]grid.Cell{
		{ElevationM: 50, AreaM2: testAreaM2, Neighbors: [4]int{-1, -1, -1, -1}, Descent: -1},
	})
	annual := []climate.CellClimate{rainOnly(400)}

	net, err := Accumulate(g, annual, testPeriodSec)
	if err != nil {
		t.Fatalf("accumulate failed: %v", err)
	}
	if !net.Lake[0] {
		t.Error("expected rain on a rimless pit to pool")
	}
	if net.OutflowM3S != 0 {
		t.Errorf("expected no outflow, got %f", net.OutflowM3S)
	}
}

func TestAccumulatePermanentSnowLock(t *testing.T) {
	g := stripGrid([]grid.Cell{
		{ElevationM: 500, AreaM2: testAreaM2, Neighbors: [4]int{-1, 1, -1, -1}, Descent: 1},
		{ElevationM: -10, AreaM2: testAreaM2, Water: true, Neighbors: [4]int{-1, -1, -1, 0}, Descent: -1},
	})
	annual := []climate.CellClimate{
		{
			AnnualRainMM: 200,
			AnnualSnowMM: 3000,
			HasSnowCover: true,
			SnowCover:    climate.Window{Start: 0, End: 1},
		},
		{},
	}

	net, err := Accumulate(g, annual, testPeriodSec)
	if err != nil {
		t.Fatalf("accumulate failed: %v", err)
	}
	if net.DischargeM3S[0] != 0 {
		t.Errorf("expected an ice-locked cell to shed nothing, got %f", net.DischargeM3S[0])
	}
	if net.OutflowM3S != 0 {
		t.Errorf("expected no outflow, got %f", net.OutflowM3S)
	}
}

func TestAccumulateSnowWaterEquivalent(t *testing.T) {
	g := stripGrid([]grid.Cell{
		{ElevationM: 500, AreaM2: testAreaM2, Neighbors: [4]int{-1, 1, -1, -1}, Descent: 1},
		{ElevationM: -10, AreaM2: testAreaM2, Water: true, Neighbors: [4]int{-1, -1, -1, 0}, Descent: -1},
	})
	annual := []climate.CellClimate{
		{
			AnnualSnowMM: 1000,
			HasSnowCover: true,
			SnowCover:    climate.Window{Start: 0.8, End: 0.2},
		},
		{},
	}

	net, err := Accumulate(g, annual, testPeriodSec)
	if err != nil {
		t.Fatalf("accumulate failed: %v", err)
	}

	want := 0.1 * testAreaM2 / testPeriodSec
	if !approxEqual(net.OutflowM3S, want, 1e-9) {
		t.Errorf("expected seasonal snow to melt at its water equivalent %f, got %f", want, net.OutflowM3S)
	}
}

func TestAccumulateValidatesInput(t *testing.T) {
	g := stripGrid([]grid.Cell{
		{ElevationM: 100, AreaM2: testAreaM2, Neighbors: [4]int{-1, -1, -1, -1}, Descent: -1},
	})
	annual := []climate.CellClimate{rainOnly(100)}

	if _, err := Accumulate(nil, annual, testPeriodSec); err == nil {
		t.Error("expected an error for a nil grid")
	}
	if _, err := Accumulate(g, nil, testPeriodSec); err == nil {
		t.Error("expected an error for mismatched climate length")
	}
	if _, err := Accumulate(g, annual, 0); err == nil {
		t.Error("expected an error for a zero orbital period")
	}
}
