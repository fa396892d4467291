package chem

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
)

const tolerance = 1e-9

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}

func layerSum(l Layer) float64 {
	total := 0.0
	for _, v := range l.Parts {
		total += v
	}
	return total
}

// airlike is a rough modern-atmosphere gas mix used across the ledger tests.
func airlike() Composition {
	return New(map[Component]float64{
		C(Nitrogen, PhaseGas):      0.78,
		C(Oxygen, PhaseGas):        0.21,
		C(Argon, PhaseGas):         0.009,
		C(CarbonDioxide, PhaseGas): 0.001,
	})
}

// --- Construction and queries ---

func TestNewNormalizes(t *testing.T) {
	c := New(map[Component]float64{
		C(Nitrogen, PhaseGas): 3,
		C(Oxygen, PhaseGas):   1,
	})
	if c.LayerCount() != 1 {
		t.Fatalf("expected 1 layer, got %d", c.LayerCount())
	}
	if !approxEqual(c.Proportion(Nitrogen, PhaseGas), 0.75, tolerance) {
		t.Errorf("expected N2 0.75, got %f", c.Proportion(Nitrogen, PhaseGas))
	}
	if !approxEqual(layerSum(c.Layers[0]), 1, tolerance) {
		t.Errorf("expected layer sum 1, got %f", layerSum(c.Layers[0]))
	}
}

func TestEmptyMixture(t *testing.T) {
	c := Empty()
	if !c.IsEmpty() {
		t.Error("expected empty mixture")
	}
	if c.Proportion(Water, PhaseAny) != 0 {
		t.Error("expected zero proportion in empty mixture")
	}
	c.Balance()
	if !c.IsEmpty() {
		t.Error("balance must not invent mass")
	}
}

func TestProportionPhaseAny(t *testing.T) {
	c := New(map[Component]float64{
		C(Water, PhaseGas):    0.2,
		C(Water, PhaseLiquid): 0.5,
		C(Water, PhaseSolid):  0.3,
	})
	if !approxEqual(c.Proportion(Water, PhaseAny), 1, tolerance) {
		t.Errorf("expected total water 1, got %f", c.Proportion(Water, PhaseAny))
	}
	if !approxEqual(c.Proportion(Water, PhaseLiquid), 0.5, tolerance) {
		t.Errorf("expected liquid water 0.5, got %f", c.Proportion(Water, PhaseLiquid))
	}
}

func TestContainsSubstance(t *testing.T) {
	c := airlike()
	if !c.ContainsSubstance(Nitrogen) {
		t.Error("expected nitrogen present")
	}
	if c.ContainsSubstance(Methane) {
		t.Error("expected no methane")
	}
}

func TestTotalInPhase(t *testing.T) {
	c := New(map[Component]float64{
		C(Nitrogen, PhaseGas): 0.7,
		C(Water, PhaseLiquid): 0.2,
		C(Water, PhaseSolid):  0.1,
	})
	if !approxEqual(c.TotalInPhase(PhaseGas), 0.7, tolerance) {
		t.Errorf("expected gas total 0.7, got %f", c.TotalInPhase(PhaseGas))
	}
	if !approxEqual(c.TotalInPhase(PhaseSolid), 0.1, tolerance) {
		t.Errorf("expected solid total 0.1, got %f", c.TotalInPhase(PhaseSolid))
	}
}

// --- Mutation invariants ---

func TestAddComponentRenormalizes(t *testing.T) {
	c := airlike()
	c.AddComponent(Water, PhaseGas, 0.04)
	if !approxEqual(layerSum(c.Layers[0]), 1, tolerance) {
		t.Errorf("expected layer sum 1 after add, got %f", layerSum(c.Layers[0]))
	}
	if !approxEqual(c.Proportion(Water, PhaseGas), 0.04, tolerance) {
		t.Errorf("expected water 0.04, got %f", c.Proportion(Water, PhaseGas))
	}
	// Existing parts scale by 0.96.
	if !approxEqual(c.Proportion(Nitrogen, PhaseGas), 0.78*0.96, tolerance) {
		t.Errorf("expected N2 %f, got %f", 0.78*0.96, c.Proportion(Nitrogen, PhaseGas))
	}
}

func TestRemoveComponentRenormalizes(t *testing.T) {
	c := airlike()
	c.RemoveComponent(Oxygen, PhaseGas)
	if c.ContainsSubstance(Oxygen) {
		t.Error("expected oxygen gone")
	}
	if !approxEqual(layerSum(c.Layers[0]), 1, tolerance) {
		t.Errorf("expected layer sum 1 after remove, got %f", layerSum(c.Layers[0]))
	}
	// N2 share grows proportionally: 0.78/0.79.
	if !approxEqual(c.Proportion(Nitrogen, PhaseGas), 0.78/0.79, tolerance) {
		t.Errorf("expected N2 %f, got %f", 0.78/0.79, c.Proportion(Nitrogen, PhaseGas))
	}
}

func TestSetPhasePreservesTotal(t *testing.T) {
	c := New(map[Component]float64{
		C(Water, PhaseGas):    0.3,
		C(Water, PhaseLiquid): 0.3,
		C(Nitrogen, PhaseGas): 0.4,
	})
	c.SetPhase(Water, PhaseSolid)
	if !approxEqual(c.Proportion(Water, PhaseSolid), 0.6, tolerance) {
		t.Errorf("expected all water solid 0.6, got %f", c.Proportion(Water, PhaseSolid))
	}
	if c.Proportion(Water, PhaseGas) != 0 || c.Proportion(Water, PhaseLiquid) != 0 {
		t.Error("expected no residual gas/liquid water")
	}
	if !approxEqual(layerSum(c.Layers[0]), 1, tolerance) {
		t.Errorf("expected layer sum 1, got %f", layerSum(c.Layers[0]))
	}
}

func TestSetProportionThenBalance(t *testing.T) {
	c := airlike()
	c.SetProportion(CarbonDioxide, PhaseGas, 0.1)
	// Partial edit leaves the sum off 1 until Balance.
	c.Balance()
	if !approxEqual(layerSum(c.Layers[0]), 1, tolerance) {
		t.Errorf("expected layer sum 1 after balance, got %f", layerSum(c.Layers[0]))
	}
	got := c.Proportion(CarbonDioxide, PhaseGas)
	want := 0.1 / (0.78 + 0.21 + 0.009 + 0.1)
	if !approxEqual(got, want, tolerance) {
		t.Errorf("expected CO2 %f after balance, got %f", want, got)
	}
}

// Mass conservation across a mixed mutation sequence, the ledger's core
// guarantee: every layer sums to 1 within BalanceTolerance after Balance.
func TestMutationSequenceMassConservation(t *testing.T) {
	c := airlike()
	c.AddComponent(Water, PhaseGas, 0.02)
	c.SetPhase(Water, PhaseLiquid)
	c.Split(0.25)
	c.AddToLayer(1, Water, PhaseSolid, 0.1)
	c.RemoveComponent(Argon, PhaseAny)
	c.SetProportion(Methane, PhaseGas, 0.001)
	c.Balance()
	for i, l := range c.Layers {
		if math.Abs(layerSum(l)-1) > BalanceTolerance {
			t.Errorf("layer %d sum %f, expected 1 within %g", i, layerSum(l), BalanceTolerance)
		}
	}
	sum := 0.0
	for _, l := range c.Layers {
		sum += l.Proportion
	}
	if !approxEqual(sum, 1, tolerance) {
		t.Errorf("expected layer proportions to sum 1, got %f", sum)
	}
}

// --- Split and homogenize ---

func TestSplitProportions(t *testing.T) {
	c := airlike()
	c.Split(0.3)
	if c.LayerCount() != 2 {
		t.Fatalf("expected 2 layers, got %d", c.LayerCount())
	}
	if !approxEqual(c.Layers[1].Proportion, 0.3, tolerance) {
		t.Errorf("expected surface layer 0.3, got %f", c.Layers[1].Proportion)
	}
	if !approxEqual(c.Layers[0].Proportion, 0.7, tolerance) {
		t.Errorf("expected bottom layer 0.7, got %f", c.Layers[0].Proportion)
	}
}

func TestSplitHomogenizeRoundTrip(t *testing.T) {
	c := airlike()
	before := map[Species]float64{}
	for _, k := range c.Components() {
		before[k.Species] = c.Proportion(k.Species, PhaseAny)
	}
	c.Split(0.3)
	c.Homogenize()
	if c.LayerCount() != 1 {
		t.Fatalf("expected 1 layer after homogenize, got %d", c.LayerCount())
	}
	for sp, want := range before {
		if !approxEqual(c.Proportion(sp, PhaseAny), want, tolerance) {
			t.Errorf("species %s: expected %f, got %f", sp, want, c.Proportion(sp, PhaseAny))
		}
	}
}

func TestHomogenizeMassWeights(t *testing.T) {
	c := airlike()
	c.Split(0.25)
	// Freeze only the surface quarter.
	c.SetPhaseInLayer(1, Nitrogen, PhaseSolid)
	c.Homogenize()
	wantSolid := 0.78 * 0.25
	if !approxEqual(c.Proportion(Nitrogen, PhaseSolid), wantSolid, tolerance) {
		t.Errorf("expected solid N2 %f, got %f", wantSolid, c.Proportion(Nitrogen, PhaseSolid))
	}
	if !approxEqual(c.Proportion(Nitrogen, PhaseAny), 0.78, tolerance) {
		t.Errorf("expected total N2 preserved at 0.78, got %f", c.Proportion(Nitrogen, PhaseAny))
	}
}

func TestSplitLayeredSplitsTop(t *testing.T) {
	c := airlike()
	c.Split(0.5)
	c.Split(0.5)
	if c.LayerCount() != 3 {
		t.Fatalf("expected 3 layers, got %d", c.LayerCount())
	}
	if !approxEqual(c.Layers[2].Proportion, 0.25, tolerance) {
		t.Errorf("expected top layer 0.25, got %f", c.Layers[2].Proportion)
	}
	if !approxEqual(c.Layers[0].Proportion, 0.5, tolerance) {
		t.Errorf("expected bottom layer untouched at 0.5, got %f", c.Layers[0].Proportion)
	}
}

// --- Balance ---

func TestBalanceIdempotent(t *testing.T) {
	c := airlike()
	c.SetProportion(Water, PhaseGas, 0.3)
	c.Balance()
	snap := c.Snapshot()
	c.Balance()
	again := c.Snapshot()
	if len(snap) != len(again) {
		t.Fatalf("layer count changed: %d vs %d", len(snap), len(again))
	}
	for i := range snap {
		if len(snap[i].Parts) != len(again[i].Parts) {
			t.Fatalf("layer %d part count changed", i)
		}
		for j := range snap[i].Parts {
			if !approxEqual(snap[i].Parts[j].Proportion, again[i].Parts[j].Proportion, tolerance) {
				t.Errorf("layer %d part %s drifted: %f vs %f",
					i, snap[i].Parts[j].Species, snap[i].Parts[j].Proportion, again[i].Parts[j].Proportion)
			}
		}
	}
}

func TestBalanceClampsNegatives(t *testing.T) {
	c := airlike()
	c.SetProportion(Oxygen, PhaseGas, -1e-8)
	c.Balance()
	if c.Proportion(Oxygen, PhaseGas) < 0 {
		t.Errorf("expected negative fraction clamped, got %f", c.Proportion(Oxygen, PhaseGas))
	}
	if !approxEqual(layerSum(c.Layers[0]), 1, tolerance) {
		t.Errorf("expected layer sum 1, got %f", layerSum(c.Layers[0]))
	}
}

func TestBalanceDropsEmptyLayers(t *testing.T) {
	c := airlike()
	c.Split(0.4)
	for _, k := range c.Components() {
		c.SetProportionInLayer(1, k.Species, k.Phase, 0)
	}
	c.Balance()
	if c.LayerCount() != 1 {
		t.Errorf("expected empty surface layer dropped, got %d layers", c.LayerCount())
	}
	if !approxEqual(c.Layers[0].Proportion, 1, tolerance) {
		t.Errorf("expected remaining layer proportion 1, got %f", c.Layers[0].Proportion)
	}
}

// --- Snapshot ---

func TestSnapshotStableOrder(t *testing.T) {
	c := airlike()
	snap := c.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("expected 1 layer, got %d", len(snap))
	}
	for i := 1; i < len(snap[0].Parts); i++ {
		if snap[0].Parts[i-1].Species > snap[0].Parts[i].Species {
			t.Errorf("parts out of order: %s before %s",
				snap[0].Parts[i-1].Species, snap[0].Parts[i].Species)
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	c := airlike()
	d := c.Clone()
	d.RemoveComponent(Nitrogen, PhaseAny)
	if !c.ContainsSubstance(Nitrogen) {
		t.Error("mutating the clone must not touch the original")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	c := airlike()
	c.Split(0.2)
	c.SetProportionInLayer(1, Water, PhaseSolid, 0.3)

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var d Composition
	if err := json.Unmarshal(data, &d); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !reflect.DeepEqual(c, d) {
		t.Errorf("round trip changed the mixture:\n%v\n%v", c.Snapshot(), d.Snapshot())
	}

	var bad Composition
	if err := json.Unmarshal([]byte(`[{"proportion":1,"parts":[{"species":"x","phase":"plasma","proportion":1}]}]`), &bad); err == nil {
		t.Error("expected an error for an unknown phase")
	}
}
