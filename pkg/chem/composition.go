package chem

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Phase classifies the physical state of a constituent within a mixture.
// PhaseAny is a query wildcard; stored entries always carry a concrete phase.
type Phase uint8

const (
	PhaseAny Phase = iota
	PhaseSolid
	PhaseLiquid
	PhaseGas
)

// String returns the lower-case phase name.
func (p Phase) String() string {
	switch p {
	case PhaseSolid:
		return "solid"
	case PhaseLiquid:
		return "liquid"
	case PhaseGas:
		return "gas"
	default:
		return "any"
	}
}

// ParsePhase converts a phase name from a project file into a Phase.
func ParsePhase(s string) (Phase, error) {
	switch s {
	case "solid", "ice":
		return PhaseSolid, nil
	case "liquid":
		return PhaseLiquid, nil
	case "gas", "vapor":
		return PhaseGas, nil
	case "", "any":
		return PhaseAny, nil
	}
	return PhaseAny, fmt.Errorf("unknown phase %q", s)
}

// Component keys one constituent of a mixture: a substance in a phase.
type Component struct {
	Species Species
	Phase   Phase
}

// C is a shorthand constructor for Component.
func C(sp Species, ph Phase) Component {
	return Component{Species: sp, Phase: ph}
}

// BalanceTolerance is the permitted drift of a layer's proportion sum from 1.
const BalanceTolerance = 1e-4

// massEpsilon is the threshold below which a proportion counts as zero.
const massEpsilon = 1e-12

// Layer is one stratum of a mixture. Parts maps each constituent to its mass
// fraction of the layer; Proportion is the layer's share of the whole
// mixture's mass.
type Layer struct {
	Parts      map[Component]float64
	Proportion float64
}

// Composition is a multi-phase mixture of one or more strata, ordered from
// the bottom of the stack upward (a surface ice sheet over a subsurface ocean
// puts the ocean at index 0). The single-layer case is the common one; every
// operation treats it as a one-element stack, so callers never branch on
// flat versus layered.
//
// Invariant: after Balance, each layer's part fractions sum to 1 within
// BalanceTolerance, and layer proportions sum to 1. Partial edits through
// SetProportion may run the sum off 1; callers renormalize when done.
type Composition struct {
	Layers []Layer
}

// New builds a single-layer mixture from the given parts, normalized.
func New(parts map[Component]float64) Composition {
	layer := Layer{Parts: make(map[Component]float64, len(parts)), Proportion: 1}
	for k, v := range parts {
		if v > massEpsilon {
			layer.Parts[k] = v
		}
	}
	c := Composition{Layers: []Layer{layer}}
	c.Balance()
	return c
}

// Empty returns a mixture with no layers and no mass.
func Empty() Composition {
	return Composition{}
}

// IsEmpty reports whether the mixture holds no mass at all.
func (c *Composition) IsEmpty() bool {
	for _, l := range c.Layers {
		for _, v := range l.Parts {
			if v > massEpsilon {
				return false
			}
		}
	}
	return true
}

// Clear removes every layer, leaving an empty mixture.
func (c *Composition) Clear() {
	c.Layers = nil
}

// LayerCount returns the number of strata (0 for an empty mixture).
func (c *Composition) LayerCount() int {
	return len(c.Layers)
}

// Clone returns a deep copy.
func (c *Composition) Clone() Composition {
	out := Composition{Layers: make([]Layer, len(c.Layers))}
	for i, l := range c.Layers {
		parts := make(map[Component]float64, len(l.Parts))
		for k, v := range l.Parts {
			parts[k] = v
		}
		out.Layers[i] = Layer{Parts: parts, Proportion: l.Proportion}
	}
	return out
}

// Proportion returns the mixture-wide mass fraction of the component,
// weighted by layer proportion. PhaseAny sums every phase of the species.
func (c *Composition) Proportion(sp Species, ph Phase) float64 {
	total := 0.0
	for _, l := range c.Layers {
		total += l.Proportion * layerProportion(l, sp, ph)
	}
	return total
}

// ProportionInLayer returns the component's mass fraction within layer i.
func (c *Composition) ProportionInLayer(i int, sp Species, ph Phase) float64 {
	if i < 0 || i >= len(c.Layers) {
		return 0
	}
	return layerProportion(c.Layers[i], sp, ph)
}

func layerProportion(l Layer, sp Species, ph Phase) float64 {
	if ph != PhaseAny {
		return l.Parts[Component{Species: sp, Phase: ph}]
	}
	total := 0.0
	for _, k := range stableKeys(l.Parts) {
		if k.Species == sp {
			total += l.Parts[k]
		}
	}
	return total
}

// TotalInPhase returns the mixture-wide mass fraction held in the given
// phase across all species.
func (c *Composition) TotalInPhase(ph Phase) float64 {
	total := 0.0
	for _, l := range c.Layers {
		for _, k := range stableKeys(l.Parts) {
			if k.Phase == ph {
				total += l.Proportion * l.Parts[k]
			}
		}
	}
	return total
}

// Total returns the sum of every entry weighted by layer proportion. For a
// balanced mixture this is 1; ledgers that track raw amounts instead of
// fractions get their grand total.
func (c *Composition) Total() float64 {
	total := 0.0
	for _, l := range c.Layers {
		for _, k := range stableKeys(l.Parts) {
			total += l.Proportion * l.Parts[k]
		}
	}
	return total
}

// ContainsSubstance reports whether any layer holds the species in any phase.
func (c *Composition) ContainsSubstance(sp Species) bool {
	for _, l := range c.Layers {
		for k, v := range l.Parts {
			if k.Species == sp && v > massEpsilon {
				return true
			}
		}
	}
	return false
}

// stableKeys returns the layer's component keys in species-then-phase
// order. Every float summation over a Parts map iterates this order, so
// equal mixtures produce bit-equal totals regardless of map history. Map
// range order would reorder the additions and shift results by an ulp,
// breaking seed reproducibility.
func stableKeys(parts map[Component]float64) []Component {
	keys := make([]Component, 0, len(parts))
	for k := range parts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Species != keys[j].Species {
			return keys[i].Species < keys[j].Species
		}
		return keys[i].Phase < keys[j].Phase
	})
	return keys
}

// Components returns every distinct component present in the mixture, in a
// stable order (species, then phase), for deterministic iteration.
func (c *Composition) Components() []Component {
	seen := map[Component]bool{}
	for _, l := range c.Layers {
		for k, v := range l.Parts {
			if v > massEpsilon {
				seen[k] = true
			}
		}
	}
	out := make([]Component, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Species != out[j].Species {
			return out[i].Species < out[j].Species
		}
		return out[i].Phase < out[j].Phase
	})
	return out
}

// SetProportion sets the component's mass fraction in every layer. It does
// not renormalize; callers run Balance once their edits are complete.
func (c *Composition) SetProportion(sp Species, ph Phase, v float64) {
	c.ensureLayer()
	key := Component{Species: sp, Phase: ph}
	for i := range c.Layers {
		if v <= massEpsilon {
			delete(c.Layers[i].Parts, key)
		} else {
			c.Layers[i].Parts[key] = v
		}
	}
}

// SetProportionInLayer sets the component's mass fraction in layer i only,
// without renormalizing.
func (c *Composition) SetProportionInLayer(i int, sp Species, ph Phase, v float64) {
	if i < 0 || i >= len(c.Layers) {
		return
	}
	key := Component{Species: sp, Phase: ph}
	if v <= massEpsilon {
		delete(c.Layers[i].Parts, key)
	} else {
		c.Layers[i].Parts[key] = v
	}
}

// AddComponent folds a new component into every layer at the given mass
// fraction, scaling existing parts down proportionally so each layer still
// sums to 1.
func (c *Composition) AddComponent(sp Species, ph Phase, frac float64) {
	c.ensureLayer()
	for i := range c.Layers {
		addToLayer(&c.Layers[i], sp, ph, frac)
	}
}

// AddToLayer folds a component into layer i only, scaling that layer's
// existing parts down proportionally.
func (c *Composition) AddToLayer(i int, sp Species, ph Phase, frac float64) {
	if i < 0 || i >= len(c.Layers) {
		return
	}
	addToLayer(&c.Layers[i], sp, ph, frac)
}

func addToLayer(l *Layer, sp Species, ph Phase, frac float64) {
	if frac <= massEpsilon {
		return
	}
	if frac > 1 {
		frac = 1
	}
	key := Component{Species: sp, Phase: ph}
	scale := 1 - frac
	for k, v := range l.Parts {
		l.Parts[k] = v * scale
	}
	l.Parts[key] += frac
}

// RemoveComponent deletes the component from every layer and renormalizes
// the remaining parts. PhaseAny removes every phase of the species.
func (c *Composition) RemoveComponent(sp Species, ph Phase) {
	for i := range c.Layers {
		l := &c.Layers[i]
		for k := range l.Parts {
			if k.Species != sp {
				continue
			}
			if ph == PhaseAny || k.Phase == ph {
				delete(l.Parts, k)
			}
		}
		normalizeLayer(l)
	}
	c.dropEmptyLayers()
}

// SetPhase moves the species' entire mass into the given phase in every
// layer, preserving each layer's total.
func (c *Composition) SetPhase(sp Species, ph Phase) {
	for i := range c.Layers {
		setPhaseInLayer(&c.Layers[i], sp, ph)
	}
}

// SetPhaseInLayer moves the species' mass into the given phase within layer
// i only.
func (c *Composition) SetPhaseInLayer(i int, sp Species, ph Phase) {
	if i < 0 || i >= len(c.Layers) {
		return
	}
	setPhaseInLayer(&c.Layers[i], sp, ph)
}

func setPhaseInLayer(l *Layer, sp Species, ph Phase) {
	total := 0.0
	for _, k := range stableKeys(l.Parts) {
		if k.Species == sp {
			total += l.Parts[k]
			delete(l.Parts, k)
		}
	}
	if total > massEpsilon {
		l.Parts[Component{Species: sp, Phase: ph}] += total
	}
}

// Split divides the top layer in two, giving the new surface layer the given
// share of that layer's mass. On a flat mixture this converts it to a
// two-layer stack (bottom 1−ratio, surface ratio) with identical parts; the
// caller then mutates the surface layer independently, e.g. freezing it.
func (c *Composition) Split(ratio float64) {
	if len(c.Layers) == 0 || ratio <= massEpsilon || ratio >= 1 {
		return
	}
	top := &c.Layers[len(c.Layers)-1]
	surface := Layer{
		Parts:      make(map[Component]float64, len(top.Parts)),
		Proportion: top.Proportion * ratio,
	}
	for k, v := range top.Parts {
		surface.Parts[k] = v
	}
	top.Proportion *= 1 - ratio
	c.Layers = append(c.Layers, surface)
}

// Homogenize collapses a layered mixture back to a single layer holding the
// mass-weighted average of every stratum.
func (c *Composition) Homogenize() {
	if len(c.Layers) <= 1 {
		return
	}
	merged := Layer{Parts: map[Component]float64{}, Proportion: 1}
	weight := 0.0
	for _, l := range c.Layers {
		weight += l.Proportion
	}
	if weight < massEpsilon {
		c.Layers = nil
		return
	}
	for _, l := range c.Layers {
		for k, v := range l.Parts {
			merged.Parts[k] += v * l.Proportion / weight
		}
	}
	c.Layers = []Layer{merged}
}

// Balance renormalizes every layer's parts to sum to 1 and the layer
// proportions to sum to 1, clamping stray negative fractions to zero first.
// Calling it twice in a row is a no-op.
func (c *Composition) Balance() {
	for i := range c.Layers {
		normalizeLayer(&c.Layers[i])
	}
	c.dropEmptyLayers()
	total := 0.0
	for _, l := range c.Layers {
		total += l.Proportion
	}
	if total < massEpsilon {
		return
	}
	for i := range c.Layers {
		c.Layers[i].Proportion /= total
	}
}

func normalizeLayer(l *Layer) {
	total := 0.0
	for _, k := range stableKeys(l.Parts) {
		v := l.Parts[k]
		if v < massEpsilon {
			delete(l.Parts, k)
			continue
		}
		total += v
	}
	if total < massEpsilon {
		return
	}
	for k, v := range l.Parts {
		l.Parts[k] = v / total
	}
}

func (c *Composition) dropEmptyLayers() {
	kept := c.Layers[:0]
	for _, l := range c.Layers {
		mass := 0.0
		for _, v := range l.Parts {
			mass += v
		}
		if mass > massEpsilon && l.Proportion > massEpsilon {
			kept = append(kept, l)
		}
	}
	if len(kept) == 0 {
		c.Layers = nil
		return
	}
	c.Layers = kept
}

func (c *Composition) ensureLayer() {
	if len(c.Layers) == 0 {
		c.Layers = []Layer{{Parts: map[Component]float64{}, Proportion: 1}}
	}
}

// PartSnapshot is the serializable form of one constituent entry.
type PartSnapshot struct {
	Species    Species `json:"species" yaml:"species"`
	Phase      string  `json:"phase" yaml:"phase"`
	Proportion float64 `json:"proportion" yaml:"proportion"`
}

// LayerSnapshot is the serializable form of one stratum.
type LayerSnapshot struct {
	Proportion float64        `json:"proportion" yaml:"proportion"`
	Parts      []PartSnapshot `json:"parts" yaml:"parts"`
}

// Snapshot returns the mixture as plain records ordered bottom-up, with the
// parts of each layer in stable component order.
func (c *Composition) Snapshot() []LayerSnapshot {
	out := make([]LayerSnapshot, 0, len(c.Layers))
	for _, l := range c.Layers {
		keys := stableKeys(l.Parts)
		snap := LayerSnapshot{Proportion: l.Proportion, Parts: make([]PartSnapshot, 0, len(keys))}
		for _, k := range keys {
			snap.Parts = append(snap.Parts, PartSnapshot{
				Species:    k.Species,
				Phase:      k.Phase.String(),
				Proportion: l.Parts[k],
			})
		}
		out = append(out, snap)
	}
	return out
}

// MarshalJSON encodes the mixture in snapshot form.
func (c Composition) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Snapshot())
}

// UnmarshalJSON rebuilds the mixture from snapshot form.
func (c *Composition) UnmarshalJSON(data []byte) error {
	var snaps []LayerSnapshot
	if err := json.Unmarshal(data, &snaps); err != nil {
		return err
	}
	layers := make([]Layer, 0, len(snaps))
	for _, snap := range snaps {
		l := Layer{Parts: make(map[Component]float64, len(snap.Parts)), Proportion: snap.Proportion}
		for _, p := range snap.Parts {
			ph, err := ParsePhase(p.Phase)
			if err != nil {
				return err
			}
			l.Parts[C(p.Species, ph)] += p.Proportion
		}
		layers = append(layers, l)
	}
	c.Layers = layers
	return nil
}
