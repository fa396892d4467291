package catalog

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"tellus/pkg/atmo"
	"tellus/pkg/gen"
	"tellus/pkg/spec"
)

func ptr(v float64) *float64 { return &v }

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// habitableWorld generates a small Earth analog that passes every
// habitability check.
func habitableWorld(t *testing.T, name string, seed int64) *gen.Planet {
	t.Helper()
	p, err := gen.Generate(&spec.PlanetSpec{
		SpecVersion: "1",
		Planet: spec.PlanetDef{
			Name: name, Seed: seed,
			RadiusM: 6.371e6, DensityKgM3: 5513,
			RotationPeriodSec: 86164, AxialTiltDeg: 23.4,
			Magnetosphere: true, WaterRatio: 0.66, MaxElevationM: 8800,
		},
		Star: spec.StarDef{MassSolar: 1, LuminositySolar: 1},
		Atmosphere: spec.AtmosphereDef{
			TargetPressureKPa: ptr(atmo.EarthPressureKPa),
			WaterVaporRatio:   ptr(0.0025),
		},
		Climate:      spec.ClimateDef{TargetTemperatureK: ptr(288)},
		Habitability: spec.HabitabilityDef{Preset: "humans"},
		Grid:         spec.GridDef{Resolution: 6},
	}, gen.Options{})
	if err != nil {
		t.Fatalf("generate %s: %v", name, err)
	}
	return p
}

// barrenWorld generates a small dry body that fails habitability.
func barrenWorld(t *testing.T, name string, seed int64) *gen.Planet {
	t.Helper()
	p, err := gen.Generate(&spec.PlanetSpec{
		SpecVersion: "1",
		Planet: spec.PlanetDef{
			Name: name, Seed: seed,
			RadiusM: 1.7e6, DensityKgM3: 3340,
			RotationPeriodSec: 2.36e6, AxialTiltDeg: 1.5,
			WaterRatio: 0, MaxElevationM: 9000,
		},
		Star:         spec.StarDef{MassSolar: 1, LuminositySolar: 1},
		Climate:      spec.ClimateDef{TargetTemperatureK: ptr(288)},
		Habitability: spec.HabitabilityDef{Preset: "humans"},
		Grid:         spec.GridDef{Resolution: 4},
	}, gen.Options{})
	if err != nil {
		t.Fatalf("generate %s: %v", name, err)
	}
	return p
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openStore(t)
	p := habitableWorld(t, "eden", 17)

	id, err := s.Save(p)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if id != p.Body.ID {
		t.Errorf("save returned %s, want the body id %s", id, p.Body.ID)
	}
	if n, err := s.Count(); err != nil || n != 1 {
		t.Fatalf("count = %d (%v), want 1", n, err)
	}

	e, err := s.Load(id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if e.Name != "eden" || e.Seed != 17 {
		t.Errorf("loaded %s seed %d, want eden seed 17", e.Name, e.Seed)
	}
	if !e.Habitable {
		t.Error("an Earth analog should catalog as habitable")
	}
	if !reflect.DeepEqual(e.Spec, p.Spec) {
		t.Error("stored spec does not round trip")
	}
	if e.Planet.Climate != p.Climate {
		t.Errorf("stored climate does not round trip:\n%+v\n%+v", e.Planet.Climate, p.Climate)
	}
	if e.Planet.Atmosphere.PressureKPa != p.Atmosphere.PressureKPa {
		t.Errorf("stored pressure = %f, want %f",
			e.Planet.Atmosphere.PressureKPa, p.Atmosphere.PressureKPa)
	}
	if e.Planet.Grid != nil {
		t.Error("per-cell surface data should not be stored")
	}
}

func TestListAndHabitableFilter(t *testing.T) {
	s := openStore(t)
	eden := habitableWorld(t, "eden", 17)
	rock := barrenWorld(t, "rock", 5)
	if _, err := s.Save(eden); err != nil {
		t.Fatalf("save eden: %v", err)
	}
	if _, err := s.Save(rock); err != nil {
		t.Fatalf("save rock: %v", err)
	}

	all, err := s.List(0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("listed %d planets, want 2", len(all))
	}
	byName := map[string]Summary{}
	for _, sum := range all {
		byName[sum.Name] = sum
	}
	if byName["rock"].Habitable {
		t.Error("a dry trace-regime world should not catalog as habitable")
	}
	if byName["rock"].Regime != "trace" {
		t.Errorf("rock regime = %q, want trace", byName["rock"].Regime)
	}
	if byName["eden"].AvgTempK < 287 || byName["eden"].AvgTempK > 289 {
		t.Errorf("eden average = %f, want near its 288 K target", byName["eden"].AvgTempK)
	}

	habitable, err := s.Habitable()
	if err != nil {
		t.Fatalf("habitable: %v", err)
	}
	if len(habitable) != 1 || habitable[0].Name != "eden" {
		t.Fatalf("habitable filter returned %d rows, want just eden", len(habitable))
	}

	limited, err := s.List(1)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limited list returned %d rows, want 1", len(limited))
	}
}

func TestSaveReplacesSameNameAndSeed(t *testing.T) {
	s := openStore(t)
	if _, err := s.Save(habitableWorld(t, "eden", 17)); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if _, err := s.Save(habitableWorld(t, "eden", 17)); err != nil {
		t.Fatalf("second save: %v", err)
	}
	if n, _ := s.Count(); n != 1 {
		t.Errorf("count = %d after regenerating the same world, want 1", n)
	}
}

func TestDelete(t *testing.T) {
	s := openStore(t)
	id, err := s.Save(barrenWorld(t, "rock", 5))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := s.Delete(uuid.New()); err == nil {
		t.Error("expected an error deleting an unknown id")
	}
	if err := s.Delete(id); err != nil {
		t.Errorf("delete: %v", err)
	}
	if n, _ := s.Count(); n != 0 {
		t.Errorf("count = %d after delete, want 0", n)
	}
	if _, err := s.Load(id); err == nil {
		t.Error("expected an error loading a deleted planet")
	}
}

func TestSaveRejectsPartialPlanet(t *testing.T) {
	s := openStore(t)
	if _, err := s.Save(nil); err == nil {
		t.Error("expected an error saving nil")
	}
	if _, err := s.Save(&gen.Planet{}); err == nil {
		t.Error("expected an error saving an ungenerated planet")
	}
}
