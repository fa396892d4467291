package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"tellus/internal/catalog"
	"tellus/pkg/gen"
	"tellus/pkg/planet"
	"tellus/pkg/raster"
	"tellus/pkg/spec"
	"tellus/pkg/validation"
)

type generateOptions struct {
	jsonOut  bool
	maps     bool
	outDir   string
	savePath string
}

type mapOptions struct {
	outDir     string
	width      int
	projection string
	hillshade  bool
	noRivers   bool
	fields     []string
}

// loadAndValidate loads the spec and runs schema validation.
func loadAndValidate(projectPath string) (*spec.PlanetSpec, *validation.Report, error) {
	planetSpec, err := spec.LoadProject(projectPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading spec: %w", err)
	}
	schemaReport := validation.ValidateSchema(planetSpec)
	return planetSpec, schemaReport, nil
}

func runValidate(projectPath string) error {
	planetSpec, schemaReport, err := loadAndValidate(projectPath)
	if err != nil {
		return err
	}

	// Resolve the body for the physical validation pass.
	_, physicalReport := planet.Resolve(planetSpec)
	schemaReport.Merge(physicalReport)

	printValidationReport(schemaReport)

	if !schemaReport.Valid {
		os.Exit(1)
	}
	return nil
}

// generatePlanet loads the project and runs the pipeline to completion,
// streaming stage progress to stderr so stdout stays clean for output.
func generatePlanet(projectPath string) (*gen.Planet, error) {
	planetSpec, err := spec.LoadProject(projectPath)
	if err != nil {
		return nil, fmt.Errorf("loading spec: %w", err)
	}

	p, err := gen.Generate(planetSpec, gen.Options{OnProgress: printProgress})
	if err != nil {
		if p != nil && p.Report != nil {
			printValidationReport(p.Report)
		}
		return nil, err
	}
	return p, nil
}

func runGenerate(projectPath string, opts generateOptions) error {
	p, err := generatePlanet(projectPath)
	if err != nil {
		return err
	}

	if opts.savePath != "" {
		store, err := catalog.Open(opts.savePath)
		if err != nil {
			return fmt.Errorf("opening catalog: %w", err)
		}
		defer store.Close()
		id, err := store.Save(p)
		if err != nil {
			return fmt.Errorf("saving planet: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Saved %s to %s as %s\n", p.Body.Name, opts.savePath, id)
	}

	if opts.maps {
		dir := mapDir(projectPath, opts.outDir)
		if err := writeMaps(p, dir, mapOptions{}); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Maps written to %s\n", dir)
	}

	if opts.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	}

	printPlanetSummary(p)

	if len(p.Report.Warnings) > 0 {
		fmt.Println()
		printValidationReport(p.Report)
	}
	return nil
}

func runMaps(projectPath string, opts mapOptions) error {
	p, err := generatePlanet(projectPath)
	if err != nil {
		return err
	}

	dir := mapDir(projectPath, opts.outDir)
	if err := writeMaps(p, dir, opts); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Maps written to %s\n", dir)
	return nil
}

func mapDir(projectPath, outDir string) string {
	if outDir != "" {
		return outDir
	}
	return filepath.Join(projectPath, "maps")
}

// writeMaps renders one PNG per field into dir. Render settings come from
// the spec's maps section; flags override it.
func writeMaps(p *gen.Planet, dir string, opts mapOptions) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	ro := raster.Options{
		WidthPx:    p.Spec.Maps.WidthPx,
		Projection: raster.Projection(p.Spec.Maps.Projection),
		Hillshade:  opts.hillshade,
		Rivers:     !opts.noRivers,
	}
	if opts.width > 0 {
		ro.WidthPx = opts.width
	}
	if opts.projection != "" {
		ro.Projection = raster.Projection(opts.projection)
	}

	fields := raster.Fields()
	if len(opts.fields) > 0 {
		fields = nil
		for _, f := range opts.fields {
			fields = append(fields, raster.Field(f))
		}
	}

	world := p.World()
	for _, f := range fields {
		ro.Field = f
		img, err := raster.Render(world, ro)
		if err != nil {
			return fmt.Errorf("rendering %s: %w", f, err)
		}
		if err := raster.WritePNG(filepath.Join(dir, string(f)+".png"), img); err != nil {
			return err
		}
	}
	return nil
}

func printProgress(ev gen.Progress) {
	fmt.Fprintf(os.Stderr, "[%3.0f%%] %-10s %s\n", ev.Fraction*100, ev.Stage, ev.Message)
}
