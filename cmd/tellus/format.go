package main

import (
	"fmt"

	"tellus/pkg/gen"
	"tellus/pkg/orbit"
	"tellus/pkg/validation"
)

func printValidationReport(r *validation.Report) {
	if len(r.Errors) > 0 {
		fmt.Printf("ERRORS (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Printf("  [%s] %s\n", e.Level, e.Message)
			if e.SpecPath != "" {
				fmt.Printf("    -> %s = %v\n", e.SpecPath, e.ActualValue)
			}
			if e.Expected != "" {
				fmt.Printf("    expected: %s\n", e.Expected)
			}
			if e.ConflictWith != "" {
				fmt.Printf("    conflicts with: %s\n", e.ConflictWith)
			}
			for _, s := range e.Suggestions {
				fmt.Printf("    * %s\n", s)
			}
		}
		fmt.Println()
	}

	if len(r.Warnings) > 0 {
		fmt.Printf("WARNINGS (%d):\n", len(r.Warnings))
		for _, w := range r.Warnings {
			fmt.Printf("  [%s] %s\n", w.Level, w.Message)
			if w.SpecPath != "" {
				fmt.Printf("    -> %s = %v\n", w.SpecPath, w.ActualValue)
			}
			if w.Expected != "" {
				fmt.Printf("    expected: %s\n", w.Expected)
			}
			for _, s := range w.Suggestions {
				fmt.Printf("    * %s\n", s)
			}
		}
		fmt.Println()
	}

	if len(r.Info) > 0 {
		fmt.Printf("INFO (%d):\n", len(r.Info))
		for _, i := range r.Info {
			fmt.Printf("  [%s] %s\n", i.Level, i.Message)
		}
		fmt.Println()
	}

	if r.Valid {
		fmt.Printf("Result: VALID (%s)\n", r.Summary)
	} else {
		fmt.Printf("Result: INVALID (%s)\n", r.Summary)
	}
}

func printPlanetSummary(p *gen.Planet) {
	fmt.Printf("%s (seed %d)\n", p.Body.Name, p.Body.Seed)
	fmt.Println("===================================")
	fmt.Println()

	fmt.Printf("  Radius:            %.0f km\n", p.Body.RadiusM/1000)
	fmt.Printf("  Gravity:           %.2f m/s2\n", p.Body.SurfaceGravity)
	fmt.Printf("  Rotation:          %s\n", formatPeriod(p.Body.RotationPeriodSec))
	fmt.Printf("  Atmosphere:        %s, %.2f kPa\n", p.Regime, p.Atmosphere.PressureKPa)
	fmt.Printf("  Greenhouse:        %.3f\n", p.Atmosphere.GreenhouseFactor())
	fmt.Printf("  Albedo:            %.3f\n", p.Albedo)
	fmt.Println()

	fmt.Printf("  Orbit:             %.3f AU, e=%.4f\n",
		p.Climate.DistanceM/orbit.AU, p.Climate.Orbit.Eccentricity)
	fmt.Printf("  Year:              %s\n", formatPeriod(p.Climate.Orbit.PeriodSec(p.Body.StarMassKg)))
	fmt.Printf("  Temperature:       %.1f K mean (%.1f equator, %.1f polar)\n",
		p.Climate.AvgTempK, p.Climate.EquatorTempK, p.Climate.PolarTempK)
	fmt.Println()

	fmt.Printf("  Water cover:       %.0f%%\n", p.Body.WaterRatio*100)
	fmt.Printf("  Biosphere:         %s\n", yesNo(p.Biosphere))
	if p.Rivers != nil {
		fmt.Printf("  Rivers:            %d river cells, %d lake cells\n",
			p.Rivers.RiverCells, p.Rivers.LakeCells)
	}
	fmt.Printf("  Habitability:      %s\n", p.Habitability)

	if !p.Climate.Converged {
		fmt.Println()
		fmt.Printf("  NOTE: climate solve stopped after %d iterations without converging\n",
			p.Climate.Iterations)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatPeriod(sec float64) string {
	const day = 86400.0
	days := sec / day
	if days >= 1000 {
		return fmt.Sprintf("%.2f Earth years", days/365.25)
	}
	if days >= 1 {
		return fmt.Sprintf("%.1f Earth days", days)
	}
	return fmt.Sprintf("%.1f hours", sec/3600)
}
