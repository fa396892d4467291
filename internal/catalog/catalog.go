// Package catalog persists generated planets to a local sqlite file. Each
// row keeps the input spec, the solved scalar state and a summary the
// server and CLI can list without decoding documents. Per-cell surface
// data is not stored; regenerating from the saved spec reproduces it
// exactly, seed included.
package catalog

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"tellus/pkg/gen"
	"tellus/pkg/habitability"
	"tellus/pkg/orbit"
	"tellus/pkg/spec"
)

// Store wraps the sqlite catalog.
type Store struct {
	db *sql.DB
}

// Open opens or creates the catalog database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS planets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		seed INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		-- Scalar summary
		regime TEXT NOT NULL,
		pressure_kpa REAL NOT NULL,
		avg_temp_k REAL NOT NULL,
		distance_au REAL NOT NULL,
		water_ratio REAL NOT NULL,
		biosphere INTEGER NOT NULL DEFAULT 0,
		-- Habitability verdict
		habitable INTEGER NOT NULL DEFAULT 0,
		habitability TEXT NOT NULL,
		-- Stored documents
		spec_json TEXT NOT NULL,
		planet_json TEXT NOT NULL,
		UNIQUE (name, seed)
	);

	CREATE INDEX IF NOT EXISTS idx_planets_created ON planets(created_at);
	CREATE INDEX IF NOT EXISTS idx_planets_habitable ON planets(habitable);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Summary is one catalog row without the stored documents.
type Summary struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Seed         int64     `json:"seed"`
	CreatedAt    time.Time `json:"created_at"`
	Regime       string    `json:"regime"`
	PressureKPa  float64   `json:"pressure_kpa"`
	AvgTempK     float64   `json:"avg_temp_k"`
	DistanceAU   float64   `json:"distance_au"`
	WaterRatio   float64   `json:"water_ratio"`
	Biosphere    bool      `json:"biosphere"`
	Habitable    bool      `json:"habitable"`
	Habitability string    `json:"habitability"`
}

// Entry is a full catalog row: the summary plus the decoded documents.
// Entry.Planet carries no grid, annual climate, biomes or rivers; rebuild
// those with gen.Generate on Entry.Spec.
type Entry struct {
	Summary
	Spec   *spec.PlanetSpec `json:"spec"`
	Planet *gen.Planet      `json:"planet"`
}

// Save stores one generated planet under its body id. Regenerating the
// same name and seed replaces the earlier row.
func (s *Store) Save(p *gen.Planet) (uuid.UUID, error) {
	if p == nil || p.Body == nil || p.Atmosphere == nil {
		return uuid.Nil, fmt.Errorf("planet is not fully generated")
	}

	specJSON, err := json.Marshal(p.Spec)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encoding spec: %w", err)
	}
	planetJSON, err := json.Marshal(p)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encoding planet: %w", err)
	}

	biosphere := 0
	if p.Biosphere {
		biosphere = 1
	}
	habitable := 0
	if p.Habitability == habitability.None {
		habitable = 1
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO planets (
			id, name, seed, created_at,
			regime, pressure_kpa, avg_temp_k, distance_au, water_ratio, biosphere,
			habitable, habitability,
			spec_json, planet_json
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.Body.ID.String(), p.Body.Name, p.Body.Seed, time.Now().Unix(),
		string(p.Regime), p.Atmosphere.PressureKPa, p.Climate.AvgTempK,
		p.Climate.DistanceM/orbit.AU, p.Body.WaterRatio, biosphere,
		habitable, p.Habitability.String(),
		string(specJSON), string(planetJSON))
	if err != nil {
		return uuid.Nil, err
	}
	return p.Body.ID, nil
}

const summaryColumns = `id, name, seed, created_at,
	regime, pressure_kpa, avg_temp_k, distance_au, water_ratio, biosphere,
	habitable, habitability`

// List returns catalog summaries, newest first. A non-positive limit
// returns everything.
func (s *Store) List(limit int) ([]Summary, error) {
	q := `SELECT ` + summaryColumns + ` FROM planets ORDER BY created_at DESC, name`
	if limit > 0 {
		return s.querySummaries(q+` LIMIT ?`, limit)
	}
	return s.querySummaries(q)
}

// Habitable returns the summaries of worlds with no habitability
// violations, newest first.
func (s *Store) Habitable() ([]Summary, error) {
	return s.querySummaries(`SELECT ` + summaryColumns + `
		FROM planets WHERE habitable = 1 ORDER BY created_at DESC, name`)
}

func (s *Store) querySummaries(q string, args ...any) ([]Summary, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var idStr string
		var createdAt int64
		var biosphere, habitable int

		if err := rows.Scan(&idStr, &sum.Name, &sum.Seed, &createdAt,
			&sum.Regime, &sum.PressureKPa, &sum.AvgTempK, &sum.DistanceAU,
			&sum.WaterRatio, &biosphere, &habitable, &sum.Habitability); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			continue
		}
		sum.ID = id
		sum.CreatedAt = time.Unix(createdAt, 0)
		sum.Biosphere = biosphere == 1
		sum.Habitable = habitable == 1
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Load retrieves one full catalog entry by id.
func (s *Store) Load(id uuid.UUID) (*Entry, error) {
	var e Entry
	var createdAt int64
	var biosphere, habitable int
	var specJSON, planetJSON string

	err := s.db.QueryRow(`
		SELECT name, seed, created_at,
			regime, pressure_kpa, avg_temp_k, distance_au, water_ratio, biosphere,
			habitable, habitability,
			spec_json, planet_json
		FROM planets WHERE id = ?
	`, id.String()).Scan(&e.Name, &e.Seed, &createdAt,
		&e.Regime, &e.PressureKPa, &e.AvgTempK, &e.DistanceAU,
		&e.WaterRatio, &biosphere, &habitable, &e.Habitability,
		&specJSON, &planetJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("planet %s not in the catalog", id)
	}
	if err != nil {
		return nil, err
	}

	e.ID = id
	e.CreatedAt = time.Unix(createdAt, 0)
	e.Biosphere = biosphere == 1
	e.Habitable = habitable == 1

	if err := json.Unmarshal([]byte(specJSON), &e.Spec); err != nil {
		return nil, fmt.Errorf("decoding spec: %w", err)
	}
	if err := json.Unmarshal([]byte(planetJSON), &e.Planet); err != nil {
		return nil, fmt.Errorf("decoding planet: %w", err)
	}
	return &e, nil
}

// Delete removes one planet from the catalog.
func (s *Store) Delete(id uuid.UUID) error {
	res, err := s.db.Exec(`DELETE FROM planets WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("planet %s not in the catalog", id)
	}
	return nil
}

// Count returns the number of cataloged planets.
func (s *Store) Count() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM planets`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
