package spec

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads a planet spec from a YAML file.
func Load(path string) (*PlanetSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading spec file: %w", err)
	}

	var spec PlanetSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing spec YAML: %w", err)
	}

	return &spec, nil
}

// LoadProject loads a planet spec from a project directory.
// It looks for planet.yaml in the given directory.
func LoadProject(projectDir string) (*PlanetSpec, error) {
	specPath := filepath.Join(projectDir, "planet.yaml")
	return Load(specPath)
}
