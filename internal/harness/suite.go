package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Suite is a run manifest: one scenario file together with the connector
// configuration and querymaps it runs against. Manifests are named
// <name>.suite.yaml so they can share a directory with connector files.
//
//	name: shop_smoke
//	description: "Basic user CRUD"
//	scenario: scenarios/shop.xml
//	connector: connector.yaml
//	querymaps:
//	  - querymaps/shop.xml
//	expect_exit: 0
type Suite struct {
	// Name uniquely identifies this suite.
	Name string `yaml:"name"`

	Description string `yaml:"description,omitempty"`

	// Scenario, Connector and Querymaps are relative to the suite file.
	Scenario  string   `yaml:"scenario"`
	Connector string   `yaml:"connector"`
	Querymaps []string `yaml:"querymaps"`

	// ExpectExit is the exit code the suite must produce to pass.
	ExpectExit int `yaml:"expect_exit,omitempty"`

	// Path is the file the suite was loaded from.
	Path string `yaml:"-"`
}

// LoadSuite reads and parses a suite YAML file, resolving its file
// references relative to the suite's directory. Unknown fields are rejected.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}

	var s Suite
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	s.Path = path

	base := filepath.Dir(path)
	s.Scenario = resolve(base, s.Scenario)
	s.Connector = resolve(base, s.Connector)
	for i, qm := range s.Querymaps {
		s.Querymaps[i] = resolve(base, qm)
	}

	if err := validateSuite(&s); err != nil {
		return nil, fmt.Errorf("invalid suite: %w", err)
	}
	return &s, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

func validateSuite(s *Suite) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Scenario == "" {
		return fmt.Errorf("scenario is required")
	}
	if s.Connector == "" {
		return fmt.Errorf("connector is required")
	}
	if len(s.Querymaps) == 0 {
		return fmt.Errorf("querymaps list is required and must be non-empty")
	}
	if s.ExpectExit != 0 && s.ExpectExit != 1 {
		return fmt.Errorf("expect_exit must be 0 or 1, got %d", s.ExpectExit)
	}

	for _, p := range append([]string{s.Scenario, s.Connector}, s.Querymaps...) {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", p)
		}
	}
	return nil
}
