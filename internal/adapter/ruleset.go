package adapter

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	m "github.com/pinemarten/semgrepd/internal/model"
)

// RulesetStore abstracts access to the bundled rules file.
type RulesetStore interface {
	// Path returns the location of the rules file as passed to the engine.
	Path() m.Path

	// Verify checks that the rules file exists and is a regular file.
	Verify() error

	// Load parses the rules file into a Ruleset.
	Load() (m.Ruleset, error)
}

// LocalRulesetStore reads the rules file from the local filesystem.
type LocalRulesetStore struct {
	path m.Path
}

// NewLocalRulesetStore constructs a LocalRulesetStore for the given file.
func NewLocalRulesetStore(path m.Path) *LocalRulesetStore {
	return &LocalRulesetStore{path: path}
}

// Path returns the location of the rules file.
func (s *LocalRulesetStore) Path() m.Path {
	return s.path
}

// Verify checks that the rules file exists and is a regular file.
func (s *LocalRulesetStore) Verify() error {
	info, err := os.Stat(string(s.path))
	if err != nil {
		return err
	}

	if info.IsDir() {
		return fmt.Errorf("rules path %s is a directory", s.path)
	}

	return nil
}

// Load parses the rules file into a Ruleset.
func (s *LocalRulesetStore) Load() (m.Ruleset, error) {
	data, err := os.ReadFile(string(s.path))
	if err != nil {
		return m.Ruleset{}, err
	}

	var ruleset m.Ruleset
	if err := yaml.Unmarshal(data, &ruleset); err != nil {
		return m.Ruleset{}, fmt.Errorf("failed to parse rules file %s: %w", s.path, err)
	}

	return ruleset, nil
}
