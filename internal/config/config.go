// Package config loads solver tuning from solver.yaml.
package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"mazeforge.ai/internal/sim/terrain"
	"mazeforge.ai/internal/solve"
	"mazeforge.ai/internal/solve/tour"
	"mazeforge.ai/internal/synth"
)

type Config struct {
	MaxExpansions      int   `yaml:"max_expansions"`
	BruteForceMaxGoals int   `yaml:"brute_force_max_goals"`
	MaxPermutations    int   `yaml:"max_permutations"`
	FunctionRounds     int   `yaml:"function_rounds"`
	FunctionMinLen     int   `yaml:"function_min_len"`
	FunctionMaxLen     int   `yaml:"function_max_len"`
	Seed               int64 `yaml:"seed"`

	// TerrainOverrides maps a model key to its class names, e.g.
	// "ice.ice01": ["walkable"]. An empty list unclassifies the model.
	TerrainOverrides map[string][]string `yaml:"terrain_overrides,omitempty"`

	RecordsDir string `yaml:"records_dir,omitempty"`
	IndexDB    string `yaml:"index_db,omitempty"`
}

func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("solver.yaml: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("solver.yaml: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		MaxExpansions:      200000,
		BruteForceMaxGoals: tour.DefaultBruteForceMax,
		MaxPermutations:    tour.DefaultMaxPermutations,
		FunctionRounds:     synth.DefaultFunctionRounds,
		FunctionMinLen:     synth.DefaultFunctionMinLen,
		FunctionMaxLen:     synth.DefaultFunctionMaxLen,
		Seed:               1,
	}
}

// Normalize fills zero values with defaults.
func (c *Config) Normalize() {
	if c == nil {
		return
	}
	d := defaults()
	if c.BruteForceMaxGoals == 0 {
		c.BruteForceMaxGoals = d.BruteForceMaxGoals
	}
	if c.MaxPermutations == 0 {
		c.MaxPermutations = d.MaxPermutations
	}
	if c.FunctionRounds == 0 {
		c.FunctionRounds = d.FunctionRounds
	}
	if c.FunctionMinLen == 0 {
		c.FunctionMinLen = d.FunctionMinLen
	}
	if c.FunctionMaxLen == 0 {
		c.FunctionMaxLen = d.FunctionMaxLen
	}
}

func (c Config) Validate() error {
	if c.MaxExpansions < 0 {
		return fmt.Errorf("max_expansions must be >= 0")
	}
	if c.BruteForceMaxGoals < 0 || c.BruteForceMaxGoals > 10 {
		return fmt.Errorf("brute_force_max_goals must be in [0, 10]")
	}
	if c.MaxPermutations < 0 {
		return fmt.Errorf("max_permutations must be >= 0")
	}
	if c.FunctionRounds < 0 {
		return fmt.Errorf("function_rounds must be >= 0")
	}
	if c.FunctionMinLen < 2 {
		return fmt.Errorf("function_min_len must be >= 2")
	}
	if c.FunctionMaxLen < c.FunctionMinLen {
		return fmt.Errorf("function_max_len must be >= function_min_len")
	}
	if _, err := terrain.Default().WithOverrides(c.TerrainOverrides); err != nil {
		return err
	}
	return nil
}

// SolveOptions builds the per-level solver options.
func (c Config) SolveOptions(logger *log.Logger) (solve.Options, error) {
	table, err := terrain.Default().WithOverrides(c.TerrainOverrides)
	if err != nil {
		return solve.Options{}, err
	}
	return solve.Options{
		Terrain:         table,
		MaxExpansions:   c.MaxExpansions,
		BruteForceMax:   c.BruteForceMaxGoals,
		MaxPermutations: c.MaxPermutations,
		Synth: synth.Config{
			FunctionRounds: c.FunctionRounds,
			FunctionMinLen: c.FunctionMinLen,
			FunctionMaxLen: c.FunctionMaxLen,
		},
		Seed:   c.Seed,
		Logger: logger,
	}, nil
}
