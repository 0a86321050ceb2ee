// Package config holds the explicit configuration objects for the pipeline
// commands. Defaults live here rather than in mutable globals; a YAML file
// can overlay them and flags override both.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Extract configures the extraction pipeline.
type Extract struct {
	OutputPath string `yaml:"output_path"` // directory for artifacts
	OutputName string `yaml:"output_name"` // base filename for artifacts
	MaxPly     int    `yaml:"max_ply"`     // per-game depth cap for move features
	BatchSize  int    `yaml:"batch_size"`  // rows per CSV batch
	Verbose    bool   `yaml:"verbose"`     // per-batch progress logging
	SkipLines  int    `yaml:"skip_lines"`  // leading lines to skip before assembly
	Strict     bool   `yaml:"strict"`      // treat malformed records as fatal
}

// DefaultExtract returns the extraction defaults.
func DefaultExtract() Extract {
	return Extract{
		OutputPath: ".",
		OutputName: "lichess_games",
		MaxPly:     20,
		BatchSize:  100000,
		Verbose:    true,
	}
}

// LoadExtract reads a YAML config file over the defaults. Fields absent from
// the file keep their default values.
func LoadExtract(path string) (Extract, error) {
	cfg := DefaultExtract()
	data, err := os.ReadFile(path)
	if err != nil {
		return Extract{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Extract{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
