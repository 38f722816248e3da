package strategy

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"volarbv1/internal/indicator"
)

// FileConfig bundles the tunable strategy parameters loadable from YAML.
type FileConfig struct {
	Engine     Config           `yaml:"engine"`
	Indicators indicator.Params `yaml:"indicators"`
}

// DefaultFileConfig returns the standard engine and indicator parameters.
func DefaultFileConfig() FileConfig {
	return FileConfig{
		Engine:     DefaultConfig(),
		Indicators: indicator.DefaultParams(),
	}
}

// LoadFile reads strategy parameters from a YAML file. A missing file yields
// defaults; a present but invalid file is a fatal configuration error.
func LoadFile(path string) (FileConfig, error) {
	cfg := DefaultFileConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return FileConfig{}, fmt.Errorf("strategy file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("strategy file %s: %w", path, err)
	}
	if err := cfg.Engine.Validate(); err != nil {
		return FileConfig{}, err
	}
	if err := cfg.Indicators.Validate(); err != nil {
		return FileConfig{}, err
	}
	return cfg, nil
}
