package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Loader loads configuration from JSON files on top of the defaults
type Loader struct{}

// NewLoader creates a new config loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadFile reads a JSON config file and merges it over the defaults.
// An empty path returns the defaults unchanged.
func (l *Loader) LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	// Unmarshal over the defaults so absent fields keep their default values
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	return cfg, nil
}
