// Package config holds the file-level configuration of the sys2 CLI and its
// mapping onto session options.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"sys2/internal/types"
)

// Config is the full CLI configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	Session SessionConfig `yaml:"session"`
	Logging LoggingConfig `yaml:"logging"`

	// Packs are theory pack directories learned at startup, in order.
	Packs []string `yaml:"packs"`
}

// SessionConfig mirrors the session options record in file form.
type SessionConfig struct {
	Geometry              int    `yaml:"geometry"`
	HDCStrategy           string `yaml:"hdc_strategy"`
	ReasoningPriority     string `yaml:"reasoning_priority"`
	ReasoningProfile      string `yaml:"reasoning_profile"`
	ClosedWorldAssumption bool   `yaml:"closed_world_assumption"`
	RejectContradictions  bool   `yaml:"reject_contradictions"`
	ExactUnbindMode       string `yaml:"exact_unbind_mode"`
	DepthLimit            int    `yaml:"depth_limit"`
	TimeoutMS             int    `yaml:"timeout_ms"`
	Seed                  uint64 `yaml:"seed"`
	PersistPath           string `yaml:"persist_path"`
	StrictIdentifiers     bool   `yaml:"strict_identifiers"`
}

// LoggingConfig controls the category file logging.
type LoggingConfig struct {
	DebugMode bool   `yaml:"debug_mode"`
	Dir       string `yaml:"dir"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "sys2",
		Version: "1.0.0",
		Session: SessionConfig{
			HDCStrategy:       "dense-binary",
			ReasoningPriority: "symbolic",
			ReasoningProfile:  "theoryDriven",
			ExactUnbindMode:   "A",
			DepthLimit:        16,
		},
		Logging: LoggingConfig{
			Dir: ".sys2",
		},
	}
}

// LoadConfig reads a YAML configuration file over the defaults. A missing
// file yields the defaults unchanged.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the enumerated fields.
func (c *Config) Validate() error {
	switch c.Session.HDCStrategy {
	case "", "dense-binary", "sparse-polynomial", "metric-affine", "metric-affine-elastic", "exact":
	default:
		return fmt.Errorf("unknown hdc_strategy %q", c.Session.HDCStrategy)
	}
	switch c.Session.ReasoningPriority {
	case "", "symbolic", "holographic":
	default:
		return fmt.Errorf("unknown reasoning_priority %q", c.Session.ReasoningPriority)
	}
	switch c.Session.ExactUnbindMode {
	case "", "A", "B":
	default:
		return fmt.Errorf("unknown exact_unbind_mode %q", c.Session.ExactUnbindMode)
	}
	return nil
}

// ToOptions converts the file configuration into the typed session options.
func (c *Config) ToOptions() types.SessionOptions {
	return types.SessionOptions{
		Geometry:              c.Session.Geometry,
		HDCStrategy:           c.Session.HDCStrategy,
		ReasoningPriority:     types.ReasoningPriority(c.Session.ReasoningPriority),
		ReasoningProfile:      c.Session.ReasoningProfile,
		ClosedWorldAssumption: c.Session.ClosedWorldAssumption,
		RejectContradictions:  c.Session.RejectContradictions,
		ExactUnbindMode:       types.UnbindMode(c.Session.ExactUnbindMode),
		DepthLimit:            c.Session.DepthLimit,
		TimeoutMS:             c.Session.TimeoutMS,
		Seed:                  c.Session.Seed,
		PersistPath:           c.Session.PersistPath,
		StrictIdentifiers:     c.Session.StrictIdentifiers,
	}.Normalize()
}
