package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sys2/internal/types"
)

func TestDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "dense-binary", cfg.Session.HDCStrategy)
	assert.Equal(t, "symbolic", cfg.Session.ReasoningPriority)
	assert.Equal(t, "theoryDriven", cfg.Session.ReasoningProfile)
	assert.Equal(t, "A", cfg.Session.ExactUnbindMode)
	assert.Equal(t, 16, cfg.Session.DepthLimit)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Session, cfg.Session)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sys2.yaml")
	content := `
session:
  hdc_strategy: sparse-polynomial
  geometry: 32
  reasoning_priority: holographic
  reject_contradictions: true
  seed: 7
packs:
  - packs/base
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "sparse-polynomial", cfg.Session.HDCStrategy)
	assert.Equal(t, 32, cfg.Session.Geometry)
	assert.Equal(t, []string{"packs/base"}, cfg.Packs)
	assert.True(t, cfg.Session.RejectContradictions)
}

func TestValidateRejectsUnknownEnums(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Session.HDCStrategy = "quantum"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Session.ReasoningPriority = "psychic"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Session.ExactUnbindMode = "C"
	assert.Error(t, cfg.Validate())
}

func TestToOptionsNormalizes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Session.HDCStrategy = ""
	cfg.Session.DepthLimit = 0
	opts := cfg.ToOptions()
	assert.Equal(t, "dense-binary", opts.HDCStrategy)
	assert.Equal(t, 16, opts.DepthLimit)
	assert.Equal(t, types.SymbolicPriority, opts.ReasoningPriority)
	assert.Equal(t, types.UnbindModeA, opts.ExactUnbindMode)
}
