package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelfix/sentinel/internal/adapters/outbound/config"
	"github.com/sentinelfix/sentinel/internal/domain"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".sentinel.yaml"), []byte(content), 0o644))
}

func TestYAMLLoader_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.New().Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultEngineConfig(), cfg)
}

func TestYAMLLoader_OverridesMergeIntoDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
mode: standard
confidence_floor: 0.7
workers: 8
min_votes:
  hardcoded-secret: 2
exclude_paths:
  - vendor/
`)

	cfg, err := config.New().Load(dir)
	require.NoError(t, err)

	assert.Equal(t, domain.ModeStandard, cfg.Mode)
	assert.Equal(t, 0.7, cfg.ConfidenceFloor)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 2, cfg.MinVotesFor("hardcoded-secret"))
	assert.Equal(t, []string{"vendor/"}, cfg.ExcludePaths)

	// Untouched keys keep their defaults.
	assert.Equal(t, 0.05, cfg.VoteBonus)
	assert.Equal(t, 10, cfg.CheckpointEvery)
}

func TestYAMLLoader_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "mode: [unclosed")

	_, err := config.New().Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing .sentinel.yaml")
}

func TestYAMLLoader_InvalidValuesRejected(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "mode: turbo\n")

	_, err := config.New().Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid .sentinel.yaml")
}
