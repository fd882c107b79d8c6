package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/sentinelfix/sentinel/internal/domain"
)

const fileName = ".sentinel.yaml"

// YAMLLoader implements domain.ConfigLoader by reading .sentinel.yaml.
type YAMLLoader struct{}

// New creates a YAMLLoader.
func New() *YAMLLoader { return &YAMLLoader{} }

// Load reads .sentinel.yaml from projectPath. Returns the tuned defaults
// when the file does not exist.
func (l *YAMLLoader) Load(projectPath string) (domain.EngineConfig, error) {
	data, err := os.ReadFile(filepath.Join(projectPath, fileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.DefaultEngineConfig(), nil
		}
		return domain.EngineConfig{}, err
	}

	cfg := domain.DefaultEngineConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.EngineConfig{}, fmt.Errorf("parsing %s: %w", fileName, err)
	}

	// Validate the merged result; catches typos in user input.
	if err := cfg.Validate(); err != nil {
		return domain.EngineConfig{}, fmt.Errorf("invalid %s: %w", fileName, err)
	}

	return cfg, nil
}
