package policy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/sentinelfix/sentinel/internal/domain"
	"github.com/sentinelfix/sentinel/internal/domain/safety"
)

const fileName = ".sentinel/policy.yaml"

// YAMLLoader implements domain.PolicyLoader by reading the project's
// safety policy tables. The tables are data, independent of code.
type YAMLLoader struct{}

// New creates a YAMLLoader.
func New() *YAMLLoader { return &YAMLLoader{} }

// Load reads .sentinel/policy.yaml from projectPath. Returns the shipped
// default tables when the file does not exist. The cross-list
// disjointness invariant is enforced by the classifier at construction,
// so a bad policy file fails fast at startup.
func (l *YAMLLoader) Load(projectPath string) (domain.PolicyTables, error) {
	data, err := os.ReadFile(filepath.Join(projectPath, fileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return safety.DefaultTables(), nil
		}
		return domain.PolicyTables{}, err
	}

	var tables domain.PolicyTables
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return domain.PolicyTables{}, fmt.Errorf("parsing %s: %w", fileName, err)
	}
	return tables, nil
}
