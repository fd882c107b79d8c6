package checkpoint

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/sentinelfix/sentinel/internal/domain"
)

// Store is a file-based implementation of domain.CheckpointStore. Each
// checkpoint is one JSON file under .sentinel/checkpoints/.
type Store struct{}

// New creates a new file-based checkpoint store.
func New() *Store {
	return &Store{}
}

// Save writes a checkpoint to disk, creating directories as needed.
func (s *Store) Save(projectPath string, cp *domain.Checkpoint) error {
	dir := checkpointDir(projectPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(checkpointPath(projectPath, cp.CheckpointID), data, 0644)
}

// Load reads one checkpoint by ID. Returns (nil, nil) if it does not
// exist.
func (s *Store) Load(projectPath, checkpointID string) (*domain.Checkpoint, error) {
	data, err := os.ReadFile(checkpointPath(projectPath, checkpointID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var cp domain.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

// Latest returns the most recently written checkpoint, or (nil, nil)
// when none exist.
func (s *Store) Latest(projectPath string) (*domain.Checkpoint, error) {
	entries, err := os.ReadDir(checkpointDir(projectPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var cps []*domain.Checkpoint
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		id := e.Name()[:len(e.Name())-len(".json")]
		cp, err := s.Load(projectPath, id)
		if err != nil || cp == nil {
			continue
		}
		cps = append(cps, cp)
	}
	if len(cps) == 0 {
		return nil, nil
	}

	sort.Slice(cps, func(i, j int) bool { return cps[i].Timestamp.After(cps[j].Timestamp) })
	return cps[0], nil
}

func checkpointDir(projectPath string) string {
	return filepath.Join(projectPath, ".sentinel", "checkpoints")
}

func checkpointPath(projectPath, id string) string {
	return filepath.Join(checkpointDir(projectPath), id+".json")
}
