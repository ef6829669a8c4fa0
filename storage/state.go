package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"dealradar/models"
	"dealradar/utils"
)

// FileStateStore keeps RunState in a single JSON file, replaced with the
// same stage-then-rename discipline as the artifacts.
type FileStateStore struct {
	path   string
	logger *utils.Logger
}

// NewFileStateStore creates a store backed by the given path.
func NewFileStateStore(path string, logger *utils.Logger) *FileStateStore {
	return &FileStateStore{path: path, logger: logger}
}

// Load reads the previous run's state. A missing file is a normal first
// run and returns empty state. A corrupt file is an error: treating it as
// empty would re-alert the entire inventory on the next run.
func (s *FileStateStore) Load() (*models.RunState, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Info("[state] No previous state at %s — treating as first run", s.path)
		return &models.RunState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("state: read %q: %w", s.path, err)
	}

	var state models.RunState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("state: parse %q (delete it to accept a full re-alert): %w", s.path, err)
	}
	return &state, nil
}

// Save atomically replaces the state file.
func (s *FileStateStore) Save(state *models.RunState) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("state: create dir: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("state: marshal: %w", err)
	}
	data = append(data, '\n')

	tmp := s.path + tmpSuffix
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("state: stage %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("state: commit %q: %w", s.path, err)
	}
	return nil
}
