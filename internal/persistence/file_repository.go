package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"spot-grid-bot-go/internal/models"
)

// fileRepository persists the state as a single JSON file. Writes go to a
// temporary file in the same directory first and are renamed into place,
// so an interrupted write leaves the previous state fully intact.
type fileRepository struct {
	path string
}

// NewFileRepository creates a file-backed repository at the given path.
// Parent directories are created on demand.
func NewFileRepository(path string) (StateRepository, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create state directory %s: %w", dir, err)
	}
	return &fileRepository{path: path}, nil
}

func (r *fileRepository) Save(state *models.PositionState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	// Temp file must live on the same filesystem for the rename to be atomic.
	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".state-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func (r *fileRepository) Load() (*models.PositionState, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil, nil // absence at startup means "use defaults"
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	var state models.PositionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("state file %s is corrupted: %w", r.path, err)
	}
	return &state, nil
}

func (r *fileRepository) Close() error {
	return nil
}
