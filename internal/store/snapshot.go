package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ukydev/carlog/internal/models"
)

// SnapshotStore persists the vehicle collection as a single indented JSON
// file. Writes go to a temp file which is renamed over the real one, so a
// crash mid-write leaves either the old snapshot or the new one, never a mix.
type SnapshotStore struct {
	Path string
}

// NewSnapshotStore creates a snapshot store backed by the given file path.
func NewSnapshotStore(path string) *SnapshotStore {
	return &SnapshotStore{Path: path}
}

// LoadAll reads every persisted vehicle. A missing file is an empty garage,
// not an error.
func (s *SnapshotStore) LoadAll(ctx context.Context) ([]models.Vehicle, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.Vehicle{}, nil
		}
		return nil, fmt.Errorf("%w: open %s: %v", ErrStorageUnavailable, s.Path, err)
	}
	defer f.Close()

	var vehicles []models.Vehicle
	if err := json.NewDecoder(f).Decode(&vehicles); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrStorageUnavailable, s.Path, err)
	}
	if vehicles == nil {
		vehicles = []models.Vehicle{}
	}
	return vehicles, nil
}

// SaveAll replaces the entire snapshot with the given vehicles.
func (s *SnapshotStore) SaveAll(ctx context.Context, vehicles []models.Vehicle) error {
	tmp := s.Path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrStorageUnavailable, tmp, err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(vehicles); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("%w: encode snapshot: %v", ErrStorageUnavailable, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: close %s: %v", ErrStorageUnavailable, tmp, err)
	}

	if err := os.Rename(tmp, s.Path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: rename %s: %v", ErrStorageUnavailable, s.Path, err)
	}
	return nil
}
