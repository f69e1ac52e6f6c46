package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/carlog/internal/models"
)

func testVehicles() []models.Vehicle {
	return []models.Vehicle{
		{
			ID:    "b3f1c2d4-0000-0000-0000-000000000001",
			Make:  "Fiat",
			Model: "Panda",
			Year:  2018,
			Maintenance: []models.MaintenanceRecord{
				{ID: "rec-1", Date: "2023-05-10", Odometer: 60000, Description: "Cambio olio e filtro", Cost: 120},
			},
			KnownIssues: []models.KnownIssue{
				{ID: "iss-1", Description: "Rumore sospensione anteriore", DateAdded: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)},
			},
			Reminders: []models.Reminder{
				{
					ID:          "rem-1",
					Description: "Assicurazione",
					NextDueDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
					Amount:      450,
					Frequency:   models.FrequencyAnnual,
					Payments:    []models.PaymentEntry{},
				},
			},
			CreatedAt: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:    "b3f1c2d4-0000-0000-0000-000000000002",
			Make:  "Volkswagen",
			Model: "Golf",
			Year:  2020,
		},
	}
}

func TestSnapshotStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garage.json")
	s := NewSnapshotStore(path)

	vehicles := testVehicles()
	err := s.SaveAll(context.Background(), vehicles)
	require.NoError(t, err)

	loaded, err := s.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, vehicles, loaded)
}

func TestSnapshotStore_LoadAll_MissingFile(t *testing.T) {
	s := NewSnapshotStore(filepath.Join(t.TempDir(), "does-not-exist.json"))

	loaded, err := s.LoadAll(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, loaded)
	assert.NotNil(t, loaded)
}

func TestSnapshotStore_SaveAll_ReplacesPriorContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garage.json")
	s := NewSnapshotStore(path)

	vehicles := testVehicles()
	require.NoError(t, s.SaveAll(context.Background(), vehicles))

	// Save a smaller set; the deleted vehicle must not reappear on load.
	require.NoError(t, s.SaveAll(context.Background(), vehicles[:1]))

	loaded, err := s.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, vehicles[0].ID, loaded[0].ID)
}

func TestSnapshotStore_SaveAll_EmptySet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garage.json")
	s := NewSnapshotStore(path)

	require.NoError(t, s.SaveAll(context.Background(), testVehicles()))
	require.NoError(t, s.SaveAll(context.Background(), []models.Vehicle{}))

	loaded, err := s.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestSnapshotStore_StorageUnavailable(t *testing.T) {
	// A path inside a missing directory cannot be created.
	s := NewSnapshotStore(filepath.Join(t.TempDir(), "missing", "garage.json"))

	err := s.SaveAll(context.Background(), testVehicles())
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	// Corrupt snapshot also surfaces as a storage error.
	path := filepath.Join(t.TempDir(), "garage.json")
	require.NoError(t, os.WriteFile(path, []byte("{corrupt"), 0o644))
	_, err = NewSnapshotStore(path).LoadAll(context.Background())
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestSnapshotStore_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "garage.json")
	s := NewSnapshotStore(path)

	require.NoError(t, s.SaveAll(context.Background(), testVehicles()))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
