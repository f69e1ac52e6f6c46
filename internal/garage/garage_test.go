package garage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/carlog/internal/models"
)

// fakeStore records saves and can be told to fail.
type fakeStore struct {
	saved   [][]models.Vehicle
	initial []models.Vehicle
	failErr error
}

func (f *fakeStore) LoadAll(ctx context.Context) ([]models.Vehicle, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	return f.initial, nil
}

func (f *fakeStore) SaveAll(ctx context.Context, vehicles []models.Vehicle) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.saved = append(f.saved, vehicles)
	return nil
}

func TestGarage_AddPersistsFullSet(t *testing.T) {
	fs := &fakeStore{}
	g := New(fs)

	require.NoError(t, g.Add(context.Background(), models.Vehicle{ID: "v1", Make: "Fiat", Model: "Panda"}))
	require.NoError(t, g.Add(context.Background(), models.Vehicle{ID: "v2", Make: "Opel", Model: "Corsa"}))

	// Every mutation rewrites the whole set.
	require.Len(t, fs.saved, 2)
	assert.Len(t, fs.saved[0], 1)
	assert.Len(t, fs.saved[1], 2)
	assert.Len(t, g.Vehicles(), 2)
}

func TestGarage_DeleteRemovesVehicle(t *testing.T) {
	fs := &fakeStore{}
	g := New(fs)
	require.NoError(t, g.Add(context.Background(), models.Vehicle{ID: "v1"}))
	require.NoError(t, g.Add(context.Background(), models.Vehicle{ID: "v2"}))

	require.NoError(t, g.Delete(context.Background(), "v1"))

	vehicles := g.Vehicles()
	require.Len(t, vehicles, 1)
	assert.Equal(t, "v2", vehicles[0].ID)

	// The persisted set no longer contains v1 either.
	last := fs.saved[len(fs.saved)-1]
	require.Len(t, last, 1)
	assert.Equal(t, "v2", last[0].ID)

	err := g.Delete(context.Background(), "v1")
	assert.ErrorIs(t, err, ErrVehicleNotFound)
}

func TestGarage_UpdateReplacesVehicle(t *testing.T) {
	g := New(&fakeStore{})
	require.NoError(t, g.Add(context.Background(), models.Vehicle{ID: "v1", Odometer: 1000}))

	require.NoError(t, g.Update(context.Background(), models.Vehicle{ID: "v1", Odometer: 2000}))

	v, err := g.Vehicle("v1")
	require.NoError(t, err)
	assert.Equal(t, 2000, v.Odometer)

	err = g.Update(context.Background(), models.Vehicle{ID: "missing"})
	assert.ErrorIs(t, err, ErrVehicleNotFound)
}

func TestGarage_FailedSaveAbandonsMutation(t *testing.T) {
	fs := &fakeStore{}
	g := New(fs)
	require.NoError(t, g.Add(context.Background(), models.Vehicle{ID: "v1"}))

	boom := errors.New("disk full")
	fs.failErr = boom

	err := g.Add(context.Background(), models.Vehicle{ID: "v2"})
	assert.ErrorIs(t, err, boom)

	// Memory still matches the last successful save.
	vehicles := g.Vehicles()
	require.Len(t, vehicles, 1)
	assert.Equal(t, "v1", vehicles[0].ID)
}

func TestGarage_ReplaceKeepsPriorStateOnFailure(t *testing.T) {
	fs := &fakeStore{}
	g := New(fs)
	require.NoError(t, g.Add(context.Background(), models.Vehicle{ID: "v1"}))

	fs.failErr = errors.New("quota exceeded")
	err := g.Replace(context.Background(), []models.Vehicle{{ID: "imported"}})
	assert.Error(t, err)

	vehicles := g.Vehicles()
	require.Len(t, vehicles, 1)
	assert.Equal(t, "v1", vehicles[0].ID)

	fs.failErr = nil
	require.NoError(t, g.Replace(context.Background(), []models.Vehicle{{ID: "imported"}}))
	vehicles = g.Vehicles()
	require.Len(t, vehicles, 1)
	assert.Equal(t, "imported", vehicles[0].ID)
}

func TestGarage_SubscribersNotifiedOnCommit(t *testing.T) {
	fs := &fakeStore{}
	g := New(fs)

	var seen [][]models.Vehicle
	g.Subscribe(func(vehicles []models.Vehicle) {
		seen = append(seen, vehicles)
	})

	require.NoError(t, g.Add(context.Background(), models.Vehicle{ID: "v1"}))
	require.NoError(t, g.Delete(context.Background(), "v1"))

	require.Len(t, seen, 2)
	assert.Len(t, seen[0], 1)
	assert.Len(t, seen[1], 0)

	// Failed commits do not notify.
	fs.failErr = errors.New("down")
	_ = g.Add(context.Background(), models.Vehicle{ID: "v2"})
	assert.Len(t, seen, 2)
}

func TestGarage_Load(t *testing.T) {
	fs := &fakeStore{initial: []models.Vehicle{{ID: "v1"}, {ID: "v2"}}}
	g := New(fs)

	require.NoError(t, g.Load(context.Background()))
	assert.Len(t, g.Vehicles(), 2)
}
