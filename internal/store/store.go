package store

import (
	"context"
	"errors"

	"github.com/ukydev/carlog/internal/models"
)

// ErrStorageUnavailable is returned when the persistence layer cannot be
// opened or written. Callers surface it to the user instead of crashing.
var ErrStorageUnavailable = errors.New("storage unavailable")

// VehicleStore persists the full vehicle collection. SaveAll replaces the
// entire persisted set; there is no partial update. The collection is small
// (tens of vehicles), so full rewrites are cheap and avoid partial-update bugs.
type VehicleStore interface {
	LoadAll(ctx context.Context) ([]models.Vehicle, error)
	SaveAll(ctx context.Context, vehicles []models.Vehicle) error
}
