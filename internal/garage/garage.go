// Package garage holds the in-memory vehicle collection, the single source of
// truth for a session. Every committed mutation rewrites the whole backing
// store, mirroring memory; the store is never merged with, only replaced.
package garage

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/carlog/internal/models"
	"github.com/ukydev/carlog/internal/store"
)

var ErrVehicleNotFound = errors.New("vehicle not found")

// Subscriber is notified with the full collection after every committed
// mutation.
type Subscriber func(vehicles []models.Vehicle)

// Garage is an explicit state container around the vehicle collection.
// Mutations are serialized by a mutex and are copy-on-write: memory is only
// updated after the store accepted the new set, so a failed save abandons the
// operation completely.
type Garage struct {
	mu          sync.Mutex
	store       store.VehicleStore
	vehicles    []models.Vehicle
	subscribers []Subscriber
}

// New creates a garage backed by the given store.
func New(s store.VehicleStore) *Garage {
	return &Garage{store: s, vehicles: []models.Vehicle{}}
}

// Load populates the in-memory collection from the store.
func (g *Garage) Load(ctx context.Context) error {
	vehicles, err := g.store.LoadAll(ctx)
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.vehicles = vehicles
	g.mu.Unlock()

	log.WithField("vehicles", len(vehicles)).Info("Garage loaded")
	return nil
}

// Subscribe registers a subscriber for mutation notifications.
func (g *Garage) Subscribe(s Subscriber) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.subscribers = append(g.subscribers, s)
}

// Vehicles returns a copy of the current collection.
func (g *Garage) Vehicles() []models.Vehicle {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]models.Vehicle, len(g.vehicles))
	copy(out, g.vehicles)
	return out
}

// Vehicle returns the vehicle with the given id.
func (g *Garage) Vehicle(id string) (models.Vehicle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, v := range g.vehicles {
		if v.ID == id {
			return v, nil
		}
	}
	return models.Vehicle{}, ErrVehicleNotFound
}

// Add appends a vehicle to the collection and persists the new set.
func (g *Garage) Add(ctx context.Context, v models.Vehicle) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	next := make([]models.Vehicle, len(g.vehicles), len(g.vehicles)+1)
	copy(next, g.vehicles)
	next = append(next, v)
	return g.commit(ctx, next)
}

// Update replaces the vehicle with the same id and persists the new set.
// Transformations (ledger, reminders, issues) produce a whole new vehicle
// value which lands here.
func (g *Garage) Update(ctx context.Context, v models.Vehicle) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	next := make([]models.Vehicle, len(g.vehicles))
	copy(next, g.vehicles)
	for i := range next {
		if next[i].ID == v.ID {
			next[i] = v
			return g.commit(ctx, next)
		}
	}
	return ErrVehicleNotFound
}

// Delete removes a vehicle and everything it owns, then persists the new set.
// Callers must have obtained explicit user confirmation first.
func (g *Garage) Delete(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	next := make([]models.Vehicle, 0, len(g.vehicles))
	found := false
	for _, v := range g.vehicles {
		if v.ID == id {
			found = true
			continue
		}
		next = append(next, v)
	}
	if !found {
		return ErrVehicleNotFound
	}
	return g.commit(ctx, next)
}

// Replace swaps the entire collection, used by the import path. The prior
// state survives untouched when the save fails.
func (g *Garage) Replace(ctx context.Context, vehicles []models.Vehicle) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	next := make([]models.Vehicle, len(vehicles))
	copy(next, vehicles)
	return g.commit(ctx, next)
}

// commit persists the candidate set and, only on success, makes it the
// in-memory truth and notifies subscribers. Callers hold g.mu.
func (g *Garage) commit(ctx context.Context, next []models.Vehicle) error {
	if err := g.store.SaveAll(ctx, next); err != nil {
		log.WithError(err).Error("Failed to persist garage, mutation abandoned")
		return err
	}
	g.vehicles = next

	notified := make([]models.Vehicle, len(next))
	copy(notified, next)
	for _, s := range g.subscribers {
		s(notified)
	}
	return nil
}
