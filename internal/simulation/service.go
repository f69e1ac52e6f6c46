package simulation

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/carlog/internal/models"
)

// Service fronts the two generators: it tries the AI path when one is
// configured and degrades to the offline fallback on any failure. A failed
// AI call never reaches the user as an error.
type Service struct {
	ai       Generator
	fallback Generator
}

// NewService creates the simulation service. ai may be nil when no model
// credential is configured.
func NewService(ai Generator) *Service {
	return &Service{ai: ai, fallback: NewFallbackGenerator()}
}

// Generate produces a simulation result, always succeeding via the fallback.
func (s *Service) Generate(ctx context.Context, vehicle models.Vehicle, targetMileage int) (*Result, error) {
	if s.ai != nil {
		result, err := s.ai.Generate(ctx, vehicle, targetMileage)
		if err == nil {
			return result, nil
		}
		log.WithError(err).WithFields(log.Fields{
			"make":   vehicle.Make,
			"model":  vehicle.Model,
			"target": targetMileage,
		}).Warn("AI simulation failed, using offline fallback")
	}
	return s.fallback.Generate(ctx, vehicle, targetMileage)
}
