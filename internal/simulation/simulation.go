// Package simulation projects the maintenance and cost schedule of a vehicle
// between its current and a target odometer reading. Two generators implement
// the same contract: a Gemini-backed one and a deterministic offline fallback
// used automatically whenever the AI path is unavailable or fails.
package simulation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ukydev/carlog/internal/ledger"
	"github.com/ukydev/carlog/internal/models"
)

// ProjectedService is one future maintenance event in a simulation, with its
// shop cost and a parts-only (DIY) estimate.
type ProjectedService struct {
	Description string  `json:"description"`
	Odometer    int     `json:"odometer"`
	Cost        float64 `json:"cost"`
	DIYCost     float64 `json:"diy_cost"`
}

// AnnualCostEstimate is the projected yearly cost of ownership, as ranges.
type AnnualCostEstimate struct {
	InsuranceMin float64 `json:"insurance_min"`
	InsuranceMax float64 `json:"insurance_max"`
	RoadTaxMin   float64 `json:"road_tax_min"`
	RoadTaxMax   float64 `json:"road_tax_max"`
}

// Result is an ephemeral simulation outcome. Nothing in it is persisted until
// the user explicitly accepts it.
type Result struct {
	Vehicle       models.Vehicle     `json:"vehicle"`
	Projected     []ProjectedService `json:"projected"`
	AnnualCost    AnnualCostEstimate `json:"annual_cost"`
	TargetMileage int                `json:"target_mileage"`
}

// Generator produces a projected maintenance schedule strictly above the
// vehicle's current baseline, up to and including targetMileage.
type Generator interface {
	Generate(ctx context.Context, vehicle models.Vehicle, targetMileage int) (*Result, error)
}

// Accept materializes a simulation result into a real vehicle: a baseline
// marker record at the current odometer (cost 0) plus one recommendation per
// projected item, cost forced to zero, sorted descending by odometer.
func Accept(result *Result, now time.Time) models.Vehicle {
	v := result.Vehicle
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	v.CreatedAt = now
	if v.KnownIssues == nil {
		v.KnownIssues = []models.KnownIssue{}
	}
	if v.Reminders == nil {
		v.Reminders = []models.Reminder{}
	}

	baseline := v.HighestOdometer()
	v.Maintenance = []models.MaintenanceRecord{ledger.NewVehicleAddedRecord(baseline, now)}
	for _, item := range result.Projected {
		v = ledger.AddRecord(v, models.MaintenanceRecord{
			Date:             models.DatePlanned,
			Odometer:         item.Odometer,
			Description:      item.Description,
			IsRecommendation: true,
			DIYCost:          item.DIYCost,
		})
	}
	return v
}
