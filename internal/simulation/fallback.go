package simulation

import (
	"context"
	"sort"

	"github.com/ukydev/carlog/internal/models"
)

// serviceInterval is one entry of the offline projection table.
type serviceInterval struct {
	Description string
	IntervalKm  int
	Cost        float64
	DIYCost     float64
}

// fallbackTable drives the offline projection. Intervals and costs are
// typical figures for a small European car.
var fallbackTable = []serviceInterval{
	{Description: "Cambio olio e filtro", IntervalKm: 15000, Cost: 120, DIYCost: 45},
	{Description: "Sostituzione filtro aria", IntervalKm: 30000, Cost: 60, DIYCost: 20},
	{Description: "Sostituzione filtro abitacolo", IntervalKm: 20000, Cost: 50, DIYCost: 15},
	{Description: "Sostituzione pastiglie freni", IntervalKm: 40000, Cost: 180, DIYCost: 70},
	{Description: "Cambio pneumatici", IntervalKm: 45000, Cost: 400, DIYCost: 320},
	{Description: "Sostituzione candele", IntervalKm: 60000, Cost: 150, DIYCost: 50},
	{Description: "Sostituzione liquido freni", IntervalKm: 60000, Cost: 90, DIYCost: 25},
	{Description: "Cinghia di distribuzione", IntervalKm: 120000, Cost: 600, DIYCost: 250},
}

// fallbackAnnualCost is a flat estimate; without the AI path there is nothing
// to refine it with.
var fallbackAnnualCost = AnnualCostEstimate{
	InsuranceMin: 400,
	InsuranceMax: 900,
	RoadTaxMin:   150,
	RoadTaxMax:   350,
}

// FallbackGenerator is the deterministic offline simulation: it projects each
// table entry forward in fixed increments from the vehicle's current baseline
// until the target mileage is exceeded.
type FallbackGenerator struct{}

// NewFallbackGenerator creates the offline generator.
func NewFallbackGenerator() *FallbackGenerator {
	return &FallbackGenerator{}
}

// Generate never fails: the projection is a pure function of the vehicle and
// the target mileage.
func (g *FallbackGenerator) Generate(ctx context.Context, vehicle models.Vehicle, targetMileage int) (*Result, error) {
	baseline := vehicle.HighestOdometer()

	projected := []ProjectedService{}
	for _, item := range fallbackTable {
		for km := baseline + item.IntervalKm; km <= targetMileage; km += item.IntervalKm {
			projected = append(projected, ProjectedService{
				Description: item.Description,
				Odometer:    km,
				Cost:        item.Cost,
				DIYCost:     item.DIYCost,
			})
		}
	}
	sort.SliceStable(projected, func(i, j int) bool {
		return projected[i].Odometer < projected[j].Odometer
	})

	return &Result{
		Vehicle:       vehicle,
		Projected:     projected,
		AnnualCost:    fallbackAnnualCost,
		TargetMileage: targetMileage,
	}, nil
}
