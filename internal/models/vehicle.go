package models

import (
	"time"
)

// Sentinel values used in MaintenanceRecord.Date for services that have not
// happened yet.
const (
	DateNotAvailable = "N/A"
	DatePlanned      = "Previsto"
)

// VehicleAddedMarker is the description of the pseudo-record created when a
// vehicle enters the system. It is excluded from grouped maintenance views.
const VehicleAddedMarker = "Veicolo aggiunto al sistema"

// Reminder frequencies.
const (
	FrequencyMonthly  = "monthly"
	FrequencyAnnual   = "annual"
	FrequencyBiennial = "biennial"
)

// Vehicle is the root entity of the garage. It owns its maintenance records,
// known issues and reminders; deleting a vehicle deletes all of them.
type Vehicle struct {
	ID           string              `bson:"_id" json:"id"`
	Make         string              `bson:"make" json:"make"`
	Model        string              `bson:"model" json:"model"`
	Year         int                 `bson:"year" json:"year"`
	LicensePlate string              `bson:"license_plate,omitempty" json:"license_plate,omitempty"`
	OwnerID      string              `bson:"owner_id,omitempty" json:"owner_id,omitempty"`
	Odometer     int                 `bson:"odometer" json:"odometer"` // last known reading, in kilometers
	Maintenance  []MaintenanceRecord `bson:"maintenance" json:"maintenance"`
	KnownIssues  []KnownIssue        `bson:"known_issues" json:"known_issues"`
	Reminders    []Reminder          `bson:"reminders" json:"reminders"`
	CreatedAt    time.Time           `bson:"created_at" json:"created_at"`
}

// MaintenanceRecord is a single service event on a vehicle. Records are never
// updated in place; corrections are modeled as delete + re-add.
type MaintenanceRecord struct {
	ID               string  `bson:"id" json:"id"`
	Date             string  `bson:"date" json:"date"` // "2006-01-02", "N/A" or "Previsto"
	Odometer         int     `bson:"odometer" json:"odometer"`
	Description      string  `bson:"description" json:"description"`
	Cost             float64 `bson:"cost" json:"cost"` // always 0 for recommendations
	Notes            string  `bson:"notes,omitempty" json:"notes,omitempty"`
	IsRecommendation bool    `bson:"is_recommendation,omitempty" json:"is_recommendation,omitempty"`
	DIYCost          float64 `bson:"diy_cost,omitempty" json:"diy_cost,omitempty"` // parts-only estimate
}

// KnownIssue is a reported defect on a vehicle, toggled resolved/unresolved
// until it is explicitly deleted.
type KnownIssue struct {
	ID          string    `bson:"id" json:"id"`
	Description string    `bson:"description" json:"description"`
	DateAdded   time.Time `bson:"date_added" json:"date_added"`
	Resolved    bool      `bson:"resolved" json:"resolved"`
}

// Reminder is a recurring non-maintenance obligation (insurance, road tax).
// Paying it appends to Payments and advances NextDueDate by one period of
// Frequency; the history is never truncated.
type Reminder struct {
	ID          string         `bson:"id" json:"id"`
	Description string         `bson:"description" json:"description"`
	NextDueDate time.Time      `bson:"next_due_date" json:"next_due_date"`
	Amount      float64        `bson:"amount" json:"amount"`
	Frequency   string         `bson:"frequency" json:"frequency"` // monthly, annual or biennial
	Payments    []PaymentEntry `bson:"payments" json:"payments"`
}

// PaymentEntry is one recorded payment of a reminder. The amount may differ
// from the reminder's amount (partial or adjusted payments).
type PaymentEntry struct {
	Date   time.Time `bson:"date" json:"date"`
	Amount float64   `bson:"amount" json:"amount"`
}

// IsValidFrequency checks if a reminder frequency is valid.
func IsValidFrequency(frequency string) bool {
	switch frequency {
	case FrequencyMonthly, FrequencyAnnual, FrequencyBiennial:
		return true
	default:
		return false
	}
}

// HighestOdometer returns the vehicle's current mileage baseline: the highest
// recorded odometer reading, or the live odometer if that is higher.
func (v *Vehicle) HighestOdometer() int {
	highest := v.Odometer
	for _, rec := range v.Maintenance {
		if rec.Odometer > highest {
			highest = rec.Odometer
		}
	}
	return highest
}
