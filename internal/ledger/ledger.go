// Package ledger manages a vehicle's maintenance history: an append-only
// (with deletion) list of service records, kept sorted descending by odometer
// reading and grouped by description for display. Records are never edited in
// place; a correction is a delete followed by a re-add.
package ledger

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ukydev/carlog/internal/models"
)

var ErrRecordNotFound = errors.New("maintenance record not found")

// AddRecord appends a record with a fresh id and re-sorts the whole list
// descending by odometer. Returns a new vehicle value; the input is never
// mutated.
func AddRecord(v models.Vehicle, rec models.MaintenanceRecord) models.Vehicle {
	rec.ID = uuid.NewString()
	if rec.IsRecommendation {
		// Recommendations are not billable events.
		rec.Cost = 0
	}

	records := make([]models.MaintenanceRecord, len(v.Maintenance), len(v.Maintenance)+1)
	copy(records, v.Maintenance)
	records = append(records, rec)
	sortByOdometer(records)

	v.Maintenance = records
	return v
}

// DeleteRecord removes the record with the given id, used to discard unwanted
// recommendations or correct mistaken entries.
func DeleteRecord(v models.Vehicle, recordID string) (models.Vehicle, error) {
	records := make([]models.MaintenanceRecord, 0, len(v.Maintenance))
	found := false
	for _, rec := range v.Maintenance {
		if rec.ID == recordID {
			found = true
			continue
		}
		records = append(records, rec)
	}
	if !found {
		return models.Vehicle{}, ErrRecordNotFound
	}
	v.Maintenance = records
	return v, nil
}

// GroupByDescription partitions the vehicle's records by description text for
// display. The vehicle-added marker record is excluded.
func GroupByDescription(v models.Vehicle) map[string][]models.MaintenanceRecord {
	groups := make(map[string][]models.MaintenanceRecord)
	for _, rec := range v.Maintenance {
		if rec.Description == models.VehicleAddedMarker {
			continue
		}
		groups[rec.Description] = append(groups[rec.Description], rec)
	}
	return groups
}

// SplitGroup separates a description group into its pending recommendation
// and the completed history, sorted descending by date. Well-formed data has
// at most one recommendation per description; when more exist the newest wins
// and the rest join the history rather than disappearing.
func SplitGroup(records []models.MaintenanceRecord) (*models.MaintenanceRecord, []models.MaintenanceRecord) {
	var recommendation *models.MaintenanceRecord
	history := make([]models.MaintenanceRecord, 0, len(records))

	for _, rec := range records {
		if rec.IsRecommendation && recommendation == nil {
			r := rec
			recommendation = &r
			continue
		}
		history = append(history, rec)
	}

	sort.SliceStable(history, func(i, j int) bool {
		return dateRank(history[i].Date).After(dateRank(history[j].Date))
	})
	return recommendation, history
}

// NewVehicleAddedRecord builds the sentinel first entry created when a
// vehicle enters the system.
func NewVehicleAddedRecord(odometer int, now time.Time) models.MaintenanceRecord {
	return models.MaintenanceRecord{
		ID:          uuid.NewString(),
		Date:        now.Format("2006-01-02"),
		Odometer:    odometer,
		Description: models.VehicleAddedMarker,
		Cost:        0,
	}
}

func sortByOdometer(records []models.MaintenanceRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Odometer > records[j].Odometer
	})
}

// dateRank maps a record date to a sortable instant. The "N/A" and "Previsto"
// sentinels rank below any real date.
func dateRank(date string) time.Time {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}
	}
	return t
}
