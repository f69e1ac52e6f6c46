package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/carlog/internal/models"
)

func odometers(records []models.MaintenanceRecord) []int {
	out := make([]int, len(records))
	for i, rec := range records {
		out[i] = rec.Odometer
	}
	return out
}

func TestAddRecord_SortsDescendingByOdometer(t *testing.T) {
	v := models.Vehicle{ID: "v1"}
	for _, km := range []int{10000, 50000, 30000} {
		v = AddRecord(v, models.MaintenanceRecord{
			Date:        "2023-01-01",
			Odometer:    km,
			Description: "Tagliando",
			Cost:        150,
		})
	}

	assert.Equal(t, []int{50000, 30000, 10000}, odometers(v.Maintenance))

	// Inserting in the middle keeps the order strict.
	v = AddRecord(v, models.MaintenanceRecord{Date: "2023-06-01", Odometer: 40000, Description: "Cambio olio"})
	assert.Equal(t, []int{50000, 40000, 30000, 10000}, odometers(v.Maintenance))
}

func TestAddRecord_AssignsFreshID(t *testing.T) {
	v := models.Vehicle{ID: "v1"}
	v = AddRecord(v, models.MaintenanceRecord{ID: "caller-supplied", Odometer: 1000, Description: "Cambio olio"})
	assert.NotEmpty(t, v.Maintenance[0].ID)
	assert.NotEqual(t, "caller-supplied", v.Maintenance[0].ID)
}

func TestAddRecord_RecommendationCostForcedToZero(t *testing.T) {
	v := models.Vehicle{ID: "v1"}
	v = AddRecord(v, models.MaintenanceRecord{
		Date:             models.DatePlanned,
		Odometer:         75000,
		Description:      "Cambio olio e filtro",
		Cost:             120,
		IsRecommendation: true,
		DIYCost:          45,
	})

	assert.Equal(t, 0.0, v.Maintenance[0].Cost)
	assert.Equal(t, 45.0, v.Maintenance[0].DIYCost)
}

func TestAddRecord_ValueSemantics(t *testing.T) {
	v := models.Vehicle{ID: "v1"}
	v2 := AddRecord(v, models.MaintenanceRecord{Odometer: 1000, Description: "Cambio olio"})

	assert.Empty(t, v.Maintenance)
	assert.Len(t, v2.Maintenance, 1)
}

func TestDeleteRecord(t *testing.T) {
	v := models.Vehicle{ID: "v1"}
	v = AddRecord(v, models.MaintenanceRecord{Odometer: 1000, Description: "Cambio olio"})
	v = AddRecord(v, models.MaintenanceRecord{Odometer: 2000, Description: "Freni"})
	target := v.Maintenance[0].ID

	v2, err := DeleteRecord(v, target)
	require.NoError(t, err)
	require.Len(t, v2.Maintenance, 1)
	assert.NotEqual(t, target, v2.Maintenance[0].ID)
	assert.Len(t, v.Maintenance, 2)

	_, err = DeleteRecord(v2, target)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestGroupByDescription(t *testing.T) {
	v := models.Vehicle{ID: "v1"}
	v = AddRecord(v, models.MaintenanceRecord{Date: models.DatePlanned, Odometer: 75000, Description: "Cambio olio", IsRecommendation: true})
	v = AddRecord(v, models.MaintenanceRecord{Date: "2023-01-01", Odometer: 60000, Description: "Cambio olio", Cost: 120})
	v = AddRecord(v, models.MaintenanceRecord{Date: "2023-03-01", Odometer: 62000, Description: "Freni", Cost: 180})

	groups := GroupByDescription(v)
	require.Len(t, groups, 2)
	assert.Len(t, groups["Cambio olio"], 2)
	assert.Len(t, groups["Freni"], 1)
}

func TestGroupByDescription_ExcludesVehicleAddedMarker(t *testing.T) {
	v := models.Vehicle{ID: "v1", Maintenance: []models.MaintenanceRecord{
		NewVehicleAddedRecord(60000, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)),
	}}
	v = AddRecord(v, models.MaintenanceRecord{Date: "2023-02-01", Odometer: 61000, Description: "Cambio olio", Cost: 120})

	groups := GroupByDescription(v)
	require.Len(t, groups, 1)
	_, ok := groups[models.VehicleAddedMarker]
	assert.False(t, ok)
}

func TestSplitGroup(t *testing.T) {
	records := []models.MaintenanceRecord{
		{ID: "rec", Description: "Cambio olio", Date: models.DatePlanned, IsRecommendation: true},
		{ID: "old", Description: "Cambio olio", Date: "2022-06-01", Cost: 110},
		{ID: "new", Description: "Cambio olio", Date: "2023-01-01", Cost: 120},
	}

	recommendation, history := SplitGroup(records)
	require.NotNil(t, recommendation)
	assert.Equal(t, "rec", recommendation.ID)

	require.Len(t, history, 2)
	assert.Equal(t, "new", history[0].ID)
	assert.Equal(t, "old", history[1].ID)
}

func TestSplitGroup_NoRecommendation(t *testing.T) {
	records := []models.MaintenanceRecord{
		{ID: "a", Date: "2023-01-01"},
	}
	recommendation, history := SplitGroup(records)
	assert.Nil(t, recommendation)
	assert.Len(t, history, 1)
}

func TestSplitGroup_DuplicateRecommendationsDegradeToHistory(t *testing.T) {
	records := []models.MaintenanceRecord{
		{ID: "first", Date: models.DatePlanned, IsRecommendation: true},
		{ID: "second", Date: models.DatePlanned, IsRecommendation: true},
	}
	recommendation, history := SplitGroup(records)
	require.NotNil(t, recommendation)
	assert.Equal(t, "first", recommendation.ID)
	require.Len(t, history, 1)
	assert.Equal(t, "second", history[0].ID)
}

func TestIssues(t *testing.T) {
	now := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	v := models.Vehicle{ID: "v1"}

	v = AddIssue(v, "Rumore sospensione anteriore", now)
	require.Len(t, v.KnownIssues, 1)
	issue := v.KnownIssues[0]
	assert.NotEmpty(t, issue.ID)
	assert.False(t, issue.Resolved)
	assert.Equal(t, now, issue.DateAdded)

	v2, err := ToggleIssue(v, issue.ID)
	require.NoError(t, err)
	assert.True(t, v2.KnownIssues[0].Resolved)
	assert.False(t, v.KnownIssues[0].Resolved)

	v3, err := ToggleIssue(v2, issue.ID)
	require.NoError(t, err)
	assert.False(t, v3.KnownIssues[0].Resolved)

	v4, err := RemoveIssue(v3, issue.ID)
	require.NoError(t, err)
	assert.Empty(t, v4.KnownIssues)

	_, err = ToggleIssue(v4, issue.ID)
	assert.ErrorIs(t, err, ErrIssueNotFound)
	_, err = RemoveIssue(v4, issue.ID)
	assert.ErrorIs(t, err, ErrIssueNotFound)
}
