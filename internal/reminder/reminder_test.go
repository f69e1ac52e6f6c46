package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/carlog/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func vehicleWithReminder(r models.Reminder) models.Vehicle {
	return models.Vehicle{ID: "v1", Reminders: []models.Reminder{r}}
}

func TestNew(t *testing.T) {
	r, err := New("Assicurazione", date(2024, 3, 1), 450, models.FrequencyAnnual)
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "Assicurazione", r.Description)
	assert.Equal(t, 450.0, r.Amount)
	assert.Empty(t, r.Payments)
	assert.NotNil(t, r.Payments)

	_, err = New("Bollo", date(2024, 3, 1), 180, "weekly")
	assert.Error(t, err)
}

func TestPay_AppendsHistoryAndAdvances(t *testing.T) {
	r, _ := New("Bollo auto", date(2024, 5, 31), 180, models.FrequencyAnnual)
	v := vehicleWithReminder(r)

	today := date(2024, 5, 20)
	v2, err := Pay(v, r.ID, 180, today)
	require.NoError(t, err)

	got := v2.Reminders[0]
	require.Len(t, got.Payments, 1)
	assert.Equal(t, today, got.Payments[0].Date)
	assert.Equal(t, 180.0, got.Payments[0].Amount)
	assert.Equal(t, date(2025, 5, 31), got.NextDueDate)

	// The original vehicle value is untouched.
	assert.Empty(t, v.Reminders[0].Payments)
	assert.Equal(t, date(2024, 5, 31), v.Reminders[0].NextDueDate)
}

func TestPay_AdvancesFromDueDateNotToday(t *testing.T) {
	r, _ := New("Assicurazione", date(2024, 3, 1), 450, models.FrequencyMonthly)
	v := vehicleWithReminder(r)

	// Paying late still advances from the stored due date.
	v2, err := Pay(v, r.ID, 450, date(2024, 6, 15))
	require.NoError(t, err)
	assert.Equal(t, date(2024, 4, 1), v2.Reminders[0].NextDueDate)
}

func TestPay_PartialAmountDoesNotChangeReminderAmount(t *testing.T) {
	r, _ := New("Assicurazione", date(2024, 3, 1), 450, models.FrequencyMonthly)
	v := vehicleWithReminder(r)

	v2, err := Pay(v, r.ID, 200, date(2024, 3, 1))
	require.NoError(t, err)
	assert.Equal(t, 450.0, v2.Reminders[0].Amount)
	assert.Equal(t, 200.0, v2.Reminders[0].Payments[0].Amount)
}

func TestPay_HistoryNeverTruncated(t *testing.T) {
	r, _ := New("Bollo", date(2024, 1, 15), 180, models.FrequencyMonthly)
	v := vehicleWithReminder(r)

	for i := 0; i < 5; i++ {
		var err error
		v, err = Pay(v, r.ID, 180, date(2024, time.Month(1+i), 15))
		require.NoError(t, err)
	}
	assert.Len(t, v.Reminders[0].Payments, 5)
	assert.Equal(t, date(2024, 6, 15), v.Reminders[0].NextDueDate)
}

func TestPay_MonthEndClamping(t *testing.T) {
	// Jan 31 + 1 month lands on the leap-year Feb 29.
	r, _ := New("Rata", date(2024, 1, 31), 100, models.FrequencyMonthly)
	v := vehicleWithReminder(r)
	v2, err := Pay(v, r.ID, 100, date(2024, 1, 31))
	require.NoError(t, err)
	assert.Equal(t, date(2024, 2, 29), v2.Reminders[0].NextDueDate)

	// Feb 29 + 1 year clamps to Feb 28.
	r, _ = New("Assicurazione", date(2024, 2, 29), 450, models.FrequencyAnnual)
	v = vehicleWithReminder(r)
	v2, err = Pay(v, r.ID, 450, date(2024, 2, 29))
	require.NoError(t, err)
	assert.Equal(t, date(2025, 2, 28), v2.Reminders[0].NextDueDate)

	// Biennial from Feb 29 lands back on Feb 29 of the next leap year... which
	// 2026 is not, so it clamps too.
	r, _ = New("Revisione", date(2024, 2, 29), 80, models.FrequencyBiennial)
	v = vehicleWithReminder(r)
	v2, err = Pay(v, r.ID, 80, date(2024, 2, 29))
	require.NoError(t, err)
	assert.Equal(t, date(2026, 2, 28), v2.Reminders[0].NextDueDate)

	// Non-leap January rollover.
	r, _ = New("Rata", date(2023, 1, 31), 100, models.FrequencyMonthly)
	v = vehicleWithReminder(r)
	v2, err = Pay(v, r.ID, 100, date(2023, 1, 31))
	require.NoError(t, err)
	assert.Equal(t, date(2023, 2, 28), v2.Reminders[0].NextDueDate)
}

func TestPay_YearBoundary(t *testing.T) {
	r, _ := New("Rata", date(2024, 12, 15), 100, models.FrequencyMonthly)
	v := vehicleWithReminder(r)
	v2, err := Pay(v, r.ID, 100, date(2024, 12, 15))
	require.NoError(t, err)
	assert.Equal(t, date(2025, 1, 15), v2.Reminders[0].NextDueDate)
}

func TestPay_UnknownReminder(t *testing.T) {
	v := vehicleWithReminder(models.Reminder{ID: "r1"})
	_, err := Pay(v, "missing", 100, date(2024, 1, 1))
	assert.ErrorIs(t, err, ErrReminderNotFound)
}

func TestRemove(t *testing.T) {
	r1, _ := New("Assicurazione", date(2024, 3, 1), 450, models.FrequencyAnnual)
	r2, _ := New("Bollo", date(2024, 5, 31), 180, models.FrequencyAnnual)
	v := models.Vehicle{ID: "v1", Reminders: []models.Reminder{r1, r2}}

	v2, err := Remove(v, r1.ID)
	require.NoError(t, err)
	require.Len(t, v2.Reminders, 1)
	assert.Equal(t, r2.ID, v2.Reminders[0].ID)
	assert.Len(t, v.Reminders, 2)

	_, err = Remove(v2, r1.ID)
	assert.ErrorIs(t, err, ErrReminderNotFound)
}

func TestSortByDueDate(t *testing.T) {
	reminders := []models.Reminder{
		{ID: "c", NextDueDate: date(2024, 6, 1)},
		{ID: "a", NextDueDate: date(2024, 1, 1)},
		{ID: "b", NextDueDate: date(2024, 3, 1)},
	}

	sorted := SortByDueDate(reminders)
	assert.Equal(t, []string{"a", "b", "c"}, []string{sorted[0].ID, sorted[1].ID, sorted[2].ID})
	// Input order is preserved.
	assert.Equal(t, "c", reminders[0].ID)
}

func TestIsOverdue(t *testing.T) {
	r := models.Reminder{NextDueDate: date(2024, 3, 1)}
	assert.True(t, IsOverdue(r, date(2024, 3, 2)))
	assert.False(t, IsOverdue(r, date(2024, 3, 1)))
	assert.False(t, IsOverdue(r, date(2024, 2, 28)))
}
