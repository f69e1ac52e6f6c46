// Package reminder implements the lifecycle of recurring obligations
// (insurance, road tax): creation, payment recording, due-date advancement
// and deletion. All transformations use value semantics; the caller commits
// the returned vehicle through the garage.
package reminder

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ukydev/carlog/internal/models"
)

var ErrReminderNotFound = errors.New("reminder not found")

// New creates a reminder with an empty payment history.
func New(description string, nextDueDate time.Time, amount float64, frequency string) (models.Reminder, error) {
	if !models.IsValidFrequency(frequency) {
		return models.Reminder{}, fmt.Errorf("invalid frequency %q", frequency)
	}
	return models.Reminder{
		ID:          uuid.NewString(),
		Description: description,
		NextDueDate: nextDueDate,
		Amount:      amount,
		Frequency:   frequency,
		Payments:    []models.PaymentEntry{},
	}, nil
}

// Add appends a reminder to the vehicle.
func Add(v models.Vehicle, r models.Reminder) models.Vehicle {
	reminders := make([]models.Reminder, len(v.Reminders), len(v.Reminders)+1)
	copy(reminders, v.Reminders)
	v.Reminders = append(reminders, r)
	return v
}

// Pay records a payment on the reminder with the given id: the paid amount is
// appended to the history and the next due date advances by exactly one
// period of the reminder's frequency, counted from the current due date, not
// from today. The paid amount may differ from the reminder's amount; the
// amount itself never changes.
func Pay(v models.Vehicle, reminderID string, amount float64, today time.Time) (models.Vehicle, error) {
	reminders := make([]models.Reminder, len(v.Reminders))
	copy(reminders, v.Reminders)

	for i := range reminders {
		if reminders[i].ID != reminderID {
			continue
		}
		r := reminders[i]

		payments := make([]models.PaymentEntry, len(r.Payments), len(r.Payments)+1)
		copy(payments, r.Payments)
		r.Payments = append(payments, models.PaymentEntry{Date: today, Amount: amount})

		r.NextDueDate = advance(r.NextDueDate, r.Frequency)

		reminders[i] = r
		v.Reminders = reminders
		return v, nil
	}
	return models.Vehicle{}, ErrReminderNotFound
}

// Remove deletes the reminder and its entire payment history. Explicit user
// confirmation is the caller's contract.
func Remove(v models.Vehicle, reminderID string) (models.Vehicle, error) {
	reminders := make([]models.Reminder, 0, len(v.Reminders))
	found := false
	for _, r := range v.Reminders {
		if r.ID == reminderID {
			found = true
			continue
		}
		reminders = append(reminders, r)
	}
	if !found {
		return models.Vehicle{}, ErrReminderNotFound
	}
	v.Reminders = reminders
	return v, nil
}

// SortByDueDate returns the reminders sorted ascending by next due date, the
// display order.
func SortByDueDate(reminders []models.Reminder) []models.Reminder {
	out := make([]models.Reminder, len(reminders))
	copy(out, reminders)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].NextDueDate.Before(out[j].NextDueDate)
	})
	return out
}

// IsOverdue reports whether the reminder's due date has passed. Derived at
// render time, never stored.
func IsOverdue(r models.Reminder, now time.Time) bool {
	return r.NextDueDate.Before(now)
}

// advance moves a due date forward by one period of the given frequency.
// Month-end dates clamp to the end of the shorter target month.
func advance(due time.Time, frequency string) time.Time {
	switch frequency {
	case models.FrequencyMonthly:
		return addPeriodClamped(due, 1)
	case models.FrequencyAnnual:
		return addPeriodClamped(due, 12)
	case models.FrequencyBiennial:
		return addPeriodClamped(due, 24)
	default:
		return due
	}
}
