package reminder

import "time"

// addPeriodClamped advances a date by the given number of months, clamping the
// day to the end of the target month. time.AddDate cannot be used here: it
// normalizes Jan 31 + 1 month to Mar 2/3, while due dates must land on the
// calendar equivalent (Feb 29 in a leap year, Feb 28 otherwise).
func addPeriodClamped(t time.Time, months int) time.Time {
	year := t.Year()
	month := int(t.Month()) - 1 + months
	year += month / 12
	month = month % 12

	day := t.Day()
	if last := daysInMonth(year, time.Month(month+1)); day > last {
		day = last
	}
	return time.Date(year, time.Month(month+1), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
