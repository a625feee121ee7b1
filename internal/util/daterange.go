package util

import "time"

// MonthBounds returns the first and last day of the month containing t.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first, last
}

// CurrentMonthBounds returns the first and last day of the current month.
func CurrentMonthBounds() (time.Time, time.Time) {
	return MonthBounds(time.Now().UTC())
}

// ClampDayToMonth returns the date for targetDay in the given month, clamped
// to the month's last day (day 31 in February yields Feb 28/29).
func ClampDayToMonth(year int, month time.Month, targetDay int) time.Time {
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if targetDay > lastDay {
		targetDay = lastDay
	}
	return time.Date(year, month, targetDay, 0, 0, 0, 0, time.UTC)
}

// Truncate drops the time-of-day component, keeping the UTC calendar date.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
