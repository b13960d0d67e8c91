// utils/dates.go
package utils

import "time"

const DateLayout = "2006-01-02"

func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// EndOfDay is the last millisecond of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return BeginningOfDay(t).AddDate(0, 0, 1).Add(-time.Millisecond)
}

// CivilDate drops the clock and zone of t, keeping its calendar day at UTC midnight.
// Appointment and transaction dates are stored this way.
func CivilDate(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// StoredDay reads the calendar day of a date loaded from the database.
// Drivers may hand back the UTC-midnight instant in the server's zone.
func StoredDay(t time.Time) time.Time {
	return CivilDate(t.UTC())
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func LastOfMonth(t time.Time) time.Time {
	return FirstOfMonth(t).AddDate(0, 1, -1)
}

func QuarterStart(t time.Time) time.Time {
	month := time.Month((int(t.Month())-1)/3*3 + 1)
	return time.Date(t.Year(), month, 1, 0, 0, 0, 0, t.Location())
}

func QuarterEnd(t time.Time) time.Time {
	return QuarterStart(t).AddDate(0, 3, -1)
}

// StartOfWeek returns the Sunday beginning t's week.
func StartOfWeek(t time.Time) time.Time {
	day := BeginningOfDay(t)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// WeekDays lists the seven days of t's week, Sunday first.
func WeekDays(t time.Time) []time.Time {
	start := StartOfWeek(t)
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}
