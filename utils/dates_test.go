package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayBoundaries(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	now := time.Date(2024, 1, 20, 15, 30, 0, 0, loc)

	assert.Equal(t, time.Date(2024, 1, 20, 0, 0, 0, 0, loc), BeginningOfDay(now))
	assert.Equal(t, time.Date(2024, 1, 20, 23, 59, 59, int(999*time.Millisecond), loc), EndOfDay(now))
	assert.Equal(t, time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), CivilDate(now))
}

func TestMonthAndQuarter(t *testing.T) {
	d := time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), FirstOfMonth(d))
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), LastOfMonth(d))
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), QuarterStart(d))
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), QuarterEnd(d))

	nov := time.Date(2024, 11, 3, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC), QuarterStart(nov))
}

func TestWeekDaysStartOnSunday(t *testing.T) {
	wednesday := time.Date(2024, 1, 17, 9, 0, 0, 0, time.UTC)
	days := WeekDays(wednesday)

	assert.Len(t, days, 7)
	assert.Equal(t, time.Sunday, days[0].Weekday())
	assert.Equal(t, time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC), days[0])
	assert.Equal(t, time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), days[6])
}

func TestStoredDay(t *testing.T) {
	brt := time.FixedZone("BRT", -3*60*60)
	stored := time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC).In(brt)
	assert.Equal(t, 13, stored.Day())
	assert.Equal(t, time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC), StoredDay(stored))
}
