package services

import (
	"testing"
	"time"

	"salonpro-agenda/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var saoPaulo = time.FixedZone("BRT", -3*3600)

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, saoPaulo)
}

func endOf(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), saoPaulo)
}

func TestResolveWindow(t *testing.T) {
	now := at(2024, 1, 20, 15, 30)
	jan5, jan25 := at(2024, 1, 5, 18, 0), at(2024, 1, 25, 8, 0)

	tests := []struct {
		name     string
		sel      WindowSelector
		from, to *time.Time
		want     Window
	}{
		{name: "today", sel: WindowToday, want: Window{at(2024, 1, 20, 0, 0), endOf(2024, 1, 20)}},
		{name: "last-7", sel: WindowLast7, want: Window{at(2024, 1, 14, 0, 0), endOf(2024, 1, 20)}},
		{name: "last-15", sel: WindowLast15, want: Window{at(2024, 1, 6, 0, 0), endOf(2024, 1, 20)}},
		{name: "last-30", sel: WindowLast30, want: Window{at(2023, 12, 22, 0, 0), endOf(2024, 1, 20)}},
		{name: "this-month", sel: WindowThisMonth, want: Window{at(2024, 1, 1, 0, 0), endOf(2024, 1, 31)}},
		{name: "custom", sel: WindowCustom, from: &jan5, to: &jan25, want: Window{at(2024, 1, 5, 0, 0), endOf(2024, 1, 25)}},
		{name: "custom missing end", sel: WindowCustom, from: &jan5, want: Window{at(2024, 1, 1, 0, 0), endOf(2024, 1, 31)}},
		{name: "custom missing both", sel: WindowCustom, want: Window{at(2024, 1, 1, 0, 0), endOf(2024, 1, 31)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveWindow(tt.sel, tt.from, tt.to, now)
			require.NoError(t, err)
			assert.True(t, tt.want.Start.Equal(got.Start), "start %s, want %s", got.Start, tt.want.Start)
			assert.True(t, tt.want.End.Equal(got.End), "end %s, want %s", got.End, tt.want.End)
			assert.False(t, got.Start.After(got.End))
		})
	}
}

func TestResolveWindowTodayIsOneDay(t *testing.T) {
	for _, now := range []time.Time{at(2024, 2, 29, 0, 0), at(2024, 12, 31, 23, 59), at(2024, 6, 1, 12, 0)} {
		w, err := ResolveWindow(WindowToday, nil, nil, now)
		require.NoError(t, err)
		assert.Equal(t, w.Start.YearDay(), w.End.YearDay())
		assert.Equal(t, w.Start.Year(), w.End.Year())
		assert.Len(t, w.Days(), 1)
	}
}

func TestResolveWindowRejectsBadInput(t *testing.T) {
	now := at(2024, 1, 20, 12, 0)

	_, err := ResolveWindow("yesterday", nil, nil, now)
	assert.ErrorIs(t, err, models.ErrInvalidFilter)

	from, to := at(2024, 1, 25, 0, 0), at(2024, 1, 5, 0, 0)
	_, err = ResolveWindow(WindowCustom, &from, &to, now)
	assert.ErrorIs(t, err, models.ErrInvalidFilter)
}

func TestWindowContains(t *testing.T) {
	w, err := ResolveWindow(WindowLast7, nil, nil, at(2024, 1, 20, 9, 0))
	require.NoError(t, err)

	assert.False(t, w.Contains(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)))
	assert.True(t, w.Contains(time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)))
	assert.True(t, w.Contains(time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)))
	assert.True(t, w.Contains(time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2024, 1, 21, 0, 0, 0, 0, time.UTC)))
	assert.Len(t, w.Days(), 7)
}

func TestParseWindowSelector(t *testing.T) {
	assert.Equal(t, WindowLast7, ParseWindowSelector("ultimos-7"))
	assert.Equal(t, WindowThisMonth, ParseWindowSelector("this-month"))
	assert.Equal(t, WindowSelector("bogus"), ParseWindowSelector("bogus"))
}
