package services

import (
	"time"

	"salonpro-agenda/models"
	"salonpro-agenda/utils"
)

// WindowSelector names a reporting period.
type WindowSelector string

const (
	WindowToday     WindowSelector = "today"
	WindowLast7     WindowSelector = "last-7"
	WindowLast15    WindowSelector = "last-15"
	WindowLast30    WindowSelector = "last-30"
	WindowThisMonth WindowSelector = "this-month"
	WindowCustom    WindowSelector = "custom"
)

// Window is an inclusive interval of whole calendar days.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ResolveWindow turns a selector into concrete day bounds relative to now.
// For WindowCustom both from and to are required; if either is missing the
// current month is used instead.
func ResolveWindow(sel WindowSelector, from, to *time.Time, now time.Time) (Window, error) {
	today := utils.BeginningOfDay(now)

	switch sel {
	case WindowToday:
		return lookBack(today, 0), nil
	case WindowLast7:
		return lookBack(today, 6), nil
	case WindowLast15:
		return lookBack(today, 14), nil
	case WindowLast30:
		return lookBack(today, 29), nil
	case WindowThisMonth:
		return monthOf(today), nil
	case WindowCustom:
		if from == nil || to == nil {
			return monthOf(today), nil
		}
		loc := now.Location()
		w := Window{
			Start: utils.BeginningOfDay(from.In(loc)),
			End:   utils.EndOfDay(to.In(loc)),
		}
		if w.Start.After(w.End) {
			return Window{}, models.NewInvalidFilterError("window", "custom range ends before it starts")
		}
		return w, nil
	}
	return Window{}, models.NewInvalidFilterError("window", string(sel))
}

func lookBack(today time.Time, days int) Window {
	return Window{
		Start: today.AddDate(0, 0, -days),
		End:   utils.EndOfDay(today),
	}
}

func monthOf(today time.Time) Window {
	return Window{
		Start: utils.FirstOfMonth(today),
		End:   utils.EndOfDay(utils.LastOfMonth(today)),
	}
}

// Contains reports whether the stored date falls on one of the window's days.
func (w Window) Contains(date time.Time) bool {
	d := utils.StoredDay(date)
	return !d.Before(w.FirstDay()) && !d.After(w.LastDay())
}

// FirstDay and LastDay are the window bounds as stored civil dates.
func (w Window) FirstDay() time.Time { return utils.CivilDate(w.Start) }
func (w Window) LastDay() time.Time  { return utils.CivilDate(w.End) }

// Days lists every civil date in the window.
func (w Window) Days() []time.Time {
	var days []time.Time
	for d := w.FirstDay(); !d.After(w.LastDay()); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

var selectorAliases = map[string]WindowSelector{
	"hoje":          WindowToday,
	"ultimos-7":     WindowLast7,
	"ultimos-15":    WindowLast15,
	"ultimos-30":    WindowLast30,
	"este-mes":      WindowThisMonth,
	"personalizado": WindowCustom,
}

// ParseWindowSelector accepts the canonical names and their Portuguese aliases.
// Unknown values pass through so ResolveWindow can reject them.
func ParseWindowSelector(s string) WindowSelector {
	if sel, ok := selectorAliases[s]; ok {
		return sel
	}
	return WindowSelector(s)
}
