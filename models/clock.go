package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ClockTime is a wall-clock time of day in minutes since midnight, stored as "HH:MM".
type ClockTime int

const MinutesPerDay = 24 * 60

// ParseClockTime accepts "15:04" and the "15:04:05" form some databases return.
func ParseClockTime(s string) (ClockTime, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return ClockTime(t.Hour()*60 + t.Minute()), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q", s)
}

func (c ClockTime) Valid() bool { return c >= 0 && c < MinutesPerDay }

func (c ClockTime) Hour() int   { return int(c) / 60 }
func (c ClockTime) Minute() int { return int(c) % 60 }

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Add returns c shifted by minutes without wrapping around midnight; callers check Valid.
func (c ClockTime) Add(minutes int) ClockTime { return c + ClockTime(minutes) }

// On places the clock time on the calendar day of date.
func (c ClockTime) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, c.Hour(), c.Minute(), 0, 0, date.Location())
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c ClockTime) Value() (driver.Value, error) {
	return c.String(), nil
}

func (c *ClockTime) Scan(value interface{}) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case time.Time:
		*c = ClockTime(v.Hour()*60 + v.Minute())
		return nil
	default:
		return fmt.Errorf("clock time: unsupported scan type %T", value)
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
