package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dateLayout is the canonical text form of a Date.
const dateLayout = "2006-01-02"

// Date is a calendar day with no time or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseISODate parses a YYYY-MM-DD string.
func ParseISODate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

func (d Date) String() string {
	return d.Time().Format(dateLayout)
}

// AddDays returns the date n days after d.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool {
	return d.Time().After(other.Time())
}

// Weekday returns the day of the week.
func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// ISOWeek returns the ISO 8601 week label, e.g. "2024-W18".
func (d Date) ISOWeek() string {
	y, w := d.Time().ISOWeek()
	return fmt.Sprintf("%04d-W%02d", y, w)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseISODate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Clock is a time of day in minutes since midnight. 1440 is valid and
// represents the end of the day.
type Clock int

const (
	MinutesPerDay Clock = 24 * 60
	Midnight      Clock = 0
)

// ClockOf builds a Clock from hours and minutes.
func ClockOf(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock parses "HH:MM" with hours 0-24 and minutes 0-59. "24:00" is
// the only accepted value past 23:59.
func ParseClock(s string) (Clock, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || len(m) != 2 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	c := ClockOf(hour, minute)
	if hour < 0 || minute < 0 || minute > 59 || c > MinutesPerDay {
		return 0, fmt.Errorf("invalid time %q: out of range", s)
	}
	return c, nil
}

// Valid reports whether c lies within [00:00, 24:00].
func (c Clock) Valid() bool {
	return c >= Midnight && c <= MinutesPerDay
}

// Hours returns the clock as fractional hours since midnight.
func (c Clock) Hours() float64 {
	return float64(c) / 60
}

// Add returns c shifted by n minutes. The result may be out of range.
func (c Clock) Add(minutes int) Clock {
	return c + Clock(minutes)
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Clock) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// overlaps reports whether half-open intervals [s1, e1) and [s2, e2)
// intersect.
func overlaps(s1, e1, s2, e2 Clock) bool {
	return s1 < e2 && s2 < e1
}
