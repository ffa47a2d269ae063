package core

// convert.go provides the field normalizers used by the record builder.
//
// These functions handle the messy reality of exported training data:
//   - Numbers with thousands separators or comma decimals
//   - Durations as H:MM[:SS] or bare hours
//   - US, EU and ISO date layouts, optionally followed by a time
//   - 12 and 24 hour clock times
//   - Various boolean representations (yes/no, true/false, 1/0)
//
// Every Parse* function returns ok=false for empty or invalid input and
// never panics, so callers can store a null instead of failing the row.

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Date layouts tried in order. Month-first wins over day-first when both
// are valid, and the zero-padded layouts require two digit fields.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	"1/2/2006",
	"2/1/2006",
	"2006/01/02",
}

var (
	clockDurationRegex = regexp.MustCompile(`^(\d+):(\d{1,2})(?::(\d{1,2}(?:\.\d+)?))?$`)
	bareNumberRegex    = regexp.MustCompile(`^-?[\d.,]+$`)
	timeOfDayRegex     = regexp.MustCompile(`(?:^|\D)(\d{1,2}):(\d{2})(?::(\d{2}))?\s*([aApP][mM])?(?:$|\D)`)
)

// ParseNumber keeps digits, separators and minus signs, then parses the
// rest. When both separators are present commas are thousands separators;
// a lone comma is a decimal point.
func ParseNumber(s string) (float64, bool) {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0, false
	}

	hasComma := strings.Contains(cleaned, ",")
	hasPeriod := strings.Contains(cleaned, ".")
	switch {
	case hasComma && hasPeriod:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case hasComma:
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseDurationHours converts "H:MM" or "H:MM:SS" to fractional hours.
// A bare number is taken as already expressed in hours; anything else,
// such as "1h30m", is invalid.
func ParseDurationHours(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if m := clockDurationRegex.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		mins, _ := strconv.Atoi(m[2])
		if mins > 59 {
			return 0, false
		}
		var secs float64
		if m[3] != "" {
			secs, _ = strconv.ParseFloat(m[3], 64)
			if secs >= 60 {
				return 0, false
			}
		}
		return float64(h) + float64(mins)/60 + secs/3600, true
	}
	if !bareNumberRegex.MatchString(s) {
		return 0, false
	}

	return ParseNumber(s)
}

// ParseDate parses the date part of s. A trailing time after "T" or a
// space is ignored; use ParseDateTime to keep it.
func ParseDate(s string) (Date, bool) {
	d, _, ok := ParseDateTime(s)
	return d, ok
}

// ParseDateTime parses a date with an optional trailing time. The returned
// clock is nil when no valid time was present.
func ParseDateTime(s string) (Date, *Clock, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil, false
	}

	datePart, timePart := s, ""
	if i := strings.IndexAny(s, "T "); i > 0 {
		datePart, timePart = s[:i], strings.TrimSpace(s[i+1:])
	}

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, datePart)
		if err != nil {
			continue
		}
		var clock *Clock
		if timePart != "" {
			if c, ok := ParseTime(timePart); ok {
				clock = &c
			}
		}
		return DateOf(t), clock, true
	}

	return Date{}, nil, false
}

// ParseTime extracts the first "H:MM[:SS][am|pm]" occurrence in s and
// converts it to a 24 hour clock. 12am is midnight and 12pm is noon.
func ParseTime(s string) (Clock, bool) {
	m := timeOfDayRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if m[3] != "" {
		if sec, _ := strconv.Atoi(m[3]); sec > 59 {
			return 0, false
		}
	}

	switch strings.ToLower(m[4]) {
	case "am":
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 12 {
			hour += 12
		}
	}

	if hour > 23 || minute > 59 {
		return 0, false
	}
	return ClockOf(hour, minute), true
}

// ParseBool accepts true/false, yes/no, t/f, y/n and 1/0.
func ParseBool(s string) (value bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		return true, true
	case "false", "f", "no", "n", "0":
		return false, true
	default:
		return false, false
	}
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace
// - Removes the Excel formula wrapper (="...")
// - Removes a leading '='
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(s)
}

// nonNegative drops negative values, returning nil for them.
func nonNegative(v float64, ok bool) *float64 {
	if !ok || v < 0 {
		return nil
	}
	return &v
}

// optional returns a pointer to v when ok.
func optional(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}
