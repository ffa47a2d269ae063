package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDate(t *testing.T) {
	d := Date{2024, 2, 28}

	if got := d.AddDays(2).String(); got != "2024-03-01" {
		t.Errorf("AddDays across leap day = %s, want 2024-03-01", got)
	}
	if got := d.Weekday(); got != time.Wednesday {
		t.Errorf("Weekday = %s, want Wednesday", got)
	}
	if got := d.ISOWeek(); got != "2024-W09" {
		t.Errorf("ISOWeek = %s, want 2024-W09", got)
	}
	if !d.Before(d.AddDays(1)) || d.After(d) {
		t.Error("Before/After ordering wrong")
	}

	b, err := json.Marshal(d)
	if err != nil || string(b) != `"2024-02-28"` {
		t.Errorf("MarshalJSON = %s, %v", b, err)
	}

	var back Date
	if err := json.Unmarshal([]byte(`"2024-12-31"`), &back); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if back != (Date{2024, 12, 31}) {
		t.Errorf("UnmarshalJSON = %+v", back)
	}
	if err := json.Unmarshal([]byte(`"31/12/2024"`), &back); err == nil {
		t.Error("UnmarshalJSON should reject non-ISO dates")
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		input   string
		want    Clock
		wantErr bool
	}{
		{"00:00", 0, false},
		{"05:00", 300, false},
		{"13:30", 810, false},
		{"24:00", 1440, false},
		{"9:05", 545, false},
		{"24:01", 0, true},
		{"12:60", 0, true},
		{"12:5", 0, true},
		{"-1:00", 0, true},
		{"noon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseClock(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseClock(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseClock(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestClockJSON(t *testing.T) {
	b, err := json.Marshal(ClockOf(7, 5))
	if err != nil || string(b) != `"07:05"` {
		t.Errorf("MarshalJSON = %s, %v", b, err)
	}

	var c Clock
	if err := json.Unmarshal([]byte(`"24:00"`), &c); err != nil || c != MinutesPerDay {
		t.Errorf("UnmarshalJSON(24:00) = %d, %v", c, err)
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name           string
		s1, e1, s2, e2 Clock
		want           bool
	}{
		{"disjoint", 0, 60, 120, 180, false},
		{"touching is not overlap", 0, 60, 60, 120, false},
		{"partial", 0, 90, 60, 120, true},
		{"contained", 0, 300, 60, 120, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := overlaps(tt.s1, tt.e1, tt.s2, tt.e2); got != tt.want {
				t.Errorf("overlaps() = %v, want %v", got, tt.want)
			}
		})
	}
}
