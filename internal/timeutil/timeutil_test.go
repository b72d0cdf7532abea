package timeutil

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in     string
		wantOK bool
	}{
		{"2024-07-20", true},
		{"7/20/2024", true},
		{"07/20/2024", true},
		{"July 20, 2024", true},
		{" 20 Jul 2024 ", true},
		{"20-Jul-2024", true},
		{"", false},
		{"someday", false},
		{"2024-13-45", false},
	}

	for _, tt := range tests {
		got, ok := ParseDate(tt.in)
		if ok != tt.wantOK {
			t.Errorf("ParseDate(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			continue
		}
		if !ok {
			continue
		}
		if got.Year() != 2024 || got.Month() != time.July || got.Day() != 20 {
			t.Errorf("ParseDate(%q) = %v", tt.in, got)
		}
		if got.Location() != Location() {
			t.Errorf("ParseDate(%q) location = %v", tt.in, got.Location())
		}
	}
}

func TestParseDateTime(t *testing.T) {
	tests := []struct {
		date, clock    string
		wantOK         bool
		hour, min, sec int
	}{
		{"7/20/2024", "2:15 PM", true, 14, 15, 0},
		{"7/20/2024", "2:15 pm", true, 14, 15, 0},
		{"2024-07-20", "14:30:05", true, 14, 30, 5},
		{"2024-07-20", "9:05:10 AM", true, 9, 5, 10},
		{"2024-07-20", "", false, 0, 0, 0},
		{"", "2:15 PM", false, 0, 0, 0},
		{"2024-07-20", "quarter past", false, 0, 0, 0},
	}

	for _, tt := range tests {
		got, ok := ParseDateTime(tt.date, tt.clock)
		if ok != tt.wantOK {
			t.Errorf("ParseDateTime(%q, %q) ok = %v", tt.date, tt.clock, ok)
			continue
		}
		if ok && (got.Day() != 20 || got.Hour() != tt.hour || got.Minute() != tt.min || got.Second() != tt.sec) {
			t.Errorf("ParseDateTime(%q, %q) = %v", tt.date, tt.clock, got)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	loc := Location()
	tests := []struct {
		in     string
		want   time.Time
		wantOK bool
	}{
		{"2024-07-20 2:15 PM", time.Date(2024, 7, 20, 14, 15, 0, 0, loc), true},
		{"7/20/2024, 14:30", time.Date(2024, 7, 20, 14, 30, 0, 0, loc), true},
		{"2024-07-20", time.Date(2024, 7, 20, 0, 0, 0, 0, loc), true},
		{"2024-07-20T06:15:00Z", time.Date(2024, 7, 20, 6, 15, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"not a date", time.Time{}, false},
	}

	for _, tt := range tests {
		got, ok := ParseTimestamp(tt.in)
		if ok != tt.wantOK {
			t.Errorf("ParseTimestamp(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			continue
		}
		if ok && !got.Equal(tt.want) {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStartOfDay(t *testing.T) {
	loc := Location()
	in := time.Date(2024, 7, 20, 18, 45, 12, 99, loc)
	want := time.Date(2024, 7, 20, 0, 0, 0, 0, loc)
	if got := StartOfDay(in); !got.Equal(want) {
		t.Errorf("StartOfDay = %v, want %v", got, want)
	}
}

func TestSetLocationRejectsUnknownZone(t *testing.T) {
	before := Location()
	if err := SetLocation("Nowhere/Special"); err == nil {
		t.Fatal("expected an error for an unknown zone")
	}
	if Location() != before {
		t.Error("location changed after a failed SetLocation")
	}
}
