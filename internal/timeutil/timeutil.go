package timeutil

import (
	"strings"
	"sync"
	"time"
)

// DefaultZone is used until SetLocation is called with the organization's zone.
const DefaultZone = "Asia/Manila"

var (
	mu  sync.RWMutex
	loc *time.Location
)

func init() {
	l, err := time.LoadLocation(DefaultZone)
	if err != nil {
		// Fallback: fixed zone if tzdata is not available
		l = time.FixedZone("PHT", 8*60*60)
	}
	loc = l
}

// SetLocation switches the organization timezone. Unknown names are rejected.
func SetLocation(name string) error {
	l, err := time.LoadLocation(name)
	if err != nil {
		return err
	}
	mu.Lock()
	loc = l
	mu.Unlock()
	return nil
}

// Location returns the organization timezone.
func Location() *time.Location {
	mu.RLock()
	defer mu.RUnlock()
	return loc
}

// Now returns the current time in the organization timezone
func Now() time.Time {
	return time.Now().In(Location())
}

// StartOfDay returns 00:00:00 of t's calendar day in the organization timezone
func StartOfDay(t time.Time) time.Time {
	l := Location()
	lt := t.In(l)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, l)
}

// Common layouts
const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "3:04 PM"
	DateTimeLayout = "2006-01-02 15:04:05"
	DisplayLayout  = "Jan 2, 2006"
)

// Date layouts accepted in report cells, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"2006/01/02",
	"1-2-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"02-Jan-2006",
	"Mon Jan 2 2006",
}

// Time-of-day layouts accepted in report cells.
var clockLayouts = []string{
	"3:04 PM",
	"3:04PM",
	"3:04 pm",
	"3:04pm",
	"3:04:05 PM",
	"3:04:05PM",
	"15:04",
	"15:04:05",
}

// ParseDate parses a calendar date in one of the accepted layouts, in the
// organization timezone.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	l := Location()
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, l); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseDateTime combines a date cell and a time cell into one instant in the
// organization timezone. Both parts are required.
func ParseDateTime(date, clock string) (time.Time, bool) {
	d, ok := ParseDate(date)
	if !ok {
		return time.Time{}, false
	}
	clock = strings.TrimSpace(clock)
	if clock == "" {
		return time.Time{}, false
	}
	for _, layout := range clockLayouts {
		c, err := time.Parse(layout, strings.ToUpper(clock))
		if err != nil {
			c, err = time.Parse(layout, clock)
		}
		if err == nil {
			return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), c.Second(), 0, d.Location()), true
		}
	}
	return time.Time{}, false
}

// ParseTimestamp parses a single "date time" string such as
// "2024-07-20 2:15 PM" or "7/20/2024, 14:30". A bare date is accepted.
func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(strings.ReplaceAll(value, ",", " "))
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(Location()), true
	}
	fields := strings.Fields(value)
	// Try every split point between a date prefix and a time suffix.
	for i := len(fields) - 1; i >= 1; i-- {
		date := strings.Join(fields[:i], " ")
		clock := strings.Join(fields[i:], " ")
		if t, ok := ParseDateTime(date, clock); ok {
			return t, true
		}
	}
	return ParseDate(strings.Join(fields, " "))
}
