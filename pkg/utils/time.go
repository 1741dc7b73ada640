package utils

import (
	"math"
	"time"
)

// StartOfDay returns midnight of t's calendar day in loc
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// CalendarDaysBetween returns the number of calendar days from from's day to
// to's day in loc. It is negative when to falls on an earlier day.
func CalendarDaysBetween(from, to time.Time, loc *time.Location) int {
	a := StartOfDay(from, loc)
	b := StartOfDay(to, loc)
	// Rounding absorbs 23h and 25h days around DST changes.
	return int(math.Round(b.Sub(a).Hours() / 24))
}

// FormatIn formats t in loc, returning "" for a nil time
func FormatIn(t *time.Time, layout string, loc *time.Location) string {
	if t == nil {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(layout)
}

// CeilDiv divides a by b rounding up; b must be positive
func CeilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
