package util

import (
	"strings"
	"time"
)

// DateLayouts are the calendar date formats seen in price and event files.
var DateLayouts = []string{
	"2006-01-02",
	"02-Jan-06",
	"Jan 02, 2006",
	"2-Jan-06",
	"Jan 2, 2006",
	"1/2/2006",
	time.RFC3339,
}

// ParseDate tries each of DateLayouts. Returns (t, true) if any worked; the result is UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// DaysBetween returns the whole days from a to b, rounded toward negative infinity.
func DaysBetween(a, b time.Time) int {
	d := b.Sub(a)
	days := int(d / (24 * time.Hour))
	if d < 0 && d%(24*time.Hour) != 0 {
		days--
	}
	return days
}

// InRange reports whether t lies in [from, to]; zero bounds are open.
func InRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}
