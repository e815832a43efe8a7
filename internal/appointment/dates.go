package appointment

import (
	"strings"
	"time"
)

// DateFallback is rendered in place of a missing or unreadable date.
const DateFallback = "N/A"

const dateLayout = "2006-01-02"

// CivilDate strips the time of day from t, keeping the calendar day t carries
// in its own location. Date-only values read from storage arrive as midnight
// UTC, and converting them to another zone first would shift them a day.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same calendar day. Zero times
// never match.
func SameDay(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Today returns the current calendar day in the clinic's location.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return CivilDate(now.In(loc))
}

// ParseDate reads a calendar day from "2006-01-02" or an RFC 3339 timestamp.
// For timestamps the day is taken as written, before any zone conversion.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return CivilDate(t), nil
}

// FormatDate renders a calendar day, or DateFallback for a missing one.
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return DateFallback
	}
	return t.Format(dateLayout)
}

// FormatDateString renders a raw date value, or DateFallback when it is
// empty or unparseable.
func FormatDateString(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return DateFallback
	}
	t, err := ParseDate(raw)
	if err != nil {
		return DateFallback
	}
	return FormatDate(&t)
}
