package utils

import (
	"fmt"
	"time"
)

// ClosestHourMark drops minutes, seconds and nanoseconds from t in t's
// own location.
func ClosestHourMark(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

// AtHour returns hour:00 on the calendar day of day, in day's location.
// Hours past 23 roll into the next day.
func AtHour(day time.Time, hour int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, day.Location())
}

// StartOfDay returns midnight of day's calendar date.
func StartOfDay(day time.Time) time.Time {
	return AtHour(day, 0)
}

// SameDay reports whether a and b fall on the same calendar date in a's
// location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// FormatHour renders an hour count as "HH:00".  Values above 24 come
// from duration arithmetic near the end of the day and wrap around.
func FormatHour(hour int) string {
	if hour > 24 {
		hour -= 24
	}
	return fmt.Sprintf("%02d:00", hour)
}

// FormatClock renders t as "HH:MM".
func FormatClock(t time.Time) string {
	return t.Format("15:04")
}

// OverlapsWithBuffer widens the existing window by buffer on both sides
// and reports whether the candidate window intersects it.  The candidate
// overlaps when its start lies in [start, end), its end lies in
// (start, end], or it covers the whole widened window.
func OverlapsWithBuffer(candStart, candEnd, existStart, existEnd time.Time, buffer time.Duration) bool {
	bs := existStart.Add(-buffer)
	be := existEnd.Add(buffer)
	startInside := !candStart.Before(bs) && candStart.Before(be)
	endInside := candEnd.After(bs) && !candEnd.After(be)
	covers := !candStart.After(bs) && !candEnd.Before(be)
	return startInside || endInside || covers
}

// OverlapsExact is OverlapsWithBuffer without a buffer.
func OverlapsExact(candStart, candEnd, existStart, existEnd time.Time) bool {
	return OverlapsWithBuffer(candStart, candEnd, existStart, existEnd, 0)
}
