package utils

import (
	"time"
)

// CalendarDay returns the civil date of t in loc as midnight UTC.
// loc nil uses UTC.
func CalendarDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// PreviousDays returns the n calendar days before now's day in loc, most recent first.
// El día de now no se incluye.
func PreviousDays(now time.Time, n int, loc *time.Location) []time.Time {
	if n <= 0 {
		return []time.Time{}
	}
	today := CalendarDay(now, loc)
	out := make([]time.Time, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, today.AddDate(0, 0, -i))
	}
	return out
}

// Age returns how old timestamp is at now, rounded to the second
func Age(timestamp, now time.Time) time.Duration {
	age := now.Sub(timestamp)
	if age < 0 {
		return 0
	}
	return age.Round(time.Second)
}

// IsTimestampStale reports whether timestamp is at least staleDuration old at now
func IsTimestampStale(timestamp, now time.Time, staleDuration time.Duration) bool {
	return now.Sub(timestamp) >= staleDuration
}
