// Package activity computes practice streaks and the yearly activity
// heatmap. Both are pure functions over date-bucketed aggregates; all
// dates are calendar days at midnight UTC, bucketed upstream in the
// user's timezone.
package activity

import "time"

// Day truncates t to its calendar day in loc, normalized to midnight UTC
// so day values compare and hash consistently.
func Day(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// Streak returns the number of consecutive practice days ending at the
// most recent practice date. The streak survives one missed day: if the
// newest date is older than yesterday the streak is broken and 0 is
// returned, even when a long run exists further back.
func Streak(today time.Time, dates []time.Time) int {
	if len(dates) == 0 {
		return 0
	}

	distinct := make(map[time.Time]bool, len(dates))
	var newest time.Time
	for _, d := range dates {
		d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		distinct[d] = true
		if d.After(newest) {
			newest = d
		}
	}

	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if newest.Before(today.AddDate(0, 0, -1)) {
		return 0
	}

	streak := 0
	for d := newest; distinct[d]; d = d.AddDate(0, 0, -1) {
		streak++
	}
	return streak
}
