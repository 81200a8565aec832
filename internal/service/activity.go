// Package service implements availability coordination business logic.
package service

import "time"

// activityWindowDays is the rolling window for the sharing reciprocity gate.
const activityWindowDays = 7

// IsActive reports whether a user's last availability save falls within the
// rolling activity window. The comparison is calendar-date based and strict:
// a save exactly seven days old no longer counts. Users with no save ever are
// inactive.
func IsActive(lastSaved *time.Time, now time.Time) bool {
	if lastSaved == nil {
		return false
	}
	return daysBetween(*lastSaved, now) < activityWindowDays
}

// daysBetween counts whole calendar days from a to b, ignoring clock time.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	start := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	end := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}

// yesterdayOf returns the calendar day before now, used as the freshness
// cutoff when exposing slots to friends.
func yesterdayOf(now time.Time) time.Time {
	return now.AddDate(0, 0, -1)
}
