package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsActive(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	daysAgo := func(n int) *time.Time {
		ts := now.AddDate(0, 0, -n)
		return &ts
	}

	tests := []struct {
		name      string
		lastSaved *time.Time
		want      bool
	}{
		{"never saved", nil, false},
		{"saved today", daysAgo(0), true},
		{"saved six days ago", daysAgo(6), true},
		{"saved exactly seven days ago", daysAgo(7), false},
		{"saved eight days ago", daysAgo(8), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsActive(tt.lastSaved, now))
		})
	}
}

func TestIsActiveIgnoresClockTime(t *testing.T) {
	// 23:59 six calendar days ago is still within the window even though
	// almost seven full days of hours have elapsed.
	now := time.Date(2026, 3, 15, 23, 0, 0, 0, time.UTC)
	saved := time.Date(2026, 3, 9, 0, 30, 0, 0, time.UTC)
	assert.True(t, IsActive(&saved, now))

	// 00:30 seven calendar days ago is out, even though fewer than seven
	// 24-hour spans have passed since a late-evening "now".
	saved = time.Date(2026, 3, 8, 23, 59, 0, 0, time.UTC)
	assert.False(t, IsActive(&saved, now))
}
