package models

import (
	"fmt"
	"time"
)

// Period is a coarse time-of-day bucket for availability slots.
type Period string

const (
	// PeriodMorning covers roughly before noon.
	PeriodMorning Period = "morning"
	// PeriodAfternoon covers roughly noon to early evening.
	PeriodAfternoon Period = "afternoon"
	// PeriodEvening covers the rest of the day.
	PeriodEvening Period = "evening"
)

// Valid reports whether p is one of the known periods.
func (p Period) Valid() bool {
	switch p {
	case PeriodMorning, PeriodAfternoon, PeriodEvening:
		return true
	}
	return false
}

// SlotDateLayout is the wire and storage format for slot dates.
const SlotDateLayout = "2006-01-02"

// Slot is a single (date, period) availability entry.
type Slot struct {
	Date   string `json:"date"`
	Period Period `json:"period"`
}

// Key returns the composite identity of a slot, used for set difference
// between a submitted slot list and the previously stored one.
func (s Slot) Key() string {
	return s.Date + "|" + string(s.Period)
}

// Validate checks the date format and period enum.
func (s Slot) Validate() error {
	if _, err := time.Parse(SlotDateLayout, s.Date); err != nil {
		return fmt.Errorf("invalid slot date %q: %w", s.Date, err)
	}
	if !s.Period.Valid() {
		return fmt.Errorf("invalid slot period %q", s.Period)
	}
	return nil
}

// AvailabilitySnapshot holds one user's submitted slots for a week. Only the
// most-recently-updated snapshot per user is current for friend visibility;
// older weeks are superseded, not deleted.
type AvailabilitySnapshot struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_snapshot_user_week" json:"user_id"`
	WeekStart string    `gorm:"size:10;not null;uniqueIndex:idx_snapshot_user_week" json:"week_start"`
	Slots     []Slot    `gorm:"serializer:json;not null" json:"slots"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SlotKeys returns the set of composite keys for the snapshot's slots.
func (a *AvailabilitySnapshot) SlotKeys() map[string]struct{} {
	keys := make(map[string]struct{}, len(a.Slots))
	for _, s := range a.Slots {
		keys[s.Key()] = struct{}{}
	}
	return keys
}

// FreshSlots returns the snapshot's slots dated on or after the cutoff day.
// Read paths use yesterday as the cutoff, a one-day grace buffer against
// timezone skew.
func (a *AvailabilitySnapshot) FreshSlots(cutoff time.Time) []Slot {
	day := cutoff.Format(SlotDateLayout)
	var fresh []Slot
	for _, s := range a.Slots {
		if s.Date >= day {
			fresh = append(fresh, s)
		}
	}
	return fresh
}

// WeekStartOf returns the Monday of the week containing t, formatted as a
// slot date.
func WeekStartOf(t time.Time) string {
	offset := (int(t.Weekday()) + 6) % 7 // Monday=0 .. Sunday=6
	return t.AddDate(0, 0, -offset).Format(SlotDateLayout)
}
