// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// DefaultReminderDays are the days a new account gets SMS planning reminders on.
var DefaultReminderDays = []string{"monday", "tuesday", "wednesday", "thursday"}

// User represents a Gatherly account.
//
// The pending-notification pair drives the availability fan-out cooldown:
// PendingNotificationMarkedAt is non-nil iff PendingNotification is true, and
// every qualifying save overwrites it so the cooldown clock restarts from the
// latest edit.
type User struct {
	ID               uint     `gorm:"primaryKey" json:"id"`
	Name             string   `gorm:"size:100;not null" json:"name"`
	Email            string   `gorm:"unique;not null" json:"email"`
	Phone            string   `gorm:"size:20;not null" json:"phone_number"`
	PhoneNormalized  string   `gorm:"size:20;uniqueIndex;not null" json:"-"`
	Password         string   `gorm:"not null" json:"-"`
	Timezone         string   `gorm:"size:50;default:'America/New_York'" json:"timezone"`
	RemindersEnabled bool     `gorm:"default:true" json:"reminders_enabled"`
	ReminderDays     []string `gorm:"serializer:json" json:"reminder_days"`

	LastAvailabilitySavedAt     *time.Time `json:"last_availability_saved_at"`
	PendingNotification         bool       `gorm:"default:false;index:idx_users_pending" json:"-"`
	PendingNotificationMarkedAt *time.Time `gorm:"index:idx_users_pending" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Contacts []Contact `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"contacts,omitempty"`
}

// Contact is an address-book entry owned by a user. Contacts are matched to
// platform users by normalized phone number, never by name.
type Contact struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	OwnerID         uint      `gorm:"not null;uniqueIndex:idx_contact_owner_phone" json:"owner_id"`
	Name            string    `gorm:"size:100;not null" json:"name"`
	Phone           string    `gorm:"size:20;not null" json:"phone_number"`
	PhoneNormalized string    `gorm:"size:20;not null;uniqueIndex:idx_contact_owner_phone;index" json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}

// WatchSubscription records that a watcher wants availability pings about a
// friend. Kept as its own table so the sweep can reverse-lookup watchers with
// one indexed query instead of scanning JSON watch lists.
type WatchSubscription struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	WatcherID uint      `gorm:"not null;uniqueIndex:idx_watch_pair" json:"watcher_id"`
	FriendID  uint      `gorm:"not null;uniqueIndex:idx_watch_pair;index" json:"friend_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PushDevice is a registered push endpoint for a user. Endpoints that report a
// permanent failure (HTTP 404/410) are pruned by the dispatcher.
type PushDevice struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Endpoint  string    `gorm:"size:500;not null;uniqueIndex" json:"endpoint"`
	CreatedAt time.Time `json:"created_at"`
}
