package models

import "time"

// NotificationKind tags an in-app notification row by the event that produced it.
type NotificationKind string

const (
	// NotificationGeneral covers availability pings, nudges and confirmations.
	NotificationGeneral NotificationKind = "general"
	// NotificationFriendRequest covers request-sent and request-accepted events.
	NotificationFriendRequest NotificationKind = "friend_request"
	// NotificationHangoutInvite is sent to invitees of a new hangout.
	NotificationHangoutInvite NotificationKind = "hangout_invite"
	// NotificationHangoutResponse is sent to the creator when an invitee responds.
	NotificationHangoutResponse NotificationKind = "hangout_response"
	// NotificationHangoutUpdate covers edits, cancellations and chat messages.
	NotificationHangoutUpdate NotificationKind = "hangout_update"
)

// Notification is the durable in-app record of a dispatched event. Immutable
// after creation except for the read flag, which flips false to true exactly
// once via the batch mark-read operation.
type Notification struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	RecipientID uint             `gorm:"not null;index" json:"recipient_id"`
	ActorID     *uint            `json:"actor_id,omitempty"`
	HangoutID   *uint            `json:"hangout_id,omitempty"`
	Kind        NotificationKind `gorm:"type:varchar(30);default:'general'" json:"kind"`
	Message     string           `gorm:"size:500;not null" json:"message"`
	Read        bool             `gorm:"default:false;index" json:"read"`
	CreatedAt   time.Time        `json:"created_at"`

	Actor *User `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}
