package models

import "time"

// FriendRequestStatus is the state of a directed friend request.
type FriendRequestStatus string

const (
	// FriendRequestPending indicates the addressee has not responded yet.
	FriendRequestPending FriendRequestStatus = "pending"
	// FriendRequestAccepted is terminal; the friendship edge exists.
	FriendRequestAccepted FriendRequestStatus = "accepted"
	// FriendRequestRejected is terminal.
	FriendRequestRejected FriendRequestStatus = "rejected"
)

// FriendRequest is a directed edge, unique per (from, to) pair. Once accepted
// or rejected it never transitions again.
type FriendRequest struct {
	ID         uint                `gorm:"primaryKey" json:"id"`
	FromUserID uint                `gorm:"not null;uniqueIndex:idx_friend_request_pair" json:"from_user_id"`
	ToUserID   uint                `gorm:"not null;uniqueIndex:idx_friend_request_pair" json:"to_user_id"`
	Status     FriendRequestStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`

	FromUser User `gorm:"foreignKey:FromUserID" json:"from_user,omitempty"`
	ToUser   User `gorm:"foreignKey:ToUserID" json:"to_user,omitempty"`
}

// FriendEdge is an accepted, symmetric friendship. The pair is canonicalized
// low-id/high-id so a reverse duplicate violates the unique index instead of
// creating a second edge.
type FriendEdge struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserLowID  uint      `gorm:"not null;uniqueIndex:idx_friend_edge_pair;index" json:"user_low_id"`
	UserHighID uint      `gorm:"not null;uniqueIndex:idx_friend_edge_pair;index" json:"user_high_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// CanonicalPair orders two user ids low/high for edge storage.
func CanonicalPair(a, b uint) (low, high uint) {
	if a < b {
		return a, b
	}
	return b, a
}
