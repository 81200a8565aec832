package models

import "time"

// HangoutStatus is the lifecycle state of a hangout.
type HangoutStatus string

const (
	// HangoutActive is the initial state.
	HangoutActive HangoutStatus = "active"
	// HangoutCancelled is terminal.
	HangoutCancelled HangoutStatus = "cancelled"
)

// InviteeStatus is an invitee's RSVP state. Any response state can be
// overwritten by a fresh response; there is no terminal lock.
type InviteeStatus string

const (
	// InviteePending means no response yet.
	InviteePending InviteeStatus = "pending"
	// InviteeAccepted means the invitee is in.
	InviteeAccepted InviteeStatus = "accepted"
	// InviteeDeclined means the invitee is out.
	InviteeDeclined InviteeStatus = "declined"
	// InviteeMaybe means the invitee is unsure.
	InviteeMaybe InviteeStatus = "maybe"
)

// ValidResponse reports whether s is a state an invitee may respond with.
func (s InviteeStatus) ValidResponse() bool {
	switch s {
	case InviteeAccepted, InviteeDeclined, InviteeMaybe:
		return true
	}
	return false
}

// Hangout is a concrete proposed meetup, distinct from weekly availability.
type Hangout struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	CreatorID   uint          `gorm:"not null;index" json:"creator_id"`
	Date        string        `gorm:"size:10;not null" json:"date"`
	Period      Period        `gorm:"type:varchar(20);not null" json:"period"`
	Description string        `gorm:"size:500" json:"description"`
	Status      HangoutStatus `gorm:"type:varchar(20);default:'active';index" json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	Creator  User             `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Invitees []HangoutInvitee `gorm:"foreignKey:HangoutID;constraint:OnDelete:CASCADE" json:"invitees,omitempty"`
}

// ParticipantIDs returns the creator plus all invitee user ids.
func (h *Hangout) ParticipantIDs() []uint {
	ids := make([]uint, 0, len(h.Invitees)+1)
	ids = append(ids, h.CreatorID)
	for _, inv := range h.Invitees {
		ids = append(ids, inv.UserID)
	}
	return ids
}

// HangoutInvitee is one user's RSVP record for a hangout.
type HangoutInvitee struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	HangoutID   uint          `gorm:"not null;uniqueIndex:idx_hangout_invitee" json:"hangout_id"`
	UserID      uint          `gorm:"not null;uniqueIndex:idx_hangout_invitee;index" json:"user_id"`
	Status      InviteeStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	Token       string        `gorm:"size:64;uniqueIndex" json:"-"`
	RespondedAt *time.Time    `json:"responded_at,omitempty"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// HangoutMessage is a chat message within a hangout's conversation.
type HangoutMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	HangoutID uint      `gorm:"not null;index" json:"hangout_id"`
	SenderID  uint      `gorm:"not null" json:"sender_id"`
	Body      string    `gorm:"size:2000;not null" json:"body"`
	CreatedAt time.Time `json:"created_at"`

	Sender User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}
