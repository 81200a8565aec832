package service

import (
	"context"
	"fmt"
	"time"

	"gatherly/internal/models"
	"gatherly/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HangoutService handles hangout creation, RSVPs, edits, cancellation and
// per-hangout chat.
type HangoutService struct {
	db          *gorm.DB
	hangoutRepo repository.HangoutRepository
	friendRepo  repository.FriendRepository
	userRepo    repository.UserRepository
	dispatcher  *Dispatcher
	now         func() time.Time
}

// NewHangoutService returns a new HangoutService.
func NewHangoutService(
	db *gorm.DB,
	hangoutRepo repository.HangoutRepository,
	friendRepo repository.FriendRepository,
	userRepo repository.UserRepository,
	dispatcher *Dispatcher,
) *HangoutService {
	return &HangoutService{
		db:          db,
		hangoutRepo: hangoutRepo,
		friendRepo:  friendRepo,
		userRepo:    userRepo,
		dispatcher:  dispatcher,
		now:         time.Now,
	}
}

// HangoutParams are the caller-editable hangout fields.
type HangoutParams struct {
	Date        string        `json:"date"`
	Period      models.Period `json:"period"`
	Description string        `json:"description"`
	InviteeIDs  []uint        `json:"invitee_ids"`
}

func (p HangoutParams) validate() error {
	if _, err := time.Parse(models.SlotDateLayout, p.Date); err != nil {
		return models.NewValidationError("date must be formatted YYYY-MM-DD")
	}
	if !p.Period.Valid() {
		return models.NewValidationError("period must be morning, afternoon or evening")
	}
	return nil
}

// Create makes a new hangout and invites the given friends. Invitees must be
// friends of the creator; non-friends are rejected, not skipped.
func (s *HangoutService) Create(ctx context.Context, creatorID uint, params HangoutParams) (*models.Hangout, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	creator, err := s.userRepo.GetByID(ctx, creatorID)
	if err != nil {
		return nil, err
	}

	inviteeIDs := dedupeIDs(params.InviteeIDs, creatorID)
	if len(inviteeIDs) == 0 {
		return nil, models.NewValidationError("a hangout needs at least one invitee")
	}
	for _, id := range inviteeIDs {
		friends, err := s.friendRepo.AreFriends(ctx, creatorID, id)
		if err != nil {
			return nil, err
		}
		if !friends {
			return nil, models.NewValidationError("you can only invite friends")
		}
	}

	hangout := &models.Hangout{
		CreatorID:   creatorID,
		Date:        params.Date,
		Period:      params.Period,
		Description: params.Description,
		Status:      models.HangoutActive,
	}
	var deliveries []Delivery
	err = s.db.Transaction(func(tx *gorm.DB) error {
		hangoutRepo := repository.NewHangoutRepository(tx)
		notifRepo := repository.NewNotificationRepository(tx)

		if err := hangoutRepo.Create(ctx, hangout); err != nil {
			return err
		}

		invitees := make([]models.HangoutInvitee, len(inviteeIDs))
		for i, id := range inviteeIDs {
			invitees[i] = models.HangoutInvitee{
				HangoutID: hangout.ID,
				UserID:    id,
				Status:    models.InviteePending,
				Token:     uuid.NewString(),
			}
		}
		if err := hangoutRepo.AddInvitees(ctx, invitees); err != nil {
			return err
		}

		message := fmt.Sprintf("%s invited you to hang out on %s (%s)", creator.Name, hangout.Date, hangout.Period)
		for _, id := range inviteeIDs {
			notification := &models.Notification{
				RecipientID: id,
				ActorID:     &creator.ID,
				HangoutID:   &hangout.ID,
				Kind:        models.NotificationHangoutInvite,
				Message:     message,
			}
			if err := notifRepo.Create(ctx, notification); err != nil {
				return err
			}
			deliveries = append(deliveries, Delivery{
				Event:        EventHangoutInvite,
				Notification: notification,
				PushTitle:    "Hangout invite",
				PushBody:     message,
			})
		}

		confirmation := &models.Notification{
			RecipientID: creatorID,
			HangoutID:   &hangout.ID,
			Kind:        models.NotificationHangoutInvite,
			Message:     fmt.Sprintf("Hangout created for %s (%s)", hangout.Date, hangout.Period),
		}
		return notifRepo.Create(ctx, confirmation)
	})
	if err != nil {
		return nil, err
	}

	s.deliverAll(ctx, deliveries)
	return s.hangoutRepo.GetByID(ctx, hangout.ID)
}

// Respond records an invitee's RSVP and notifies the creator. Re-entrant:
// any response state may be overwritten by a fresh one, and each overwrite
// re-stamps responded_at and re-notifies the creator.
func (s *HangoutService) Respond(ctx context.Context, userID, hangoutID uint, status models.InviteeStatus) (*models.Hangout, error) {
	if !status.ValidResponse() {
		return nil, models.NewValidationError("response must be accepted, declined or maybe")
	}

	hangout, err := s.hangoutRepo.GetByID(ctx, hangoutID)
	if err != nil {
		return nil, err
	}
	if hangout.Status != models.HangoutActive {
		return nil, models.NewValidationError("this hangout has been cancelled")
	}

	invitee, err := s.hangoutRepo.GetInvitee(ctx, hangoutID, userID)
	if err != nil {
		return nil, err
	}
	if invitee == nil {
		return nil, models.NewNotFoundError("HangoutInvitee", userID)
	}

	return s.recordResponse(ctx, hangout, invitee, status)
}

// RespondByToken records an RSVP through an invite link token, for invitees
// responding from SMS or email without logging in.
func (s *HangoutService) RespondByToken(ctx context.Context, token string, status models.InviteeStatus) (*models.Hangout, error) {
	if !status.ValidResponse() {
		return nil, models.NewValidationError("response must be accepted, declined or maybe")
	}
	invitee, err := s.hangoutRepo.GetInviteeByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	hangout, err := s.hangoutRepo.GetByID(ctx, invitee.HangoutID)
	if err != nil {
		return nil, err
	}
	if hangout.Status != models.HangoutActive {
		return nil, models.NewValidationError("this hangout has been cancelled")
	}
	return s.recordResponse(ctx, hangout, invitee, status)
}

func (s *HangoutService) recordResponse(ctx context.Context, hangout *models.Hangout, invitee *models.HangoutInvitee, status models.InviteeStatus) (*models.Hangout, error) {
	responder, err := s.userRepo.GetByID(ctx, invitee.UserID)
	if err != nil {
		return nil, err
	}

	var creatorNote *models.Notification
	err = s.db.Transaction(func(tx *gorm.DB) error {
		hangoutRepo := repository.NewHangoutRepository(tx)
		notifRepo := repository.NewNotificationRepository(tx)

		now := s.now()
		invitee.Status = status
		invitee.RespondedAt = &now
		if err := hangoutRepo.UpdateInvitee(ctx, invitee); err != nil {
			return err
		}

		creatorNote = &models.Notification{
			RecipientID: hangout.CreatorID,
			ActorID:     &responder.ID,
			HangoutID:   &hangout.ID,
			Kind:        models.NotificationHangoutResponse,
			Message:     fmt.Sprintf("%s responded %q to your hangout on %s", responder.Name, status, hangout.Date),
		}
		return notifRepo.Create(ctx, creatorNote)
	})
	if err != nil {
		return nil, err
	}

	// The creator is the only recipient of RSVP traffic, never other invitees.
	if creator, err := s.userRepo.GetByID(ctx, hangout.CreatorID); err == nil {
		s.dispatcher.Deliver(ctx, Delivery{
			Event:        EventHangoutResponse,
			Recipient:    creator,
			Notification: creatorNote,
			PushTitle:    "Hangout response",
			PushBody:     creatorNote.Message,
		})
	}
	return s.hangoutRepo.GetByID(ctx, hangout.ID)
}

// Update edits an active hangout. Creator-only. Invitee-set changes diff the
// old and new id sets and notify added and removed users distinctly; a
// date or period change additionally notifies the invitees who were already
// on the list, not the freshly added ones.
func (s *HangoutService) Update(ctx context.Context, userID, hangoutID uint, params HangoutParams) (*models.Hangout, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	hangout, err := s.hangoutRepo.GetByID(ctx, hangoutID)
	if err != nil {
		return nil, err
	}
	if hangout.CreatorID != userID {
		return nil, models.NewUnauthorizedError("Only the creator can edit a hangout")
	}
	if hangout.Status != models.HangoutActive {
		return nil, models.NewValidationError("a cancelled hangout cannot be edited")
	}

	creator, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	newIDs := dedupeIDs(params.InviteeIDs, userID)
	for _, id := range newIDs {
		friends, err := s.friendRepo.AreFriends(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		if !friends {
			return nil, models.NewValidationError("you can only invite friends")
		}
	}

	oldIDs := make(map[uint]struct{}, len(hangout.Invitees))
	for _, inv := range hangout.Invitees {
		oldIDs[inv.UserID] = struct{}{}
	}
	newSet := make(map[uint]struct{}, len(newIDs))
	var added []uint
	for _, id := range newIDs {
		newSet[id] = struct{}{}
		if _, ok := oldIDs[id]; !ok {
			added = append(added, id)
		}
	}
	var removed, kept []uint
	for id := range oldIDs {
		if _, ok := newSet[id]; ok {
			kept = append(kept, id)
		} else {
			removed = append(removed, id)
		}
	}
	scheduleChanged := hangout.Date != params.Date || hangout.Period != params.Period

	var deliveries []Delivery
	err = s.db.Transaction(func(tx *gorm.DB) error {
		hangoutRepo := repository.NewHangoutRepository(tx)
		notifRepo := repository.NewNotificationRepository(tx)

		hangout.Date = params.Date
		hangout.Period = params.Period
		hangout.Description = params.Description
		if err := hangoutRepo.Update(ctx, hangout); err != nil {
			return err
		}

		if len(added) > 0 {
			invitees := make([]models.HangoutInvitee, len(added))
			for i, id := range added {
				invitees[i] = models.HangoutInvitee{
					HangoutID: hangout.ID,
					UserID:    id,
					Status:    models.InviteePending,
					Token:     uuid.NewString(),
				}
			}
			if err := hangoutRepo.AddInvitees(ctx, invitees); err != nil {
				return err
			}
		}
		if err := hangoutRepo.RemoveInvitees(ctx, hangout.ID, removed); err != nil {
			return err
		}

		queue := func(recipientID uint, event Event, kind models.NotificationKind, message string) error {
			notification := &models.Notification{
				RecipientID: recipientID,
				ActorID:     &creator.ID,
				HangoutID:   &hangout.ID,
				Kind:        kind,
				Message:     message,
			}
			if err := notifRepo.Create(ctx, notification); err != nil {
				return err
			}
			deliveries = append(deliveries, Delivery{
				Event:        event,
				Notification: notification,
				PushTitle:    "Hangout update",
				PushBody:     message,
			})
			return nil
		}

		inviteMsg := fmt.Sprintf("%s invited you to hang out on %s (%s)", creator.Name, hangout.Date, hangout.Period)
		for _, id := range added {
			if err := queue(id, EventHangoutInvite, models.NotificationHangoutInvite, inviteMsg); err != nil {
				return err
			}
		}
		removedMsg := fmt.Sprintf("%s removed you from the hangout on %s", creator.Name, hangout.Date)
		for _, id := range removed {
			if err := queue(id, EventHangoutUpdate, models.NotificationHangoutUpdate, removedMsg); err != nil {
				return err
			}
		}
		if scheduleChanged {
			updatedMsg := fmt.Sprintf("%s moved the hangout to %s (%s)", creator.Name, hangout.Date, hangout.Period)
			for _, id := range kept {
				if err := queue(id, EventHangoutUpdate, models.NotificationHangoutUpdate, updatedMsg); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deliverAll(ctx, deliveries)
	return s.hangoutRepo.GetByID(ctx, hangout.ID)
}

// Cancel moves an active hangout to cancelled, a terminal state, and
// notifies every invitee.
func (s *HangoutService) Cancel(ctx context.Context, userID, hangoutID uint) (*models.Hangout, error) {
	hangout, err := s.hangoutRepo.GetByID(ctx, hangoutID)
	if err != nil {
		return nil, err
	}
	if hangout.CreatorID != userID {
		return nil, models.NewUnauthorizedError("Only the creator can cancel a hangout")
	}
	if hangout.Status != models.HangoutActive {
		return nil, models.NewValidationError("hangout is already cancelled")
	}

	creator, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var deliveries []Delivery
	err = s.db.Transaction(func(tx *gorm.DB) error {
		hangoutRepo := repository.NewHangoutRepository(tx)
		notifRepo := repository.NewNotificationRepository(tx)

		if err := hangoutRepo.UpdateStatus(ctx, hangout.ID, models.HangoutCancelled); err != nil {
			return err
		}

		message := fmt.Sprintf("%s cancelled the hangout on %s", creator.Name, hangout.Date)
		notifications := make([]models.Notification, 0, len(hangout.Invitees))
		for _, inv := range hangout.Invitees {
			notifications = append(notifications, models.Notification{
				RecipientID: inv.UserID,
				ActorID:     &creator.ID,
				HangoutID:   &hangout.ID,
				Kind:        models.NotificationHangoutUpdate,
				Message:     message,
			})
		}
		if err := notifRepo.CreateBatch(ctx, notifications); err != nil {
			return err
		}
		for i := range notifications {
			deliveries = append(deliveries, Delivery{
				Event:        EventHangoutCancel,
				Notification: &notifications[i],
				PushTitle:    "Hangout cancelled",
				PushBody:     message,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deliverAll(ctx, deliveries)
	return s.hangoutRepo.GetByID(ctx, hangout.ID)
}

// Get returns one hangout, visible to its participants only.
func (s *HangoutService) Get(ctx context.Context, userID, hangoutID uint) (*models.Hangout, error) {
	hangout, err := s.hangoutRepo.GetByID(ctx, hangoutID)
	if err != nil {
		return nil, err
	}
	if !isParticipant(hangout, userID) {
		return nil, models.NewUnauthorizedError("You are not part of this hangout")
	}
	return hangout, nil
}

// List returns hangouts the user created or was invited to.
func (s *HangoutService) List(ctx context.Context, userID uint) ([]models.Hangout, error) {
	return s.hangoutRepo.ListForUser(ctx, userID)
}

// PostMessage appends a chat message and notifies every other participant.
// Chat stays open after cancellation so plans can be rearranged in place.
func (s *HangoutService) PostMessage(ctx context.Context, userID, hangoutID uint, body string) (*models.HangoutMessage, error) {
	if body == "" {
		return nil, models.NewValidationError("message body is required")
	}
	hangout, err := s.hangoutRepo.GetByID(ctx, hangoutID)
	if err != nil {
		return nil, err
	}
	if !isParticipant(hangout, userID) {
		return nil, models.NewUnauthorizedError("You are not part of this hangout")
	}

	sender, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	message := &models.HangoutMessage{
		HangoutID: hangoutID,
		SenderID:  userID,
		Body:      body,
	}
	var deliveries []Delivery
	err = s.db.Transaction(func(tx *gorm.DB) error {
		hangoutRepo := repository.NewHangoutRepository(tx)
		notifRepo := repository.NewNotificationRepository(tx)

		if err := hangoutRepo.CreateMessage(ctx, message); err != nil {
			return err
		}

		text := fmt.Sprintf("%s: %s", sender.Name, body)
		for _, participantID := range hangout.ParticipantIDs() {
			if participantID == userID {
				continue
			}
			notification := &models.Notification{
				RecipientID: participantID,
				ActorID:     &sender.ID,
				HangoutID:   &hangout.ID,
				Kind:        models.NotificationHangoutUpdate,
				Message:     text,
			}
			if err := notifRepo.Create(ctx, notification); err != nil {
				return err
			}
			deliveries = append(deliveries, Delivery{
				Event:        EventHangoutChat,
				Notification: notification,
				PushTitle:    sender.Name,
				PushBody:     body,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deliverAll(ctx, deliveries)
	return message, nil
}

// GetMessages returns the hangout's chat history, newest first.
func (s *HangoutService) GetMessages(ctx context.Context, userID, hangoutID uint, limit int) ([]models.HangoutMessage, error) {
	hangout, err := s.hangoutRepo.GetByID(ctx, hangoutID)
	if err != nil {
		return nil, err
	}
	if !isParticipant(hangout, userID) {
		return nil, models.NewUnauthorizedError("You are not part of this hangout")
	}
	return s.hangoutRepo.ListMessages(ctx, hangoutID, limit)
}

// deliverAll resolves each delivery's recipient and fans out. Recipient
// lookup happens post-commit because deliveries are queued inside the
// transaction, where only ids are known.
func (s *HangoutService) deliverAll(ctx context.Context, deliveries []Delivery) {
	for _, del := range deliveries {
		recipient, err := s.userRepo.GetByID(ctx, del.Notification.RecipientID)
		if err != nil {
			continue
		}
		del.Recipient = recipient
		s.dispatcher.Deliver(ctx, del)
	}
}

func isParticipant(hangout *models.Hangout, userID uint) bool {
	for _, id := range hangout.ParticipantIDs() {
		if id == userID {
			return true
		}
	}
	return false
}

func dedupeIDs(ids []uint, exclude uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == exclude {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
