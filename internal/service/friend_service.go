package service

import (
	"context"
	"fmt"

	"gatherly/internal/models"
	"gatherly/internal/repository"

	"gorm.io/gorm"
)

// FriendService provides friend-request, friendship and watch-list business logic.
type FriendService struct {
	db         *gorm.DB
	friendRepo repository.FriendRepository
	userRepo   repository.UserRepository
	dispatcher *Dispatcher
}

// NewFriendService returns a new FriendService.
func NewFriendService(
	db *gorm.DB,
	friendRepo repository.FriendRepository,
	userRepo repository.UserRepository,
	dispatcher *Dispatcher,
) *FriendService {
	return &FriendService{
		db:         db,
		friendRepo: friendRepo,
		userRepo:   userRepo,
		dispatcher: dispatcher,
	}
}

// SendFriendRequest sends a friend request to the target user. The addressee
// gets a push-capable notification; the sender gets a confirmation row only.
func (s *FriendService) SendFriendRequest(ctx context.Context, userID, targetUserID uint) (*models.FriendRequest, error) {
	if userID == targetUserID {
		return nil, models.NewValidationError("Cannot send friend request to yourself")
	}

	sender, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	target, err := s.userRepo.GetByID(ctx, targetUserID)
	if err != nil {
		return nil, err
	}

	friends, err := s.friendRepo.AreFriends(ctx, userID, targetUserID)
	if err != nil {
		return nil, err
	}
	if friends {
		return nil, models.NewValidationError("You are already friends")
	}

	existing, err := s.friendRepo.GetRequestBetween(ctx, userID, targetUserID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == models.FriendRequestPending {
		if existing.FromUserID == userID {
			return nil, models.NewValidationError("Friend request already sent")
		}
		return nil, models.NewValidationError("You already have a pending friend request from this user")
	}

	request := &models.FriendRequest{
		FromUserID: userID,
		ToUserID:   targetUserID,
		Status:     models.FriendRequestPending,
	}
	var recipientNote *models.Notification
	err = s.db.Transaction(func(tx *gorm.DB) error {
		friendRepo := repository.NewFriendRepository(tx)
		notifRepo := repository.NewNotificationRepository(tx)

		if err := friendRepo.CreateRequest(ctx, request); err != nil {
			return err
		}
		recipientNote = &models.Notification{
			RecipientID: targetUserID,
			ActorID:     &sender.ID,
			Kind:        models.NotificationFriendRequest,
			Message:     fmt.Sprintf("%s sent you a friend request", sender.Name),
		}
		if err := notifRepo.Create(ctx, recipientNote); err != nil {
			return err
		}
		confirmation := &models.Notification{
			RecipientID: userID,
			ActorID:     &target.ID,
			Kind:        models.NotificationFriendRequest,
			Message:     fmt.Sprintf("Friend request sent to %s", target.Name),
		}
		return notifRepo.Create(ctx, confirmation)
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Deliver(ctx, Delivery{
		Event:        EventFriendRequest,
		Recipient:    target,
		Notification: recipientNote,
		PushTitle:    "New friend request",
		PushBody:     recipientNote.Message,
	})
	return s.friendRepo.GetRequestByID(ctx, request.ID)
}

// AcceptFriendRequest accepts a pending request: the edge is created, both
// users auto-subscribe to each other's availability, and the requester is
// notified. All durable effects commit atomically.
func (s *FriendService) AcceptFriendRequest(ctx context.Context, userID, requestID uint) (*models.FriendRequest, error) {
	request, err := s.friendRepo.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.ToUserID != userID {
		return nil, models.NewUnauthorizedError("You can only accept friend requests sent to you")
	}
	if request.Status != models.FriendRequestPending {
		return nil, models.NewValidationError("Friend request is not pending")
	}

	accepter, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var requesterNote *models.Notification
	err = s.db.Transaction(func(tx *gorm.DB) error {
		friendRepo := repository.NewFriendRepository(tx)
		notifRepo := repository.NewNotificationRepository(tx)

		if err := friendRepo.UpdateRequestStatus(ctx, requestID, models.FriendRequestAccepted); err != nil {
			return err
		}
		if err := friendRepo.CreateEdge(ctx, request.FromUserID, request.ToUserID); err != nil {
			return err
		}
		// Auto-subscribe both directions so new friends see each other's
		// availability pings without extra setup.
		if err := friendRepo.Subscribe(ctx, request.FromUserID, request.ToUserID); err != nil {
			return err
		}
		if err := friendRepo.Subscribe(ctx, request.ToUserID, request.FromUserID); err != nil {
			return err
		}

		requesterNote = &models.Notification{
			RecipientID: request.FromUserID,
			ActorID:     &accepter.ID,
			Kind:        models.NotificationFriendRequest,
			Message:     fmt.Sprintf("%s accepted your friend request", accepter.Name),
		}
		return notifRepo.Create(ctx, requesterNote)
	})
	if err != nil {
		return nil, err
	}

	requester, err := s.userRepo.GetByID(ctx, request.FromUserID)
	if err == nil {
		s.dispatcher.Deliver(ctx, Delivery{
			Event:        EventFriendAccept,
			Recipient:    requester,
			Notification: requesterNote,
			PushTitle:    "Friend request accepted",
			PushBody:     requesterNote.Message,
		})
	}
	return s.friendRepo.GetRequestByID(ctx, requestID)
}

// RejectFriendRequest rejects a pending request. Terminal; no notification.
func (s *FriendService) RejectFriendRequest(ctx context.Context, userID, requestID uint) (*models.FriendRequest, error) {
	request, err := s.friendRepo.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.ToUserID != userID {
		return nil, models.NewUnauthorizedError("You can only reject friend requests sent to you")
	}
	if request.Status != models.FriendRequestPending {
		return nil, models.NewValidationError("Friend request is not pending")
	}
	if err := s.friendRepo.UpdateRequestStatus(ctx, requestID, models.FriendRequestRejected); err != nil {
		return nil, err
	}
	return s.friendRepo.GetRequestByID(ctx, requestID)
}

// GetPendingRequests returns pending friend requests addressed to the user.
func (s *FriendService) GetPendingRequests(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	return s.friendRepo.ListIncomingRequests(ctx, userID)
}

// GetSentRequests returns pending friend requests sent by the user.
func (s *FriendService) GetSentRequests(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	return s.friendRepo.ListOutgoingRequests(ctx, userID)
}

// GetFriends returns the list of friends for the user.
func (s *FriendService) GetFriends(ctx context.Context, userID uint) ([]models.User, error) {
	return s.friendRepo.ListFriends(ctx, userID)
}

// RemoveFriend deletes the friendship edge and both watch subscriptions.
func (s *FriendService) RemoveFriend(ctx context.Context, userID, targetUserID uint) error {
	friends, err := s.friendRepo.AreFriends(ctx, userID, targetUserID)
	if err != nil {
		return err
	}
	if !friends {
		return models.NewNotFoundError("Friendship", targetUserID)
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		friendRepo := repository.NewFriendRepository(tx)
		if err := friendRepo.DeleteEdge(ctx, userID, targetUserID); err != nil {
			return err
		}
		return friendRepo.DeleteSubscriptionsBetween(ctx, userID, targetUserID)
	})
}

// Watch adds a friend to the caller's watch list. Watching requires an
// intact friendship.
func (s *FriendService) Watch(ctx context.Context, watcherID, friendID uint) error {
	if watcherID == friendID {
		return models.NewValidationError("Cannot watch yourself")
	}
	friends, err := s.friendRepo.AreFriends(ctx, watcherID, friendID)
	if err != nil {
		return err
	}
	if !friends {
		return models.NewValidationError("You can only watch friends")
	}
	return s.friendRepo.Subscribe(ctx, watcherID, friendID)
}

// Unwatch removes a friend from the caller's watch list.
func (s *FriendService) Unwatch(ctx context.Context, watcherID, friendID uint) error {
	return s.friendRepo.Unsubscribe(ctx, watcherID, friendID)
}

// GetWatchedIDs returns the ids on the caller's watch list.
func (s *FriendService) GetWatchedIDs(ctx context.Context, watcherID uint) ([]uint, error) {
	return s.friendRepo.ListWatchedIDs(ctx, watcherID)
}

// AutoConnect links a freshly signed-up user with existing users who hold
// each other's phone numbers. The match must be mutual: each side has the
// other in their contacts. Mutual matches become friends immediately, watch
// subscriptions included, skipping the request round-trip.
func (s *FriendService) AutoConnect(ctx context.Context, newUser *models.User) (int, error) {
	if newUser.PhoneNormalized == "" {
		return 0, nil
	}

	ownerIDs, err := s.userRepo.ListContactOwnersByPhone(ctx, newUser.PhoneNormalized)
	if err != nil {
		return 0, err
	}
	if len(ownerIDs) == 0 {
		return 0, nil
	}

	ownContacts, err := s.userRepo.ListContacts(ctx, newUser.ID)
	if err != nil {
		return 0, err
	}
	ownPhones := make(map[string]struct{}, len(ownContacts))
	for _, c := range ownContacts {
		ownPhones[c.PhoneNormalized] = struct{}{}
	}

	connected := 0
	for _, ownerID := range ownerIDs {
		if ownerID == newUser.ID {
			continue
		}
		owner, err := s.userRepo.GetByID(ctx, ownerID)
		if err != nil {
			continue
		}
		if _, mutual := ownPhones[owner.PhoneNormalized]; !mutual {
			continue
		}

		err = s.db.Transaction(func(tx *gorm.DB) error {
			friendRepo := repository.NewFriendRepository(tx)
			if err := friendRepo.CreateEdge(ctx, newUser.ID, owner.ID); err != nil {
				return err
			}
			if err := friendRepo.Subscribe(ctx, newUser.ID, owner.ID); err != nil {
				return err
			}
			return friendRepo.Subscribe(ctx, owner.ID, newUser.ID)
		})
		if err != nil {
			return connected, err
		}
		connected++
	}
	return connected, nil
}
