package service

import (
	"context"
	"fmt"
	"time"

	"gatherly/internal/models"
	"gatherly/internal/repository"

	"gorm.io/gorm"
)

// FriendAvailability is one friend's currently visible slots.
type FriendAvailability struct {
	Friend models.User   `json:"friend"`
	Slots  []models.Slot `json:"slots"`
}

// AvailabilityService handles availability saves, the new-slot delta that
// feeds the notification pipeline, and friend visibility.
type AvailabilityService struct {
	db         *gorm.DB
	userRepo   repository.UserRepository
	availRepo  repository.AvailabilityRepository
	friendRepo repository.FriendRepository
	notifRepo  repository.NotificationRepository
	dispatcher *Dispatcher
	now        func() time.Time
}

// NewAvailabilityService returns a new AvailabilityService.
func NewAvailabilityService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	availRepo repository.AvailabilityRepository,
	friendRepo repository.FriendRepository,
	notifRepo repository.NotificationRepository,
	dispatcher *Dispatcher,
) *AvailabilityService {
	return &AvailabilityService{
		db:         db,
		userRepo:   userRepo,
		availRepo:  availRepo,
		friendRepo: friendRepo,
		notifRepo:  notifRepo,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// SaveResult reports what a save changed.
type SaveResult struct {
	Snapshot *models.AvailabilitySnapshot `json:"snapshot"`
	HasNew   bool                         `json:"has_new"`
	Added    []models.Slot                `json:"added"`
}

// Save persists the submitted slots as the user's current snapshot for the
// week and detects newly added slots against the most recent previous save,
// whichever week that save targeted. Comparing against the literal previous
// save avoids false "new" pings from plain week rollover. Removing slots
// persists but never queues a notification.
func (s *AvailabilityService) Save(ctx context.Context, userID uint, weekStart string, slots []models.Slot) (*SaveResult, error) {
	if weekStart == "" {
		weekStart = models.WeekStartOf(s.now())
	} else if _, err := time.Parse(models.SlotDateLayout, weekStart); err != nil {
		return nil, models.NewValidationError("week_start must be formatted YYYY-MM-DD")
	}

	seen := make(map[string]struct{}, len(slots))
	deduped := make([]models.Slot, 0, len(slots))
	for _, slot := range slots {
		if err := slot.Validate(); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		if _, dup := seen[slot.Key()]; dup {
			continue
		}
		seen[slot.Key()] = struct{}{}
		deduped = append(deduped, slot)
	}

	result := &SaveResult{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		availRepo := repository.NewAvailabilityRepository(tx)
		userRepo := repository.NewUserRepository(tx)

		previous, err := availRepo.GetLatest(ctx, userID)
		if err != nil {
			return err
		}

		var existing map[string]struct{}
		if previous != nil {
			existing = previous.SlotKeys()
		}
		for _, slot := range deduped {
			if _, ok := existing[slot.Key()]; !ok {
				result.Added = append(result.Added, slot)
			}
		}
		result.HasNew = len(result.Added) > 0

		snapshot := &models.AvailabilitySnapshot{
			UserID:    userID,
			WeekStart: weekStart,
			Slots:     deduped,
		}
		if err := availRepo.Upsert(ctx, snapshot); err != nil {
			return err
		}
		result.Snapshot = snapshot

		now := s.now()
		if result.HasNew {
			// Overwrites any prior pending mark: the cooldown clock always
			// measures from the latest qualifying save.
			return userRepo.MarkPendingNotification(ctx, userID, now)
		}
		return userRepo.TouchAvailabilitySaved(ctx, userID, now)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetWeek returns the user's own snapshot for the given week, or an empty
// one if nothing is saved yet.
func (s *AvailabilityService) GetWeek(ctx context.Context, userID uint, weekStart string) (*models.AvailabilitySnapshot, error) {
	if weekStart == "" {
		weekStart = models.WeekStartOf(s.now())
	}
	snapshot, err := s.availRepo.GetByUserWeek(ctx, userID, weekStart)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		snapshot = &models.AvailabilitySnapshot{UserID: userID, WeekStart: weekStart, Slots: []models.Slot{}}
	}
	return snapshot, nil
}

// GetFriendAvailability returns currently visible slots for each active
// friend. Sharing is reciprocal: a viewer whose own availability has gone
// stale cannot see anyone else's.
func (s *AvailabilityService) GetFriendAvailability(ctx context.Context, viewerID uint) ([]FriendAvailability, error) {
	viewer, err := s.userRepo.GetByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !IsActive(viewer.LastAvailabilitySavedAt, now) {
		return nil, models.NewValidationError("Share your availability to see your friends' plans")
	}

	friends, err := s.friendRepo.ListFriends(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	cutoff := yesterdayOf(now)
	visible := make([]FriendAvailability, 0, len(friends))
	for _, friend := range friends {
		if !IsActive(friend.LastAvailabilitySavedAt, now) {
			continue
		}
		snapshot, err := s.availRepo.GetLatest(ctx, friend.ID)
		if err != nil {
			return nil, err
		}
		if snapshot == nil {
			continue
		}
		fresh := snapshot.FreshSlots(cutoff)
		if len(fresh) == 0 {
			continue
		}
		visible = append(visible, FriendAvailability{Friend: friend, Slots: fresh})
	}
	return visible, nil
}

// Nudge asks a friend to share their availability. Rejected when the target
// is not a friend or already has unexpired availability saved; a redundant
// nudge is an error, not a silent no-op.
func (s *AvailabilityService) Nudge(ctx context.Context, senderID, targetID uint) error {
	if senderID == targetID {
		return models.NewValidationError("Cannot nudge yourself")
	}

	sender, err := s.userRepo.GetByID(ctx, senderID)
	if err != nil {
		return err
	}
	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return err
	}

	friends, err := s.friendRepo.AreFriends(ctx, senderID, targetID)
	if err != nil {
		return err
	}
	if !friends {
		return models.NewValidationError("You can only nudge friends")
	}

	latest, err := s.availRepo.GetLatest(ctx, targetID)
	if err != nil {
		return err
	}
	if latest != nil && len(latest.FreshSlots(yesterdayOf(s.now()))) > 0 {
		return models.NewValidationError(fmt.Sprintf("%s already has availability saved", target.Name))
	}

	notification := &models.Notification{
		RecipientID: targetID,
		ActorID:     &sender.ID,
		Kind:        models.NotificationGeneral,
		Message:     fmt.Sprintf("%s nudged you to share your availability", sender.Name),
	}
	if err := s.notifRepo.Create(ctx, notification); err != nil {
		return err
	}

	s.dispatcher.Deliver(ctx, Delivery{
		Event:        EventNudge,
		Recipient:    target,
		Notification: notification,
		PushTitle:    sender.Name,
		PushBody:     notification.Message,
	})
	return nil
}
