package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gatherly/internal/middleware"
	"gatherly/internal/models"
	"gatherly/internal/repository"
	"gatherly/internal/transport"

	"gorm.io/gorm"
)

// SweepService runs the cron-driven jobs: the availability notification
// aggregation sweep and the weekly SMS planning reminders. Both are designed
// for short-lived external invocations, not an in-process scheduler.
type SweepService struct {
	db         *gorm.DB
	userRepo   repository.UserRepository
	friendRepo repository.FriendRepository
	dispatcher *Dispatcher
	sms        transport.SMSSender
	cooldown   time.Duration
	baseURL    string
	now        func() time.Time
}

// NewSweepService returns a new SweepService.
func NewSweepService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	friendRepo repository.FriendRepository,
	dispatcher *Dispatcher,
	sms transport.SMSSender,
	cooldown time.Duration,
	baseURL string,
) *SweepService {
	return &SweepService{
		db:         db,
		userRepo:   userRepo,
		friendRepo: friendRepo,
		dispatcher: dispatcher,
		sms:        sms,
		cooldown:   cooldown,
		baseURL:    baseURL,
		now:        time.Now,
	}
}

// RunAggregationSweep notifies watchers of every user whose pending mark has
// aged past the cooldown, then clears the mark. Returns how many users were
// fanned out.
//
// Each user is processed in its own transaction so one failure cannot poison
// the whole sweep, and the clear is conditional on the mark timestamp being
// unchanged: if the user saved again while the sweep ran, their cooldown
// restarted and this cycle leaves them pending for the next one.
func (s *SweepService) RunAggregationSweep(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.cooldown)
	candidates, err := s.userRepo.ListPendingMarkedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	processed := 0
	for i := range candidates {
		user := &candidates[i]
		deliveries, cleared, err := s.sweepOne(ctx, user)
		switch {
		case err != nil:
			middleware.SweepUsersProcessed.WithLabelValues("error").Inc()
			middleware.Logger.ErrorContext(ctx, "sweep failed for user",
				"user_id", user.ID, "error", err)
			continue
		case !cleared:
			// A fresher save raced in; skip without counting.
			middleware.SweepUsersProcessed.WithLabelValues("raced").Inc()
			continue
		}

		middleware.SweepUsersProcessed.WithLabelValues("notified").Inc()
		processed++
		for _, del := range deliveries {
			s.dispatcher.Deliver(ctx, del)
		}
	}
	return processed, nil
}

// sweepOne atomically clears one user's pending mark and writes the watcher
// notification rows. cleared reports whether this cycle owned the episode; a
// false return means the clear lost the race with a fresh save. A cleared
// user may still produce zero deliveries when no watcher passes the
// friendship check. Channel delivery happens after commit, so a crash between
// the two loses at most the volatile channels, never the durable rows.
func (s *SweepService) sweepOne(ctx context.Context, user *models.User) ([]Delivery, bool, error) {
	if user.PendingNotificationMarkedAt == nil {
		return nil, false, nil
	}
	markedAt := *user.PendingNotificationMarkedAt

	cleared := false
	var deliveries []Delivery
	err := s.db.Transaction(func(tx *gorm.DB) error {
		userRepo := repository.NewUserRepository(tx)
		friendRepo := repository.NewFriendRepository(tx)
		notifRepo := repository.NewNotificationRepository(tx)

		var err error
		cleared, err = userRepo.ClearPendingIfUnchanged(ctx, user.ID, markedAt)
		if err != nil {
			return err
		}
		if !cleared {
			return nil
		}

		watchers, err := friendRepo.ListWatchers(ctx, user.ID)
		if err != nil {
			return err
		}

		message := fmt.Sprintf("%s added new availability", user.Name)
		for i := range watchers {
			watcher := watchers[i]
			// A watch entry alone is not enough: the friendship must still
			// be intact, or a stale subscription left by an unfriend would
			// keep leaking pings.
			friends, err := friendRepo.AreFriends(ctx, watcher.ID, user.ID)
			if err != nil {
				return err
			}
			if !friends {
				continue
			}

			notification := &models.Notification{
				RecipientID: watcher.ID,
				ActorID:     &user.ID,
				Kind:        models.NotificationGeneral,
				Message:     message,
			}
			if err := notifRepo.Create(ctx, notification); err != nil {
				return err
			}
			deliveries = append(deliveries, Delivery{
				Event:        EventAvailabilityUpdated,
				Recipient:    &watcher,
				Notification: notification,
				PushTitle:    user.Name,
				PushBody:     "Added new availability 📅",
				PushURL:      s.baseURL,
			})
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return deliveries, cleared, nil
}

// RunWeeklyReminders sends the planning reminder SMS to every user who opted
// into reminders for today's weekday. Returns how many messages went out.
func (s *SweepService) RunWeeklyReminders(ctx context.Context) (int, error) {
	today := strings.ToLower(s.now().Weekday().String())
	users, err := s.userRepo.ListWithRemindersOn(ctx, today)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, user := range users {
		if user.PhoneNormalized == "" {
			continue
		}
		first := user.Name
		if idx := strings.IndexByte(first, ' '); idx > 0 {
			first = first[:idx]
		}
		message := fmt.Sprintf("Hi %s! 👋 Time to plan your weekend with friends. Start here: %s", first, s.baseURL)
		if s.sms.Send(ctx, user.PhoneNormalized, message) == transport.SMSError {
			middleware.TransportFailures.WithLabelValues("sms").Inc()
			continue
		}
		sent++
	}
	return sent, nil
}
