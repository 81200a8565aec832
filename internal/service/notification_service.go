package service

import (
	"context"

	"gatherly/internal/models"
	"gatherly/internal/repository"
)

// NotificationService exposes the in-app notification feed.
type NotificationService struct {
	notifRepo repository.NotificationRepository
}

// NewNotificationService returns a new NotificationService.
func NewNotificationService(notifRepo repository.NotificationRepository) *NotificationService {
	return &NotificationService{notifRepo: notifRepo}
}

// List returns the user's most recent notifications.
func (s *NotificationService) List(ctx context.Context, userID uint, limit int) ([]models.Notification, error) {
	return s.notifRepo.ListForUser(ctx, userID, limit)
}

// UnreadCount returns the number of unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.notifRepo.CountUnread(ctx, userID)
}

// MarkAllRead flips every unread notification to read, in one batch. The
// read flag is the only mutable part of a notification and only moves in
// this direction.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.notifRepo.MarkAllRead(ctx, userID)
}
