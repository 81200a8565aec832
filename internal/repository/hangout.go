package repository

import (
	"context"
	"errors"

	"gatherly/internal/models"

	"gorm.io/gorm"
)

// HangoutRepository defines the interface for hangout data operations
type HangoutRepository interface {
	Create(ctx context.Context, hangout *models.Hangout) error
	GetByID(ctx context.Context, id uint) (*models.Hangout, error)
	ListForUser(ctx context.Context, userID uint) ([]models.Hangout, error)
	Update(ctx context.Context, hangout *models.Hangout) error
	UpdateStatus(ctx context.Context, hangoutID uint, status models.HangoutStatus) error

	GetInvitee(ctx context.Context, hangoutID, userID uint) (*models.HangoutInvitee, error)
	GetInviteeByToken(ctx context.Context, token string) (*models.HangoutInvitee, error)
	AddInvitees(ctx context.Context, invitees []models.HangoutInvitee) error
	RemoveInvitees(ctx context.Context, hangoutID uint, userIDs []uint) error
	UpdateInvitee(ctx context.Context, invitee *models.HangoutInvitee) error

	CreateMessage(ctx context.Context, message *models.HangoutMessage) error
	ListMessages(ctx context.Context, hangoutID uint, limit int) ([]models.HangoutMessage, error)
}

// hangoutRepository implements HangoutRepository
type hangoutRepository struct {
	db *gorm.DB
}

// NewHangoutRepository creates a new hangout repository
func NewHangoutRepository(db *gorm.DB) HangoutRepository {
	return &hangoutRepository{db: db}
}

func (r *hangoutRepository) Create(ctx context.Context, hangout *models.Hangout) error {
	if err := r.db.WithContext(ctx).Create(hangout).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *hangoutRepository) GetByID(ctx context.Context, id uint) (*models.Hangout, error) {
	var hangout models.Hangout
	if err := r.db.WithContext(ctx).
		Preload("Creator").
		Preload("Invitees").
		Preload("Invitees.User").
		First(&hangout, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Hangout", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &hangout, nil
}

// ListForUser returns hangouts the user created or is invited to, newest
// first. Cancelled hangouts drop out of the listing; they stay reachable by
// ID for anyone holding a direct link.
func (r *hangoutRepository) ListForUser(ctx context.Context, userID uint) ([]models.Hangout, error) {
	var hangouts []models.Hangout
	if err := r.db.WithContext(ctx).
		Distinct("hangouts.*").
		Joins("LEFT JOIN hangout_invitees i ON i.hangout_id = hangouts.id").
		Where("hangouts.creator_id = ? OR i.user_id = ?", userID, userID).
		Where("hangouts.status <> ?", models.HangoutCancelled).
		Preload("Creator").
		Preload("Invitees").
		Preload("Invitees.User").
		Order("hangouts.date DESC, hangouts.id DESC").
		Find(&hangouts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return hangouts, nil
}

func (r *hangoutRepository) Update(ctx context.Context, hangout *models.Hangout) error {
	if err := r.db.WithContext(ctx).
		Model(&models.Hangout{}).
		Where("id = ?", hangout.ID).
		Updates(map[string]interface{}{
			"date":        hangout.Date,
			"period":      hangout.Period,
			"description": hangout.Description,
		}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *hangoutRepository) UpdateStatus(ctx context.Context, hangoutID uint, status models.HangoutStatus) error {
	if err := r.db.WithContext(ctx).
		Model(&models.Hangout{}).
		Where("id = ?", hangoutID).
		Update("status", status).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *hangoutRepository) GetInvitee(ctx context.Context, hangoutID, userID uint) (*models.HangoutInvitee, error) {
	var invitee models.HangoutInvitee
	if err := r.db.WithContext(ctx).
		Where("hangout_id = ? AND user_id = ?", hangoutID, userID).
		First(&invitee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &invitee, nil
}

func (r *hangoutRepository) GetInviteeByToken(ctx context.Context, token string) (*models.HangoutInvitee, error) {
	var invitee models.HangoutInvitee
	if err := r.db.WithContext(ctx).
		Where("token = ?", token).
		First(&invitee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("HangoutInvitee", token)
		}
		return nil, models.NewInternalError(err)
	}
	return &invitee, nil
}

func (r *hangoutRepository) AddInvitees(ctx context.Context, invitees []models.HangoutInvitee) error {
	if len(invitees) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&invitees).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *hangoutRepository) RemoveInvitees(ctx context.Context, hangoutID uint, userIDs []uint) error {
	if len(userIDs) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).
		Where("hangout_id = ? AND user_id IN ?", hangoutID, userIDs).
		Delete(&models.HangoutInvitee{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *hangoutRepository) UpdateInvitee(ctx context.Context, invitee *models.HangoutInvitee) error {
	if err := r.db.WithContext(ctx).
		Model(&models.HangoutInvitee{}).
		Where("id = ?", invitee.ID).
		Updates(map[string]interface{}{
			"status":       invitee.Status,
			"responded_at": invitee.RespondedAt,
		}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *hangoutRepository) CreateMessage(ctx context.Context, message *models.HangoutMessage) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *hangoutRepository) ListMessages(ctx context.Context, hangoutID uint, limit int) ([]models.HangoutMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	var messages []models.HangoutMessage
	if err := r.db.WithContext(ctx).
		Where("hangout_id = ?", hangoutID).
		Preload("Sender").
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}
