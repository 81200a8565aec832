// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"time"

	"gatherly/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByNormalizedPhone(ctx context.Context, phone string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	TouchAvailabilitySaved(ctx context.Context, userID uint, at time.Time) error
	MarkPendingNotification(ctx context.Context, userID uint, at time.Time) error
	ListPendingMarkedBefore(ctx context.Context, cutoff time.Time) ([]models.User, error)
	ClearPendingIfUnchanged(ctx context.Context, userID uint, markedAt time.Time) (bool, error)
	ListWithRemindersOn(ctx context.Context, day string) ([]models.User, error)

	AddContact(ctx context.Context, contact *models.Contact) error
	ListContactOwnersByPhone(ctx context.Context, phoneNormalized string) ([]uint, error)
	ListContacts(ctx context.Context, ownerID uint) ([]models.Contact, error)
	DeleteContact(ctx context.Context, ownerID, contactID uint) error
}

// userRepository implements UserRepository
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.NewConflictError("account with that email or phone already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", email)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetByNormalizedPhone looks a user up by the canonical phone form. There is
// no fallback scan over raw phone columns; callers must normalize first.
func (r *userRepository) GetByNormalizedPhone(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("phone_normalized = ?", phone).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", phone)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// TouchAvailabilitySaved records an availability save without queueing a
// notification, used when a save removed slots but added none.
func (r *userRepository) TouchAvailabilitySaved(ctx context.Context, userID uint, at time.Time) error {
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_availability_saved_at", at).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// MarkPendingNotification flags the user for the aggregation sweep and stamps
// the mark time. Re-marking an already pending user overwrites the stamp, so
// the cooldown clock always measures from the latest qualifying save.
func (r *userRepository) MarkPendingNotification(ctx context.Context, userID uint, at time.Time) error {
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"pending_notification":           true,
			"pending_notification_marked_at": at,
			"last_availability_saved_at":     at,
		}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) ListPendingMarkedBefore(ctx context.Context, cutoff time.Time) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Where("pending_notification = ? AND pending_notification_marked_at <= ?", true, cutoff).
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// ClearPendingIfUnchanged clears the pending flag only if the mark timestamp
// still equals the value the sweep read. A false return means the user saved
// again after the sweep selected them, so their cooldown restarted and this
// cycle must leave them alone.
func (r *userRepository) ClearPendingIfUnchanged(ctx context.Context, userID uint, markedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND pending_notification = ? AND pending_notification_marked_at = ?", userID, true, markedAt).
		Updates(map[string]interface{}{
			"pending_notification":           false,
			"pending_notification_marked_at": nil,
		})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListWithRemindersOn returns users who opted into SMS reminders for the
// given weekday name. ReminderDays is a JSON array column, so the match is a
// substring test on the serialized form.
func (r *userRepository) ListWithRemindersOn(ctx context.Context, day string) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Where("reminders_enabled = ? AND reminder_days LIKE ?", true, "%\""+day+"\"%").
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) AddContact(ctx context.Context, contact *models.Contact) error {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_id"}, {Name: "phone_normalized"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "phone"}),
		}).
		Create(contact).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ListContactOwnersByPhone returns the ids of users whose address book holds
// the given normalized phone, used by auto-connect at signup.
func (r *userRepository) ListContactOwnersByPhone(ctx context.Context, phoneNormalized string) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Contact{}).
		Where("phone_normalized = ?", phoneNormalized).
		Pluck("owner_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *userRepository) ListContacts(ctx context.Context, ownerID uint) ([]models.Contact, error) {
	var contacts []models.Contact
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("name ASC").
		Find(&contacts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return contacts, nil
}

func (r *userRepository) DeleteContact(ctx context.Context, ownerID, contactID uint) error {
	res := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Delete(&models.Contact{}, contactID)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Contact", contactID)
	}
	return nil
}
