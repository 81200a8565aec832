package repository

import (
	"context"
	"errors"

	"gatherly/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AvailabilityRepository defines the interface for availability snapshot operations
type AvailabilityRepository interface {
	Upsert(ctx context.Context, snapshot *models.AvailabilitySnapshot) error
	GetLatest(ctx context.Context, userID uint) (*models.AvailabilitySnapshot, error)
	GetByUserWeek(ctx context.Context, userID uint, weekStart string) (*models.AvailabilitySnapshot, error)
}

// availabilityRepository implements AvailabilityRepository
type availabilityRepository struct {
	db *gorm.DB
}

// NewAvailabilityRepository creates a new availability repository
func NewAvailabilityRepository(db *gorm.DB) AvailabilityRepository {
	return &availabilityRepository{db: db}
}

// Upsert inserts or replaces the snapshot for (user, week). A resubmission
// replaces the week's slots wholesale; removals simply vanish from storage.
func (r *availabilityRepository) Upsert(ctx context.Context, snapshot *models.AvailabilitySnapshot) error {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "week_start"}},
			DoUpdates: clause.AssignmentColumns([]string{"slots", "updated_at"}),
		}).
		Create(snapshot).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// GetLatest returns the user's most recently updated snapshot across all
// weeks, or nil if the user has never saved. Delta detection compares against
// this snapshot regardless of which week it belongs to.
func (r *availabilityRepository) GetLatest(ctx context.Context, userID uint) (*models.AvailabilitySnapshot, error) {
	var snapshot models.AvailabilitySnapshot
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		First(&snapshot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &snapshot, nil
}

func (r *availabilityRepository) GetByUserWeek(ctx context.Context, userID uint, weekStart string) (*models.AvailabilitySnapshot, error) {
	var snapshot models.AvailabilitySnapshot
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND week_start = ?", userID, weekStart).
		First(&snapshot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &snapshot, nil
}
