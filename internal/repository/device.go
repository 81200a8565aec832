package repository

import (
	"context"

	"gatherly/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeviceRepository defines the interface for push device registry operations
type DeviceRepository interface {
	Register(ctx context.Context, device *models.PushDevice) error
	ListForUser(ctx context.Context, userID uint) ([]models.PushDevice, error)
	DeleteByEndpoints(ctx context.Context, endpoints []string) error
	DeleteForUser(ctx context.Context, userID uint, endpoint string) error
}

// deviceRepository implements DeviceRepository
type deviceRepository struct {
	db *gorm.DB
}

// NewDeviceRepository creates a new push device repository
func NewDeviceRepository(db *gorm.DB) DeviceRepository {
	return &deviceRepository{db: db}
}

// Register stores a push endpoint. Re-registering an endpoint reassigns it to
// the current user, which covers browsers shared between accounts.
func (r *deviceRepository) Register(ctx context.Context, device *models.PushDevice) error {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id"}),
		}).
		Create(device).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *deviceRepository) ListForUser(ctx context.Context, userID uint) ([]models.PushDevice, error) {
	var devices []models.PushDevice
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&devices).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return devices, nil
}

// DeleteByEndpoints prunes endpoints that reported permanent delivery failure.
func (r *deviceRepository) DeleteByEndpoints(ctx context.Context, endpoints []string) error {
	if len(endpoints) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).
		Where("endpoint IN ?", endpoints).
		Delete(&models.PushDevice{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *deviceRepository) DeleteForUser(ctx context.Context, userID uint, endpoint string) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND endpoint = ?", userID, endpoint).
		Delete(&models.PushDevice{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
