package repository

import (
	"context"
	"errors"

	"gatherly/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FriendRepository defines the interface for friend request, friendship edge
// and watch subscription operations
type FriendRepository interface {
	CreateRequest(ctx context.Context, request *models.FriendRequest) error
	GetRequestByID(ctx context.Context, id uint) (*models.FriendRequest, error)
	GetRequestBetween(ctx context.Context, userA, userB uint) (*models.FriendRequest, error)
	ListIncomingRequests(ctx context.Context, userID uint) ([]models.FriendRequest, error)
	ListOutgoingRequests(ctx context.Context, userID uint) ([]models.FriendRequest, error)
	UpdateRequestStatus(ctx context.Context, requestID uint, status models.FriendRequestStatus) error

	CreateEdge(ctx context.Context, userA, userB uint) error
	DeleteEdge(ctx context.Context, userA, userB uint) error
	AreFriends(ctx context.Context, userA, userB uint) (bool, error)
	ListFriends(ctx context.Context, userID uint) ([]models.User, error)

	Subscribe(ctx context.Context, watcherID, friendID uint) error
	Unsubscribe(ctx context.Context, watcherID, friendID uint) error
	ListWatchedIDs(ctx context.Context, watcherID uint) ([]uint, error)
	ListWatchers(ctx context.Context, friendID uint) ([]models.User, error)
	DeleteSubscriptionsBetween(ctx context.Context, userA, userB uint) error
}

// friendRepository implements FriendRepository
type friendRepository struct {
	db *gorm.DB
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(db *gorm.DB) FriendRepository {
	return &friendRepository{db: db}
}

func (r *friendRepository) CreateRequest(ctx context.Context, request *models.FriendRequest) error {
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.NewConflictError("friend request already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *friendRepository) GetRequestByID(ctx context.Context, id uint) (*models.FriendRequest, error) {
	var request models.FriendRequest
	if err := r.db.WithContext(ctx).
		Preload("FromUser").
		Preload("ToUser").
		First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("FriendRequest", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &request, nil
}

// GetRequestBetween finds a request in either direction, or nil if none exists.
func (r *friendRepository) GetRequestBetween(ctx context.Context, userA, userB uint) (*models.FriendRequest, error) {
	var request models.FriendRequest
	if err := r.db.WithContext(ctx).
		Where("(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)",
			userA, userB, userB, userA).
		First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &request, nil
}

func (r *friendRepository) ListIncomingRequests(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	var requests []models.FriendRequest
	if err := r.db.WithContext(ctx).
		Where("to_user_id = ? AND status = ?", userID, models.FriendRequestPending).
		Preload("FromUser").
		Find(&requests).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return requests, nil
}

func (r *friendRepository) ListOutgoingRequests(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	var requests []models.FriendRequest
	if err := r.db.WithContext(ctx).
		Where("from_user_id = ? AND status = ?", userID, models.FriendRequestPending).
		Preload("ToUser").
		Find(&requests).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return requests, nil
}

func (r *friendRepository) UpdateRequestStatus(ctx context.Context, requestID uint, status models.FriendRequestStatus) error {
	if err := r.db.WithContext(ctx).
		Model(&models.FriendRequest{}).
		Where("id = ?", requestID).
		Update("status", status).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// CreateEdge records an accepted friendship. The pair is canonicalized and
// insertion is idempotent, so two racing accepts converge on one edge.
func (r *friendRepository) CreateEdge(ctx context.Context, userA, userB uint) error {
	low, high := models.CanonicalPair(userA, userB)
	edge := models.FriendEdge{UserLowID: low, UserHighID: high}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&edge).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *friendRepository) DeleteEdge(ctx context.Context, userA, userB uint) error {
	low, high := models.CanonicalPair(userA, userB)
	if err := r.db.WithContext(ctx).
		Where("user_low_id = ? AND user_high_id = ?", low, high).
		Delete(&models.FriendEdge{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *friendRepository) AreFriends(ctx context.Context, userA, userB uint) (bool, error) {
	low, high := models.CanonicalPair(userA, userB)
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.FriendEdge{}).
		Where("user_low_id = ? AND user_high_id = ?", low, high).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *friendRepository) ListFriends(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Table("users").
		Joins("JOIN friend_edges e ON (users.id = e.user_low_id OR users.id = e.user_high_id)").
		Where("(e.user_low_id = ? OR e.user_high_id = ?) AND users.id != ?", userID, userID, userID).
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// Subscribe adds friendID to the watcher's watch list. Idempotent.
func (r *friendRepository) Subscribe(ctx context.Context, watcherID, friendID uint) error {
	sub := models.WatchSubscription{WatcherID: watcherID, FriendID: friendID}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&sub).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *friendRepository) Unsubscribe(ctx context.Context, watcherID, friendID uint) error {
	if err := r.db.WithContext(ctx).
		Where("watcher_id = ? AND friend_id = ?", watcherID, friendID).
		Delete(&models.WatchSubscription{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *friendRepository) ListWatchedIDs(ctx context.Context, watcherID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.WatchSubscription{}).
		Where("watcher_id = ?", watcherID).
		Pluck("friend_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

// ListWatchers returns the users subscribed to friendID's availability. The
// caller still verifies an intact friendship before notifying; a stale watch
// row alone never earns a ping.
func (r *friendRepository) ListWatchers(ctx context.Context, friendID uint) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Table("users").
		Joins("JOIN watch_subscriptions w ON users.id = w.watcher_id").
		Where("w.friend_id = ?", friendID).
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// DeleteSubscriptionsBetween removes both directions of watch subscriptions,
// used when a friendship is dissolved.
func (r *friendRepository) DeleteSubscriptionsBetween(ctx context.Context, userA, userB uint) error {
	if err := r.db.WithContext(ctx).
		Where("(watcher_id = ? AND friend_id = ?) OR (watcher_id = ? AND friend_id = ?)",
			userA, userB, userB, userA).
		Delete(&models.WatchSubscription{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
