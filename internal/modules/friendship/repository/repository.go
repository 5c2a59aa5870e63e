package repository

import (
	"context"
	"errors"
	"time"

	"anoa.com/kopilka/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FriendshipRepository interface {
	Create(ctx context.Context, f *entity.Friendship) error
	// FindBetween returns the friendship of the pair in either direction.
	FindBetween(ctx context.Context, a, b uuid.UUID) (*entity.Friendship, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Friendship, error)
	// Accept marks a pending request addressed to addresseeID as accepted.
	Accept(ctx context.Context, id, addresseeID uuid.UUID, at time.Time) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListFriends(ctx context.Context, userID uuid.UUID) ([]entity.Friendship, error)
	ListIncoming(ctx context.Context, userID uuid.UUID) ([]entity.Friendship, error)
	CountFriends(ctx context.Context, userID uuid.UUID) (int64, error)
}

type friendshipRepository struct {
	db *gorm.DB
}

func NewFriendshipRepository(db *gorm.DB) FriendshipRepository {
	return &friendshipRepository{db: db}
}

func (r *friendshipRepository) Create(ctx context.Context, f *entity.Friendship) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(f).Error
}

func (r *friendshipRepository) withUsers(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Requester").Preload("Addressee")
}

func (r *friendshipRepository) FindBetween(ctx context.Context, a, b uuid.UUID) (*entity.Friendship, error) {
	var found []entity.Friendship
	err := r.withUsers(ctx).
		Where("(requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)", a, b, b, a).
		Limit(1).
		Find(&found).Error
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &found[0], nil
}

func (r *friendshipRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Friendship, error) {
	var f entity.Friendship
	if err := r.withUsers(ctx).First(&f, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *friendshipRepository) Accept(ctx context.Context, id, addresseeID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&entity.Friendship{}).
		Where("id = ? AND addressee_id = ? AND status = ?", id, addresseeID, entity.FriendshipPending).
		Updates(map[string]interface{}{"status": entity.FriendshipAccepted, "accepted_at": at})
	return res.RowsAffected, res.Error
}

func (r *friendshipRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&entity.Friendship{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *friendshipRepository) ListFriends(ctx context.Context, userID uuid.UUID) ([]entity.Friendship, error) {
	friends := []entity.Friendship{}
	err := r.withUsers(ctx).
		Where("(requester_id = ? OR addressee_id = ?) AND status = ?", userID, userID, entity.FriendshipAccepted).
		Order("accepted_at DESC").
		Find(&friends).Error
	return friends, err
}

func (r *friendshipRepository) ListIncoming(ctx context.Context, userID uuid.UUID) ([]entity.Friendship, error) {
	pending := []entity.Friendship{}
	err := r.withUsers(ctx).
		Where("addressee_id = ? AND status = ?", userID, entity.FriendshipPending).
		Order("created_at DESC").
		Find(&pending).Error
	return pending, err
}

func (r *friendshipRepository) CountFriends(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Friendship{}).
		Where("(requester_id = ? OR addressee_id = ?) AND status = ?", userID, userID, entity.FriendshipAccepted).
		Count(&count).Error
	return count, err
}

// IsNotFound reports whether err means the friendship does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
