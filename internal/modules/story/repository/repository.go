package repository

import (
	"context"

	"anoa.com/kopilka/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StoryRepository interface {
	Create(ctx context.Context, story *entity.Story) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Story, error)
	FindAll(ctx context.Context, authorID *uuid.UUID, limit, offset int) ([]entity.Story, int64, error)
	Update(ctx context.Context, story *entity.Story) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ToggleLike adds the like if absent and removes it otherwise, returning the new state and count.
	ToggleLike(ctx context.Context, userID, storyID uuid.UUID) (liked bool, likes int64, err error)
	LikedBy(ctx context.Context, userID uuid.UUID, storyIDs []uuid.UUID) (map[uuid.UUID]bool, error)
	AddViews(ctx context.Context, storyID uuid.UUID, views int) error

	SumLikesReceived(ctx context.Context, userID uuid.UUID) (int64, error)
	MaxLikesOnStory(ctx context.Context, userID uuid.UUID) (int64, error)
	StoryContents(ctx context.Context, userID uuid.UUID) ([]string, error)
}

type storyRepository struct {
	db *gorm.DB
}

func NewStoryRepository(db *gorm.DB) StoryRepository {
	return &storyRepository{db: db}
}

func (r *storyRepository) Create(ctx context.Context, story *entity.Story) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(story).Error
}

func (r *storyRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Story, error) {
	var story entity.Story
	if err := r.db.WithContext(ctx).Preload("User").First(&story, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &story, nil
}

func (r *storyRepository) FindAll(ctx context.Context, authorID *uuid.UUID, limit, offset int) ([]entity.Story, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if authorID != nil {
			return db.Where("user_id = ?", *authorID)
		}
		return db
	}

	var total int64
	if err := scope(r.db.WithContext(ctx).Model(&entity.Story{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	stories := []entity.Story{}
	err := scope(r.db.WithContext(ctx).Preload("User")).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&stories).Error
	return stories, total, err
}

func (r *storyRepository) Update(ctx context.Context, story *entity.Story) error {
	return r.db.WithContext(ctx).Model(story).
		Select("title", "content", "application_id").
		Updates(story).Error
}

func (r *storyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("story_id = ?", id).Delete(&entity.StoryLike{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Story{}, "id = ?", id).Error
	})
}

func (r *storyRepository) ToggleLike(ctx context.Context, userID, storyID uuid.UUID) (bool, int64, error) {
	liked := false
	var likes int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND story_id = ?", userID, storyID).Delete(&entity.StoryLike{})
		if res.Error != nil {
			return res.Error
		}

		delta := -1
		if res.RowsAffected == 0 {
			ins := tx.Omit(clause.Associations).
				Clauses(clause.OnConflict{DoNothing: true}).
				Create(&entity.StoryLike{UserID: userID, StoryID: storyID})
			if ins.Error != nil {
				return ins.Error
			}
			delta = int(ins.RowsAffected)
			liked = ins.RowsAffected > 0
		}

		if delta != 0 {
			if err := tx.Model(&entity.Story{}).Where("id = ?", storyID).
				UpdateColumn("likes_count", gorm.Expr("likes_count + ?", delta)).Error; err != nil {
				return err
			}
		}

		return tx.Model(&entity.Story{}).Where("id = ?", storyID).
			Select("likes_count").Scan(&likes).Error
	})
	return liked, likes, err
}

func (r *storyRepository) LikedBy(ctx context.Context, userID uuid.UUID, storyIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	liked := make(map[uuid.UUID]bool, len(storyIDs))
	if len(storyIDs) == 0 {
		return liked, nil
	}

	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&entity.StoryLike{}).
		Where("user_id = ? AND story_id IN ?", userID, storyIDs).
		Pluck("story_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

func (r *storyRepository) AddViews(ctx context.Context, storyID uuid.UUID, views int) error {
	return r.db.WithContext(ctx).Model(&entity.Story{}).Where("id = ?", storyID).
		UpdateColumn("views", gorm.Expr("views + ?", views)).Error
}

func (r *storyRepository) SumLikesReceived(ctx context.Context, userID uuid.UUID) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).Model(&entity.Story{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(likes_count), 0)").
		Scan(&sum).Error
	return sum, err
}

func (r *storyRepository) MaxLikesOnStory(ctx context.Context, userID uuid.UUID) (int64, error) {
	var most int64
	err := r.db.WithContext(ctx).Model(&entity.Story{}).
		Where("user_id = ?", userID).
		Select("COALESCE(MAX(likes_count), 0)").
		Scan(&most).Error
	return most, err
}

func (r *storyRepository) StoryContents(ctx context.Context, userID uuid.UUID) ([]string, error) {
	contents := []string{}
	err := r.db.WithContext(ctx).Model(&entity.Story{}).
		Where("user_id = ?", userID).
		Pluck("content", &contents).Error
	return contents, err
}
