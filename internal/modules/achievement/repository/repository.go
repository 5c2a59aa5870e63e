package repository

import (
	"context"
	"errors"

	"anoa.com/kopilka/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AchievementRepository interface {
	ListDefinitions(ctx context.Context) ([]entity.AchievementDefinition, error)
	FindDefinitionBySlug(ctx context.Context, slug string) (*entity.AchievementDefinition, error)
	ListUserAchievements(ctx context.Context, userID uuid.UUID) ([]entity.UserAchievement, error)
	// Grant inserts the grant unless one already exists for the pair.
	// created is false when a concurrent call won the race.
	Grant(ctx context.Context, grant *entity.UserAchievement) (created bool, err error)
	Revoke(ctx context.Context, userID, achievementID uuid.UUID) (int64, error)
}

type achievementRepository struct {
	db *gorm.DB
}

func NewAchievementRepository(db *gorm.DB) AchievementRepository {
	return &achievementRepository{db: db}
}

func (r *achievementRepository) ListDefinitions(ctx context.Context) ([]entity.AchievementDefinition, error) {
	var defs []entity.AchievementDefinition
	err := r.db.WithContext(ctx).
		Order("sort_order ASC").
		Order("created_at ASC").
		Find(&defs).Error
	return defs, err
}

func (r *achievementRepository) FindDefinitionBySlug(ctx context.Context, slug string) (*entity.AchievementDefinition, error) {
	var def entity.AchievementDefinition
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&def).Error; err != nil {
		return nil, err
	}
	return &def, nil
}

func (r *achievementRepository) ListUserAchievements(ctx context.Context, userID uuid.UUID) ([]entity.UserAchievement, error) {
	grants := []entity.UserAchievement{}
	err := r.db.WithContext(ctx).
		Preload("Achievement").
		Where("user_id = ?", userID).
		Order("unlocked_at ASC").
		Find(&grants).Error
	return grants, err
}

func (r *achievementRepository) Grant(ctx context.Context, grant *entity.UserAchievement) (bool, error) {
	res := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
			DoNothing: true,
		}).
		Create(grant)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *achievementRepository) Revoke(ctx context.Context, userID, achievementID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND achievement_id = ?", userID, achievementID).
		Delete(&entity.UserAchievement{})
	return res.RowsAffected, res.Error
}
