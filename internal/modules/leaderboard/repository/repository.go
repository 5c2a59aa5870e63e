package repository

import (
	"context"
	"errors"

	"anoa.com/kopilka/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	TimeframeAllTime = "all_time"
	TimeframeMonthly = "monthly"
	TimeframeWeekly  = "weekly"
)

type LeaderboardRepository interface {
	// ApplyPoints writes the point log and bumps the totals in one transaction.
	// applied is false when the referenced event was already counted.
	ApplyPoints(ctx context.Context, log *entity.PointLog) (applied bool, err error)
	GetTopUsers(ctx context.Context, limit int, timeframe string) ([]entity.HeroStats, error)
	GetUserStatsByUserID(ctx context.Context, userID uuid.UUID) (*entity.HeroStats, error)
	ResetWeekly(ctx context.Context) error
	ResetMonthly(ctx context.Context) error
}

type leaderboardRepository struct {
	db *gorm.DB
}

func NewLeaderboardRepository(db *gorm.DB) LeaderboardRepository {
	return &leaderboardRepository{db: db}
}

func (r *leaderboardRepository) ApplyPoints(ctx context.Context, log *entity.PointLog) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Omit("User").
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "reference_table"}, {Name: "reference_id"}},
				DoNothing: true,
			}).
			Create(log)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		points := log.Points
		if err := tx.Omit("User").Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"total_score_all_time": gorm.Expr("hero_stats.total_score_all_time + ?", points),
				"total_score_monthly":  gorm.Expr("hero_stats.total_score_monthly + ?", points),
				"total_score_weekly":   gorm.Expr("hero_stats.total_score_weekly + ?", points),
				"last_updated_at":      gorm.Expr("CURRENT_TIMESTAMP"),
			}),
		}).Create(&entity.HeroStats{
			UserID:            log.UserID,
			TotalScoreAllTime: points,
			TotalScoreMonthly: points,
			TotalScoreWeekly:  points,
		}).Error; err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

func (r *leaderboardRepository) GetTopUsers(ctx context.Context, limit int, timeframe string) ([]entity.HeroStats, error) {
	order := "total_score_all_time DESC"
	switch timeframe {
	case TimeframeWeekly:
		order = "total_score_weekly DESC"
	case TimeframeMonthly:
		order = "total_score_monthly DESC"
	}

	stats := []entity.HeroStats{}
	q := r.db.WithContext(ctx).Preload("User").Preload("User.Role")
	if timeframe == TimeframeWeekly {
		q = q.Where("total_score_weekly > 0")
	} else if timeframe == TimeframeMonthly {
		q = q.Where("total_score_monthly > 0")
	}
	err := q.Order(order).Order("user_id").Limit(limit).Find(&stats).Error
	return stats, err
}

// GetUserStatsByUserID returns zero stats for a user that has not earned points yet.
func (r *leaderboardRepository) GetUserStatsByUserID(ctx context.Context, userID uuid.UUID) (*entity.HeroStats, error) {
	var stats entity.HeroStats
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&stats).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &entity.HeroStats{UserID: userID}, nil
		}
		return nil, err
	}
	return &stats, nil
}

func (r *leaderboardRepository) ResetWeekly(ctx context.Context) error {
	return r.db.WithContext(ctx).Model(&entity.HeroStats{}).
		Where("total_score_weekly <> 0").
		Update("total_score_weekly", 0).Error
}

func (r *leaderboardRepository) ResetMonthly(ctx context.Context) error {
	return r.db.WithContext(ctx).Model(&entity.HeroStats{}).
		Where("total_score_monthly <> 0").
		Update("total_score_monthly", 0).Error
}
