package repository

import (
	"context"

	"anoa.com/kopilka/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GameRepository interface {
	Create(ctx context.Context, record *entity.GameRecord) error
	// BestScores maps each played game type to the user's highest score.
	BestScores(ctx context.Context, userID uuid.UUID) (map[string]int64, error)
}

type gameRepository struct {
	db *gorm.DB
}

func NewGameRepository(db *gorm.DB) GameRepository {
	return &gameRepository{db: db}
}

func (r *gameRepository) Create(ctx context.Context, record *entity.GameRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *gameRepository) BestScores(ctx context.Context, userID uuid.UUID) (map[string]int64, error) {
	type row struct {
		GameType string
		Best     int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&entity.GameRecord{}).
		Select("game_type, MAX(score) AS best").
		Where("user_id = ?", userID).
		Group("game_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	best := make(map[string]int64, len(rows))
	for _, rec := range rows {
		best[rec.GameType] = rec.Best
	}
	return best, nil
}
