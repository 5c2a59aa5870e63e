package dto

import "anoa.com/kopilka/internal/entity"

type SubmitScoreRequest struct {
	GameType string `json:"game_type" binding:"required,oneof=coin_catch memory quiz"`
	Score    *int64 `json:"score" binding:"required,gte=0,lte=1000000"`
}

type ScoreResult struct {
	GameType  string                         `json:"game_type"`
	Score     int64                          `json:"score"`
	BestScore int64                          `json:"best_score"`
	NewBest   bool                           `json:"new_best"`
	Unlocked  []entity.AchievementDefinition `json:"achievements_unlocked"`
}
