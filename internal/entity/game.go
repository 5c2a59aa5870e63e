package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	GameCoinCatch = "coin_catch"
	GameMemory    = "memory"
	GameQuiz      = "quiz"
)

// GameTypes lists the mini-games that accept scores.
var GameTypes = []string{GameCoinCatch, GameMemory, GameQuiz}

type GameRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_game_user_type,priority:1" json:"user_id"`
	GameType  string    `gorm:"size:30;not null;index:idx_game_user_type,priority:2" json:"game_type"`
	Score     int64     `gorm:"not null" json:"score"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
