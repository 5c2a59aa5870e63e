package dto

import (
	"time"

	"github.com/google/uuid"
)

// AchievementProgress is computed per request and never stored.
type AchievementProgress struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Current     int64  `json:"current"`
	Target      int64  `json:"target"`
	Percent     int    `json:"percent"`
	Unlocked    bool   `json:"unlocked"`
}

type AchievementStats struct {
	TotalUnlocked     int            `json:"total_unlocked"`
	TotalAvailable    int            `json:"total_available"`
	UnlockedAvailable int            `json:"unlocked_available"`
	ByKind            map[string]int `json:"by_kind"`
}

type UserAchievementResponse struct {
	ID          uuid.UUID `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Kind        string    `json:"kind"`
	UnlockedAt  time.Time `json:"unlocked_at"`
}

type RevokeAchievementRequest struct {
	UserID string `uri:"id" binding:"required,uuid"`
	Slug   string `uri:"slug" binding:"required"`
}
