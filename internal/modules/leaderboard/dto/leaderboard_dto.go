package dto

import commonDto "anoa.com/kopilka/pkg/dto"

// HeroEntry is one row of the hero board. Position is 1-based.
type HeroEntry struct {
	UserID     string               `json:"user_id"`
	Username   string               `json:"username"`
	AvatarURL  *string              `json:"avatar_url,omitempty"`
	Role       string               `json:"role"`
	Position   int                  `json:"position"`
	Points     int                  `json:"points"`
	HeroStatus commonDto.HeroStatus `json:"hero_status"`
}

type LeaderboardQuery struct {
	Timeframe string `form:"timeframe" binding:"omitempty,oneof=all_time monthly weekly"`
	Limit     int    `form:"limit,default=10" binding:"min=1,max=50"`
}
