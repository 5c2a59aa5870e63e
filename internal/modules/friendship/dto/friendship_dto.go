package dto

import (
	"time"

	"anoa.com/kopilka/internal/entity"
	commonDto "anoa.com/kopilka/pkg/dto"
)

type FriendRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

type FriendshipResponse struct {
	ID         string                   `json:"id"`
	Friend     commonDto.AuthorResponse `json:"friend"`
	Status     entity.FriendshipStatus  `json:"status"`
	Incoming   bool                     `json:"incoming"`
	CreatedAt  time.Time                `json:"created_at"`
	AcceptedAt *time.Time               `json:"accepted_at,omitempty"`
}

type AcceptResult struct {
	Friendship FriendshipResponse             `json:"friendship"`
	Unlocked   []entity.AchievementDefinition `json:"achievements_unlocked"`
}
