package dto

import (
	"time"

	"anoa.com/kopilka/internal/entity"
	commonDto "anoa.com/kopilka/pkg/dto"
)

type StoryRequest struct {
	Title         string `json:"title" binding:"required,min=3,max=160"`
	Content       string `json:"content" binding:"required,min=10"`
	ApplicationID string `json:"application_id" binding:"omitempty,uuid"`
}

type StoryListQuery struct {
	commonDto.PageQuery
	UserID string `form:"user_id" binding:"omitempty,uuid"`
}

type StoryResponse struct {
	ID            string                   `json:"id"`
	Title         string                   `json:"title"`
	Content       string                   `json:"content"`
	ApplicationID *string                  `json:"application_id,omitempty"`
	Author        commonDto.AuthorResponse `json:"author"`
	LikesCount    int64                    `json:"likes_count"`
	LikedByMe     bool                     `json:"liked_by_me"`
	Views         int                      `json:"views"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

type StoryResult struct {
	Story    StoryResponse                  `json:"story"`
	Unlocked []entity.AchievementDefinition `json:"achievements_unlocked"`
}

type LikeResponse struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likes_count"`
}
