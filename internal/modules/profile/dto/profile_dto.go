package dto

import (
	"io"
	"time"

	"anoa.com/kopilka/internal/entity"
	achievementDto "anoa.com/kopilka/internal/modules/achievement/dto"
	commonDto "anoa.com/kopilka/pkg/dto"
)

// UpdateProfileInput represents the input for updating the caller's profile
type UpdateProfileInput struct {
	Username *string `json:"username" form:"username" binding:"omitempty,min=3,max=50"`
	Password *string `json:"password" form:"password" binding:"omitempty,min=8"`
	FullName *string `json:"full_name" form:"full_name" binding:"omitempty,max=100"`
	City     *string `json:"city" form:"city" binding:"omitempty,max=100"`
	Bio      *string `json:"bio" form:"bio"`
}

// ProfileResponse is the caller's own profile
type ProfileResponse struct {
	User         *entity.User                     `json:"user"`
	HeroStatus   commonDto.HeroStatus             `json:"hero_status"`
	Achievements *achievementDto.AchievementStats `json:"achievements"`
}

// PublicProfileResponse is returned when viewing another user's profile
type PublicProfileResponse struct {
	Username     string                           `json:"username"`
	Role         string                           `json:"role"`
	AvatarURL    *string                          `json:"avatar_url,omitempty"`
	FullName     string                           `json:"full_name,omitempty"`
	City         *string                          `json:"city,omitempty"`
	Bio          *string                          `json:"bio,omitempty"`
	CreatedAt    time.Time                        `json:"created_at"`
	HeroStatus   commonDto.HeroStatus             `json:"hero_status"`
	Achievements *achievementDto.AchievementStats `json:"achievements"`
}

type AvatarFile struct {
	Reader   io.Reader
	FileName string
}
