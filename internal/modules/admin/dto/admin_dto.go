package dto

import (
	"time"

	commonDto "anoa.com/kopilka/pkg/dto"
)

type UserListQuery struct {
	commonDto.PageQuery
}

type UpdateRoleInput struct {
	Role string `json:"role" form:"role" binding:"required,oneof=admin member"`
}

type AdminUserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	FullName  string    `json:"full_name,omitempty"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
