package dto

import (
	"time"

	"anoa.com/kopilka/internal/entity"
	attachmentDto "anoa.com/kopilka/internal/modules/attachment/dto"
	categoryDto "anoa.com/kopilka/internal/modules/category/dto"
	commonDto "anoa.com/kopilka/pkg/dto"
)

type SubmitApplicationRequest struct {
	Title         string `json:"title" binding:"required,min=5,max=160"`
	Description   string `json:"description" binding:"required,min=20"`
	TargetAmount  int64  `json:"target_amount" binding:"required,gt=0"`
	CategorySlug  string `json:"category" binding:"omitempty,max=100"`
	AttachmentIDs []uint `json:"attachment_ids" binding:"omitempty,max=10"`
}

type ReviewApplicationRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approve reject"`
	Note     string `json:"note" binding:"max=1000"`
}

type ApplicationListQuery struct {
	commonDto.PageQuery
	Category string `form:"category" binding:"max=100"`
}

type SearchQuery struct {
	commonDto.PageQuery
	Q string `form:"q" binding:"required,max=100"`
}

type ApplicationResponse struct {
	ID              string                             `json:"id"`
	Title           string                             `json:"title"`
	Description     string                             `json:"description"`
	TargetAmount    int64                              `json:"target_amount"`
	CollectedAmount int64                              `json:"collected_amount"`
	Status          entity.ApplicationStatus           `json:"status"`
	ReviewNote      *string                            `json:"review_note,omitempty"`
	ReviewedAt      *time.Time                         `json:"reviewed_at,omitempty"`
	Category        *categoryDto.CategoryResponse      `json:"category,omitempty"`
	Author          commonDto.AuthorResponse           `json:"author"`
	Attachments     []attachmentDto.AttachmentResponse `json:"attachments"`
	CreatedAt       time.Time                          `json:"created_at"`
}

type SubmitResponse struct {
	Application ApplicationResponse            `json:"application"`
	Unlocked    []entity.AchievementDefinition `json:"achievements_unlocked"`
}
