package dto

import (
	"time"

	"anoa.com/kopilka/internal/entity"
	commonDto "anoa.com/kopilka/pkg/dto"
)

type DonateRequest struct {
	Amount    int64  `json:"amount" binding:"required,gt=0"`
	Message   string `json:"message" binding:"max=500"`
	Anonymous bool   `json:"anonymous"`
}

type DonationResponse struct {
	ID            string                    `json:"id"`
	ApplicationID string                    `json:"application_id"`
	Amount        int64                     `json:"amount"`
	Message       *string                   `json:"message,omitempty"`
	Anonymous     bool                      `json:"anonymous"`
	Donor         *commonDto.AuthorResponse `json:"donor,omitempty"`
	CreatedAt     time.Time                 `json:"created_at"`
}

type DonateResult struct {
	Donation          DonationResponse               `json:"donation"`
	CollectedAmount   int64                          `json:"collected_amount"`
	ApplicationStatus entity.ApplicationStatus       `json:"application_status"`
	Unlocked          []entity.AchievementDefinition `json:"achievements_unlocked"`
}
