package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "PENDING"
	ApplicationApproved ApplicationStatus = "APPROVED"
	ApplicationRejected ApplicationStatus = "REJECTED"
	ApplicationFunded   ApplicationStatus = "FUNDED"
)

// Application is an assistance request. Amounts are stored in minor units.
type Application struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID         `gorm:"type:uuid;not null;index" json:"user_id"`
	User            User              `gorm:"constraint:OnDelete:CASCADE" json:"user"`
	CategoryID      *uuid.UUID        `gorm:"type:uuid" json:"category_id"`
	Category        *Category         `gorm:"constraint:OnDelete:SET NULL" json:"category,omitempty"`
	Title           string            `gorm:"size:160;not null" json:"title"`
	Description     string            `gorm:"type:text;not null" json:"description"`
	TargetAmount    int64             `gorm:"not null" json:"target_amount"`
	CollectedAmount int64             `gorm:"not null;default:0" json:"collected_amount"`
	Status          ApplicationStatus `gorm:"size:20;not null;index;default:PENDING" json:"status"`
	ReviewNote      *string           `gorm:"type:text" json:"review_note,omitempty"`
	ReviewedBy      *uuid.UUID        `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time        `json:"reviewed_at,omitempty"`
	Attachments     []Attachment      `gorm:"foreignKey:ApplicationID" json:"attachments,omitempty"`
	CreatedAt       time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *Application) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID, err = uuid.NewV7()
	}
	return
}

// AcceptsDonations reports whether the application is open for funding.
func (a *Application) AcceptsDonations() bool {
	return a.Status == ApplicationApproved && a.CollectedAmount < a.TargetAmount
}

// Attachment is a supporting document stored in Cloudinary.
type Attachment struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null" json:"user_id"`
	ApplicationID *uuid.UUID `gorm:"type:uuid;index" json:"application_id,omitempty"`
	FileURL       string     `gorm:"type:text;not null" json:"file_url"`
	FileType      string     `gorm:"size:50" json:"file_type"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
