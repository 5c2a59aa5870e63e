package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Donation struct {
	ID            uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	DonorID       uuid.UUID   `gorm:"type:uuid;not null;index" json:"donor_id"`
	Donor         User        `gorm:"foreignKey:DonorID;constraint:OnDelete:CASCADE" json:"-"`
	ApplicationID uuid.UUID   `gorm:"type:uuid;not null;index" json:"application_id"`
	Application   Application `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Amount        int64       `gorm:"not null" json:"amount"`
	Message       *string     `gorm:"type:text" json:"message,omitempty"`
	Anonymous     bool        `gorm:"default:false" json:"anonymous"`
	CreatedAt     time.Time   `gorm:"autoCreateTime" json:"created_at"`
}

func (d *Donation) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == uuid.Nil {
		d.ID, err = uuid.NewV7()
	}
	return
}
