package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Story is a user-written post about received or given help.
type Story struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User          User       `gorm:"constraint:OnDelete:CASCADE" json:"user"`
	ApplicationID *uuid.UUID `gorm:"type:uuid" json:"application_id,omitempty"`
	Title         string     `gorm:"size:160;not null" json:"title"`
	Content       string     `gorm:"type:text;not null" json:"content"`
	LikesCount    int64      `gorm:"not null;default:0" json:"likes_count"`
	Views         int        `gorm:"default:0" json:"views"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *Story) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID, err = uuid.NewV7()
	}
	return
}

type StoryLike struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_story_like_unique,priority:1" json:"user_id"`
	StoryID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_story_like_unique,priority:2;index" json:"story_id"`
	Story     Story     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (l *StoryLike) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID, err = uuid.NewV7()
	}
	return
}
