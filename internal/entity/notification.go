package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotificationAchievementUnlocked = "achievement_unlocked"
	NotificationRankUp              = "rank_up"
	NotificationApplicationReviewed = "application_reviewed"
	NotificationDonationReceived    = "donation_received"
	NotificationFriendRequest       = "friend_request"
	NotificationFriendAccepted      = "friend_accepted"
	NotificationStoryLiked          = "story_liked"
)

type Notification struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"` // receiver
	ActorID    *uuid.UUID `gorm:"type:uuid" json:"actor_id,omitempty"`
	EntityID   *uuid.UUID `gorm:"type:uuid" json:"entity_id,omitempty"`
	EntityType string     `gorm:"type:varchar(50);not null" json:"entity_type"` // 'application', 'story', 'achievement', ...
	Type       string     `gorm:"type:varchar(50);not null" json:"type"`
	Message    string     `gorm:"type:text" json:"message"`
	IsRead     bool       `gorm:"default:false" json:"is_read"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`

	Actor *User `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID, err = uuid.NewV7()
	}
	return
}
