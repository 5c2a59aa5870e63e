package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "PENDING"
	FriendshipAccepted FriendshipStatus = "ACCEPTED"
)

// Friendship is stored once per pair; RequesterID sent the request.
type Friendship struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	RequesterID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_friendship_pair,priority:1" json:"requester_id"`
	Requester   User             `gorm:"foreignKey:RequesterID;constraint:OnDelete:CASCADE" json:"requester"`
	AddresseeID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_friendship_pair,priority:2;index" json:"addressee_id"`
	Addressee   User             `gorm:"foreignKey:AddresseeID;constraint:OnDelete:CASCADE" json:"addressee"`
	Status      FriendshipStatus `gorm:"size:20;not null;default:PENDING" json:"status"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"created_at"`
	AcceptedAt  *time.Time       `json:"accepted_at,omitempty"`
}

func (f *Friendship) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == uuid.Nil {
		f.ID, err = uuid.NewV7()
	}
	return
}

// Other returns the side of the friendship that is not userID.
func (f *Friendship) Other(userID uuid.UUID) uuid.UUID {
	if f.RequesterID == userID {
		return f.AddresseeID
	}
	return f.RequesterID
}
