package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AchievementKind string

const (
	KindNormal    AchievementKind = "NORMAL"
	KindExclusive AchievementKind = "EXCLUSIVE"
	KindHidden    AchievementKind = "HIDDEN"
	KindSeasonal  AchievementKind = "SEASONAL"
)

// Valid reports whether k is one of the known kinds. The empty kind is not valid.
func (k AchievementKind) Valid() bool {
	switch k {
	case KindNormal, KindExclusive, KindHidden, KindSeasonal:
		return true
	}
	return false
}

// Metric names the counter an achievement threshold is evaluated against.
type Metric string

const (
	MetricApplicationsSubmitted Metric = "applications_submitted"
	MetricApplicationsApproved  Metric = "applications_approved"
	MetricLikesReceivedTotal    Metric = "likes_received_total"
	MetricLikesSingleStory      Metric = "likes_single_story"
	MetricWordsWrittenTotal     Metric = "words_written_total"
	MetricFriendsCount          Metric = "friends_count"
	MetricGameBestScore         Metric = "game_best_score"
	MetricLoginStreakDays       Metric = "login_streak_days"
	MetricTotalLogins           Metric = "total_logins"
	MetricDonationsCount        Metric = "donations_count"
	MetricDonationsTotal        Metric = "donations_total"
)

func (m Metric) Valid() bool {
	switch m {
	case MetricApplicationsSubmitted, MetricApplicationsApproved, MetricLikesReceivedTotal,
		MetricLikesSingleStory, MetricWordsWrittenTotal, MetricFriendsCount, MetricGameBestScore,
		MetricLoginStreakDays, MetricTotalLogins, MetricDonationsCount, MetricDonationsTotal:
		return true
	}
	return false
}

type AchievementDefinition struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Slug        string          `gorm:"size:80;uniqueIndex;not null" json:"slug"`
	Name        string          `gorm:"size:120;not null" json:"name"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Icon        string          `gorm:"size:120" json:"icon"`
	Kind        AchievementKind `gorm:"size:20;not null" json:"kind"`
	IsExclusive bool            `gorm:"not null;default:false" json:"is_exclusive"`
	IsHidden    bool            `gorm:"not null;default:false" json:"is_hidden"`
	IsSeasonal  bool            `gorm:"not null;default:false" json:"is_seasonal"`
	Metric      Metric          `gorm:"size:50;not null" json:"metric"`
	MetricScope string          `gorm:"size:50" json:"metric_scope,omitempty"` // game type for game_best_score
	Threshold   int64           `gorm:"not null" json:"threshold"`
	SortOrder   int             `gorm:"not null;default:0;index" json:"sort_order"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (d *AchievementDefinition) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == uuid.Nil {
		d.ID, err = uuid.NewV7()
	}
	return d.Validate()
}

// Validate rejects definitions with a missing kind or metric.
func (d *AchievementDefinition) Validate() error {
	if d.Slug == "" {
		return fmt.Errorf("achievement definition: slug is required")
	}
	if !d.Kind.Valid() {
		return fmt.Errorf("achievement definition %s: invalid kind %q", d.Slug, d.Kind)
	}
	if !d.Metric.Valid() {
		return fmt.Errorf("achievement definition %s: invalid metric %q", d.Slug, d.Metric)
	}
	if d.Threshold < 0 {
		return fmt.Errorf("achievement definition %s: negative threshold", d.Slug)
	}
	return nil
}

// AutoGrantable reports whether the definition takes part in automatic sweeps.
func (d *AchievementDefinition) AutoGrantable() bool {
	return d.Kind == KindNormal && !d.IsExclusive && !d.IsHidden && !d.IsSeasonal
}

type UserAchievement struct {
	ID            uuid.UUID             `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_user_achievement_unique,priority:1" json:"user_id"`
	User          User                  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	AchievementID uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_user_achievement_unique,priority:2" json:"achievement_id"`
	Achievement   AchievementDefinition `gorm:"foreignKey:AchievementID;constraint:OnDelete:CASCADE" json:"achievement"`
	UnlockedAt    time.Time             `gorm:"not null;autoCreateTime;<-:create" json:"unlocked_at"`
}

func (ua *UserAchievement) BeforeCreate(tx *gorm.DB) (err error) {
	if ua.ID == uuid.Nil {
		ua.ID, err = uuid.NewV7()
	}
	return
}
