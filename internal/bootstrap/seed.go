package bootstrap

import (
	"fmt"

	"anoa.com/kopilka/internal/entity"
	"anoa.com/kopilka/pkg/logger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Role{},
		&entity.User{},
		&entity.Profile{},
		&entity.LoginRecord{},
		&entity.Category{},
		&entity.Application{},
		&entity.Attachment{},
		&entity.Donation{},
		&entity.Story{},
		&entity.StoryLike{},
		&entity.Friendship{},
		&entity.GameRecord{},
		&entity.Notification{},
		&entity.PointLog{},
		&entity.HeroStats{},
		&entity.AchievementDefinition{},
		&entity.UserAchievement{},
	)
}

func SeedRoles(db *gorm.DB) error {
	defaultRoles := []entity.Role{
		{Name: entity.RoleAdmin, Description: "Platform administrator"},
		{Name: entity.RoleMember, Description: "Member"},
	}

	for _, role := range defaultRoles {
		var count int64
		if err := db.Model(&entity.Role{}).
			Where("name = ?", role.Name).
			Count(&count).Error; err != nil {
			return err
		}

		if count == 0 {
			if err := db.Create(&role).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

func SeedCategories(db *gorm.DB) error {
	defaults := []entity.Category{
		{Name: "Medical", Slug: "medical", Description: "Treatment, medicine and rehabilitation"},
		{Name: "Education", Slug: "education", Description: "School fees, books and courses"},
		{Name: "Housing", Slug: "housing", Description: "Rent, repairs and utilities"},
		{Name: "Emergency", Slug: "emergency", Description: "Urgent one-off needs"},
	}
	for i := range defaults {
		if err := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "slug"}}, DoNothing: true}).
			Create(&defaults[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// SeedAchievements inserts missing catalog entries by slug. Existing rows are never rewritten:
// a slug is immutable once a grant references it.
func SeedAchievements(db *gorm.DB) error {
	for i, def := range DefaultCatalog() {
		def := def
		def.SortOrder = i + 1
		if err := def.Validate(); err != nil {
			return err
		}
		if err := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "slug"}}, DoNothing: true}).
			Create(&def).Error; err != nil {
			return fmt.Errorf("seed achievement %s: %w", def.Slug, err)
		}
	}
	return nil
}

func SeedAdminUser(db *gorm.DB, log *logger.Logger, email, password string) error {
	var adminRole entity.Role
	if err := db.Where("name = ?", entity.RoleAdmin).First(&adminRole).Error; err != nil {
		return err
	}

	var count int64
	if err := db.Model(&entity.User{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Info("admin user already exists, skipping seed")
		return nil
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	adminUser := entity.User{
		Username:     "admin",
		Email:        email,
		PasswordHash: string(hashedPasswordBytes),
		RoleID:       &adminRole.ID,
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&adminUser).Error; err != nil {
			return err
		}
		adminProfile := entity.Profile{
			UserID:   adminUser.ID,
			FullName: "Administrator",
			Bio:      stringPtr("Kopilka administrator"),
		}
		if err := tx.Create(&adminProfile).Error; err != nil {
			return err
		}
		log.Info("admin user seeded", "email", email)
		return nil
	})
}

func stringPtr(s string) *string {
	return &s
}
