package repository

import (
	"context"
	"time"

	"anoa.com/kopilka/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// loginPageSize is how many login records LoginDays reads per query.
const loginPageSize = 500

type UserRepository interface {
	Create(ctx context.Context, user *entity.User, profile *entity.Profile) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindRoleByName(ctx context.Context, name string) (*entity.Role, error)
	Update(ctx context.Context, user *entity.User, profile *entity.Profile) error
	FindAll(ctx context.Context, limit, offset int) ([]*entity.User, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)

	RecordLogin(ctx context.Context, record *entity.LoginRecord) error
	CountLogins(ctx context.Context, userID uuid.UUID) (int64, error)
	LoginDays(ctx context.Context, userID uuid.UUID) ([]time.Time, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.User{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *userRepository) Create(ctx context.Context, user *entity.User, profile *entity.Profile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Role", "Profile").Create(user).Error; err != nil {
			return err
		}

		if profile != nil {
			profile.UserID = user.ID
			if err := tx.Create(profile).Error; err != nil {
				return err
			}
			user.Profile = profile
		}

		return nil
	})
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *userRepository) findOne(ctx context.Context, query string, arg interface{}) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).
		Preload("Role").
		Preload("Profile").
		Where(query, arg).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindRoleByName(ctx context.Context, name string) (*entity.Role, error) {
	var role entity.Role
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}

	return &role, nil
}

func (r *userRepository) Update(ctx context.Context, user *entity.User, profile *entity.Profile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Role", "Profile").Save(user).Error; err != nil {
			return err
		}

		if profile != nil {
			if err := tx.Save(profile).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *userRepository) FindAll(ctx context.Context, limit, offset int) ([]*entity.User, int64, error) {
	var (
		users []*entity.User
		total int64
	)
	db := r.db.WithContext(ctx)
	if err := db.Model(&entity.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.
		Preload("Role").
		Preload("Profile").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.User{}, "id = ?", id).Error
}

func (r *userRepository) RecordLogin(ctx context.Context, record *entity.LoginRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *userRepository) CountLogins(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.LoginRecord{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// LoginDays returns the most recent run of consecutive UTC login days, newest first.
// Reading stops at the first missing day, so older history is never loaded.
func (r *userRepository) LoginDays(ctx context.Context, userID uuid.UUID) ([]time.Time, error) {
	var (
		days   []time.Time
		cursor *time.Time
	)
	for {
		q := r.db.WithContext(ctx).Model(&entity.LoginRecord{}).Where("user_id = ?", userID)
		if cursor != nil {
			q = q.Where("created_at < ?", *cursor)
		}
		var stamps []time.Time
		if err := q.Order("created_at DESC").Limit(loginPageSize).Pluck("created_at", &stamps).Error; err != nil {
			return nil, err
		}

		for _, ts := range stamps {
			ts = ts.UTC()
			d := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
			if len(days) > 0 {
				last := days[len(days)-1]
				if last.Equal(d) {
					continue
				}
				if !last.AddDate(0, 0, -1).Equal(d) {
					return days, nil
				}
			}
			days = append(days, d)
		}

		if len(stamps) < loginPageSize {
			return days, nil
		}
		oldest := stamps[len(stamps)-1]
		cursor = &oldest
	}
}
