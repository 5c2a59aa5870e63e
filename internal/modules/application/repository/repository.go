package repository

import (
	"context"
	"time"

	"anoa.com/kopilka/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PublicStatuses are visible to every member and counted as approved.
var PublicStatuses = []entity.ApplicationStatus{entity.ApplicationApproved, entity.ApplicationFunded}

type ApplicationRepository interface {
	// Create stores the application and links the submitter's unlinked attachments in one transaction.
	Create(ctx context.Context, app *entity.Application, attachmentIDs []uint) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Application, error)
	FindByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Application, int64, error)
	FindPublic(ctx context.Context, categoryID *uuid.UUID, limit, offset int) ([]entity.Application, int64, error)
	FindPending(ctx context.Context, limit, offset int) ([]entity.Application, int64, error)
	// Review moves a PENDING application to status. It returns 0 when the application is not pending.
	Review(ctx context.Context, id uuid.UUID, status entity.ApplicationStatus, note *string, reviewerID uuid.UUID, at time.Time) (int64, error)
	CountSubmitted(ctx context.Context, userID uuid.UUID) (int64, error)
	CountApproved(ctx context.Context, userID uuid.UUID) (int64, error)
	CountPublic(ctx context.Context) (int64, error)
}

type applicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) Create(ctx context.Context, app *entity.Application, attachmentIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(app).Error; err != nil {
			return err
		}
		if len(attachmentIDs) == 0 {
			return nil
		}
		// Only the submitter's own, not yet linked uploads can be attached.
		return tx.Model(&entity.Attachment{}).
			Where("id IN ? AND user_id = ? AND application_id IS NULL", attachmentIDs, app.UserID).
			Update("application_id", app.ID).Error
	})
}

func (r *applicationRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("User").
		Preload("Category").
		Preload("Attachments")
}

func (r *applicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Application, error) {
	var app entity.Application
	if err := r.preloaded(ctx).First(&app, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) page(ctx context.Context, scope func(*gorm.DB) *gorm.DB, limit, offset int) ([]entity.Application, int64, error) {
	var total int64
	if err := scope(r.db.WithContext(ctx).Model(&entity.Application{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	apps := []entity.Application{}
	err := scope(r.preloaded(ctx)).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&apps).Error
	return apps, total, err
}

func (r *applicationRepository) FindByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Application, int64, error) {
	return r.page(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	}, limit, offset)
}

func (r *applicationRepository) FindPublic(ctx context.Context, categoryID *uuid.UUID, limit, offset int) ([]entity.Application, int64, error) {
	return r.page(ctx, func(db *gorm.DB) *gorm.DB {
		db = db.Where("status IN ?", PublicStatuses)
		if categoryID != nil {
			db = db.Where("category_id = ?", *categoryID)
		}
		return db
	}, limit, offset)
}

func (r *applicationRepository) FindPending(ctx context.Context, limit, offset int) ([]entity.Application, int64, error) {
	return r.page(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("status = ?", entity.ApplicationPending)
	}, limit, offset)
}

func (r *applicationRepository) Review(ctx context.Context, id uuid.UUID, status entity.ApplicationStatus, note *string, reviewerID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&entity.Application{}).
		Where("id = ? AND status = ?", id, entity.ApplicationPending).
		Updates(map[string]interface{}{
			"status":      status,
			"review_note": note,
			"reviewed_by": reviewerID,
			"reviewed_at": at,
		})
	return res.RowsAffected, res.Error
}

func (r *applicationRepository) CountSubmitted(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Application{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// CountApproved counts funded applications too: they were approved before being funded.
func (r *applicationRepository) CountApproved(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Application{}).
		Where("user_id = ? AND status IN ?", userID, PublicStatuses).
		Count(&count).Error
	return count, err
}

func (r *applicationRepository) CountPublic(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Application{}).
		Where("status IN ?", PublicStatuses).
		Count(&count).Error
	return count, err
}
