package repository

import (
	"context"
	"errors"

	"anoa.com/kopilka/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrApplicationNotFound = errors.New("application not found")
	ErrApplicationClosed   = errors.New("application is not accepting donations")
	ErrOwnApplication      = errors.New("cannot donate to your own application")
)

type DonationRepository interface {
	// Donate records the donation and adds it to the application's running total in one transaction.
	// The application is closed as FUNDED once the total reaches its target.
	Donate(ctx context.Context, donation *entity.Donation) (*entity.Application, error)
	FindByApplication(ctx context.Context, applicationID uuid.UUID, limit, offset int) ([]entity.Donation, int64, error)
	FindByDonor(ctx context.Context, donorID uuid.UUID, limit, offset int) ([]entity.Donation, int64, error)
	CountByDonor(ctx context.Context, donorID uuid.UUID) (int64, error)
	SumByDonor(ctx context.Context, donorID uuid.UUID) (int64, error)
	SumAll(ctx context.Context) (int64, error)
}

type donationRepository struct {
	db *gorm.DB
}

func NewDonationRepository(db *gorm.DB) DonationRepository {
	return &donationRepository{db: db}
}

func (r *donationRepository) Donate(ctx context.Context, donation *entity.Donation) (*entity.Application, error) {
	var app entity.Application
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&app, "id = ?", donation.ApplicationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrApplicationNotFound
			}
			return err
		}
		if app.UserID == donation.DonorID {
			return ErrOwnApplication
		}
		if !app.AcceptsDonations() {
			return ErrApplicationClosed
		}

		// Guarded on status: a donation racing the funding of the same application is rejected.
		res := tx.Model(&entity.Application{}).
			Where("id = ? AND status = ?", app.ID, entity.ApplicationApproved).
			Updates(map[string]interface{}{
				"collected_amount": gorm.Expr("collected_amount + ?", donation.Amount),
				"status": gorm.Expr("CASE WHEN collected_amount + ? >= target_amount THEN ? ELSE status END",
					donation.Amount, entity.ApplicationFunded),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrApplicationClosed
		}

		if err := tx.Omit(clause.Associations).Create(donation).Error; err != nil {
			return err
		}
		return tx.First(&app, "id = ?", app.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *donationRepository) page(ctx context.Context, column string, id uuid.UUID, limit, offset int) ([]entity.Donation, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&entity.Donation{}).Where(column+" = ?", id).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	donations := []entity.Donation{}
	err := r.db.WithContext(ctx).
		Preload("Donor").
		Where(column+" = ?", id).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&donations).Error
	return donations, total, err
}

func (r *donationRepository) FindByApplication(ctx context.Context, applicationID uuid.UUID, limit, offset int) ([]entity.Donation, int64, error) {
	return r.page(ctx, "application_id", applicationID, limit, offset)
}

func (r *donationRepository) FindByDonor(ctx context.Context, donorID uuid.UUID, limit, offset int) ([]entity.Donation, int64, error) {
	return r.page(ctx, "donor_id", donorID, limit, offset)
}

func (r *donationRepository) CountByDonor(ctx context.Context, donorID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Donation{}).Where("donor_id = ?", donorID).Count(&count).Error
	return count, err
}

func (r *donationRepository) SumByDonor(ctx context.Context, donorID uuid.UUID) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).Model(&entity.Donation{}).
		Where("donor_id = ?", donorID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	return sum, err
}

func (r *donationRepository) SumAll(ctx context.Context) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).Model(&entity.Donation{}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	return sum, err
}
