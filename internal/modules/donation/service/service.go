package donation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"anoa.com/kopilka/internal/entity"
	achievement "anoa.com/kopilka/internal/modules/achievement/service"
	"anoa.com/kopilka/internal/modules/donation/dto"
	"anoa.com/kopilka/internal/modules/donation/repository"
	"anoa.com/kopilka/pkg/apperror"
	commonDto "anoa.com/kopilka/pkg/dto"
	"anoa.com/kopilka/pkg/logger"
	"github.com/google/uuid"
)

type DonationService interface {
	Donate(ctx context.Context, donorID, applicationID uuid.UUID, req dto.DonateRequest) (*dto.DonateResult, error)
	ListForApplication(ctx context.Context, applicationID uuid.UUID, q commonDto.PageQuery) ([]dto.DonationResponse, commonDto.PaginationMeta, error)
	ListMine(ctx context.Context, donorID uuid.UUID, q commonDto.PageQuery) ([]dto.DonationResponse, commonDto.PaginationMeta, error)
}

type PointsAwarder interface {
	AddDonationPointsAsync(userID uuid.UUID, donationID uuid.UUID, amount int64)
}

type NotificationCreator interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
}

type donationService struct {
	repo          repository.DonationRepository
	checker       achievement.Checker
	notifications NotificationCreator
	points        PointsAwarder
	log           *logger.Logger
}

func NewDonationService(repo repository.DonationRepository, checker achievement.Checker, notifications NotificationCreator, points PointsAwarder, log *logger.Logger) DonationService {
	return &donationService{
		repo:          repo,
		checker:       checker,
		notifications: notifications,
		points:        points,
		log:           log.With("service", "DonationService"),
	}
}

func (s *donationService) Donate(ctx context.Context, donorID, applicationID uuid.UUID, req dto.DonateRequest) (*dto.DonateResult, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive: %w", apperror.ErrInvalidInput)
	}

	donation := &entity.Donation{
		DonorID:       donorID,
		ApplicationID: applicationID,
		Amount:        req.Amount,
		Anonymous:     req.Anonymous,
	}
	if msg := strings.TrimSpace(req.Message); msg != "" {
		donation.Message = &msg
	}

	app, err := s.repo.Donate(ctx, donation)
	switch {
	case errors.Is(err, repository.ErrApplicationNotFound):
		return nil, fmt.Errorf("application: %w", apperror.ErrNotFound)
	case errors.Is(err, repository.ErrOwnApplication):
		return nil, fmt.Errorf("%w: %w", repository.ErrOwnApplication, apperror.ErrForbidden)
	case errors.Is(err, repository.ErrApplicationClosed):
		return nil, fmt.Errorf("%w: %w", repository.ErrApplicationClosed, apperror.ErrConflict)
	case err != nil:
		return nil, apperror.Storage("record donation", err)
	}
	s.log.Info("donation recorded", "donation_id", donation.ID, "application_id", app.ID, "amount", donation.Amount)
	s.notifyRecipient(ctx, app, donation)

	if s.points != nil {
		s.points.AddDonationPointsAsync(donorID, donation.ID, donation.Amount)
	}

	unlocked := []entity.AchievementDefinition{}
	if s.checker != nil {
		granted, err := s.checker.CheckAndGrantAutomaticAchievements(ctx, donorID)
		if err != nil {
			s.log.Warn("achievement check after donation failed", "user_id", donorID, "error", err)
		} else {
			unlocked = append(unlocked, granted...)
		}
	}

	return &dto.DonateResult{
		Donation:          toResponse(donation, nil),
		CollectedAmount:   app.CollectedAmount,
		ApplicationStatus: app.Status,
		Unlocked:          unlocked,
	}, nil
}

func (s *donationService) notifyRecipient(ctx context.Context, app *entity.Application, donation *entity.Donation) {
	if s.notifications == nil {
		return
	}

	appID := app.ID
	notification := &entity.Notification{
		UserID:     app.UserID,
		EntityID:   &appID,
		EntityType: "application",
		Type:       entity.NotificationDonationReceived,
		Message:    fmt.Sprintf("Your application \"%s\" received a donation of %d.", app.Title, donation.Amount),
	}
	if !donation.Anonymous {
		donorID := donation.DonorID
		notification.ActorID = &donorID
	}
	if app.Status == entity.ApplicationFunded {
		notification.Message = fmt.Sprintf("Your application \"%s\" is fully funded!", app.Title)
	}

	if err := s.notifications.CreateNotification(ctx, notification); err != nil {
		s.log.Warn("failed to notify recipient", "application_id", app.ID, "error", err)
	}
}

func (s *donationService) ListForApplication(ctx context.Context, applicationID uuid.UUID, q commonDto.PageQuery) ([]dto.DonationResponse, commonDto.PaginationMeta, error) {
	donations, total, err := s.repo.FindByApplication(ctx, applicationID, q.Limit, q.Offset())
	if err != nil {
		return nil, commonDto.PaginationMeta{}, apperror.Storage("list donations", err)
	}
	return toResponses(donations), commonDto.NewPaginationMeta(q, total), nil
}

func (s *donationService) ListMine(ctx context.Context, donorID uuid.UUID, q commonDto.PageQuery) ([]dto.DonationResponse, commonDto.PaginationMeta, error) {
	donations, total, err := s.repo.FindByDonor(ctx, donorID, q.Limit, q.Offset())
	if err != nil {
		return nil, commonDto.PaginationMeta{}, apperror.Storage("list own donations", err)
	}
	return toResponses(donations), commonDto.NewPaginationMeta(q, total), nil
}

func toResponses(donations []entity.Donation) []dto.DonationResponse {
	out := make([]dto.DonationResponse, 0, len(donations))
	for i := range donations {
		d := &donations[i]
		out = append(out, toResponse(d, &d.Donor))
	}
	return out
}

// toResponse hides the donor of anonymous donations.
func toResponse(d *entity.Donation, donor *entity.User) dto.DonationResponse {
	resp := dto.DonationResponse{
		ID:            d.ID.String(),
		ApplicationID: d.ApplicationID.String(),
		Amount:        d.Amount,
		Message:       d.Message,
		Anonymous:     d.Anonymous,
		CreatedAt:     d.CreatedAt,
	}
	if donor != nil && !d.Anonymous && donor.ID != uuid.Nil {
		resp.Donor = &commonDto.AuthorResponse{
			ID:        donor.ID.String(),
			Username:  donor.Username,
			AvatarURL: donor.AvatarURL,
		}
	}
	return resp
}
