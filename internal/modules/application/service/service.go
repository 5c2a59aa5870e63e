package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"anoa.com/kopilka/internal/entity"
	achievement "anoa.com/kopilka/internal/modules/achievement/service"
	"anoa.com/kopilka/internal/modules/application/dto"
	"anoa.com/kopilka/internal/modules/application/repository"
	attachmentDto "anoa.com/kopilka/internal/modules/attachment/dto"
	categoryDto "anoa.com/kopilka/internal/modules/category/dto"
	category "anoa.com/kopilka/internal/modules/category/service"
	search "anoa.com/kopilka/internal/modules/search/service"
	"anoa.com/kopilka/pkg/apperror"
	commonDto "anoa.com/kopilka/pkg/dto"
	"anoa.com/kopilka/pkg/logger"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

const ActionApplicationApproved = "application_approved"

type ApplicationService interface {
	Submit(ctx context.Context, userID uuid.UUID, req dto.SubmitApplicationRequest) (*dto.SubmitResponse, error)
	GetMine(ctx context.Context, userID uuid.UUID, q commonDto.PageQuery) ([]dto.ApplicationResponse, commonDto.PaginationMeta, error)
	// GetByID returns approved or funded applications to anyone and the rest only to their owner.
	GetByID(ctx context.Context, viewerID, id uuid.UUID) (*dto.ApplicationResponse, error)
	ListApproved(ctx context.Context, q dto.ApplicationListQuery) ([]dto.ApplicationResponse, commonDto.PaginationMeta, error)
	ListPending(ctx context.Context, q commonDto.PageQuery) ([]dto.ApplicationResponse, commonDto.PaginationMeta, error)
	Review(ctx context.Context, reviewerID, id uuid.UUID, req dto.ReviewApplicationRequest) (*dto.ApplicationResponse, error)
	Search(ctx context.Context, q dto.SearchQuery) ([]search.ApplicationDocument, commonDto.PaginationMeta, error)
}

type NotificationCreator interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
}

type applicationService struct {
	repo          repository.ApplicationRepository
	categories    category.CategoryService
	checker       achievement.Checker
	notifications NotificationCreator
	points        achievement.PointsAwarder
	search        search.SearchService
	sanitizer     *bluemonday.Policy
	log           *logger.Logger
	now           func() time.Time
}

func NewApplicationService(
	repo repository.ApplicationRepository,
	categories category.CategoryService,
	checker achievement.Checker,
	notifications NotificationCreator,
	points achievement.PointsAwarder,
	searchService search.SearchService,
	log *logger.Logger,
) ApplicationService {
	if searchService == nil {
		searchService = search.NewSearchService(nil, log)
	}
	return &applicationService{
		repo:          repo,
		categories:    categories,
		checker:       checker,
		notifications: notifications,
		points:        points,
		search:        searchService,
		sanitizer:     bluemonday.UGCPolicy(),
		log:           log.With("service", "ApplicationService"),
		now:           time.Now,
	}
}

func (s *applicationService) Submit(ctx context.Context, userID uuid.UUID, req dto.SubmitApplicationRequest) (*dto.SubmitResponse, error) {
	app := &entity.Application{
		UserID:       userID,
		Title:        strings.TrimSpace(req.Title),
		Description:  s.sanitizer.Sanitize(req.Description),
		TargetAmount: req.TargetAmount,
		Status:       entity.ApplicationPending,
	}
	if strings.TrimSpace(app.Description) == "" {
		return nil, fmt.Errorf("description: %w", apperror.ErrInvalidInput)
	}

	if req.CategorySlug != "" {
		categoryID, err := s.categories.ResolveSlug(ctx, req.CategorySlug)
		if err != nil {
			return nil, err
		}
		app.CategoryID = &categoryID
	}

	if err := s.repo.Create(ctx, app, req.AttachmentIDs); err != nil {
		return nil, apperror.Storage("create application", err)
	}
	s.log.Info("application submitted", "application_id", app.ID, "user_id", userID)

	unlocked := s.checkAchievements(ctx, userID)

	created, err := s.repo.FindByID(ctx, app.ID)
	if err != nil {
		return nil, apperror.Storage("load application", err)
	}
	return &dto.SubmitResponse{Application: ToResponse(created), Unlocked: unlocked}, nil
}

// checkAchievements runs the engine for userID. Failures never fail the triggering action.
func (s *applicationService) checkAchievements(ctx context.Context, userID uuid.UUID) []entity.AchievementDefinition {
	unlocked := []entity.AchievementDefinition{}
	if s.checker == nil {
		return unlocked
	}
	granted, err := s.checker.CheckAndGrantAutomaticAchievements(ctx, userID)
	if err != nil {
		s.log.Warn("achievement check failed", "user_id", userID, "error", err)
		return unlocked
	}
	return append(unlocked, granted...)
}

func (s *applicationService) GetMine(ctx context.Context, userID uuid.UUID, q commonDto.PageQuery) ([]dto.ApplicationResponse, commonDto.PaginationMeta, error) {
	apps, total, err := s.repo.FindByUser(ctx, userID, q.Limit, q.Offset())
	if err != nil {
		return nil, commonDto.PaginationMeta{}, apperror.Storage("list own applications", err)
	}
	return toResponses(apps), commonDto.NewPaginationMeta(q, total), nil
}

func (s *applicationService) GetByID(ctx context.Context, viewerID, id uuid.UUID) (*dto.ApplicationResponse, error) {
	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("application: %w", apperror.ErrNotFound)
		}
		return nil, apperror.Storage("find application", err)
	}

	if !isPublic(app.Status) && app.UserID != viewerID {
		return nil, fmt.Errorf("application: %w", apperror.ErrNotFound)
	}

	resp := ToResponse(app)
	return &resp, nil
}

func isPublic(status entity.ApplicationStatus) bool {
	return slices.Contains(repository.PublicStatuses, status)
}

func (s *applicationService) ListApproved(ctx context.Context, q dto.ApplicationListQuery) ([]dto.ApplicationResponse, commonDto.PaginationMeta, error) {
	var categoryID *uuid.UUID
	if q.Category != "" {
		id, err := s.categories.ResolveSlug(ctx, q.Category)
		if err != nil {
			return nil, commonDto.PaginationMeta{}, err
		}
		categoryID = &id
	}

	apps, total, err := s.repo.FindPublic(ctx, categoryID, q.Limit, q.Offset())
	if err != nil {
		return nil, commonDto.PaginationMeta{}, apperror.Storage("list applications", err)
	}
	return toResponses(apps), commonDto.NewPaginationMeta(q.PageQuery, total), nil
}

func (s *applicationService) ListPending(ctx context.Context, q commonDto.PageQuery) ([]dto.ApplicationResponse, commonDto.PaginationMeta, error) {
	apps, total, err := s.repo.FindPending(ctx, q.Limit, q.Offset())
	if err != nil {
		return nil, commonDto.PaginationMeta{}, apperror.Storage("list pending applications", err)
	}
	return toResponses(apps), commonDto.NewPaginationMeta(q, total), nil
}

func (s *applicationService) Review(ctx context.Context, reviewerID, id uuid.UUID, req dto.ReviewApplicationRequest) (*dto.ApplicationResponse, error) {
	status := entity.ApplicationRejected
	if req.Decision == "approve" {
		status = entity.ApplicationApproved
	}
	var note *string
	if trimmed := strings.TrimSpace(req.Note); trimmed != "" {
		note = &trimmed
	}

	n, err := s.repo.Review(ctx, id, status, note, reviewerID, s.now())
	if err != nil {
		return nil, apperror.Storage("review application", err)
	}

	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("application: %w", apperror.ErrNotFound)
		}
		return nil, apperror.Storage("load application", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("application is already %s: %w", strings.ToLower(string(app.Status)), apperror.ErrConflict)
	}

	s.log.Info("application reviewed", "application_id", id, "status", status, "reviewer_id", reviewerID)
	s.afterReview(ctx, app)

	resp := ToResponse(app)
	return &resp, nil
}

func (s *applicationService) afterReview(ctx context.Context, app *entity.Application) {
	approved := app.Status == entity.ApplicationApproved

	if s.notifications != nil {
		message := fmt.Sprintf("Your application \"%s\" was rejected.", app.Title)
		if approved {
			message = fmt.Sprintf("Your application \"%s\" was approved and is open for donations.", app.Title)
		}
		appID := app.ID
		if err := s.notifications.CreateNotification(ctx, &entity.Notification{
			UserID:     app.UserID,
			EntityID:   &appID,
			EntityType: "application",
			Type:       entity.NotificationApplicationReviewed,
			Message:    message,
		}); err != nil {
			s.log.Warn("failed to notify applicant", "application_id", app.ID, "error", err)
		}
	}

	if !approved {
		return
	}

	if err := s.search.IndexApplication(app); err != nil {
		s.log.Warn("failed to index application", "application_id", app.ID, "error", err)
	}
	if s.points != nil {
		s.points.AddPointsAsync(app.UserID, ActionApplicationApproved, app.ID.String(), "applications")
	}
	s.checkAchievements(ctx, app.UserID)
}

func (s *applicationService) Search(ctx context.Context, q dto.SearchQuery) ([]search.ApplicationDocument, commonDto.PaginationMeta, error) {
	hits, total, err := s.search.SearchApplications(ctx, strings.TrimSpace(q.Q), q.Limit, q.Offset())
	if err != nil {
		return nil, commonDto.PaginationMeta{}, err
	}
	return hits, commonDto.NewPaginationMeta(q.PageQuery, total), nil
}

func toResponses(apps []entity.Application) []dto.ApplicationResponse {
	out := make([]dto.ApplicationResponse, 0, len(apps))
	for i := range apps {
		out = append(out, ToResponse(&apps[i]))
	}
	return out
}

func ToResponse(app *entity.Application) dto.ApplicationResponse {
	resp := dto.ApplicationResponse{
		ID:              app.ID.String(),
		Title:           app.Title,
		Description:     app.Description,
		TargetAmount:    app.TargetAmount,
		CollectedAmount: app.CollectedAmount,
		Status:          app.Status,
		ReviewNote:      app.ReviewNote,
		ReviewedAt:      app.ReviewedAt,
		Author: commonDto.AuthorResponse{
			ID:        app.User.ID.String(),
			Username:  app.User.Username,
			AvatarURL: app.User.AvatarURL,
		},
		Attachments: make([]attachmentDto.AttachmentResponse, 0, len(app.Attachments)),
		CreatedAt:   app.CreatedAt,
	}
	if app.Category != nil {
		resp.Category = &categoryDto.CategoryResponse{
			ID:          app.Category.ID,
			Name:        app.Category.Name,
			Slug:        app.Category.Slug,
			Description: app.Category.Description,
		}
	}
	for _, a := range app.Attachments {
		resp.Attachments = append(resp.Attachments, attachmentDto.AttachmentResponse{
			ID:       a.ID,
			FileURL:  a.FileURL,
			FileType: a.FileType,
		})
	}
	return resp
}
