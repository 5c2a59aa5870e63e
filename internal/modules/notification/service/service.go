package service

import (
	"context"
	"fmt"

	"anoa.com/kopilka/internal/entity"
	notifRepo "anoa.com/kopilka/internal/modules/notification/repository"
	"anoa.com/kopilka/internal/realtime"
	"anoa.com/kopilka/pkg/apperror"
	"anoa.com/kopilka/pkg/logger"
	"github.com/google/uuid"
)

type NotificationService interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
	NotifyAchievementUnlocked(ctx context.Context, userID uuid.UUID, def entity.AchievementDefinition) error
	GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Notification, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type notificationService struct {
	repo   notifRepo.NotificationRepository
	broker *realtime.Broker
	log    *logger.Logger
}

func NewNotificationService(repo notifRepo.NotificationRepository, broker *realtime.Broker, log *logger.Logger) NotificationService {
	return &notificationService{
		repo:   repo,
		broker: broker,
		log:    log.With("service", "NotificationService"),
	}
}

// CreateNotification stores the notification and pushes it to the user's live connections.
// A failed push is logged; the stored row is the source of truth.
func (s *notificationService) CreateNotification(ctx context.Context, notification *entity.Notification) error {
	if err := s.repo.Create(ctx, notification); err != nil {
		return apperror.Storage("create notification", err)
	}

	if s.broker != nil {
		msg := realtime.Message{UserID: notification.UserID, Event: realtime.EventNotification, Data: notification}
		if err := s.broker.Publish(ctx, msg); err != nil {
			s.log.Warn("realtime publish failed", "user_id", notification.UserID, "error", err)
		}
	}

	return nil
}

func (s *notificationService) NotifyAchievementUnlocked(ctx context.Context, userID uuid.UUID, def entity.AchievementDefinition) error {
	achievementID := def.ID
	return s.CreateNotification(ctx, &entity.Notification{
		UserID:     userID,
		EntityID:   &achievementID,
		EntityType: "achievement",
		Type:       entity.NotificationAchievementUnlocked,
		Message:    fmt.Sprintf("%s Achievement unlocked: %s", def.Icon, def.Name),
	})
}

func (s *notificationService) GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Notification, error) {
	notifications, err := s.repo.GetByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperror.Storage("list notifications", err)
	}
	return notifications, nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	n, err := s.repo.MarkAsRead(ctx, id, userID)
	if err != nil {
		return apperror.Storage("mark notification read", err)
	}
	if n == 0 {
		return fmt.Errorf("notification: %w", apperror.ErrNotFound)
	}
	return nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.MarkAllAsRead(ctx, userID); err != nil {
		return apperror.Storage("mark notifications read", err)
	}
	return nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperror.Storage("count unread notifications", err)
	}
	return count, nil
}
