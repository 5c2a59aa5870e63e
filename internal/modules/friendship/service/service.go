package friendship

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anoa.com/kopilka/internal/entity"
	achievement "anoa.com/kopilka/internal/modules/achievement/service"
	"anoa.com/kopilka/internal/modules/friendship/dto"
	"anoa.com/kopilka/internal/modules/friendship/repository"
	"anoa.com/kopilka/pkg/apperror"
	commonDto "anoa.com/kopilka/pkg/dto"
	"anoa.com/kopilka/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FriendshipService interface {
	// SendRequest asks targetID for friendship. A pending request in the other direction is accepted instead.
	SendRequest(ctx context.Context, userID, targetID uuid.UUID) (*dto.AcceptResult, error)
	Accept(ctx context.Context, userID, friendshipID uuid.UUID) (*dto.AcceptResult, error)
	// Remove declines, cancels or ends a friendship. Either side may call it.
	Remove(ctx context.Context, userID, friendshipID uuid.UUID) error
	ListFriends(ctx context.Context, userID uuid.UUID) ([]dto.FriendshipResponse, error)
	ListIncoming(ctx context.Context, userID uuid.UUID) ([]dto.FriendshipResponse, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

type NotificationCreator interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
}

type friendshipService struct {
	repo          repository.FriendshipRepository
	users         UserFinder
	checker       achievement.Checker
	notifications NotificationCreator
	log           *logger.Logger
	now           func() time.Time
}

func NewFriendshipService(repo repository.FriendshipRepository, users UserFinder, checker achievement.Checker, notifications NotificationCreator, log *logger.Logger) FriendshipService {
	return &friendshipService{
		repo:          repo,
		users:         users,
		checker:       checker,
		notifications: notifications,
		log:           log.With("service", "FriendshipService"),
		now:           time.Now,
	}
}

func (s *friendshipService) SendRequest(ctx context.Context, userID, targetID uuid.UUID) (*dto.AcceptResult, error) {
	if userID == targetID {
		return nil, fmt.Errorf("cannot befriend yourself: %w", apperror.ErrInvalidInput)
	}
	if _, err := s.users.FindByID(ctx, targetID); err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("user: %w", apperror.ErrNotFound)
		}
		return nil, apperror.Storage("find user", err)
	}

	existing, err := s.repo.FindBetween(ctx, userID, targetID)
	switch {
	case err == nil && existing.Status == entity.FriendshipAccepted:
		return nil, fmt.Errorf("already friends: %w", apperror.ErrConflict)
	case err == nil && existing.RequesterID == userID:
		return nil, fmt.Errorf("friend request already sent: %w", apperror.ErrConflict)
	case err == nil:
		return s.Accept(ctx, userID, existing.ID)
	case !repository.IsNotFound(err):
		return nil, apperror.Storage("find friendship", err)
	}

	f := &entity.Friendship{
		RequesterID: userID,
		AddresseeID: targetID,
		Status:      entity.FriendshipPending,
	}
	if err := s.repo.Create(ctx, f); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("friend request already sent: %w", apperror.ErrConflict)
		}
		return nil, apperror.Storage("create friendship", err)
	}

	s.notify(ctx, targetID, userID, f.ID, entity.NotificationFriendRequest, "You have a new friend request.")

	created, err := s.repo.FindByID(ctx, f.ID)
	if err != nil {
		return nil, apperror.Storage("load friendship", err)
	}
	return &dto.AcceptResult{Friendship: toResponse(created, userID), Unlocked: []entity.AchievementDefinition{}}, nil
}

func (s *friendshipService) Accept(ctx context.Context, userID, friendshipID uuid.UUID) (*dto.AcceptResult, error) {
	n, err := s.repo.Accept(ctx, friendshipID, userID, s.now())
	if err != nil {
		return nil, apperror.Storage("accept friendship", err)
	}

	f, err := s.repo.FindByID(ctx, friendshipID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("friend request: %w", apperror.ErrNotFound)
		}
		return nil, apperror.Storage("load friendship", err)
	}
	if n == 0 {
		if f.AddresseeID != userID && f.RequesterID != userID {
			return nil, fmt.Errorf("friend request: %w", apperror.ErrNotFound)
		}
		if f.AddresseeID != userID {
			return nil, fmt.Errorf("only the addressee can accept: %w", apperror.ErrForbidden)
		}
		return nil, fmt.Errorf("already friends: %w", apperror.ErrConflict)
	}

	s.log.Info("friendship accepted", "friendship_id", f.ID)
	s.notify(ctx, f.RequesterID, userID, f.ID, entity.NotificationFriendAccepted, "Your friend request was accepted.")

	unlocked := s.checkAchievements(ctx, userID)
	s.checkAchievements(ctx, f.RequesterID)

	return &dto.AcceptResult{Friendship: toResponse(f, userID), Unlocked: unlocked}, nil
}

func (s *friendshipService) checkAchievements(ctx context.Context, userID uuid.UUID) []entity.AchievementDefinition {
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

func (s *friendshipService) notify(ctx context.Context, to, actor, friendshipID uuid.UUID, kind, message string) {
	if s.notifications == nil {
		return
	}
	if err := s.notifications.CreateNotification(ctx, &entity.Notification{
		UserID:     to,
		ActorID:    &actor,
		EntityID:   &friendshipID,
		EntityType: "friendship",
		Type:       kind,
		Message:    message,
	}); err != nil {
		s.log.Warn("failed to send friendship notification", "user_id", to, "error", err)
	}
}

func (s *friendshipService) Remove(ctx context.Context, userID, friendshipID uuid.UUID) error {
	f, err := s.repo.FindByID(ctx, friendshipID)
	if err != nil {
		if repository.IsNotFound(err) {
			return fmt.Errorf("friendship: %w", apperror.ErrNotFound)
		}
		return apperror.Storage("find friendship", err)
	}
	if f.RequesterID != userID && f.AddresseeID != userID {
		return fmt.Errorf("friendship: %w", apperror.ErrNotFound)
	}

	if err := s.repo.Delete(ctx, friendshipID); err != nil && !repository.IsNotFound(err) {
		return apperror.Storage("delete friendship", err)
	}
	return nil
}

func (s *friendshipService) ListFriends(ctx context.Context, userID uuid.UUID) ([]dto.FriendshipResponse, error) {
	friends, err := s.repo.ListFriends(ctx, userID)
	if err != nil {
		return nil, apperror.Storage("list friends", err)
	}
	return toResponses(friends, userID), nil
}

func (s *friendshipService) ListIncoming(ctx context.Context, userID uuid.UUID) ([]dto.FriendshipResponse, error) {
	pending, err := s.repo.ListIncoming(ctx, userID)
	if err != nil {
		return nil, apperror.Storage("list friend requests", err)
	}
	return toResponses(pending, userID), nil
}

func toResponses(list []entity.Friendship, viewerID uuid.UUID) []dto.FriendshipResponse {
	out := make([]dto.FriendshipResponse, 0, len(list))
	for i := range list {
		out = append(out, toResponse(&list[i], viewerID))
	}
	return out
}

// toResponse describes the friendship from viewerID's side.
func toResponse(f *entity.Friendship, viewerID uuid.UUID) dto.FriendshipResponse {
	friend := f.Requester
	if f.RequesterID == viewerID {
		friend = f.Addressee
	}
	return dto.FriendshipResponse{
		ID: f.ID.String(),
		Friend: commonDto.AuthorResponse{
			ID:        friend.ID.String(),
			Username:  friend.Username,
			AvatarURL: friend.AvatarURL,
		},
		Status:     f.Status,
		Incoming:   f.AddresseeID == viewerID,
		CreatedAt:  f.CreatedAt,
		AcceptedAt: f.AcceptedAt,
	}
}
