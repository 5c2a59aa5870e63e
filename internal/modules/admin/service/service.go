package admin

import (
	"context"
	"errors"
	"fmt"

	"anoa.com/kopilka/internal/entity"
	"anoa.com/kopilka/internal/modules/admin/dto"
	userRepo "anoa.com/kopilka/internal/modules/user/repository"
	"anoa.com/kopilka/pkg/apperror"
	commonDto "anoa.com/kopilka/pkg/dto"
	"anoa.com/kopilka/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AdminService interface {
	GetAllUsers(ctx context.Context, q dto.UserListQuery) ([]dto.AdminUserResponse, commonDto.PaginationMeta, error)
	UpdateRole(ctx context.Context, actorID, userID uuid.UUID, role string) (*dto.AdminUserResponse, error)
	DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error
}

type adminService struct {
	repo userRepo.UserRepository
	log  *logger.Logger
}

func NewAdminService(repo userRepo.UserRepository, log *logger.Logger) AdminService {
	return &adminService{
		repo: repo,
		log:  log.With("service", "AdminService"),
	}
}

func (s *adminService) GetAllUsers(ctx context.Context, q dto.UserListQuery) ([]dto.AdminUserResponse, commonDto.PaginationMeta, error) {
	users, total, err := s.repo.FindAll(ctx, q.Limit, q.Offset())
	if err != nil {
		return nil, commonDto.PaginationMeta{}, apperror.Storage("list users", err)
	}

	res := make([]dto.AdminUserResponse, 0, len(users))
	for _, u := range users {
		res = append(res, toResponse(u))
	}
	return res, commonDto.NewPaginationMeta(q.PageQuery, total), nil
}

func (s *adminService) UpdateRole(ctx context.Context, actorID, userID uuid.UUID, role string) (*dto.AdminUserResponse, error) {
	if actorID == userID {
		return nil, fmt.Errorf("admins cannot change their own role: %w", apperror.ErrForbidden)
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	target, err := s.repo.FindRoleByName(ctx, role)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("role %s: %w", role, apperror.ErrInvalidInput)
	}
	if err != nil {
		return nil, apperror.Storage("find role", err)
	}

	user.RoleID = &target.ID
	if err := s.repo.Update(ctx, user, nil); err != nil {
		return nil, apperror.Storage("update role", err)
	}
	user.Role = *target

	s.log.Info("user role changed", "actor_id", actorID, "user_id", userID, "role", role)
	res := toResponse(user)
	return &res, nil
}

func (s *adminService) DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error {
	if actorID == userID {
		return fmt.Errorf("admins cannot delete themselves: %w", apperror.ErrForbidden)
	}
	if _, err := s.findUser(ctx, userID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID); err != nil {
		return apperror.Storage("delete user", err)
	}

	s.log.Info("user deleted", "actor_id", actorID, "user_id", userID)
	return nil
}

func (s *adminService) findUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user: %w", apperror.ErrNotFound)
	}
	if err != nil {
		return nil, apperror.Storage("find user", err)
	}
	return user, nil
}

func toResponse(u *entity.User) dto.AdminUserResponse {
	res := dto.AdminUserResponse{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role.Name,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
	}
	if u.Profile != nil {
		res.FullName = u.Profile.FullName
	}
	return res
}
