package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"anoa.com/kopilka/internal/entity"
	achievement "anoa.com/kopilka/internal/modules/achievement/service"
	"anoa.com/kopilka/internal/modules/user/dto"
	"anoa.com/kopilka/internal/modules/user/repository"
	"anoa.com/kopilka/pkg/apperror"
	"anoa.com/kopilka/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", apperror.ErrUnauthorized)

type AuthService interface {
	Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error)
	Login(ctx context.Context, input dto.LoginInput, ipAddress string) (*dto.AuthResponse, error)
}

type authService struct {
	repo     repository.UserRepository
	checker  achievement.Checker
	secret   string
	tokenTTL time.Duration
	log      *logger.Logger
	now      func() time.Time
}

func NewAuthService(repo repository.UserRepository, checker achievement.Checker, secret string, tokenTTL time.Duration, log *logger.Logger) AuthService {
	return &authService{
		repo:     repo,
		checker:  checker,
		secret:   secret,
		tokenTTL: tokenTTL,
		log:      log.With("service", "AuthService"),
		now:      time.Now,
	}
}

func (s *authService) Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	username := strings.TrimSpace(input.Username)

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", apperror.ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Storage("find user by email", err)
	}
	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("username already taken: %w", apperror.ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Storage("find user by username", err)
	}

	role, err := s.repo.FindRoleByName(ctx, entity.RoleMember)
	if err != nil {
		return nil, apperror.Storage("find member role", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
		RoleID:       &role.ID,
	}
	profile := &entity.Profile{FullName: input.FullName}
	if input.City != "" {
		profile.City = &input.City
	}

	if err := s.repo.Create(ctx, user, profile); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("user already exists: %w", apperror.ErrConflict)
		}
		return nil, apperror.Storage("create user", err)
	}
	user.Role = *role

	s.log.Info("user registered", "user_id", user.ID)
	return s.buildAuthResponse(user, nil)
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput, ipAddress string) (*dto.AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, apperror.Storage("find user by email", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.repo.RecordLogin(ctx, &entity.LoginRecord{
		UserID:    user.ID,
		IPAddress: ipAddress,
		CreatedAt: s.now(),
	}); err != nil {
		return nil, apperror.Storage("record login", err)
	}

	var unlocked []entity.AchievementDefinition
	if s.checker != nil {
		unlocked, err = s.checker.CheckAndGrantAutomaticAchievements(ctx, user.ID)
		if err != nil {
			s.log.Warn("achievement check after login failed", "user_id", user.ID, "error", err)
		}
	}

	return s.buildAuthResponse(user, unlocked)
}

func (s *authService) buildAuthResponse(user *entity.User, unlocked []entity.AchievementDefinition) (*dto.AuthResponse, error) {
	token, expiresAt, err := GenerateToken(s.secret, user.ID, s.now(), s.tokenTTL)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	if unlocked == nil {
		unlocked = []entity.AchievementDefinition{}
	}

	return &dto.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresAt,
		User:        user,
		Role:        &user.Role,
		Profile:     user.Profile,
		Unlocked:    unlocked,
	}, nil
}

// GenerateToken signs an HS256 token whose subject is the user id.
func GenerateToken(secret string, userID uuid.UUID, now time.Time, ttl time.Duration) (string, int64, error) {
	expiresAt := now.Add(ttl)

	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", 0, err
	}

	return signed, expiresAt.Unix(), nil
}
