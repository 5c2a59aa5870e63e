package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"anoa.com/kopilka/internal/entity"
	achievementDto "anoa.com/kopilka/internal/modules/achievement/dto"
	leaderboard "anoa.com/kopilka/internal/modules/leaderboard/service"
	profileDto "anoa.com/kopilka/internal/modules/profile/dto"
	userRepo "anoa.com/kopilka/internal/modules/user/repository"
	"anoa.com/kopilka/pkg/apperror"
	commonDto "anoa.com/kopilka/pkg/dto"
	"anoa.com/kopilka/pkg/logger"
	"anoa.com/kopilka/pkg/storage"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type HeroStatusReader interface {
	GetHeroStatus(ctx context.Context, userID uuid.UUID) (commonDto.HeroStatus, error)
}

type AchievementStatsReader interface {
	GetUserAchievementStats(ctx context.Context, userID uuid.UUID) (*achievementDto.AchievementStats, error)
}

type ProfileService interface {
	UpdateProfile(ctx context.Context, userID uuid.UUID, input profileDto.UpdateProfileInput, avatar *profileDto.AvatarFile) (*profileDto.ProfileResponse, error)
	GetProfileByUsername(ctx context.Context, username string) (*profileDto.PublicProfileResponse, error)
	GetCurrentProfile(ctx context.Context, userID uuid.UUID) (*profileDto.ProfileResponse, error)
}

type profileService struct {
	repo         userRepo.UserRepository
	storage      storage.FileStorage
	folder       string
	heroes       HeroStatusReader
	achievements AchievementStatsReader
	log          *logger.Logger
}

func NewProfileService(repo userRepo.UserRepository, fileStorage storage.FileStorage, folder string, heroes HeroStatusReader, achievements AchievementStatsReader, log *logger.Logger) ProfileService {
	return &profileService{
		repo:         repo,
		storage:      fileStorage,
		folder:       folder,
		heroes:       heroes,
		achievements: achievements,
		log:          log.With("service", "ProfileService"),
	}
}

func (s *profileService) UpdateProfile(ctx context.Context, userID uuid.UUID, input profileDto.UpdateProfileInput, avatar *profileDto.AvatarFile) (*profileDto.ProfileResponse, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Username != nil {
		username := strings.ReplaceAll(strings.TrimSpace(*input.Username), " ", "_")
		if username != "" && username != user.Username {
			if len(username) < 3 || len(username) > 50 {
				return nil, fmt.Errorf("username must be 3 to 50 characters: %w", apperror.ErrInvalidInput)
			}
			if _, err := s.repo.FindByUsername(ctx, username); err == nil {
				return nil, fmt.Errorf("username %s is already taken: %w", username, apperror.ErrConflict)
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperror.Storage("find user by username", err)
			}
			user.Username = username
		}
	}

	if input.Password != nil && *input.Password != "" {
		if len(*input.Password) < 8 {
			return nil, fmt.Errorf("password must be at least 8 characters: %w", apperror.ErrInvalidInput)
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hashed)
	}

	if avatar != nil && avatar.Reader != nil && s.storage != nil {
		url, err := s.storage.Upload(ctx, avatar.Reader, s.folder+"/avatars", avatar.FileName)
		if err != nil {
			return nil, fmt.Errorf("upload avatar: %w", err)
		}
		user.AvatarURL = &url
	}

	profile := user.Profile
	if profile == nil {
		profile = &entity.Profile{UserID: user.ID, FullName: user.Username}
	}
	if input.FullName != nil && strings.TrimSpace(*input.FullName) != "" {
		profile.FullName = strings.TrimSpace(*input.FullName)
	}
	if input.City != nil {
		profile.City = normalizeOptional(input.City)
	}
	if input.Bio != nil {
		profile.Bio = normalizeOptional(input.Bio)
	}

	if err := s.repo.Update(ctx, user, profile); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("username %s is already taken: %w", user.Username, apperror.ErrConflict)
		}
		return nil, apperror.Storage("update profile", err)
	}

	return s.GetCurrentProfile(ctx, userID)
}

func (s *profileService) GetProfileByUsername(ctx context.Context, username string) (*profileDto.PublicProfileResponse, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %s: %w", username, apperror.ErrNotFound)
	}
	if err != nil {
		return nil, apperror.Storage("find user by username", err)
	}

	res := &profileDto.PublicProfileResponse{
		Username:     user.Username,
		Role:         user.Role.Name,
		AvatarURL:    user.AvatarURL,
		CreatedAt:    user.CreatedAt,
		HeroStatus:   s.heroStatus(ctx, user.ID),
		Achievements: s.achievementStats(ctx, user.ID),
	}
	if user.Profile != nil {
		res.FullName = user.Profile.FullName
		res.City = user.Profile.City
		res.Bio = user.Profile.Bio
	}
	return res, nil
}

func (s *profileService) GetCurrentProfile(ctx context.Context, userID uuid.UUID) (*profileDto.ProfileResponse, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &profileDto.ProfileResponse{
		User:         user,
		HeroStatus:   s.heroStatus(ctx, user.ID),
		Achievements: s.achievementStats(ctx, user.ID),
	}, nil
}

func (s *profileService) findUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user: %w", apperror.ErrNotFound)
	}
	if err != nil {
		return nil, apperror.Storage("find user", err)
	}
	return user, nil
}

// heroStatus falls back to the newcomer rank so a board outage never hides the profile.
func (s *profileService) heroStatus(ctx context.Context, userID uuid.UUID) commonDto.HeroStatus {
	if s.heroes != nil {
		status, err := s.heroes.GetHeroStatus(ctx, userID)
		if err == nil {
			return status
		}
		s.log.Warn("load hero status failed", "user_id", userID, "error", err)
	}
	return leaderboard.GetHeroStatus(0)
}

func (s *profileService) achievementStats(ctx context.Context, userID uuid.UUID) *achievementDto.AchievementStats {
	if s.achievements == nil {
		return nil
	}
	stats, err := s.achievements.GetUserAchievementStats(ctx, userID)
	if err != nil {
		s.log.Warn("load achievement stats failed", "user_id", userID, "error", err)
		return nil
	}
	return stats
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}

	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}

	result := trimmed
	return &result
}
