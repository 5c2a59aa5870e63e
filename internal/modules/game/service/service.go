package game

import (
	"context"
	"fmt"
	"slices"

	"anoa.com/kopilka/internal/entity"
	achievement "anoa.com/kopilka/internal/modules/achievement/service"
	"anoa.com/kopilka/internal/modules/game/dto"
	"anoa.com/kopilka/internal/modules/game/repository"
	"anoa.com/kopilka/pkg/apperror"
	"anoa.com/kopilka/pkg/logger"
	"github.com/google/uuid"
)

type GameService interface {
	SubmitScore(ctx context.Context, userID uuid.UUID, req dto.SubmitScoreRequest) (*dto.ScoreResult, error)
	BestScores(ctx context.Context, userID uuid.UUID) (map[string]int64, error)
}

type gameService struct {
	repo    repository.GameRepository
	checker achievement.Checker
	log     *logger.Logger
}

func NewGameService(repo repository.GameRepository, checker achievement.Checker, log *logger.Logger) GameService {
	return &gameService{
		repo:    repo,
		checker: checker,
		log:     log.With("service", "GameService"),
	}
}

func (s *gameService) SubmitScore(ctx context.Context, userID uuid.UUID, req dto.SubmitScoreRequest) (*dto.ScoreResult, error) {
	if !slices.Contains(entity.GameTypes, req.GameType) {
		return nil, fmt.Errorf("unknown game %q: %w", req.GameType, apperror.ErrInvalidInput)
	}
	if req.Score == nil || *req.Score < 0 {
		return nil, fmt.Errorf("score must not be negative: %w", apperror.ErrInvalidInput)
	}
	score := *req.Score

	before, err := s.repo.BestScores(ctx, userID)
	if err != nil {
		return nil, apperror.Storage("load best scores", err)
	}
	previous, played := before[req.GameType]

	if err := s.repo.Create(ctx, &entity.GameRecord{UserID: userID, GameType: req.GameType, Score: score}); err != nil {
		return nil, apperror.Storage("save game score", err)
	}

	result := &dto.ScoreResult{
		GameType:  req.GameType,
		Score:     score,
		BestScore: max(previous, score),
		NewBest:   !played || score > previous,
		Unlocked:  []entity.AchievementDefinition{},
	}

	if s.checker != nil {
		granted, err := s.checker.CheckAndGrantAutomaticAchievements(ctx, userID)
		if err != nil {
			s.log.Warn("achievement check after game failed", "user_id", userID, "error", err)
		} else {
			result.Unlocked = append(result.Unlocked, granted...)
		}
	}
	return result, nil
}

func (s *gameService) BestScores(ctx context.Context, userID uuid.UUID) (map[string]int64, error) {
	best, err := s.repo.BestScores(ctx, userID)
	if err != nil {
		return nil, apperror.Storage("load best scores", err)
	}
	return best, nil
}
