package service

import (
	"context"
	"fmt"
	"sync"

	"anoa.com/kopilka/internal/entity"
	leaderboardDto "anoa.com/kopilka/internal/modules/leaderboard/dto"
	leaderboardRepo "anoa.com/kopilka/internal/modules/leaderboard/repository"
	notifService "anoa.com/kopilka/internal/modules/notification/service"
	"anoa.com/kopilka/pkg/apperror"
	commonDto "anoa.com/kopilka/pkg/dto"
	"anoa.com/kopilka/pkg/logger"
	"github.com/google/uuid"
)

const (
	ActionDonation            = "donation"
	ActionApplicationApproved = "application_approved"
	ActionAchievementUnlocked = "achievement_unlocked"

	PointsApplicationApproved = 5
	PointsAchievementUnlocked = 10

	// DonationUnitsPerPoint is how many donated minor units earn one point.
	DonationUnitsPerPoint = 1000
)

type LeaderboardService interface {
	// AddPointsAsync awards the fixed points of actionType in the background.
	AddPointsAsync(userID uuid.UUID, actionType, referenceID, referenceTable string)
	AddDonationPointsAsync(userID uuid.UUID, donationID uuid.UUID, amount int64)
	AddPoints(ctx context.Context, userID uuid.UUID, actionType, referenceID, referenceTable string, points int) error
	GetLeaderboard(ctx context.Context, limit int, timeframe string) ([]leaderboardDto.HeroEntry, error)
	GetHeroStatus(ctx context.Context, userID uuid.UUID) (commonDto.HeroStatus, error)
	ResetWeekly(ctx context.Context) error
	ResetMonthly(ctx context.Context) error
	// Wait blocks until background awards finish.
	Wait()
}

type leaderboardService struct {
	repo                leaderboardRepo.LeaderboardRepository
	notificationService notifService.NotificationService
	log                 *logger.Logger
	wg                  sync.WaitGroup
}

func NewLeaderboardService(repo leaderboardRepo.LeaderboardRepository, notificationService notifService.NotificationService, log *logger.Logger) LeaderboardService {
	return &leaderboardService{
		repo:                repo,
		notificationService: notificationService,
		log:                 log.With("service", "LeaderboardService"),
	}
}

// DonationPoints is one point per DonationUnitsPerPoint donated, at least one.
func DonationPoints(amount int64) int {
	return int(max(amount/DonationUnitsPerPoint, 1))
}

func fixedPoints(actionType string) (int, bool) {
	switch actionType {
	case ActionApplicationApproved:
		return PointsApplicationApproved, true
	case ActionAchievementUnlocked:
		return PointsAchievementUnlocked, true
	}
	return 0, false
}

func (s *leaderboardService) AddPointsAsync(userID uuid.UUID, actionType, referenceID, referenceTable string) {
	points, ok := fixedPoints(actionType)
	if !ok {
		s.log.Warn("unknown point action", "action", actionType)
		return
	}
	s.goAward(userID, actionType, referenceID, referenceTable, points)
}

func (s *leaderboardService) AddDonationPointsAsync(userID uuid.UUID, donationID uuid.UUID, amount int64) {
	s.goAward(userID, ActionDonation, donationID.String(), "donations", DonationPoints(amount))
}

func (s *leaderboardService) goAward(userID uuid.UUID, actionType, referenceID, referenceTable string, points int) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.AddPoints(context.Background(), userID, actionType, referenceID, referenceTable, points); err != nil {
			s.log.Error("failed to add hero points", "user_id", userID, "action", actionType, "error", err)
		}
	}()
}

func (s *leaderboardService) Wait() {
	s.wg.Wait()
}

func (s *leaderboardService) AddPoints(ctx context.Context, userID uuid.UUID, actionType, referenceID, referenceTable string, points int) error {
	current, err := s.repo.GetUserStatsByUserID(ctx, userID)
	if err != nil {
		return apperror.Storage("load hero stats", err)
	}
	previousRank := GetHeroStatus(current.TotalScoreAllTime).RankName

	applied, err := s.repo.ApplyPoints(ctx, &entity.PointLog{
		UserID:         userID,
		ActionType:     actionType,
		Points:         points,
		ReferenceID:    referenceID,
		ReferenceTable: referenceTable,
	})
	if err != nil {
		return apperror.Storage("apply hero points", err)
	}
	if !applied {
		s.log.Debug("hero points already awarded", "user_id", userID, "reference", referenceTable+"/"+referenceID)
		return nil
	}

	newScore := current.TotalScoreAllTime + points
	newRank := GetHeroStatus(newScore).RankName
	if newRank != previousRank && s.notificationService != nil {
		s.sendRankUpNotification(ctx, userID, previousRank, newRank, newScore)
	}
	return nil
}

func (s *leaderboardService) sendRankUpNotification(ctx context.Context, userID uuid.UUID, previousRank, newRank string, newScore int) {
	notification := &entity.Notification{
		UserID:     userID,
		EntityType: "hero_board",
		Type:       entity.NotificationRankUp,
		Message:    fmt.Sprintf("🎉 You moved up from %s to %s with %d points!", previousRank, newRank, newScore),
	}

	if err := s.notificationService.CreateNotification(ctx, notification); err != nil {
		s.log.Warn("failed to send rank up notification", "user_id", userID, "error", err)
		return
	}
	s.log.Info("rank up", "user_id", userID, "from", previousRank, "to", newRank)
}

func (s *leaderboardService) GetLeaderboard(ctx context.Context, limit int, timeframe string) ([]leaderboardDto.HeroEntry, error) {
	stats, err := s.repo.GetTopUsers(ctx, limit, timeframe)
	if err != nil {
		return nil, apperror.Storage("load hero board", err)
	}

	entries := make([]leaderboardDto.HeroEntry, 0, len(stats))
	for i, stat := range stats {
		points := stat.TotalScoreAllTime
		switch timeframe {
		case leaderboardRepo.TimeframeWeekly:
			points = stat.TotalScoreWeekly
		case leaderboardRepo.TimeframeMonthly:
			points = stat.TotalScoreMonthly
		}

		entries = append(entries, leaderboardDto.HeroEntry{
			UserID:     stat.UserID.String(),
			Username:   stat.User.Username,
			AvatarURL:  stat.User.AvatarURL,
			Role:       stat.User.Role.Name,
			Position:   i + 1,
			Points:     points,
			HeroStatus: GetHeroStatusWithWeekly(stat.TotalScoreAllTime, stat.TotalScoreWeekly),
		})
	}

	return entries, nil
}

func (s *leaderboardService) GetHeroStatus(ctx context.Context, userID uuid.UUID) (commonDto.HeroStatus, error) {
	stats, err := s.repo.GetUserStatsByUserID(ctx, userID)
	if err != nil {
		return commonDto.HeroStatus{}, apperror.Storage("load hero stats", err)
	}
	return GetHeroStatusWithWeekly(stats.TotalScoreAllTime, stats.TotalScoreWeekly), nil
}

func (s *leaderboardService) ResetWeekly(ctx context.Context) error {
	if err := s.repo.ResetWeekly(ctx); err != nil {
		return apperror.Storage("reset weekly scores", err)
	}
	return nil
}

func (s *leaderboardService) ResetMonthly(ctx context.Context) error {
	if err := s.repo.ResetMonthly(ctx); err != nil {
		return apperror.Storage("reset monthly scores", err)
	}
	return nil
}
