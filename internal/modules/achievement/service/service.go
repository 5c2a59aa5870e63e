package achievement

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"anoa.com/kopilka/internal/entity"
	"anoa.com/kopilka/internal/modules/achievement/dto"
	"anoa.com/kopilka/internal/modules/achievement/repository"
	"anoa.com/kopilka/pkg/apperror"
	"anoa.com/kopilka/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const ActionAchievementUnlocked = "achievement_unlocked"

// Checker is the entry point activity sources call after a user does something countable.
type Checker interface {
	CheckAndGrantAutomaticAchievements(ctx context.Context, userID uuid.UUID) ([]entity.AchievementDefinition, error)
}

type AchievementService interface {
	Checker
	GetAllAchievements(ctx context.Context) ([]entity.AchievementDefinition, error)
	GetUserAchievements(ctx context.Context, userID uuid.UUID) ([]dto.UserAchievementResponse, error)
	GetUserAchievementProgress(ctx context.Context, userID uuid.UUID) ([]dto.AchievementProgress, error)
	GetUserAchievementStats(ctx context.Context, userID uuid.UUID) (*dto.AchievementStats, error)
	GetUserStats(ctx context.Context, userID uuid.UUID) (UserStats, error)
	RevokeAchievement(ctx context.Context, userID uuid.UUID, slug string) error
	InvalidateCatalog()
}

// Notifier receives one call per new grant.
type Notifier interface {
	NotifyAchievementUnlocked(ctx context.Context, userID uuid.UUID, def entity.AchievementDefinition) error
}

type PointsAwarder interface {
	AddPointsAsync(userID uuid.UUID, actionType, referenceID, referenceTable string)
}

type Option func(*achievementService)

func WithNotifier(n Notifier) Option {
	return func(s *achievementService) { s.notifier = n }
}

func WithPointsAwarder(p PointsAwarder) Option {
	return func(s *achievementService) { s.points = p }
}

type achievementService struct {
	repo     repository.AchievementRepository
	catalog  *catalogCache
	stats    *statsAggregator
	notifier Notifier
	points   PointsAwarder
	log      *logger.Logger
}

func NewAchievementService(repo repository.AchievementRepository, sources Sources, catalogTTL time.Duration, log *logger.Logger, opts ...Option) AchievementService {
	if log == nil {
		log = logger.Nop()
	}
	s := &achievementService{
		repo:    repo,
		catalog: newCatalogCache(repo, catalogTTL),
		stats:   newStatsAggregator(sources),
		log:     log.With("service", "AchievementService"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *achievementService) GetAllAchievements(ctx context.Context) ([]entity.AchievementDefinition, error) {
	defs, err := s.catalog.Get(ctx)
	if err != nil {
		return nil, apperror.Storage("load achievement catalog", err)
	}
	return defs, nil
}

func (s *achievementService) GetUserAchievements(ctx context.Context, userID uuid.UUID) ([]dto.UserAchievementResponse, error) {
	if userID == uuid.Nil {
		return nil, apperror.ErrInvalidInput
	}
	grants, err := s.repo.ListUserAchievements(ctx, userID)
	if err != nil {
		return nil, apperror.Storage("load user achievements", err)
	}

	out := make([]dto.UserAchievementResponse, 0, len(grants))
	for _, g := range grants {
		out = append(out, dto.UserAchievementResponse{
			ID:          g.AchievementID,
			Slug:        g.Achievement.Slug,
			Name:        g.Achievement.Name,
			Description: g.Achievement.Description,
			Icon:        g.Achievement.Icon,
			Kind:        string(g.Achievement.Kind),
			UnlockedAt:  g.UnlockedAt,
		})
	}
	return out, nil
}

func (s *achievementService) GetUserStats(ctx context.Context, userID uuid.UUID) (UserStats, error) {
	if userID == uuid.Nil {
		return UserStats{}, apperror.ErrInvalidInput
	}
	stats, err := s.stats.Load(ctx, userID)
	if err != nil {
		return UserStats{}, apperror.Storage("load user stats", err)
	}
	return stats, nil
}

func (s *achievementService) GetUserAchievementProgress(ctx context.Context, userID uuid.UUID) ([]dto.AchievementProgress, error) {
	if userID == uuid.Nil {
		return nil, apperror.ErrInvalidInput
	}
	eligible, granted, err := s.loadEligibleAndGranted(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats, err := s.GetUserStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	progress := make([]dto.AchievementProgress, 0, len(eligible))
	for _, def := range eligible {
		current := stats.Value(def.Metric, def.MetricScope)
		_, unlocked := granted[def.Slug]
		progress = append(progress, dto.AchievementProgress{
			Slug:        def.Slug,
			Name:        def.Name,
			Description: def.Description,
			Icon:        def.Icon,
			Current:     current,
			Target:      def.Threshold,
			Percent:     ProgressPercent(current, def.Threshold),
			Unlocked:    unlocked,
		})
	}
	return progress, nil
}

func (s *achievementService) GetUserAchievementStats(ctx context.Context, userID uuid.UUID) (*dto.AchievementStats, error) {
	if userID == uuid.Nil {
		return nil, apperror.ErrInvalidInput
	}
	defs, err := s.GetAllAchievements(ctx)
	if err != nil {
		return nil, err
	}
	grants, err := s.repo.ListUserAchievements(ctx, userID)
	if err != nil {
		return nil, apperror.Storage("load user achievements", err)
	}

	stats := &dto.AchievementStats{ByKind: map[string]int{}}
	granted := make(map[uuid.UUID]struct{}, len(grants))
	for _, g := range grants {
		granted[g.AchievementID] = struct{}{}
		stats.TotalUnlocked++
		stats.ByKind[string(g.Achievement.Kind)]++
	}
	for _, def := range defs {
		if !def.AutoGrantable() {
			continue
		}
		stats.TotalAvailable++
		if _, ok := granted[def.ID]; ok {
			stats.UnlockedAvailable++
		}
	}
	return stats, nil
}

func (s *achievementService) CheckAndGrantAutomaticAchievements(ctx context.Context, userID uuid.UUID) ([]entity.AchievementDefinition, error) {
	if userID == uuid.Nil {
		return nil, apperror.ErrInvalidInput
	}
	eligible, granted, err := s.loadEligibleAndGranted(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats, err := s.GetUserStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	newlyGranted := []entity.AchievementDefinition{}
	for _, def := range eligible {
		if _, ok := granted[def.Slug]; ok {
			continue
		}
		if stats.Value(def.Metric, def.MetricScope) < def.Threshold {
			continue
		}

		grant := &entity.UserAchievement{UserID: userID, AchievementID: def.ID}
		created, err := s.repo.Grant(ctx, grant)
		if err != nil {
			s.log.Error("achievement grant failed", "user_id", userID, "slug", def.Slug, "error", err)
			continue
		}
		if !created {
			continue
		}
		newlyGranted = append(newlyGranted, def)
		s.afterGrant(ctx, userID, grant, def)
	}

	if len(newlyGranted) > 0 {
		s.log.Info("achievements granted", "user_id", userID, "count", len(newlyGranted))
	}
	return newlyGranted, nil
}

func (s *achievementService) afterGrant(ctx context.Context, userID uuid.UUID, grant *entity.UserAchievement, def entity.AchievementDefinition) {
	if s.notifier != nil {
		if err := s.notifier.NotifyAchievementUnlocked(ctx, userID, def); err != nil {
			s.log.Warn("achievement notification failed", "user_id", userID, "slug", def.Slug, "error", err)
		}
	}
	if s.points != nil {
		s.points.AddPointsAsync(userID, ActionAchievementUnlocked, grant.ID.String(), "user_achievements")
	}
}

func (s *achievementService) RevokeAchievement(ctx context.Context, userID uuid.UUID, slug string) error {
	if userID == uuid.Nil || slug == "" {
		return apperror.ErrInvalidInput
	}
	def, err := s.repo.FindDefinitionBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("achievement %q: %w", slug, apperror.ErrNotFound)
		}
		return apperror.Storage("find achievement", err)
	}
	n, err := s.repo.Revoke(ctx, userID, def.ID)
	if err != nil {
		return apperror.Storage("revoke achievement", err)
	}
	if n == 0 {
		return fmt.Errorf("user does not hold %q: %w", slug, apperror.ErrNotFound)
	}
	s.log.Info("achievement revoked", "user_id", userID, "slug", slug)
	return nil
}

func (s *achievementService) InvalidateCatalog() {
	s.catalog.Invalidate()
}

// loadEligibleAndGranted returns the auto-grantable catalog subset in catalog order and the
// user's grants keyed by slug.
func (s *achievementService) loadEligibleAndGranted(ctx context.Context, userID uuid.UUID) ([]entity.AchievementDefinition, map[string]struct{}, error) {
	defs, err := s.GetAllAchievements(ctx)
	if err != nil {
		return nil, nil, err
	}
	eligible := make([]entity.AchievementDefinition, 0, len(defs))
	for _, def := range defs {
		if def.AutoGrantable() {
			eligible = append(eligible, def)
		}
	}

	grants, err := s.repo.ListUserAchievements(ctx, userID)
	if err != nil {
		return nil, nil, apperror.Storage("load user achievements", err)
	}
	granted := make(map[string]struct{}, len(grants))
	for _, g := range grants {
		granted[g.Achievement.Slug] = struct{}{}
	}
	return eligible, granted, nil
}

// ProgressPercent is floor(current*100/target) clamped to [0, 100].
// Reaching the target is always 100, including a target of zero.
func ProgressPercent(current, target int64) int {
	switch {
	case current >= target:
		return 100
	case current <= 0:
		return 0
	}
	if current <= math.MaxInt64/100 {
		return int(current * 100 / target)
	}
	return min(int(current/(target/100)), 99)
}
