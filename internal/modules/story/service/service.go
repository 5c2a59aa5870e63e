package story

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"anoa.com/kopilka/internal/entity"
	achievement "anoa.com/kopilka/internal/modules/achievement/service"
	"anoa.com/kopilka/internal/modules/story/dto"
	"anoa.com/kopilka/internal/modules/story/repository"
	"anoa.com/kopilka/pkg/apperror"
	commonDto "anoa.com/kopilka/pkg/dto"
	"anoa.com/kopilka/pkg/logger"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type StoryService interface {
	Create(ctx context.Context, userID uuid.UUID, req dto.StoryRequest) (*dto.StoryResult, error)
	Update(ctx context.Context, userID, id uuid.UUID, req dto.StoryRequest) (*dto.StoryResult, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	// GetByID counts a view for viewerID.
	GetByID(ctx context.Context, viewerID, id uuid.UUID) (*dto.StoryResponse, error)
	List(ctx context.Context, viewerID uuid.UUID, q dto.StoryListQuery) ([]dto.StoryResponse, commonDto.PaginationMeta, error)
	ToggleLike(ctx context.Context, userID, id uuid.UUID) (*dto.LikeResponse, error)
	IncrementView(ctx context.Context, storyID, userID uuid.UUID) error
	SyncViews(ctx context.Context) (int, error)
	StartViewSyncWorker(ctx context.Context, interval time.Duration)
}

type NotificationCreator interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
}

type storyService struct {
	repo          repository.StoryRepository
	redis         *redis.Client
	checker       achievement.Checker
	notifications NotificationCreator
	sanitizer     *bluemonday.Policy
	log           *logger.Logger
}

// NewStoryService accepts a nil redis client; counters then go straight to the database.
func NewStoryService(repo repository.StoryRepository, redisClient *redis.Client, checker achievement.Checker, notifications NotificationCreator, log *logger.Logger) StoryService {
	return &storyService{
		repo:          repo,
		redis:         redisClient,
		checker:       checker,
		notifications: notifications,
		sanitizer:     bluemonday.UGCPolicy(),
		log:           log.With("service", "StoryService"),
	}
}

func (s *storyService) build(userID uuid.UUID, req dto.StoryRequest) (*entity.Story, error) {
	story := &entity.Story{
		UserID:  userID,
		Title:   strings.TrimSpace(req.Title),
		Content: s.sanitizer.Sanitize(req.Content),
	}
	if strings.TrimSpace(story.Content) == "" {
		return nil, fmt.Errorf("content: %w", apperror.ErrInvalidInput)
	}
	if req.ApplicationID != "" {
		appID, err := uuid.Parse(req.ApplicationID)
		if err != nil {
			return nil, fmt.Errorf("application_id: %w", apperror.ErrInvalidInput)
		}
		story.ApplicationID = &appID
	}
	return story, nil
}

func (s *storyService) Create(ctx context.Context, userID uuid.UUID, req dto.StoryRequest) (*dto.StoryResult, error) {
	story, err := s.build(userID, req)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, story); err != nil {
		return nil, apperror.Storage("create story", err)
	}
	s.log.Info("story created", "story_id", story.ID, "user_id", userID)

	return s.result(ctx, story.ID, userID)
}

func (s *storyService) Update(ctx context.Context, userID, id uuid.UUID, req dto.StoryRequest) (*dto.StoryResult, error) {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return nil, err
	}

	story, err := s.build(userID, req)
	if err != nil {
		return nil, err
	}
	story.ID = id

	if err := s.repo.Update(ctx, story); err != nil {
		return nil, apperror.Storage("update story", err)
	}

	return s.result(ctx, id, userID)
}

// result reloads the story and runs the engine for its author.
func (s *storyService) result(ctx context.Context, id, userID uuid.UUID) (*dto.StoryResult, error) {
	unlocked := s.checkAchievements(ctx, userID)

	story, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Storage("load story", err)
	}
	return &dto.StoryResult{Story: toResponse(story, story.LikesCount, false), Unlocked: unlocked}, nil
}

func (s *storyService) checkAchievements(ctx context.Context, userID uuid.UUID) []entity.AchievementDefinition {
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

func (s *storyService) find(ctx context.Context, id uuid.UUID) (*entity.Story, error) {
	story, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("story: %w", apperror.ErrNotFound)
		}
		return nil, apperror.Storage("find story", err)
	}
	return story, nil
}

func (s *storyService) owned(ctx context.Context, userID, id uuid.UUID) (*entity.Story, error) {
	story, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if story.UserID != userID {
		return nil, fmt.Errorf("story belongs to another user: %w", apperror.ErrForbidden)
	}
	return story, nil
}

func (s *storyService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperror.Storage("delete story", err)
	}
	if s.redis != nil {
		s.redis.HDel(ctx, likeCountsKey, id.String())
	}
	return nil
}

func (s *storyService) GetByID(ctx context.Context, viewerID, id uuid.UUID) (*dto.StoryResponse, error) {
	story, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.IncrementView(ctx, id, viewerID); err != nil {
		s.log.Warn("failed to count story view", "story_id", id, "error", err)
	}

	responses, err := s.decorate(ctx, viewerID, []entity.Story{*story})
	if err != nil {
		return nil, err
	}
	return &responses[0], nil
}

func (s *storyService) List(ctx context.Context, viewerID uuid.UUID, q dto.StoryListQuery) ([]dto.StoryResponse, commonDto.PaginationMeta, error) {
	var authorID *uuid.UUID
	if q.UserID != "" {
		id := uuid.MustParse(q.UserID)
		authorID = &id
	}

	stories, total, err := s.repo.FindAll(ctx, authorID, q.Limit, q.Offset())
	if err != nil {
		return nil, commonDto.PaginationMeta{}, apperror.Storage("list stories", err)
	}

	responses, err := s.decorate(ctx, viewerID, stories)
	if err != nil {
		return nil, commonDto.PaginationMeta{}, err
	}
	return responses, commonDto.NewPaginationMeta(q.PageQuery, total), nil
}

// decorate fills like counts from the redis cache, falling back to the stored counts, and the viewer's likes.
func (s *storyService) decorate(ctx context.Context, viewerID uuid.UUID, stories []entity.Story) ([]dto.StoryResponse, error) {
	ids := make([]uuid.UUID, len(stories))
	for i, st := range stories {
		ids[i] = st.ID
	}

	cached := s.cachedLikes(ctx, ids)
	missing := make(map[uuid.UUID]int64)
	for _, st := range stories {
		if _, ok := cached[st.ID]; !ok {
			missing[st.ID] = st.LikesCount
		}
	}
	s.cacheLikes(ctx, missing)

	liked, err := s.repo.LikedBy(ctx, viewerID, ids)
	if err != nil {
		return nil, apperror.Storage("load story likes", err)
	}

	out := make([]dto.StoryResponse, 0, len(stories))
	for i := range stories {
		st := &stories[i]
		likes, ok := cached[st.ID]
		if !ok {
			likes = st.LikesCount
		}
		out = append(out, toResponse(st, likes, liked[st.ID]))
	}
	return out, nil
}

func (s *storyService) ToggleLike(ctx context.Context, userID, id uuid.UUID) (*dto.LikeResponse, error) {
	story, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if story.UserID == userID {
		return nil, fmt.Errorf("cannot like your own story: %w", apperror.ErrInvalidInput)
	}

	liked, likes, err := s.repo.ToggleLike(ctx, userID, id)
	if err != nil {
		return nil, apperror.Storage("toggle story like", err)
	}
	s.cacheLikes(ctx, map[uuid.UUID]int64{id: likes})

	if liked {
		s.notifyAuthor(ctx, story, userID)
		s.checkAchievements(ctx, story.UserID)
	}

	return &dto.LikeResponse{Liked: liked, LikesCount: likes}, nil
}

func (s *storyService) notifyAuthor(ctx context.Context, story *entity.Story, actorID uuid.UUID) {
	if s.notifications == nil {
		return
	}

	title := story.Title
	if len([]rune(title)) > 40 {
		title = string([]rune(title)[:40]) + "..."
	}
	storyID := story.ID
	if err := s.notifications.CreateNotification(ctx, &entity.Notification{
		UserID:     story.UserID,
		ActorID:    &actorID,
		EntityID:   &storyID,
		EntityType: "story",
		Type:       entity.NotificationStoryLiked,
		Message:    fmt.Sprintf("Someone liked your story: %s", title),
	}); err != nil {
		s.log.Warn("failed to notify story author", "story_id", story.ID, "error", err)
	}
}

func toResponse(st *entity.Story, likes int64, likedByMe bool) dto.StoryResponse {
	resp := dto.StoryResponse{
		ID:      st.ID.String(),
		Title:   st.Title,
		Content: st.Content,
		Author: commonDto.AuthorResponse{
			ID:        st.User.ID.String(),
			Username:  st.User.Username,
			AvatarURL: st.User.AvatarURL,
		},
		LikesCount: likes,
		LikedByMe:  likedByMe,
		Views:      st.Views,
		CreatedAt:  st.CreatedAt,
		UpdatedAt:  st.UpdatedAt,
	}
	if st.ApplicationID != nil {
		id := st.ApplicationID.String()
		resp.ApplicationID = &id
	}
	return resp
}
