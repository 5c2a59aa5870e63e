package story

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	likeCountsKey   = "counts:story_likes"
	pendingViewsKey = "pending:story_views"
	likeCountsTTL   = 7 * 24 * time.Hour
	viewDedupWindow = time.Hour
)

func viewKey(storyID uuid.UUID) string {
	return fmt.Sprintf("story:views:%s", storyID)
}

func userViewKey(storyID, userID uuid.UUID) string {
	return fmt.Sprintf("story:user_view:%s:%s", storyID, userID)
}

// cachedLikes reads like counts from the redis hash. Missing entries are absent from the result.
func (s *storyService) cachedLikes(ctx context.Context, ids []uuid.UUID) map[uuid.UUID]int64 {
	out := make(map[uuid.UUID]int64, len(ids))
	if s.redis == nil || len(ids) == 0 {
		return out
	}

	fields := make([]string, len(ids))
	for i, id := range ids {
		fields[i] = id.String()
	}
	vals, err := s.redis.HMGet(ctx, likeCountsKey, fields...).Result()
	if err != nil {
		s.log.Warn("redis like counts read failed", "error", err)
		return out
	}

	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		if n, err := strconv.ParseInt(str, 10, 64); err == nil {
			out[ids[i]] = n
		}
	}
	return out
}

func (s *storyService) cacheLikes(ctx context.Context, counts map[uuid.UUID]int64) {
	if s.redis == nil || len(counts) == 0 {
		return
	}

	values := make(map[string]interface{}, len(counts))
	for id, n := range counts {
		values[id.String()] = n
	}
	pipe := s.redis.Pipeline()
	pipe.HSet(ctx, likeCountsKey, values)
	pipe.Expire(ctx, likeCountsKey, likeCountsTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn("redis like counts write failed", "error", err)
	}
}

// IncrementView counts one view per user per hour. Without redis views are written straight to the database.
func (s *storyService) IncrementView(ctx context.Context, storyID, userID uuid.UUID) error {
	if s.redis == nil {
		return s.repo.AddViews(ctx, storyID, 1)
	}

	fresh, err := s.redis.SetNX(ctx, userViewKey(storyID, userID), "viewed", viewDedupWindow).Result()
	if err != nil {
		return fmt.Errorf("failed to mark user view: %w", err)
	}
	if !fresh {
		return nil
	}

	pipe := s.redis.TxPipeline()
	pipe.Incr(ctx, viewKey(storyID))
	pipe.SAdd(ctx, pendingViewsKey, storyID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to increment view: %w", err)
	}
	return nil
}

// SyncViews moves buffered view counts from redis into the stories table.
func (s *storyService) SyncViews(ctx context.Context) (int, error) {
	if s.redis == nil {
		return 0, nil
	}

	ids, err := s.redis.SMembers(ctx, pendingViewsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read pending story views: %w", err)
	}

	synced := 0
	for _, raw := range ids {
		storyID, err := uuid.Parse(raw)
		if err != nil {
			s.log.Warn("invalid story id in pending views", "id", raw)
			s.redis.SRem(ctx, pendingViewsKey, raw)
			continue
		}

		// Unmark first: a view landing after GETDEL re-adds the id for the next run.
		s.redis.SRem(ctx, pendingViewsKey, raw)
		count, err := s.redis.GetDel(ctx, viewKey(storyID)).Int()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			s.log.Warn("failed to read story views", "story_id", storyID, "error", err)
			s.redis.SAdd(ctx, pendingViewsKey, raw)
			continue
		}
		if count <= 0 {
			continue
		}

		if err := s.repo.AddViews(ctx, storyID, count); err != nil {
			s.log.Error("failed to persist story views", "story_id", storyID, "views", count, "error", err)
			// Put the views back for the next run.
			s.redis.IncrBy(ctx, viewKey(storyID), int64(count))
			s.redis.SAdd(ctx, pendingViewsKey, raw)
			continue
		}
		synced++
	}

	if synced > 0 {
		s.log.Debug("synced story views", "stories", synced)
	}
	return synced, nil
}

func (s *storyService) StartViewSyncWorker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.SyncViews(ctx); err != nil {
				s.log.Warn("story view sync failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
