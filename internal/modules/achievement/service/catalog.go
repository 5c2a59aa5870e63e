package achievement

import (
	"context"
	"slices"
	"sync"
	"time"

	"anoa.com/kopilka/internal/entity"
	"anoa.com/kopilka/internal/modules/achievement/repository"
	"golang.org/x/sync/singleflight"
)

// catalogCache keeps the definition list in memory for ttl. A ttl of zero disables caching.
// Stale reads are acceptable: a new definition is picked up on the next refresh.
type catalogCache struct {
	repo  repository.AchievementRepository
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu       sync.RWMutex
	defs     []entity.AchievementDefinition
	loadedAt time.Time
}

func newCatalogCache(repo repository.AchievementRepository, ttl time.Duration) *catalogCache {
	return &catalogCache{repo: repo, ttl: ttl, now: time.Now}
}

func (c *catalogCache) Get(ctx context.Context) ([]entity.AchievementDefinition, error) {
	if c.ttl <= 0 {
		return c.repo.ListDefinitions(ctx)
	}

	c.mu.RLock()
	if c.defs != nil && c.now().Sub(c.loadedAt) < c.ttl {
		defs := slices.Clone(c.defs)
		c.mu.RUnlock()
		return defs, nil
	}
	c.mu.RUnlock()

	// The refresh is shared by every waiter, so one caller's cancellation must not fail the rest.
	refreshCtx := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do("catalog", func() (interface{}, error) {
		defs, err := c.repo.ListDefinitions(refreshCtx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.defs = defs
		c.loadedAt = c.now()
		c.mu.Unlock()
		return defs, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]entity.AchievementDefinition)), nil
}

func (c *catalogCache) Invalidate() {
	c.mu.Lock()
	c.defs = nil
	c.mu.Unlock()
}
