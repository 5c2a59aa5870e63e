package scheduler

import (
	"context"
	"errors"
	"testing"

	"anoa.com/kopilka/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDeps struct {
	invalidated int
	weekly      int
	monthly     int
	cleanupErr  error
}

func (f *fakeDeps) InvalidateCatalog()                 { f.invalidated++ }
func (f *fakeDeps) ResetWeekly(context.Context) error  { f.weekly++; return nil }
func (f *fakeDeps) ResetMonthly(context.Context) error { f.monthly++; return nil }
func (f *fakeDeps) CleanupOrphanAttachments(context.Context) (int, error) {
	return 3, f.cleanupErr
}

func TestRegisterDefaults(t *testing.T) {
	s := NewScheduler(logger.Nop())
	deps := &fakeDeps{}
	require.NoError(t, s.RegisterDefaults(Deps{Catalog: deps, Scores: deps, Attachments: deps}))
	assert.ElementsMatch(t, []string{JobCatalogRefresh, JobWeeklyReset, JobMonthlyReset, JobOrphanCleanup}, s.Jobs())

	ctx := context.Background()
	require.NoError(t, s.RunByName(ctx, JobCatalogRefresh))
	require.NoError(t, s.RunByName(ctx, JobWeeklyReset))
	require.NoError(t, s.RunByName(ctx, JobMonthlyReset))
	require.NoError(t, s.RunByName(ctx, JobOrphanCleanup))
	assert.Equal(t, 1, deps.invalidated)
	assert.Equal(t, 1, deps.weekly)
	assert.Equal(t, 1, deps.monthly)

	deps.cleanupErr = errors.New("storage down")
	assert.ErrorContains(t, s.RunByName(ctx, JobOrphanCleanup), "storage down")
	assert.Error(t, s.RunByName(ctx, "unknown"))
}

func TestRegisterRejectsBadSpec(t *testing.T) {
	s := NewScheduler(logger.Nop())
	err := s.Register(NewJob("broken", "not a cron", func(context.Context) error { return nil }))
	assert.Error(t, err)
	assert.Empty(t, s.Jobs())
}

func TestSkipsNilDeps(t *testing.T) {
	s := NewScheduler(logger.Nop())
	require.NoError(t, s.RegisterDefaults(Deps{}))
	assert.Empty(t, s.Jobs())
}
