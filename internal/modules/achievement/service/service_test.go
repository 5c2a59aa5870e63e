package achievement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"anoa.com/kopilka/internal/entity"
	"anoa.com/kopilka/internal/modules/achievement/repository"
	"anoa.com/kopilka/internal/testutil"
	"anoa.com/kopilka/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeCounters struct {
	mu        sync.Mutex
	submitted int64
	friends   int64
	scores    map[string]int64
	contents  []string
	err       error
}

func (f *fakeCounters) CountSubmitted(context.Context, uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitted, f.err
}

func (f *fakeCounters) CountApproved(context.Context, uuid.UUID) (int64, error) { return 0, nil }

func (f *fakeCounters) CountFriends(context.Context, uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.friends, nil
}

func (f *fakeCounters) BestScores(context.Context, uuid.UUID) (map[string]int64, error) {
	return f.scores, nil
}

func (f *fakeCounters) SumLikesReceived(context.Context, uuid.UUID) (int64, error) { return 0, nil }
func (f *fakeCounters) MaxLikesOnStory(context.Context, uuid.UUID) (int64, error)  { return 0, nil }
func (f *fakeCounters) StoryContents(context.Context, uuid.UUID) ([]string, error) {
	return f.contents, nil
}

func (f *fakeCounters) setSubmitted(n int64) {
	f.mu.Lock()
	f.submitted = n
	f.mu.Unlock()
}

func (f *fakeCounters) sources() Sources {
	return Sources{Applications: f, Friends: f, Games: f, Stories: f}
}

type recordingNotifier struct {
	mu    sync.Mutex
	slugs []string
}

func (n *recordingNotifier) NotifyAchievementUnlocked(_ context.Context, _ uuid.UUID, def entity.AchievementDefinition) error {
	n.mu.Lock()
	n.slugs = append(n.slugs, def.Slug)
	n.mu.Unlock()
	return nil
}

func seedDefinitions(t *testing.T, db *gorm.DB) {
	t.Helper()
	defs := []entity.AchievementDefinition{
		{Slug: "first_application", Name: "First Step", Kind: entity.KindNormal, Metric: entity.MetricApplicationsSubmitted, Threshold: 1},
		{Slug: "applications_5", Name: "Persistent", Kind: entity.KindNormal, Metric: entity.MetricApplicationsSubmitted, Threshold: 5},
		{Slug: "first_friend", Name: "Not Alone", Kind: entity.KindNormal, Metric: entity.MetricFriendsCount, Threshold: 1},
		{Slug: "founder", Name: "Founder", Kind: entity.KindExclusive, IsExclusive: true, Metric: entity.MetricApplicationsSubmitted, Threshold: 1},
		{Slug: "secret", Name: "Secret", Kind: entity.KindHidden, IsHidden: true, Metric: entity.MetricApplicationsSubmitted, Threshold: 1},
		{Slug: "winter", Name: "Winter", Kind: entity.KindSeasonal, IsSeasonal: true, Metric: entity.MetricApplicationsSubmitted, Threshold: 1},
		{Slug: "flagged_normal", Name: "Flagged", Kind: entity.KindNormal, IsHidden: true, Metric: entity.MetricApplicationsSubmitted, Threshold: 1},
	}
	for i := range defs {
		defs[i].SortOrder = i + 1
		require.NoError(t, db.Create(&defs[i]).Error)
	}
}

func newTestService(t *testing.T, counters *fakeCounters, opts ...Option) (AchievementService, *gorm.DB, uuid.UUID) {
	t.Helper()
	db := testutil.NewDB(t)
	seedDefinitions(t, db)
	user := testutil.CreateUser(t, db, "alice")
	svc := NewAchievementService(repository.NewAchievementRepository(db), counters.sources(), 0, testutil.Logger(t), opts...)
	return svc, db, user.ID
}

func slugs(defs []entity.AchievementDefinition) []string {
	out := make([]string, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.Slug)
	}
	return out
}

func countGrants(t *testing.T, db *gorm.DB, userID uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&entity.UserAchievement{}).Where("user_id = ?", userID).Count(&n).Error)
	return n
}

func TestCheckAndGrantFirstApplication(t *testing.T) {
	counters := &fakeCounters{submitted: 1}
	notifier := &recordingNotifier{}
	svc, db, userID := newTestService(t, counters, WithNotifier(notifier))
	ctx := context.Background()

	granted, err := svc.CheckAndGrantAutomaticAchievements(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{"first_application"}, slugs(granted))
	assert.Equal(t, []string{"first_application"}, notifier.slugs)

	granted, err = svc.CheckAndGrantAutomaticAchievements(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, granted)
	assert.EqualValues(t, 1, countGrants(t, db, userID))

	progress, err := svc.GetUserAchievementProgress(ctx, userID)
	require.NoError(t, err)
	require.NotEmpty(t, progress)
	first := progress[0]
	assert.Equal(t, "first_application", first.Slug)
	assert.EqualValues(t, 1, first.Current)
	assert.EqualValues(t, 1, first.Target)
	assert.Equal(t, 100, first.Percent)
	assert.True(t, first.Unlocked)
}

func TestFirstFriendWithNoFriends(t *testing.T) {
	svc, _, userID := newTestService(t, &fakeCounters{})
	ctx := context.Background()

	progress, err := svc.GetUserAchievementProgress(ctx, userID)
	require.NoError(t, err)

	var found bool
	for _, p := range progress {
		if p.Slug == "first_friend" {
			found = true
			assert.Equal(t, 0, p.Percent)
			assert.False(t, p.Unlocked)
		}
	}
	require.True(t, found)

	granted, err := svc.CheckAndGrantAutomaticAchievements(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, granted)
}

func TestProgressExcludesSpecialKinds(t *testing.T) {
	svc, _, userID := newTestService(t, &fakeCounters{submitted: 3})

	progress, err := svc.GetUserAchievementProgress(context.Background(), userID)
	require.NoError(t, err)

	got := make([]string, 0, len(progress))
	for _, p := range progress {
		got = append(got, p.Slug)
	}
	assert.Equal(t, []string{"first_application", "applications_5", "first_friend"}, got)

	for _, p := range progress {
		if p.Slug == "applications_5" {
			assert.Equal(t, 60, p.Percent)
			assert.False(t, p.Unlocked)
		}
	}
}

func TestCheckAndGrantNeverTouchesSpecialKinds(t *testing.T) {
	svc, db, userID := newTestService(t, &fakeCounters{submitted: 10})

	granted, err := svc.CheckAndGrantAutomaticAchievements(context.Background(), userID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"first_application", "applications_5"}, slugs(granted))
	assert.EqualValues(t, 2, countGrants(t, db, userID))
}

func TestGrantsAreMonotonic(t *testing.T) {
	counters := &fakeCounters{submitted: 1}
	svc, db, userID := newTestService(t, counters)
	ctx := context.Background()

	_, err := svc.CheckAndGrantAutomaticAchievements(ctx, userID)
	require.NoError(t, err)

	counters.setSubmitted(0)
	granted, err := svc.CheckAndGrantAutomaticAchievements(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, granted)
	assert.EqualValues(t, 1, countGrants(t, db, userID))

	progress, err := svc.GetUserAchievementProgress(ctx, userID)
	require.NoError(t, err)
	assert.True(t, progress[0].Unlocked)
	assert.EqualValues(t, 0, progress[0].Current)
}

func TestConcurrentChecksGrantOnce(t *testing.T) {
	svc, db, userID := newTestService(t, &fakeCounters{submitted: 5, friends: 1})
	ctx := context.Background()

	const callers = 8
	results := make([][]entity.AchievementDefinition, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = svc.CheckAndGrantAutomaticAchievements(ctx, userID)
		}(i)
	}
	close(start)
	wg.Wait()

	total := map[string]int{}
	for i := range results {
		require.NoError(t, errs[i])
		for _, d := range results[i] {
			total[d.Slug]++
		}
	}
	assert.Equal(t, map[string]int{"first_application": 1, "applications_5": 1, "first_friend": 1}, total)
	assert.EqualValues(t, 3, countGrants(t, db, userID))
}

func TestRevokeThenCheckGrantsAgain(t *testing.T) {
	svc, db, userID := newTestService(t, &fakeCounters{submitted: 1})
	ctx := context.Background()

	_, err := svc.CheckAndGrantAutomaticAchievements(ctx, userID)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeAchievement(ctx, userID, "first_application"))
	assert.EqualValues(t, 0, countGrants(t, db, userID))

	err = svc.RevokeAchievement(ctx, userID, "first_application")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	err = svc.RevokeAchievement(ctx, userID, "no_such_slug")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	progress, err := svc.GetUserAchievementProgress(ctx, userID)
	require.NoError(t, err)
	assert.False(t, progress[0].Unlocked)

	granted, err := svc.CheckAndGrantAutomaticAchievements(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{"first_application"}, slugs(granted))
}

func TestStatsFailureGrantsNothing(t *testing.T) {
	counters := &fakeCounters{submitted: 5, err: errors.New("connection reset")}
	svc, db, userID := newTestService(t, counters)

	granted, err := svc.CheckAndGrantAutomaticAchievements(context.Background(), userID)
	require.ErrorIs(t, err, apperror.ErrStorage)
	assert.Nil(t, granted)
	assert.EqualValues(t, 0, countGrants(t, db, userID))
}

type flakyGrantRepo struct {
	repository.AchievementRepository
	failSlugID uuid.UUID
	failErr    error
}

func (r *flakyGrantRepo) Grant(ctx context.Context, grant *entity.UserAchievement) (bool, error) {
	if grant.AchievementID == r.failSlugID {
		return false, r.failErr
	}
	return r.AchievementRepository.Grant(ctx, grant)
}

func TestGrantErrorSkipsOnlyThatDefinition(t *testing.T) {
	db := testutil.NewDB(t)
	seedDefinitions(t, db)
	user := testutil.CreateUser(t, db, "bob")

	var broken entity.AchievementDefinition
	require.NoError(t, db.Where("slug = ?", "first_application").First(&broken).Error)

	repo := &flakyGrantRepo{
		AchievementRepository: repository.NewAchievementRepository(db),
		failSlugID:            broken.ID,
		failErr:               gorm.ErrForeignKeyViolated,
	}
	counters := &fakeCounters{submitted: 5, friends: 2}
	svc := NewAchievementService(repo, counters.sources(), 0, testutil.Logger(t))

	granted, err := svc.CheckAndGrantAutomaticAchievements(context.Background(), user.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"applications_5", "first_friend"}, slugs(granted))
}

type lostRaceRepo struct {
	repository.AchievementRepository
}

func (r *lostRaceRepo) Grant(context.Context, *entity.UserAchievement) (bool, error) {
	return false, nil
}

func TestLostRaceIsNotReported(t *testing.T) {
	db := testutil.NewDB(t)
	seedDefinitions(t, db)
	user := testutil.CreateUser(t, db, "carol")

	notifier := &recordingNotifier{}
	repo := &lostRaceRepo{AchievementRepository: repository.NewAchievementRepository(db)}
	svc := NewAchievementService(repo, (&fakeCounters{submitted: 1}).sources(), 0, testutil.Logger(t), WithNotifier(notifier))

	granted, err := svc.CheckAndGrantAutomaticAchievements(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, granted)
	assert.Empty(t, notifier.slugs)
}

func TestUserAchievementsAndStats(t *testing.T) {
	svc, db, userID := newTestService(t, &fakeCounters{submitted: 1})
	ctx := context.Background()

	list, err := svc.GetUserAchievements(ctx, userID)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	list, err = svc.GetUserAchievements(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.CheckAndGrantAutomaticAchievements(ctx, userID)
	require.NoError(t, err)

	var founder entity.AchievementDefinition
	require.NoError(t, db.Where("slug = ?", "founder").First(&founder).Error)
	require.NoError(t, db.Create(&entity.UserAchievement{UserID: userID, AchievementID: founder.ID}).Error)

	list, err = svc.GetUserAchievements(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first_application", list[0].Slug)

	stats, err := svc.GetUserAchievementStats(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalUnlocked)
	assert.Equal(t, 3, stats.TotalAvailable)
	assert.Equal(t, 1, stats.UnlockedAvailable)
	assert.Equal(t, map[string]int{"NORMAL": 1, "EXCLUSIVE": 1}, stats.ByKind)
}

func TestEmptyUserIDIsInvalid(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeCounters{})
	ctx := context.Background()

	_, err := svc.GetUserAchievements(ctx, uuid.Nil)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	_, err = svc.GetUserAchievementProgress(ctx, uuid.Nil)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	_, err = svc.CheckAndGrantAutomaticAchievements(ctx, uuid.Nil)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestUnknownUserHasZeroProgress(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeCounters{})

	progress, err := svc.GetUserAchievementProgress(context.Background(), uuid.New())
	require.NoError(t, err)
	for _, p := range progress {
		assert.Equal(t, 0, p.Percent)
		assert.False(t, p.Unlocked)
	}
}

func TestProgressPercent(t *testing.T) {
	cases := []struct {
		current, target int64
		want            int
	}{
		{0, 1, 0},
		{-4, 10, 0},
		{1, 1, 100},
		{3, 5, 60},
		{2, 3, 66},
		{999, 1000, 99},
		{50, 10, 100},
		{5, 0, 100},
		{0, 0, 100},
		{-1, 0, 0},
		{1 << 62, 1 << 62, 100},
		{(1 << 62) - 1, 1 << 62, 99},
	}
	for _, tc := range cases {
		got := ProgressPercent(tc.current, tc.target)
		assert.Equal(t, tc.want, got, "current=%d target=%d", tc.current, tc.target)
		assert.GreaterOrEqual(t, got, 0)
		assert.LessOrEqual(t, got, 100)
	}
}

func TestZeroThresholdIsCompleteProgress(t *testing.T) {
	counters := &fakeCounters{}
	svc, db, userID := newTestService(t, counters)
	ctx := context.Background()
	require.NoError(t, db.Create(&entity.AchievementDefinition{
		Slug: "welcome", Name: "Welcome", Kind: entity.KindNormal,
		Metric: entity.MetricFriendsCount, Threshold: 0, SortOrder: 100,
	}).Error)

	granted, err := svc.CheckAndGrantAutomaticAchievements(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{"welcome"}, slugs(granted))

	progress, err := svc.GetUserAchievementProgress(ctx, userID)
	require.NoError(t, err)
	for _, p := range progress {
		if p.Current >= p.Target {
			assert.Equal(t, 100, p.Percent, p.Slug)
		}
		if p.Slug == "welcome" {
			assert.True(t, p.Unlocked)
			assert.Equal(t, 100, p.Percent)
		}
	}
}

type countingRepo struct {
	repository.AchievementRepository
	mu    sync.Mutex
	calls int
}

func (r *countingRepo) ListDefinitions(ctx context.Context) ([]entity.AchievementDefinition, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	return r.AchievementRepository.ListDefinitions(ctx)
}

func TestCatalogCache(t *testing.T) {
	db := testutil.NewDB(t)
	seedDefinitions(t, db)
	repo := &countingRepo{AchievementRepository: repository.NewAchievementRepository(db)}

	cache := newCatalogCache(repo, time.Minute)
	now := time.Now()
	cache.now = func() time.Time { return now }
	ctx := context.Background()

	defs, err := cache.Get(ctx)
	require.NoError(t, err)
	require.Len(t, defs, 7)
	_, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)

	now = now.Add(2 * time.Minute)
	_, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)

	cache.Invalidate()
	_, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, repo.calls)
}

type ctxAwareRepo struct {
	repository.AchievementRepository
}

func (r ctxAwareRepo) ListDefinitions(ctx context.Context) ([]entity.AchievementDefinition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.AchievementRepository.ListDefinitions(ctx)
}

func TestCatalogRefreshIgnoresCallerCancellation(t *testing.T) {
	db := testutil.NewDB(t)
	seedDefinitions(t, db)
	cache := newCatalogCache(ctxAwareRepo{repository.NewAchievementRepository(db)}, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	defs, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, defs, 7)
}

func TestCatalogOrder(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeCounters{})

	defs, err := svc.GetAllAchievements(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"first_application", "applications_5", "first_friend", "founder", "secret", "winter", "flagged_normal"}, slugs(defs))
}
