package profile

import (
	"context"
	"errors"
	"testing"

	achievementDto "anoa.com/kopilka/internal/modules/achievement/dto"
	profileDto "anoa.com/kopilka/internal/modules/profile/dto"
	userRepo "anoa.com/kopilka/internal/modules/user/repository"
	"anoa.com/kopilka/internal/testutil"
	"anoa.com/kopilka/pkg/apperror"
	commonDto "anoa.com/kopilka/pkg/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type stubHeroes struct {
	status commonDto.HeroStatus
	err    error
}

func (s stubHeroes) GetHeroStatus(context.Context, uuid.UUID) (commonDto.HeroStatus, error) {
	return s.status, s.err
}

type stubAchievements struct{}

func (stubAchievements) GetUserAchievementStats(context.Context, uuid.UUID) (*achievementDto.AchievementStats, error) {
	return &achievementDto.AchievementStats{TotalUnlocked: 2, TotalAvailable: 10}, nil
}

func ptr(s string) *string { return &s }

func TestCurrentProfile(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "rina")
	svc := NewProfileService(userRepo.NewUserRepository(db), nil, "kopilka",
		stubHeroes{status: commonDto.HeroStatus{RankName: "Helper", CurrentPoints: 150}}, stubAchievements{}, testutil.Logger(t))

	res, err := svc.GetCurrentProfile(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "rina", res.User.Username)
	assert.Equal(t, "Helper", res.HeroStatus.RankName)
	assert.Equal(t, 2, res.Achievements.TotalUnlocked)

	_, err = svc.GetCurrentProfile(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestHeroStatusFallback(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "budi")
	svc := NewProfileService(userRepo.NewUserRepository(db), nil, "kopilka",
		stubHeroes{err: errors.New("redis down")}, nil, testutil.Logger(t))

	res, err := svc.GetProfileByUsername(context.Background(), "budi")
	require.NoError(t, err)
	assert.Equal(t, "Newcomer", res.HeroStatus.RankName)
	assert.Nil(t, res.Achievements)

	_, err = svc.GetProfileByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "sari")
	testutil.CreateUser(t, db, "taken")
	repo := userRepo.NewUserRepository(db)
	svc := NewProfileService(repo, nil, "kopilka", nil, nil, testutil.Logger(t))
	ctx := context.Background()

	res, err := svc.UpdateProfile(ctx, user.ID, profileDto.UpdateProfileInput{
		Username: ptr("sari wulan"),
		Password: ptr("new-password"),
		City:     ptr("  Bandung "),
		Bio:      ptr("   "),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "sari_wulan", res.User.Username)
	require.NotNil(t, res.User.Profile)
	assert.Equal(t, "Bandung", *res.User.Profile.City)
	assert.Nil(t, res.User.Profile.Bio)

	stored, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("new-password")))

	_, err = svc.UpdateProfile(ctx, user.ID, profileDto.UpdateProfileInput{Username: ptr("taken")}, nil)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}
