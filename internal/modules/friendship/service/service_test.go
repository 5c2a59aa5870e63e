package friendship

import (
	"context"
	"testing"

	"anoa.com/kopilka/internal/entity"
	"anoa.com/kopilka/internal/modules/friendship/repository"
	userRepo "anoa.com/kopilka/internal/modules/user/repository"
	"anoa.com/kopilka/internal/testutil"
	"anoa.com/kopilka/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingChecker struct {
	users []uuid.UUID
}

func (c *recordingChecker) CheckAndGrantAutomaticAchievements(_ context.Context, userID uuid.UUID) ([]entity.AchievementDefinition, error) {
	c.users = append(c.users, userID)
	return []entity.AchievementDefinition{{Slug: "first_friend"}}, nil
}

type recordingNotifier struct {
	types []string
}

func (n *recordingNotifier) CreateNotification(_ context.Context, notification *entity.Notification) error {
	n.types = append(n.types, notification.Type)
	return nil
}

func TestFriendshipLifecycle(t *testing.T) {
	db := testutil.NewDB(t)
	checker := &recordingChecker{}
	notifier := &recordingNotifier{}
	repo := repository.NewFriendshipRepository(db)
	svc := NewFriendshipService(repo, userRepo.NewUserRepository(db), checker, notifier, testutil.Logger(t))
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")

	_, err := svc.SendRequest(ctx, alice.ID, alice.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	_, err = svc.SendRequest(ctx, alice.ID, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	sent, err := svc.SendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.FriendshipPending, sent.Friendship.Status)
	assert.Equal(t, "bob", sent.Friendship.Friend.Username)
	assert.False(t, sent.Friendship.Incoming)

	_, err = svc.SendRequest(ctx, alice.ID, bob.ID)
	assert.ErrorIs(t, err, apperror.ErrConflict)

	incoming, err := svc.ListIncoming(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.True(t, incoming[0].Incoming)

	id := uuid.MustParse(sent.Friendship.ID)
	_, err = svc.Accept(ctx, alice.ID, id)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	accepted, err := svc.Accept(ctx, bob.ID, id)
	require.NoError(t, err)
	assert.Equal(t, entity.FriendshipAccepted, accepted.Friendship.Status)
	assert.NotNil(t, accepted.Friendship.AcceptedAt)
	assert.Len(t, accepted.Unlocked, 1)
	assert.ElementsMatch(t, []uuid.UUID{alice.ID, bob.ID}, checker.users)
	assert.Equal(t, []string{entity.NotificationFriendRequest, entity.NotificationFriendAccepted}, notifier.types)

	_, err = svc.Accept(ctx, bob.ID, id)
	assert.ErrorIs(t, err, apperror.ErrConflict)
	_, err = svc.SendRequest(ctx, bob.ID, alice.ID)
	assert.ErrorIs(t, err, apperror.ErrConflict)

	for _, u := range []uuid.UUID{alice.ID, bob.ID} {
		count, err := repo.CountFriends(ctx, u)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	}

	friends, err := svc.ListFriends(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, "bob", friends[0].Friend.Username)

	carol := testutil.CreateUser(t, db, "carol")
	assert.ErrorIs(t, svc.Remove(ctx, carol.ID, id), apperror.ErrNotFound)
	require.NoError(t, svc.Remove(ctx, bob.ID, id))

	count, err := repo.CountFriends(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCrossedRequestsBecomeFriendship(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewFriendshipService(repository.NewFriendshipRepository(db), userRepo.NewUserRepository(db), nil, nil, testutil.Logger(t))
	ctx := context.Background()

	dan := testutil.CreateUser(t, db, "dan")
	eve := testutil.CreateUser(t, db, "eve")

	_, err := svc.SendRequest(ctx, dan.ID, eve.ID)
	require.NoError(t, err)

	result, err := svc.SendRequest(ctx, eve.ID, dan.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.FriendshipAccepted, result.Friendship.Status)
	assert.Equal(t, "dan", result.Friendship.Friend.Username)
}
