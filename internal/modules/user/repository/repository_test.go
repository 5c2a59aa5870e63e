package repository

import (
	"context"
	"testing"
	"time"

	"anoa.com/kopilka/internal/entity"
	"anoa.com/kopilka/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginDaysAreDistinctNewestFirst(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	user := testutil.CreateUser(t, db, "eve")
	ctx := context.Background()

	today := time.Now().UTC().Truncate(24 * time.Hour).Add(10 * time.Hour)
	for _, ts := range []time.Time{
		today,
		today.Add(-1 * time.Hour),
		today.AddDate(0, 0, -1),
		today.AddDate(0, 0, -3),
	} {
		require.NoError(t, repo.RecordLogin(ctx, &entity.LoginRecord{UserID: user.ID, CreatedAt: ts}))
	}

	days, err := repo.LoginDays(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, days, 2, "reading stops at the missing day")
	assert.True(t, days[0].After(days[1]))

	count, err := repo.CountLogins(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 4, count)
}

func TestLoginDaysFollowLongRuns(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	user := testutil.CreateUser(t, db, "marathon")
	ctx := context.Background()

	const run = 2*loginPageSize + 30
	today := time.Now().UTC().Truncate(24 * time.Hour).Add(8 * time.Hour)
	records := make([]entity.LoginRecord, 0, run+1)
	for i := 0; i < run; i++ {
		records = append(records, entity.LoginRecord{UserID: user.ID, CreatedAt: today.AddDate(0, 0, -i)})
	}
	records = append(records, entity.LoginRecord{UserID: user.ID, CreatedAt: today.AddDate(0, 0, -(run + 5))})
	require.NoError(t, db.CreateInBatches(records, 200).Error)

	days, err := repo.LoginDays(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, days, run)
}
