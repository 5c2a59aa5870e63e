package donation

import (
	"context"
	"sync"
	"testing"

	"anoa.com/kopilka/internal/entity"
	"anoa.com/kopilka/internal/modules/donation/dto"
	"anoa.com/kopilka/internal/modules/donation/repository"
	"anoa.com/kopilka/internal/testutil"
	"anoa.com/kopilka/pkg/apperror"
	commonDto "anoa.com/kopilka/pkg/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingPoints struct {
	mu      sync.Mutex
	amounts []int64
}

func (p *recordingPoints) AddDonationPointsAsync(_ uuid.UUID, _ uuid.UUID, amount int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.amounts = append(p.amounts, amount)
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []*entity.Notification
}

func (n *recordingNotifier) CreateNotification(_ context.Context, notification *entity.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
	return nil
}

type countingChecker struct {
	calls int
}

func (c *countingChecker) CheckAndGrantAutomaticAchievements(context.Context, uuid.UUID) ([]entity.AchievementDefinition, error) {
	c.calls++
	return nil, nil
}

func createApplication(t *testing.T, db *gorm.DB, owner uuid.UUID, status entity.ApplicationStatus, target int64) entity.Application {
	t.Helper()
	app := entity.Application{UserID: owner, Title: "School books", Description: "books", TargetAmount: target, Status: status}
	require.NoError(t, db.Create(&app).Error)
	return app
}

func TestDonateUpdatesTotalAndFunds(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, "student")
	donor := testutil.CreateUser(t, db, "patron")
	points := &recordingPoints{}
	notifier := &recordingNotifier{}
	checker := &countingChecker{}
	repo := repository.NewDonationRepository(db)
	svc := NewDonationService(repo, checker, notifier, points, testutil.Logger(t))
	ctx := context.Background()

	app := createApplication(t, db, owner.ID, entity.ApplicationApproved, 10_000)

	first, err := svc.Donate(ctx, donor.ID, app.ID, dto.DonateRequest{Amount: 4_000, Message: " good luck "})
	require.NoError(t, err)
	assert.EqualValues(t, 4_000, first.CollectedAmount)
	assert.Equal(t, entity.ApplicationApproved, first.ApplicationStatus)
	require.NotNil(t, first.Donation.Message)
	assert.Equal(t, "good luck", *first.Donation.Message)
	assert.NotNil(t, first.Unlocked)

	second, err := svc.Donate(ctx, donor.ID, app.ID, dto.DonateRequest{Amount: 6_000, Anonymous: true})
	require.NoError(t, err)
	assert.EqualValues(t, 10_000, second.CollectedAmount)
	assert.Equal(t, entity.ApplicationFunded, second.ApplicationStatus)

	_, err = svc.Donate(ctx, donor.ID, app.ID, dto.DonateRequest{Amount: 1})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	assert.Equal(t, []int64{4_000, 6_000}, points.amounts)
	assert.Equal(t, 2, checker.calls)
	require.Len(t, notifier.sent, 2)
	assert.NotNil(t, notifier.sent[0].ActorID)
	assert.Nil(t, notifier.sent[1].ActorID)
	assert.Contains(t, notifier.sent[1].Message, "fully funded")

	count, err := repo.CountByDonor(ctx, donor.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	sum, err := repo.SumByDonor(ctx, donor.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 10_000, sum)

	list, meta, err := svc.ListForApplication(ctx, app.ID, commonDto.PageQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.EqualValues(t, 2, meta.TotalItems)
	assert.Nil(t, list[0].Donor, "anonymous donation is listed first and hides its donor")
	require.NotNil(t, list[1].Donor)
	assert.Equal(t, "patron", list[1].Donor.Username)
}

func TestDonateRejections(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, "owner")
	donor := testutil.CreateUser(t, db, "giver")
	svc := NewDonationService(repository.NewDonationRepository(db), nil, nil, nil, testutil.Logger(t))
	ctx := context.Background()

	pending := createApplication(t, db, owner.ID, entity.ApplicationPending, 1_000)
	approved := createApplication(t, db, owner.ID, entity.ApplicationApproved, 1_000)

	_, err := svc.Donate(ctx, donor.ID, pending.ID, dto.DonateRequest{Amount: 100})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	_, err = svc.Donate(ctx, donor.ID, uuid.New(), dto.DonateRequest{Amount: 100})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.Donate(ctx, owner.ID, approved.ID, dto.DonateRequest{Amount: 100})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = svc.Donate(ctx, donor.ID, approved.ID, dto.DonateRequest{Amount: 0})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	sum, err := repository.NewDonationRepository(db).SumAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, sum)
}
