package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constCounter struct {
	n   int64
	err error
}

func (c constCounter) Count(context.Context) (int64, error)       { return c.n, c.err }
func (c constCounter) CountPublic(context.Context) (int64, error) { return c.n, c.err }
func (c constCounter) SumAll(context.Context) (int64, error)      { return c.n, c.err }

func TestGetPlatformStats(t *testing.T) {
	svc := NewStatService(constCounter{n: 12}, constCounter{n: 4}, constCounter{n: 250000})

	stats, err := svc.GetPlatformStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PlatformStats{TotalUsers: 12, TotalApplications: 4, TotalDonated: 250000}, *stats)
}

func TestGetPlatformStatsFailure(t *testing.T) {
	boom := errors.New("db down")
	svc := NewStatService(constCounter{n: 1}, constCounter{err: boom}, constCounter{})

	_, err := svc.GetPlatformStats(context.Background())
	assert.ErrorIs(t, err, boom)
}
