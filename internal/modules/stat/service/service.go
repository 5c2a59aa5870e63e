package service

import (
	"context"

	"golang.org/x/sync/errgroup"
)

type UserCounter interface {
	Count(ctx context.Context) (int64, error)
}

type ApplicationCounter interface {
	CountPublic(ctx context.Context) (int64, error)
}

type DonationTotaler interface {
	SumAll(ctx context.Context) (int64, error)
}

type PlatformStats struct {
	TotalUsers        int64 `json:"total_users"`
	TotalApplications int64 `json:"total_applications"`
	TotalDonated      int64 `json:"total_donated"`
}

type StatService interface {
	GetPlatformStats(ctx context.Context) (*PlatformStats, error)
}

type statService struct {
	users        UserCounter
	applications ApplicationCounter
	donations    DonationTotaler
}

func NewStatService(users UserCounter, applications ApplicationCounter, donations DonationTotaler) StatService {
	return &statService{
		users:        users,
		applications: applications,
		donations:    donations,
	}
}

func (s *statService) GetPlatformStats(ctx context.Context) (*PlatformStats, error) {
	var stats PlatformStats
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalUsers, err = s.users.Count(ctx)
		return
	})
	g.Go(func() (err error) {
		stats.TotalApplications, err = s.applications.CountPublic(ctx)
		return
	})
	g.Go(func() (err error) {
		stats.TotalDonated, err = s.donations.SumAll(ctx)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}
